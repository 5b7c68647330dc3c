package execution

import (
	"context"
	"time"
)

// Payload describes the concrete action behind an approved proposal and
// its chain target.
type Payload struct {
	ExecutorAgentID string         `json:"executorAgentId,omitempty"`
	Action          string         `json:"action"`
	Params          map[string]any `json:"params,omitempty"`
	ChainID         string         `json:"chainId"`
	Deadline        time.Time      `json:"deadline,omitempty"`
}

// PayloadFetcher resolves the execution payload for a proposal.
type PayloadFetcher interface {
	FetchPayload(ctx context.Context, proposalID, chainID string) (*Payload, error)
}

// Credential is a signing credential held by custody.
type Credential struct {
	WalletAddress string
	PrivateKeyHex string
}

// CredentialCustody resolves an agent's signing credential. A nil
// credential with a nil error means the agent has none.
type CredentialCustody interface {
	SigningCredential(ctx context.Context, agentID string) (*Credential, error)
}

// BalanceReader reads a wallet's balance from the chain.
type BalanceReader interface {
	Balance(ctx context.Context, walletAddress string) (float64, error)
}

// ExecRequest is handed to the transaction executor.
type ExecRequest struct {
	Action     string
	Params     map[string]any
	Credential *Credential
	ChainID    string
}

// ExecResult is the transaction executor's verdict.
type ExecResult struct {
	Success bool
	TxHash  string
	Error   string
}

// TransactionExecutor submits the signed action to the external system.
type TransactionExecutor interface {
	Execute(ctx context.Context, req ExecRequest) (*ExecResult, error)
}

// MessagePoster posts human-readable execution updates into the forum so
// observers can react without polling internal state.
type MessagePoster interface {
	PostSystemMessage(ctx context.Context, forumID, content string, metadata map[string]any) error
}
