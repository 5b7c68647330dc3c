package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/execution"
)

// LedgerTx records one executed action on the local ledger.
type LedgerTx struct {
	Hash      string         `json:"hash"`
	Wallet    string         `json:"wallet"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params,omitempty"`
	Fee       float64        `json:"fee"`
	Timestamp int64          `json:"timestamp"`
}

// Ledger is an in-process chain used for local, self-contained nodes: it
// tracks wallet balances and executes actions against them. It satisfies
// both BalanceReader and TransactionExecutor.
type Ledger struct {
	chainID string
	baseFee float64
	mu      sync.RWMutex
	// wallet address -> balance
	balances map[string]float64
	txs      []LedgerTx
	logger   *zap.Logger
}

func NewLedger(chainID string, baseFee float64, logger *zap.Logger) *Ledger {
	return &Ledger{
		chainID:  chainID,
		baseFee:  baseFee,
		balances: make(map[string]float64),
		logger:   logger.Named("ledger"),
	}
}

// Balance returns the wallet's current balance.
func (l *Ledger) Balance(ctx context.Context, walletAddress string) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[walletAddress], nil
}

// Deposit adds funds to a wallet and returns the new balance.
func (l *Ledger) Deposit(walletAddress string, amount float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[walletAddress] += amount
	l.logger.Info("deposit",
		zap.String("wallet", walletAddress),
		zap.Float64("amount", amount),
		zap.Float64("balance", l.balances[walletAddress]))
	return l.balances[walletAddress]
}

// Execute carries out an action against the ledger, deducting the base
// fee from the executor's wallet.
func (l *Ledger) Execute(ctx context.Context, req execution.ExecRequest) (*execution.ExecResult, error) {
	if req.Credential == nil {
		return nil, fmt.Errorf("execution request without credential")
	}
	if req.ChainID != "" && req.ChainID != l.chainID {
		return &execution.ExecResult{
			Success: false,
			Error:   fmt.Sprintf("wrong chain: request targets %s, ledger is %s", req.ChainID, l.chainID),
		}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	wallet := req.Credential.WalletAddress
	if l.balances[wallet] < l.baseFee {
		return &execution.ExecResult{
			Success: false,
			Error:   fmt.Sprintf("insufficient balance on wallet %s for fee %.4f", wallet, l.baseFee),
		}, nil
	}
	l.balances[wallet] -= l.baseFee

	tx := LedgerTx{
		Hash:      uuid.New().String(),
		Wallet:    wallet,
		Action:    req.Action,
		Params:    req.Params,
		Fee:       l.baseFee,
		Timestamp: time.Now().Unix(),
	}
	l.txs = append(l.txs, tx)

	l.logger.Info("action executed",
		zap.String("tx", tx.Hash),
		zap.String("action", req.Action),
		zap.String("wallet", wallet))

	return &execution.ExecResult{Success: true, TxHash: tx.Hash}, nil
}

// Transactions returns the ledger's execution history.
func (l *Ledger) Transactions() []LedgerTx {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LedgerTx, len(l.txs))
	copy(out, l.txs)
	return out
}
