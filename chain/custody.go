package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/conclave-dao/conclave/crypto"
	"github.com/conclave-dao/conclave/execution"
)

// KeyCustody holds agent signing keys in memory. Production deployments
// would back this with an external signer; the interface boundary is the
// same either way.
type KeyCustody struct {
	mu sync.RWMutex
	// agent ID -> credential
	creds map[string]execution.Credential
}

func NewKeyCustody() *KeyCustody {
	return &KeyCustody{creds: make(map[string]execution.Credential)}
}

// GenerateFor creates a fresh keypair and wallet for the agent,
// replacing any previous credential.
func (k *KeyCustody) GenerateFor(agentID string) (execution.Credential, error) {
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return execution.Credential{}, fmt.Errorf("generate keypair: %w", err)
	}
	cred := execution.Credential{
		WalletAddress: crypto.DeriveAddress(pub),
		PrivateKeyHex: priv,
	}
	k.mu.Lock()
	k.creds[agentID] = cred
	k.mu.Unlock()
	return cred, nil
}

// SigningCredential returns the agent's credential, or nil when the
// agent has never been issued one.
func (k *KeyCustody) SigningCredential(ctx context.Context, agentID string) (*execution.Credential, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	cred, ok := k.creds[agentID]
	if !ok {
		return nil, nil
	}
	c := cred
	return &c, nil
}
