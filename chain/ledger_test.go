package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/execution"
)

func TestLedgerDepositAndBalance(t *testing.T) {
	l := NewLedger("testchain", 0.01, zap.NewNop())

	balance, err := l.Balance(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)

	assert.Equal(t, 1.5, l.Deposit("0xabc", 1.5))
	assert.Equal(t, 3.0, l.Deposit("0xabc", 1.5))

	balance, err = l.Balance(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 3.0, balance)
}

func TestLedgerExecuteDeductsFee(t *testing.T) {
	l := NewLedger("testchain", 0.01, zap.NewNop())
	l.Deposit("0xabc", 1.0)

	result, err := l.Execute(context.Background(), execution.ExecRequest{
		Action:     "transfer",
		Credential: &execution.Credential{WalletAddress: "0xabc"},
		ChainID:    "testchain",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.TxHash)

	balance, _ := l.Balance(context.Background(), "0xabc")
	assert.InDelta(t, 0.99, balance, 1e-9)

	txs := l.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "transfer", txs[0].Action)
}

func TestLedgerExecuteRejectsUnfundedWallet(t *testing.T) {
	l := NewLedger("testchain", 0.01, zap.NewNop())

	result, err := l.Execute(context.Background(), execution.ExecRequest{
		Action:     "transfer",
		Credential: &execution.Credential{WalletAddress: "0xbroke"},
		ChainID:    "testchain",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "insufficient balance")
}

func TestLedgerExecuteRejectsWrongChain(t *testing.T) {
	l := NewLedger("testchain", 0.01, zap.NewNop())
	l.Deposit("0xabc", 1.0)

	result, err := l.Execute(context.Background(), execution.ExecRequest{
		Action:     "transfer",
		Credential: &execution.Credential{WalletAddress: "0xabc"},
		ChainID:    "otherchain",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "wrong chain")
}

func TestKeyCustodyRoundTrip(t *testing.T) {
	k := NewKeyCustody()

	cred, err := k.GenerateFor("agent-1")
	require.NoError(t, err)
	assert.NotEmpty(t, cred.WalletAddress)
	assert.NotEmpty(t, cred.PrivateKeyHex)

	got, err := k.SigningCredential(context.Background(), "agent-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cred.WalletAddress, got.WalletAddress)

	missing, err := k.SigningCredential(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
