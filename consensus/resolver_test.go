package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		agree    int
		disagree int
		quorum   float64
		want     Outcome
	}{
		{"no votes", 0, 0, 0.66, Pending},
		{"single vote stays pending", 1, 0, 0.66, Pending},
		{"single disagree stays pending", 0, 1, 0.66, Pending},
		{"majority approves", 3, 1, 0.6, Approved},
		{"majority short of quorum rejects", 1, 3, 0.6, Rejected},
		{"exact threshold approves", 3, 2, 0.6, Approved},
		{"just under threshold rejects", 2, 2, 0.6, Rejected},
		{"unanimous pair approves", 2, 0, 1.0, Approved},
		{"split pair at full quorum rejects", 1, 1, 1.0, Rejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.agree, tt.disagree, tt.quorum))
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, Approved, Resolve(5, 2, 0.66))
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "approved", Approved.String())
	assert.Equal(t, "rejected", Rejected.String())
}
