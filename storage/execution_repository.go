package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/conclave-dao/conclave/core"
)

type ExecutionRepository struct {
	store *Store
}

// CreateOrGet returns the execution row for (proposal, executor),
// creating a pending one if none exists. The unique index arbitrates
// concurrent creators; the loser re-reads the winner's row.
func (r *ExecutionRepository) CreateOrGet(ctx context.Context, exec *core.Execution) (*core.Execution, error) {
	var existing []core.Execution
	err := r.store.db.WithContext(ctx).
		Where("proposal_id = ? AND executor_agent_id = ?", exec.ProposalID, exec.ExecutorAgentID).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	exec.ID = uuid.New().String()
	exec.Status = core.ExecutionPending
	exec.CreatedAt = time.Now().UTC()
	exec.UpdatedAt = exec.CreatedAt
	if err := r.store.db.WithContext(ctx).Create(exec).Error; err != nil {
		if isDuplicateKey(err) {
			var won core.Execution
			if err2 := r.store.db.WithContext(ctx).
				First(&won, "proposal_id = ? AND executor_agent_id = ?",
					exec.ProposalID, exec.ExecutorAgentID).Error; err2 == nil {
				return &won, nil
			}
		}
		return nil, err
	}
	return exec, nil
}

// MarkResult moves a pending execution to its terminal state. The update
// is conditional on status = pending so a terminal state, once set, never
// changes. Returns false if the row was already terminal.
func (r *ExecutionRepository) MarkResult(ctx context.Context, id string, status core.ExecutionStatus, txHash, errMsg string) (bool, error) {
	res := r.store.db.WithContext(ctx).
		Model(&core.Execution{}).
		Where("id = ? AND status = ?", id, core.ExecutionPending).
		Updates(map[string]any{
			"status":     status,
			"tx_hash":    txHash,
			"error":      errMsg,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetWallet records the executor's wallet address once custody resolved it.
func (r *ExecutionRepository) SetWallet(ctx context.Context, id, wallet string) error {
	return r.store.db.WithContext(ctx).
		Model(&core.Execution{}).
		Where("id = ?", id).
		Update("wallet_address", wallet).Error
}

func (r *ExecutionRepository) ListByProposal(ctx context.Context, proposalID string) ([]core.Execution, error) {
	var execs []core.Execution
	err := r.store.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at").
		Find(&execs).Error
	return execs, err
}
