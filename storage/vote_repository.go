package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conclave-dao/conclave/core"
)

type VoteRepository struct {
	store *Store
}

// Cast inserts a vote and updates the proposal tallies in one
// transaction, keeping agreeCount+disagreeCount equal to the number of
// vote rows. A second vote by the same agent returns ErrDuplicateVote and
// leaves the tallies untouched.
func (r *VoteRepository) Cast(ctx context.Context, vote *core.Vote) (*core.Proposal, error) {
	if vote.ID == "" {
		vote.ID = uuid.New().String()
	}
	vote.CreatedAt = time.Now().UTC()

	var updated core.Proposal
	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vote).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateVote
			}
			return err
		}

		column := "disagree_count"
		if vote.Agree {
			column = "agree_count"
		}
		if err := tx.Model(&core.Proposal{}).
			Where("id = ?", vote.ProposalID).
			Update(column, gorm.Expr(column+" + 1")).Error; err != nil {
			return err
		}

		return tx.First(&updated, "id = ?", vote.ProposalID).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *VoteRepository) ListByProposal(ctx context.Context, proposalID string) ([]core.Vote, error) {
	var votes []core.Vote
	err := r.store.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at").
		Find(&votes).Error
	return votes, err
}

func (r *VoteRepository) Count(ctx context.Context, proposalID string) (int, error) {
	var n int64
	err := r.store.db.WithContext(ctx).
		Model(&core.Vote{}).
		Where("proposal_id = ?", proposalID).
		Count(&n).Error
	return int(n), err
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
