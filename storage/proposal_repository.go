package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conclave-dao/conclave/core"
)

type ProposalRepository struct {
	store *Store
}

// Create stores a new proposal in status voting and announces it on the
// change feed.
func (r *ProposalRepository) Create(ctx context.Context, p *core.Proposal) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Status = core.ProposalVoting
	p.CreatedAt = time.Now().UTC()
	if err := r.store.db.WithContext(ctx).Create(p).Error; err != nil {
		return err
	}
	r.store.publish(core.SubjectProposalCreated, core.ProposalCreatedEvent{Proposal: *p})
	return nil
}

func (r *ProposalRepository) Get(ctx context.Context, id string) (*core.Proposal, error) {
	var p core.Proposal
	err := r.store.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProposalRepository) ListByForum(ctx context.Context, forumID string) ([]core.Proposal, error) {
	var ps []core.Proposal
	err := r.store.db.WithContext(ctx).
		Where("forum_id = ?", forumID).
		Order("created_at desc").
		Find(&ps).Error
	return ps, err
}

// ListByStatus returns all proposals currently in one of the given
// statuses. Used by the startup reconciliation scan.
func (r *ProposalRepository) ListByStatus(ctx context.Context, statuses ...core.ProposalStatus) ([]core.Proposal, error) {
	var ps []core.Proposal
	err := r.store.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at").
		Find(&ps).Error
	return ps, err
}

// ListExpired returns voting proposals whose deadline passed before now.
func (r *ProposalRepository) ListExpired(ctx context.Context, now time.Time) ([]core.Proposal, error) {
	var ps []core.Proposal
	err := r.store.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", core.ProposalVoting, now).
		Find(&ps).Error
	return ps, err
}

// TryTransition performs the conditional status update that every
// lifecycle step routes through. Exactly one concurrent caller observes
// true; losers observe false with a nil error and must not treat that as
// a failure. A successful transition is announced on the change feed.
func (r *ProposalRepository) TryTransition(ctx context.Context, id string, from, to core.ProposalStatus) (bool, error) {
	updates := map[string]any{"status": to}
	if from == core.ProposalVoting {
		updates["resolved_at"] = time.Now().UTC()
	}
	res := r.store.db.WithContext(ctx).
		Model(&core.Proposal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	p, err := r.Get(ctx, id)
	forumID := ""
	if err == nil {
		forumID = p.ForumID
	}
	r.store.publish(core.SubjectProposalStatusChanged, core.ProposalStatusChangedEvent{
		ProposalID: id,
		ForumID:    forumID,
		From:       from,
		To:         to,
	})
	return true, nil
}
