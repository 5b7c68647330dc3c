package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conclave-dao/conclave/core"
)

type ForumRepository struct {
	store *Store
}

// Create stores a new forum. Quorum threshold is clamped to [0.5, 1.0].
func (r *ForumRepository) Create(ctx context.Context, forum *core.Forum) error {
	if forum.ID == "" {
		forum.ID = uuid.New().String()
	}
	if forum.QuorumThreshold < 0.5 {
		forum.QuorumThreshold = 0.5
	}
	if forum.QuorumThreshold > 1.0 {
		forum.QuorumThreshold = 1.0
	}
	if forum.Status == "" {
		forum.Status = core.ForumActive
	}
	forum.CreatedAt = time.Now().UTC()
	return r.store.db.WithContext(ctx).Create(forum).Error
}

func (r *ForumRepository) Get(ctx context.Context, id string) (*core.Forum, error) {
	var forum core.Forum
	err := r.store.db.WithContext(ctx).First(&forum, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &forum, nil
}

func (r *ForumRepository) List(ctx context.Context) ([]core.Forum, error) {
	var forums []core.Forum
	err := r.store.db.WithContext(ctx).Order("created_at desc").Find(&forums).Error
	return forums, err
}

// TryTransition performs the conditional status update. Exactly one
// concurrent caller observes true; losers observe false with a nil error.
func (r *ForumRepository) TryTransition(ctx context.Context, id string, from, to core.ForumStatus) (bool, error) {
	res := r.store.db.WithContext(ctx).
		Model(&core.Forum{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
