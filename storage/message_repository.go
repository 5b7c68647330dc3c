package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/conclave-dao/conclave/core"
)

type MessageRepository struct {
	store *Store
}

// Create appends a message to its forum thread and announces it on the
// change feed.
func (r *MessageRepository) Create(ctx context.Context, msg *core.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Type == "" {
		msg.Type = core.MessageChat
	}
	msg.CreatedAt = time.Now().UTC()
	if err := r.store.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	r.store.publish(core.SubjectMessageCreated, core.MessageCreatedEvent{Message: *msg})
	return nil
}

// ListRecent returns up to limit messages for a forum, newest first.
func (r *MessageRepository) ListRecent(ctx context.Context, forumID string, limit int) ([]core.Message, error) {
	var msgs []core.Message
	q := r.store.db.WithContext(ctx).
		Where("forum_id = ?", forumID).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&msgs).Error
	return msgs, err
}
