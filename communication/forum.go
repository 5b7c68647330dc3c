package communication

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/storage"
)

// Service is the write path for forums and their threads: it persists
// through the store (which feeds the change feed) and mirrors every
// write to websocket observers.
type Service struct {
	store  *storage.Store
	hub    *Hub
	logger *zap.Logger
}

func NewService(store *storage.Store, hub *Hub, logger *zap.Logger) *Service {
	return &Service{store: store, hub: hub, logger: logger.Named("forum")}
}

// CreateForum opens a new discussion room around a goal.
func (s *Service) CreateForum(ctx context.Context, forum *core.Forum) error {
	if forum.Goal == "" {
		return fmt.Errorf("forum goal is required")
	}
	if err := s.store.Forums.Create(ctx, forum); err != nil {
		return err
	}
	s.hub.Broadcast(EventForumCreated, forum)
	return nil
}

// PostMessage appends an agent message to a forum thread.
func (s *Service) PostMessage(ctx context.Context, msg *core.Message) error {
	if msg.ForumID == "" {
		return fmt.Errorf("message forum id is required")
	}
	if _, err := s.store.Forums.Get(ctx, msg.ForumID); err != nil {
		return fmt.Errorf("forum %s: %w", msg.ForumID, err)
	}
	if err := s.store.Messages.Create(ctx, msg); err != nil {
		return err
	}
	s.hub.Broadcast(EventNewMessage, msg)
	return nil
}

// PostSystemMessage appends an engine-generated message. System messages
// carry a source marker so discussion handling never re-triggers on them.
func (s *Service) PostSystemMessage(ctx context.Context, forumID, content string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if _, ok := metadata[core.MetaSource]; !ok {
		metadata[core.MetaSource] = "system"
	}
	msg := &core.Message{
		ForumID:  forumID,
		Type:     core.MessageSystem,
		Content:  content,
		Metadata: metadata,
	}
	if err := s.store.Messages.Create(ctx, msg); err != nil {
		return err
	}
	s.hub.Broadcast(EventNewMessage, msg)
	return nil
}

// Thread returns the forum's messages, newest first.
func (s *Service) Thread(ctx context.Context, forumID string, limit int) ([]core.Message, error) {
	return s.store.Messages.ListRecent(ctx, forumID, limit)
}
