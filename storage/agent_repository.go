package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conclave-dao/conclave/core"
)

type AgentRepository struct {
	store *Store
}

// Create registers a new agent, assigning an ID if none was set.
func (r *AgentRepository) Create(ctx context.Context, agent *core.Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	agent.CreatedAt = time.Now().UTC()
	return r.store.db.WithContext(ctx).Create(agent).Error
}

func (r *AgentRepository) Get(ctx context.Context, id string) (*core.Agent, error) {
	var agent core.Agent
	err := r.store.db.WithContext(ctx).First(&agent, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *AgentRepository) List(ctx context.Context) ([]core.Agent, error) {
	var agents []core.Agent
	err := r.store.db.WithContext(ctx).Order("created_at").Find(&agents).Error
	return agents, err
}
