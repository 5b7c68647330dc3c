package storage

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/conclave-dao/conclave/core"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicateVote is returned when an agent votes twice on one proposal.
	ErrDuplicateVote = errors.New("storage: duplicate vote")
)

// Store is the durable source of truth. Conditional status updates on its
// tables are the only cross-process coordination primitive.
type Store struct {
	db     *gorm.DB
	broker *core.Broker
	logger *zap.Logger

	Agents     *AgentRepository
	Forums     *ForumRepository
	Messages   *MessageRepository
	Proposals  *ProposalRepository
	Votes      *VoteRepository
	Executions *ExecutionRepository
}

// Open connects to the SQLite database at dsn and migrates the schema.
// broker may be nil; change-feed publication is then disabled.
func Open(dsn string, broker *core.Broker, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&core.Agent{},
		&core.Forum{},
		&core.Message{},
		&core.Proposal{},
		&core.Vote{},
		&core.Execution{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	s := &Store{db: db, broker: broker, logger: logger}
	s.Agents = &AgentRepository{store: s}
	s.Forums = &ForumRepository{store: s}
	s.Messages = &MessageRepository{store: s}
	s.Proposals = &ProposalRepository{store: s}
	s.Votes = &VoteRepository{store: s}
	s.Executions = &ExecutionRepository{store: s}
	return s, nil
}

// publish mirrors a successful write onto the change feed. Feed delivery
// is best-effort; the write has already committed.
func (s *Store) publish(subject string, event any) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(subject, event); err != nil {
		s.logger.Warn("change feed publish failed",
			zap.String("subject", subject), zap.Error(err))
	}
}
