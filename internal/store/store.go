package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// listLimit bounds conversation listings, newest first.
const listLimit = 50

// Store wraps the sqlite database.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the sqlite database at path and migrates
// the schema. ":memory:" opens an in-memory database for tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&Conversation{}, &Message{}, &Job{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info("store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateConversation starts a new conversation thread.
func (s *Store) CreateConversation(ctx context.Context, agentType, title string) (*Conversation, error) {
	if title == "" {
		title = "New Conversation"
	}
	conv := &Conversation{AgentType: agentType, Title: title}
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation loads one conversation with its messages in chronological
// order.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns the most recently updated conversations, without
// their messages.
func (s *Store) ListConversations(ctx context.Context) ([]Conversation, error) {
	var convs []Conversation
	err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(listLimit).
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx)
	if err := tx.Where("conversation_id = ?", id).Delete(&Message{}).Error; err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	res := tx.Delete(&Conversation{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete conversation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: conversation %s", ErrNotFound, id)
	}
	return nil
}

// AppendMessage adds a message to a conversation and bumps its updated_at.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content, metadata string) (*Message, error) {
	msg := &Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Metadata:       metadata,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv Conversation
		if err := tx.First(&conv, "id = ?", conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
			}
			return err
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&conv).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// RecordUsage adds token and cost totals onto a conversation's metrics.
func (s *Store) RecordUsage(ctx context.Context, conversationID string, tokens int, cost float64) error {
	res := s.db.WithContext(ctx).
		Model(&Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{
			"tokens_used": gorm.Expr("tokens_used + ?", tokens),
			"cost":        gorm.Expr("cost + ?", cost),
		})
	if res.Error != nil {
		return fmt.Errorf("record usage: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
	}
	return nil
}

// CreateJob persists a new scheduled job.
func (s *Store) CreateJob(ctx context.Context, job *Job) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetJob loads one job.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// ListJobs returns all jobs; with enabledOnly, only those currently enabled.
func (s *Store) ListJobs(ctx context.Context, enabledOnly bool) ([]Job, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC")
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	var jobs []Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// SetJobEnabled toggles a job.
func (s *Store) SetJobEnabled(ctx context.Context, id string, enabled bool) error {
	res := s.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Update("enabled", enabled)
	if res.Error != nil {
		return fmt.Errorf("update job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return nil
}

// UpdateJobExecution records the outcome of one job run.
func (s *Store) UpdateJobExecution(ctx context.Context, id, status, result string, lastRun time.Time) error {
	res := s.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(map[string]any{
		"status":      status,
		"last_result": result,
		"last_run":    lastRun,
	})
	if res.Error != nil {
		return fmt.Errorf("update job execution: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return nil
}

// DeleteJob removes a job.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Job{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	return nil
}

// Stats are aggregate counters for the metrics endpoint.
type Stats struct {
	Conversations int64   `json:"conversations"`
	Messages      int64   `json:"messages"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
}

// Stats computes aggregate counters across all conversations.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)

	if err := db.Model(&Conversation{}).Count(&st.Conversations).Error; err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}
	if err := db.Model(&Message{}).Count(&st.Messages).Error; err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	row := db.Model(&Conversation{}).
		Select("COALESCE(SUM(tokens_used), 0), COALESCE(SUM(cost), 0)").
		Row()
	if err := row.Scan(&st.TotalTokens, &st.TotalCost); err != nil {
		return nil, fmt.Errorf("sum usage: %w", err)
	}
	return &st, nil
}
