// Package store persists conversations, messages, and scheduled jobs in a
// sqlite database through GORM. It is a thin read/write layer; no agent
// logic lives here.
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is one chat thread with an agent.
type Conversation struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	AgentType  string    `gorm:"index;size:64" json:"agent_type"`
	Title      string    `gorm:"size:255" json:"title"`
	TokensUsed int       `json:"tokens_used"`
	Cost       float64   `json:"cost"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// Message is one turn inside a conversation.
type Message struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string    `gorm:"index;size:36" json:"conversation_id"`
	Role           string    `gorm:"size:16" json:"role"`
	Content        string    `json:"content"`
	Metadata       string    `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Job status values.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is a persisted scheduled job definition plus its last execution state.
type Job struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255" json:"name"`
	JobType     string    `gorm:"size:32" json:"job_type"`
	TriggerType string    `gorm:"size:16" json:"trigger_type"`
	TriggerSpec string    `json:"trigger_spec"`
	Config      string    `json:"config"`
	Enabled     bool      `gorm:"index" json:"enabled"`
	Status      string    `gorm:"size:16" json:"status"`
	LastRun     time.Time `json:"last_run"`
	LastResult  string    `json:"last_result"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return nil
}
