// Package storage defines the conversation persistence contract used by
// the scripted agent backend. Documents mirror what the history API
// serves: one conversation per session id with an ordered message list.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("conversation not found")
	ErrExists   = errors.New("conversation already exists")
)

// Conversation is one persisted session.
type Conversation struct {
	SessionID string    `json:"session_id" db:"session_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Message is one persisted chat message.
type Message struct {
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// ListOptions pages and filters the conversation listing. SortOrder -1
// returns the most recently updated first; 1 the oldest first.
type ListOptions struct {
	UserID    string
	Limit     int
	Offset    int
	SortOrder int
}

// Store persists conversations. Implementations must be safe for
// concurrent use.
type Store interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	AppendMessage(ctx context.Context, sessionID string, msg *Message) error
	GetConversation(ctx context.Context, sessionID string) (*Conversation, error)
	ListConversations(ctx context.Context, opts ListOptions) ([]*Conversation, int, error)
	DeleteConversation(ctx context.Context, sessionID string) error
	Close() error
}
