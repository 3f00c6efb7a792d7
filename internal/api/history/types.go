package history

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a conversation id has no persisted state.
var ErrNotFound = errors.New("conversation not found")

// ListRequest filters and pages the conversation listing. Zero values
// take the API defaults: limit 10, sorted by last update, newest first.
type ListRequest struct {
	UserID    string `json:"user_id,omitempty"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`
	SortOrder int    `json:"sort_order"` // -1 descending, 1 ascending
}

// ListResult is one page of conversations plus pagination totals.
type ListResult struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
}

// Conversation is a persisted session document. The summary fields are
// only filled in by the listing endpoint.
type Conversation struct {
	SessionID    string   `json:"session_id"`
	UserID       string   `json:"user_id"`
	Messages     []Record `json:"messages"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	Summary      string   `json:"summary,omitempty"`
	MessageCount int      `json:"message_count,omitempty"`
	StartTime    string   `json:"start_time,omitempty"`
	EndTime      string   `json:"end_time,omitempty"`
}

// Record is one raw persisted message. Field names differ between the
// backend versions that wrote them, so it stays loose until normalized.
type Record map[string]any

// Role classifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a normalized history record.
type Message struct {
	Role      Role
	Text      string
	Timestamp time.Time
}
