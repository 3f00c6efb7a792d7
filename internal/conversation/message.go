// Package conversation drives chat turns against the agent and holds
// the resulting message history. One turn streams agent events through
// the reasoning, timeline, and card components; when the stream ends the
// accumulated state folds into a single immutable Message.
package conversation

import (
	"time"

	"github.com/gd03champ/swiggy-ai-agent/internal/cards"
	"github.com/gd03champ/swiggy-ai-agent/internal/reasoning"
	"github.com/gd03champ/swiggy-ai-agent/internal/timeline"
)

// Role identifies a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ReasoningStep is one entry in the agent's visible reasoning trace.
// The raw thought is kept verbatim; normalization is lossy and the
// original is what audit and debugging need.
type ReasoningStep struct {
	Step     int                 `json:"step"`
	Raw      string              `json:"raw_thought"`
	Cleaned  string              `json:"cleaned_thought"`
	ToolCall *reasoning.ToolCall `json:"tool_call,omitempty"`
}

// Message is one immutable entry in a conversation. Assistant messages
// carry whatever the turn produced beyond prose: structured cards, the
// reasoning trace, the tool timeline, and the accumulated thinking text.
type Message struct {
	ID             string            `json:"id"`
	Role           Role              `json:"role"`
	Text           string            `json:"text"`
	Image          string            `json:"image,omitempty"`
	Thinking       string            `json:"thinking,omitempty"`
	StructuredData []cards.Item      `json:"structured_data,omitempty"`
	ReasoningSteps []ReasoningStep   `json:"reasoning_steps,omitempty"`
	ToolHistory    []timeline.Record `json:"tool_history,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
	IsError        bool              `json:"is_error,omitempty"`
}
