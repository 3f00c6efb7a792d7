// Package stream implements the agent wire protocol: newline-delimited
// "data: {json}" frames carrying typed progress events, and a pull-based
// reader that tolerates noise on the line.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
)

// Kind identifies an event type on the wire.
type Kind string

const (
	KindThinking       Kind = "thinking"
	KindReasoningStep  Kind = "reasoning_step"
	KindAgentAction    Kind = "agent_action"
	KindMessage        Kind = "message"
	KindStructuredData Kind = "structured_data"
	KindToolStart      Kind = "tool_start"
	KindToolEnd        Kind = "tool_end"
	KindToolError      Kind = "tool_error"
	KindError          Kind = "error"
	KindDone           Kind = "done"
)

// Event is one frame's payload. Only the fields relevant to the event's
// Kind are populated; the producer omits the rest.
type Event struct {
	Kind           Kind            `json:"type"`
	Data           json.RawMessage `json:"data,omitempty"`
	ToolName       string          `json:"tool_name,omitempty"`
	Step           int             `json:"step,omitempty"`
	Input          json.RawMessage `json:"input,omitempty"`
	Output         json.RawMessage `json:"output,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
}

// ReasoningStepData is the payload of a reasoning_step event.
type ReasoningStepData struct {
	Step       int    `json:"step"`
	Thought    string `json:"thought"`
	Timestamp  string `json:"timestamp,omitempty"`
	IsThinking bool   `json:"is_thinking,omitempty"`
}

// Text returns the event's data field as plain text. Non-string data
// yields the empty string.
func (e Event) Text() string {
	s, _ := DecodeString(e.Data)
	return s
}

// ReasoningStep decodes the payload of a reasoning_step event.
func (e Event) ReasoningStep() (ReasoningStepData, error) {
	var step ReasoningStepData
	if err := json.Unmarshal(e.Data, &step); err != nil {
		return ReasoningStepData{}, fmt.Errorf("bad reasoning_step payload: %w", err)
	}
	return step, nil
}

// DecodeObject interprets raw as a JSON object.
func DecodeObject(raw json.RawMessage) (map[string]any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// DecodeString interprets raw as a JSON string.
func DecodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// WriteFrame emits one event as a wire frame. Producers (and test
// fixtures) share this so framing stays in one place.
func WriteFrame(w io.Writer, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}
