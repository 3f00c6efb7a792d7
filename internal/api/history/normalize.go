package history

import (
	"strings"
	"time"
)

// Persisted records are not uniform: the current backend writes
// {type, text, timestamp}, older exports used {role, content, created_at},
// and some tooling emits {role, message, time}. Normalization accepts
// all of them rather than pinning one producer's schema.

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999", // python isoformat, no zone
	"2006-01-02T15:04:05",
}

// Normalize maps a raw record onto the client's message shape. It
// reports false when the record has no recognizable author or no text;
// callers skip those entries instead of guessing.
func (r Record) Normalize() (Message, bool) {
	role, ok := r.role()
	if !ok {
		return Message{}, false
	}
	text, ok := r.text()
	if !ok {
		return Message{}, false
	}
	return Message{Role: role, Text: text, Timestamp: r.timestamp()}, true
}

func (r Record) role() (Role, bool) {
	for _, key := range []string{"type", "role"} {
		s, ok := r[key].(string)
		if !ok {
			continue
		}
		switch strings.ToLower(s) {
		case "human", "user":
			return RoleUser, true
		case "ai", "assistant", "bot":
			return RoleAssistant, true
		}
	}
	return "", false
}

func (r Record) text() (string, bool) {
	for _, key := range []string{"text", "content", "message"} {
		if s, ok := r[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// timestamp parses the first timestamp field that matches a known
// layout. Records without one sort to the front with a zero time.
func (r Record) timestamp() time.Time {
	for _, key := range []string{"timestamp", "created_at", "time"} {
		s, ok := r[key].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
	}
	return time.Time{}
}
