package conversation

import (
	"sort"
	"sync"
)

// Session holds the ordered message history for one conversation. The
// conversation id is assigned by the agent when the first turn
// completes; once bound it never changes for the life of the session.
type Session struct {
	mu       sync.RWMutex
	id       string
	messages []Message
}

func NewSession() *Session {
	return &Session{}
}

// ID returns the bound conversation id, or "" before the first turn
// completes.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Bind records the conversation id the agent assigned. Later calls with
// a different id are ignored so the session never silently jumps to
// another conversation.
func (s *Session) Bind(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		s.id = id
	}
}

// Append adds a message to the end of the history.
func (s *Session) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the history in order.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the number of messages in the session.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Replace swaps the entire session for a previously stored conversation.
// Messages are ordered oldest first regardless of how the server
// returned them.
func (s *Session) Replace(id string, msgs []Message) {
	ordered := make([]Message, len(msgs))
	copy(ordered, msgs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.messages = ordered
}

// Clear resets the session to a fresh, unbound conversation.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	s.messages = nil
}
