// Package memory is an in-memory Store for tests and throwaway runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gd03champ/swiggy-ai-agent/internal/storage"
)

type Store struct {
	mu            sync.RWMutex
	conversations map[string]*storage.Conversation
	now           func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		conversations: make(map[string]*storage.Conversation),
		now:           time.Now,
	}
}

func (s *Store) CreateConversation(ctx context.Context, conv *storage.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[conv.SessionID]; exists {
		return fmt.Errorf("conversation %s: %w", conv.SessionID, storage.ErrExists)
	}

	stored := *conv
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt
	stored.Messages = nil
	s.conversations[conv.SessionID] = &stored
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg *storage.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[sessionID]
	if !exists {
		return fmt.Errorf("conversation %s: %w", sessionID, storage.ErrNotFound)
	}

	stored := *msg
	if stored.Timestamp.IsZero() {
		stored.Timestamp = s.now()
	}
	conv.Messages = append(conv.Messages, stored)
	conv.UpdatedAt = s.now()
	return nil
}

func (s *Store) GetConversation(ctx context.Context, sessionID string) (*storage.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[sessionID]
	if !exists {
		return nil, fmt.Errorf("conversation %s: %w", sessionID, storage.ErrNotFound)
	}
	return copyConversation(conv), nil
}

func (s *Store) ListConversations(ctx context.Context, opts storage.ListOptions) ([]*storage.Conversation, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*storage.Conversation
	for _, conv := range s.conversations {
		if opts.UserID != "" && conv.UserID != opts.UserID {
			continue
		}
		matched = append(matched, conv)
	}

	ascending := opts.SortOrder == 1
	sort.Slice(matched, func(i, j int) bool {
		if ascending {
			return matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := len(matched)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	page := make([]*storage.Conversation, 0, end-start)
	for _, conv := range matched[start:end] {
		page = append(page, copyConversation(conv))
	}
	return page, total, nil
}

func (s *Store) DeleteConversation(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[sessionID]; !exists {
		return fmt.Errorf("conversation %s: %w", sessionID, storage.ErrNotFound)
	}
	delete(s.conversations, sessionID)
	return nil
}

func (s *Store) Close() error {
	return nil
}

// copyConversation keeps callers from mutating shared state.
func copyConversation(conv *storage.Conversation) *storage.Conversation {
	out := *conv
	out.Messages = make([]storage.Message, len(conv.Messages))
	copy(out.Messages, conv.Messages)
	return &out
}
