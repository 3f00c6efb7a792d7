package fakeagent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gd03champ/swiggy-ai-agent/internal/api/history"
	"github.com/gd03champ/swiggy-ai-agent/internal/storage"
)

func seedConversation(t *testing.T, store storage.Store, id, userID string, texts ...string) {
	t.Helper()
	ctx := context.Background()
	if err := store.CreateConversation(ctx, &storage.Conversation{SessionID: id, UserID: userID}); err != nil {
		t.Fatalf("CreateConversation %s: %v", id, err)
	}
	for i, text := range texts {
		role := "human"
		if i%2 == 1 {
			role = "ai"
		}
		err := store.AppendMessage(ctx, id, &storage.Message{
			Role:      role,
			Content:   text,
			Timestamp: time.Date(2024, 5, 1, 10, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("AppendMessage %s: %v", id, err)
		}
	}
}

func TestHistoryListSummarizesConversations(t *testing.T) {
	ts, store := newTestServer(t)
	seedConversation(t, store, "conv-1", "u1", "where is my biryani order", "It's on the way.")
	seedConversation(t, store, "conv-2", "u1")

	client := history.NewClient(history.WithBaseURL(ts.URL))
	result, err := client.List(context.Background(), &history.ListRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
	if result.Limit != 10 || result.Offset != 0 {
		t.Errorf("pagination echo = limit %d offset %d, want 10/0", result.Limit, result.Offset)
	}

	byID := map[string]history.Conversation{}
	for _, conv := range result.Conversations {
		byID[conv.SessionID] = conv
	}

	full := byID["conv-1"]
	if full.Summary != "where is my biryani order" {
		t.Errorf("summary = %q, want the first user message", full.Summary)
	}
	if full.MessageCount != 2 {
		t.Errorf("message_count = %d, want 2", full.MessageCount)
	}
	if full.StartTime == "" || full.EndTime == "" {
		t.Error("expected start_time and end_time on a non-empty conversation")
	}

	empty := byID["conv-2"]
	if empty.Summary != "Empty Conversation" {
		t.Errorf("empty summary = %q, want Empty Conversation", empty.Summary)
	}
	if empty.MessageCount != 0 {
		t.Errorf("empty message_count = %d, want 0", empty.MessageCount)
	}
}

func TestHistoryListTruncatesLongSummaries(t *testing.T) {
	ts, store := newTestServer(t)
	long := strings.Repeat("places with dosa ", 20)
	seedConversation(t, store, "conv-long", "u1", long)

	client := history.NewClient(history.WithBaseURL(ts.URL))
	result, err := client.List(context.Background(), &history.ListRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	summary := result.Conversations[0].Summary
	if !strings.HasSuffix(summary, "...") {
		t.Errorf("summary = %q, want a truncated preview", summary)
	}
	if got := len([]rune(summary)); got != 103 {
		t.Errorf("summary length = %d runes, want 100 plus ellipsis", got)
	}
}

func TestHistoryListPaginatesNewestFirst(t *testing.T) {
	ts, store := newTestServer(t)
	for i := 1; i <= 3; i++ {
		seedConversation(t, store, fmt.Sprintf("conv-%d", i), "u1", fmt.Sprintf("message %d", i))
	}

	client := history.NewClient(history.WithBaseURL(ts.URL))
	result, err := client.List(context.Background(), &history.ListRequest{UserID: "u1", Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if result.Total != 3 {
		t.Errorf("Total = %d, want 3", result.Total)
	}
	if len(result.Conversations) != 2 {
		t.Fatalf("page size = %d, want 2", len(result.Conversations))
	}
	if result.Conversations[0].SessionID != "conv-3" {
		t.Errorf("first = %s, want the most recently updated conversation", result.Conversations[0].SessionID)
	}
}

func TestHistoryGetReturnsNormalizableRecords(t *testing.T) {
	ts, store := newTestServer(t)
	seedConversation(t, store, "conv-1", "u1", "hello", "hi there")

	client := history.NewClient(history.WithBaseURL(ts.URL))
	conv, err := client.Get(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if conv.SessionID != "conv-1" || conv.UserID != "u1" {
		t.Errorf("conversation = %s/%s, want conv-1/u1", conv.SessionID, conv.UserID)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(conv.Messages))
	}

	first, ok := conv.Messages[0].Normalize()
	if !ok {
		t.Fatal("first record did not normalize")
	}
	if first.Role != history.RoleUser || first.Text != "hello" {
		t.Errorf("first = %+v, want the user turn", first)
	}
	if first.Timestamp.IsZero() {
		t.Error("expected a parseable timestamp")
	}

	second, ok := conv.Messages[1].Normalize()
	if !ok {
		t.Fatal("second record did not normalize")
	}
	if second.Role != history.RoleAssistant {
		t.Errorf("second role = %s, want assistant", second.Role)
	}
}

func TestHistoryGetCapsMessages(t *testing.T) {
	ts, store := newTestServer(t)
	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("turn %d", i)
	}
	seedConversation(t, store, "conv-busy", "u1", texts...)

	client := history.NewClient(history.WithBaseURL(ts.URL))
	conv, err := client.Get(context.Background(), "conv-busy")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if len(conv.Messages) != 20 {
		t.Fatalf("messages = %d, want the window of 20", len(conv.Messages))
	}
	if got := conv.Messages[0]["text"]; got != "turn 5" {
		t.Errorf("oldest retained = %v, want turn 5", got)
	}
}

func TestHistoryGetMissingConversation(t *testing.T) {
	ts, _ := newTestServer(t)

	client := history.NewClient(history.WithBaseURL(ts.URL))
	_, err := client.Get(context.Background(), "nope")
	if !errors.Is(err, history.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHistoryDeleteRemovesConversation(t *testing.T) {
	ts, store := newTestServer(t)
	seedConversation(t, store, "conv-1", "u1", "hello")

	client := history.NewClient(history.WithBaseURL(ts.URL))
	if err := client.Delete(context.Background(), "conv-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.GetConversation(context.Background(), "conv-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("store still has the conversation: %v", err)
	}
	if err := client.Delete(context.Background(), "conv-1"); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
