package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gd03champ/swiggy-ai-agent/internal/stream"
)

func TestStreamChatDeliversEvents(t *testing.T) {
	var (
		gotPath        string
		gotMethod      string
		gotAccept      string
		gotContentType string
		gotBody        ChatRequest
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		stream.WriteFrame(w, stream.Event{Kind: stream.KindThinking, Data: json.RawMessage(`"Checking on that"`)})
		stream.WriteFrame(w, stream.Event{Kind: stream.KindMessage, Data: json.RawMessage(`"On its way."`)})
		stream.WriteFrame(w, stream.Event{Kind: stream.KindDone, ConversationID: "conv-42"})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL + "/"))
	s, err := c.StreamChat(context.Background(), &ChatRequest{
		Message:  "where is my order",
		UserID:   "default_user",
		Location: &Location{Latitude: 12.9716, Longitude: 77.5946},
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	defer s.Close()

	var kinds []stream.Kind
	for s.Next() {
		kinds = append(kinds, s.Event().Kind)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}

	want := []stream.Kind{stream.KindThinking, stream.KindMessage, stream.KindDone}
	if len(kinds) != len(want) {
		t.Fatalf("got %d events, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, kinds[i], want[i])
		}
	}

	if gotMethod != http.MethodPost || gotPath != "/api/agent/chat/stream" {
		t.Errorf("request = %s %s, want POST /api/agent/chat/stream", gotMethod, gotPath)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("Accept = %q, want text/event-stream", gotAccept)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody.Message != "where is my order" || gotBody.UserID != "default_user" {
		t.Errorf("request body = %+v", gotBody)
	}
	if gotBody.Location == nil || gotBody.Location.Latitude != 12.9716 {
		t.Errorf("location not forwarded: %+v", gotBody.Location)
	}
	if gotBody.ConversationID != "" {
		t.Errorf("conversation_id = %q, want empty on a fresh turn", gotBody.ConversationID)
	}
}

func TestStreamChatOmitsEmptyConversationID(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		stream.WriteFrame(w, stream.Event{Kind: stream.KindDone})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	s, err := c.StreamChat(context.Background(), &ChatRequest{Message: "hi", UserID: "u1"})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	s.Close()

	if _, present := raw["conversation_id"]; present {
		t.Error("conversation_id serialized despite being empty")
	}
	if _, present := raw["media"]; present {
		t.Error("media serialized despite being nil")
	}
}

func TestStreamChatSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"agent initialization failed"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.StreamChat(context.Background(), &ChatRequest{Message: "hi", UserID: "u1"})
	if err == nil {
		t.Fatal("expected an error for status 500")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %v, want status in message", err)
	}
	if !strings.Contains(err.Error(), "agent initialization failed") {
		t.Errorf("error = %v, want body excerpt in message", err)
	}
}

func TestStreamChatHonorsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stream.WriteFrame(w, stream.Event{Kind: stream.KindThinking, Data: json.RawMessage(`"working"`)})
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(WithBaseURL(srv.URL))
	s, err := c.StreamChat(ctx, &ChatRequest{Message: "hi", UserID: "u1"})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	defer s.Close()

	if !s.Next() {
		t.Fatalf("expected the first event before cancellation, err=%v", s.Err())
	}

	cancel()

	for s.Next() {
	}
	if s.Err() == nil {
		t.Error("expected a stream error after cancellation")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("path = %q, want /", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if err := NewClient(WithBaseURL(down.URL)).Ping(context.Background()); err == nil {
		t.Error("Ping succeeded against an unhealthy server")
	}
}
