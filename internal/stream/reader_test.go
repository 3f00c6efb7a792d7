package stream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func collect(t *testing.T, r *Reader) []Event {
	t.Helper()
	var events []Event
	for r.Next() {
		events = append(events, r.Event())
	}
	return events
}

func TestReaderDeliversFramesInOrder(t *testing.T) {
	input := `data: {"type": "thinking", "data": "Let me look"}

data: {"type": "message", "data": "Here you go"}

data: {"type": "done", "conversation_id": "conv-1"}

`
	r := NewReader(strings.NewReader(input))
	events := collect(t, r)

	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	wantKinds := []Kind{KindThinking, KindMessage, KindDone}
	for i, want := range wantKinds {
		if events[i].Kind != want {
			t.Errorf("event %d kind = %q, want %q", i, events[i].Kind, want)
		}
	}
	if got := events[0].Text(); got != "Let me look" {
		t.Errorf("thinking text = %q, want %q", got, "Let me look")
	}
	if events[2].ConversationID != "conv-1" {
		t.Errorf("conversation_id = %q, want %q", events[2].ConversationID, "conv-1")
	}
}

func TestReaderIgnoresNonFrameLines(t *testing.T) {
	input := strings.Join([]string{
		": keep-alive comment",
		"event: message",
		"",
		`data: {"type": "message", "data": "hello"}`,
		"random noise that is not a frame",
		"",
		`data: {"type": "done"}`,
		"",
	}, "\n")

	r := NewReader(strings.NewReader(input))
	events := collect(t, r)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != KindMessage || events[1].Kind != KindDone {
		t.Errorf("kinds = %q, %q, want message, done", events[0].Kind, events[1].Kind)
	}
}

func TestReaderSkipsMalformedFrames(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "thinking", "data": "ok"}`,
		`data: {"type": "thinking", "data": "truncated`,
		`data: not json at all`,
		`data: {"no_type_field": true}`,
		`data: {"type": "message", "data": "still here"}`,
		`data: {"type": "done"}`,
	}, "\n\n")

	r := NewReader(strings.NewReader(input))
	events := collect(t, r)

	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3 (malformed frames skipped)", len(events))
	}
	if got := events[1].Text(); got != "still here" {
		t.Errorf("message after malformed frames = %q, want %q", got, "still here")
	}
}

func TestReaderStopsAfterDone(t *testing.T) {
	input := strings.Join([]string{
		`data: {"type": "message", "data": "first"}`,
		`data: {"type": "done", "conversation_id": "c9"}`,
		`data: {"type": "message", "data": "after the end"}`,
	}, "\n\n")

	r := NewReader(strings.NewReader(input))
	events := collect(t, r)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (nothing after done)", len(events))
	}
	if events[1].Kind != KindDone {
		t.Errorf("last kind = %q, want done", events[1].Kind)
	}
	if r.Next() {
		t.Error("Next() after done = true, want false")
	}
}

func TestReaderHandlesChunkedTransport(t *testing.T) {
	var buf bytes.Buffer
	frames := []Event{
		{Kind: KindThinking, Data: mustRaw(t, "chunk one")},
		{Kind: KindToolStart, ToolName: "search_restaurants"},
		{Kind: KindDone},
	}
	for _, ev := range frames {
		if err := WriteFrame(&buf, ev); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	// One byte at a time forces partial lines across reads.
	r := NewReader(iotest.OneByteReader(&buf))
	events := collect(t, r)

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[1].ToolName != "search_restaurants" {
		t.Errorf("tool_name = %q, want search_restaurants", events[1].ToolName)
	}
}

func TestReaderHandlesOversizedFrames(t *testing.T) {
	// Larger than the initial 64KiB scanner buffer.
	big := strings.Repeat("menu item, ", 10*1024)
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Event{Kind: KindMessage, Data: mustRaw(t, big)}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := WriteFrame(&buf, Event{Kind: KindDone}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	r := NewReader(&buf)
	events := collect(t, r)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if got := events[0].Text(); got != big {
		t.Errorf("oversized frame text length = %d, want %d", len(got), len(big))
	}
}

func TestReaderReportsTransportError(t *testing.T) {
	broken := io.MultiReader(
		strings.NewReader("data: {\"type\": \"thinking\", \"data\": \"x\"}\n\n"),
		iotest.ErrReader(errors.New("connection reset")),
	)

	r := NewReader(broken)
	events := collect(t, r)

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if err := r.Err(); err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("Err() = %v, want wrapped connection reset", err)
	}
}
