package conversation

import (
	"testing"
	"time"
)

func TestSessionBindsOnce(t *testing.T) {
	s := NewSession()
	if s.ID() != "" {
		t.Fatalf("ID = %q, want empty before first bind", s.ID())
	}

	s.Bind("")
	if s.ID() != "" {
		t.Error("empty bind should be ignored")
	}

	s.Bind("conv-1")
	if s.ID() != "conv-1" {
		t.Fatalf("ID = %q, want conv-1", s.ID())
	}

	s.Bind("conv-2")
	if s.ID() != "conv-1" {
		t.Errorf("ID = %q, rebind must not change a bound session", s.ID())
	}
}

func TestSessionAppendPreservesOrder(t *testing.T) {
	s := NewSession()
	s.Append(Message{ID: "a", Role: RoleUser, Text: "hi"})
	s.Append(Message{ID: "b", Role: RoleAssistant, Text: "hello"})

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].ID != "a" || msgs[1].ID != "b" {
		t.Errorf("order = [%s %s], want [a b]", msgs[0].ID, msgs[1].ID)
	}

	// The returned slice is a copy.
	msgs[0].Text = "mutated"
	if s.Messages()[0].Text != "hi" {
		t.Error("mutating the returned slice changed the session")
	}
}

func TestSessionReplaceSortsByTimestamp(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewSession()
	s.Bind("old")
	s.Append(Message{ID: "stale"})

	s.Replace("conv-9", []Message{
		{ID: "third", Timestamp: base.Add(2 * time.Minute)},
		{ID: "first", Timestamp: base},
		{ID: "second", Timestamp: base.Add(time.Minute)},
	})

	if s.ID() != "conv-9" {
		t.Errorf("ID = %q, want conv-9", s.ID())
	}
	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].ID != want {
			t.Errorf("msgs[%d] = %s, want %s", i, msgs[i].ID, want)
		}
	}
}

func TestSessionClear(t *testing.T) {
	s := NewSession()
	s.Bind("conv-1")
	s.Append(Message{ID: "a"})

	s.Clear()

	if s.ID() != "" {
		t.Errorf("ID = %q, want empty after clear", s.ID())
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}

	// A cleared session binds fresh.
	s.Bind("conv-2")
	if s.ID() != "conv-2" {
		t.Errorf("ID = %q, want conv-2", s.ID())
	}
}
