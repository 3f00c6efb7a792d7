package conversation

import (
	"github.com/gd03champ/swiggy-ai-agent/internal/cards"
	"github.com/gd03champ/swiggy-ai-agent/internal/timeline"
)

// TurnTrace carries optional callbacks invoked synchronously, in event
// order, while a turn streams. Any field may be nil. Callbacks run on
// the goroutine driving Send, so they must not call back into the
// client.
type TurnTrace struct {
	// Thinking fires for each thinking fragment as it arrives.
	Thinking func(text string)

	// ReasoningStep fires after a reasoning_step event is normalized.
	ReasoningStep func(step ReasoningStep)

	// ToolUpdate fires whenever a timeline record is created or
	// transitions, with a copy of the record.
	ToolUpdate func(rec timeline.Record)

	// StructuredItem fires for each decoded card.
	StructuredItem func(item cards.Item)

	// MessageText fires when the final message prose arrives.
	MessageText func(text string)

	// LiveCleared fires when the live timeline empties after the
	// post-turn grace period.
	LiveCleared func()
}

func (t *TurnTrace) thinking(text string) {
	if t != nil && t.Thinking != nil {
		t.Thinking(text)
	}
}

func (t *TurnTrace) reasoningStep(step ReasoningStep) {
	if t != nil && t.ReasoningStep != nil {
		t.ReasoningStep(step)
	}
}

func (t *TurnTrace) toolUpdate(rec timeline.Record) {
	if t != nil && t.ToolUpdate != nil {
		t.ToolUpdate(rec)
	}
}

func (t *TurnTrace) structuredItem(item cards.Item) {
	if t != nil && t.StructuredItem != nil {
		t.StructuredItem(item)
	}
}

func (t *TurnTrace) messageText(text string) {
	if t != nil && t.MessageText != nil {
		t.MessageText(text)
	}
}

func (t *TurnTrace) liveCleared() {
	if t != nil && t.LiveCleared != nil {
		t.LiveCleared()
	}
}
