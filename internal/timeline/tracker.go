// Package timeline tracks tool executions within a conversation turn. The
// wire protocol has no correlation ids, so start and end events are
// matched positionally: an end event always terminates the most recent
// record still running. The package keeps two views: the ordered timeline
// of everything that ran this turn, and the single live record a UI shows
// while the agent works.
package timeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status of one tool execution. Terminal states are never left.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// UnknownToolName labels records for events that never named their tool.
const UnknownToolName = "Unknown Tool"

// DefaultGracePeriod keeps the final live record visible briefly after the
// turn ends so the user can read its final state.
const DefaultGracePeriod = 3 * time.Second

// Record is one tool execution.
type Record struct {
	ID          string         `json:"id"`
	ToolName    string         `json:"tool_name"`
	Status      Status         `json:"status"`
	Input       map[string]any `json:"input,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	DisplayText string         `json:"display_text"`
	Error       string         `json:"error,omitempty"`
	Preliminary bool           `json:"preliminary,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithGracePeriod overrides the live-view grace period. Zero clears the
// live view synchronously when the turn ends.
func WithGracePeriod(d time.Duration) Option {
	return func(t *Tracker) {
		t.grace = d
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLiveClearedFunc registers a callback for when the live view empties
// after the grace period. It may be invoked from a timer goroutine.
func WithLiveClearedFunc(fn func()) Option {
	return func(t *Tracker) {
		t.onLiveCleared = fn
	}
}

// Tracker accumulates tool execution records for the turn in flight.
// Methods are safe for concurrent use; the grace timer fires on its own
// goroutine.
type Tracker struct {
	mu            sync.Mutex
	records       []Record
	live          *Record
	grace         time.Duration
	now           func() time.Time
	onLiveCleared func()
	timer         *time.Timer
	timerGen      int
}

// NewTracker returns an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		grace: DefaultGracePeriod,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ToolStarted records a formal tool invocation. If the most recent record
// is a still-running preliminary one for the same tool (recovered from
// reasoning text before the formal event arrived), the two are merged
// instead of duplicated.
func (t *Tracker) ToolStarted(tool string, input map[string]any) Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimerLocked()

	if i := len(t.records) - 1; i >= 0 {
		last := &t.records[i]
		if last.Preliminary && last.Status == StatusStarted && last.ToolName == tool {
			last.Preliminary = false
			if input != nil {
				last.Input = input
			}
			last.DisplayText = startText(tool, last.Input)
			t.setLiveLocked(*last)
			return *last
		}
	}

	tool = normalizeTool(tool)
	return t.appendLocked(Record{
		ToolName:    displayName(tool),
		Status:      StatusStarted,
		Input:       input,
		DisplayText: startText(tool, input),
	})
}

// PreliminaryStarted records a tool invocation recovered from reasoning
// text. If a running record for the same tool already exists, nothing is
// added.
func (t *Tracker) PreliminaryStarted(tool string, input map[string]any) Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimerLocked()

	if i := len(t.records) - 1; i >= 0 {
		last := t.records[i]
		if last.Status == StatusStarted && last.ToolName == tool {
			return last
		}
	}

	return t.appendLocked(Record{
		ToolName:    displayName(tool),
		Status:      StatusStarted,
		Input:       input,
		DisplayText: startText(tool, input),
		Preliminary: true,
	})
}

// ToolEnded terminates the most recent running record with its output.
// Without one, a synthetic completed record is appended so the timeline
// still reflects what was observed.
func (t *Tracker) ToolEnded(tool string, output map[string]any) Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimerLocked()

	if rec := t.openRecordLocked(); rec != nil {
		rec.Status = StatusCompleted
		rec.Output = output
		rec.Preliminary = false
		rec.DisplayText = doneText(rec.ToolName, rec.Input, output)
		t.setLiveLocked(*rec)
		return *rec
	}

	tool = normalizeTool(tool)
	return t.appendLocked(Record{
		ToolName:    displayName(tool),
		Status:      StatusCompleted,
		Output:      output,
		DisplayText: doneText(tool, nil, output),
	})
}

// ToolFailed terminates the most recent running record with an error, or
// appends a synthetic error record when nothing is running.
func (t *Tracker) ToolFailed(tool, message string) Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimerLocked()

	if rec := t.openRecordLocked(); rec != nil {
		rec.Status = StatusError
		rec.Error = message
		rec.Preliminary = false
		rec.DisplayText = message
		t.setLiveLocked(*rec)
		return *rec
	}

	return t.appendLocked(Record{
		ToolName:    displayName(normalizeTool(tool)),
		Status:      StatusError,
		Error:       message,
		DisplayText: message,
	})
}

// Finish ends the turn: it returns the finalized timeline and schedules
// the live view to clear after the grace period. It never blocks; a turn
// finalizes immediately while the overlay lingers.
func (t *Tracker) Finish() []Record {
	t.mu.Lock()

	timeline := make([]Record, len(t.records))
	copy(timeline, t.records)
	t.records = nil

	if t.live == nil {
		t.mu.Unlock()
		return timeline
	}

	if t.grace <= 0 {
		t.live = nil
		cb := t.onLiveCleared
		t.mu.Unlock()
		if cb != nil {
			cb()
		}
		return timeline
	}

	t.stopTimerLocked()
	t.timerGen++
	gen := t.timerGen
	t.timer = time.AfterFunc(t.grace, func() {
		t.mu.Lock()
		if t.timerGen != gen {
			t.mu.Unlock()
			return
		}
		cleared := t.live != nil
		t.live = nil
		cb := t.onLiveCleared
		t.mu.Unlock()
		if cleared && cb != nil {
			cb()
		}
	})
	t.mu.Unlock()
	return timeline
}

// Clear drops all state immediately, cancelling any pending grace timer.
// Used when the session is cleared mid-grace or mid-turn.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimerLocked()
	t.records = nil
	t.live = nil
}

// Live returns the record currently shown in the live view.
func (t *Tracker) Live() (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.live == nil {
		return Record{}, false
	}
	return *t.live, true
}

// Timeline returns a copy of the current turn's records.
func (t *Tracker) Timeline() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Tracker) appendLocked(rec Record) Record {
	rec.ID = uuid.New().String()
	rec.StartedAt = t.now()
	t.records = append(t.records, rec)
	t.setLiveLocked(rec)
	return rec
}

// openRecordLocked finds the most recent record still running. Terminal
// records are never revisited, so a stray end event lands on nothing.
func (t *Tracker) openRecordLocked() *Record {
	for i := len(t.records) - 1; i >= 0; i-- {
		if t.records[i].Status == StatusStarted {
			return &t.records[i]
		}
	}
	return nil
}

func (t *Tracker) setLiveLocked(rec Record) {
	live := rec
	t.live = &live
}

func (t *Tracker) stopTimerLocked() {
	t.timerGen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func normalizeTool(tool string) string {
	if tool == "" {
		return "unknown_tool"
	}
	return tool
}

func displayName(tool string) string {
	if tool == "" || tool == "unknown_tool" {
		return UnknownToolName
	}
	return tool
}
