package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const framePrefix = "data: "

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger used for skipped-frame warnings.
func WithLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// Reader pulls events off a frame stream one at a time. Lines that do not
// carry the frame prefix (blank separators, keep-alive comments, stray
// text) are ignored, and frames whose JSON does not parse are skipped with
// a warning so one corrupt line never kills the turn. The stream ends at
// transport EOF or after a done event, whichever comes first.
type Reader struct {
	sc     *bufio.Scanner
	logger *slog.Logger
	ev     Event
	err    error
	done   bool
}

// NewReader wraps r. The caller retains ownership of r and closes it.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	sc := bufio.NewScanner(r)
	// Increase buffer size for potentially large frames
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 1024*1024)

	reader := &Reader{
		sc:     sc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Next advances to the next event. It returns false once the stream is
// exhausted; check Err afterwards to distinguish EOF from a read error.
func (r *Reader) Next() bool {
	if r.done || r.err != nil {
		return false
	}

	for r.sc.Scan() {
		line := r.sc.Text()

		if !strings.HasPrefix(line, framePrefix) {
			continue
		}

		payload := strings.TrimPrefix(line, framePrefix)

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			r.logger.Warn("skipping malformed frame",
				slog.String("error", err.Error()),
				slog.Int("length", len(payload)))
			continue
		}
		if ev.Kind == "" {
			r.logger.Warn("skipping frame without event type")
			continue
		}

		r.ev = ev
		if ev.Kind == KindDone {
			// Deliver done, then stop; the producer may keep the
			// connection open past it.
			r.done = true
		}
		return true
	}

	if err := r.sc.Err(); err != nil {
		r.err = fmt.Errorf("stream read error: %w", err)
	}
	return false
}

// Event returns the event produced by the last successful Next.
func (r *Reader) Event() Event {
	return r.ev
}

// Err reports a transport read error, if any. A nil result after Next
// returns false means the stream ended cleanly.
func (r *Reader) Err() error {
	return r.err
}
