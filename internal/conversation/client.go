package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gd03champ/swiggy-ai-agent/internal/api/agent"
	"github.com/gd03champ/swiggy-ai-agent/internal/api/history"
	"github.com/gd03champ/swiggy-ai-agent/internal/cards"
	"github.com/gd03champ/swiggy-ai-agent/internal/reasoning"
	"github.com/gd03champ/swiggy-ai-agent/internal/stream"
	"github.com/gd03champ/swiggy-ai-agent/internal/timeline"
	"github.com/gd03champ/swiggy-ai-agent/internal/tokens"
)

var tracer = otel.Tracer("github.com/gd03champ/swiggy-ai-agent/internal/conversation")

// ErrTurnInFlight is returned when a send or load is attempted while a
// previous turn is still streaming.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// DefaultUserID identifies requests that never set an explicit user.
const DefaultUserID = "default_user"

// Bangalore city center, the producer's default service area.
var defaultLocation = agent.Location{Latitude: 12.9716, Longitude: 77.5946}

// transportFailureText is shown in place of an assistant reply when the
// stream could not be opened or broke mid-turn.
const transportFailureText = "Sorry, something went wrong while processing your request. Please try again."

// Option configures a Client.
type Option func(*Client)

// WithAgentClient sets the streaming agent API client.
func WithAgentClient(a *agent.Client) Option {
	return func(c *Client) {
		c.agent = a
	}
}

// WithHistoryClient sets the conversation history API client.
func WithHistoryClient(h *history.Client) Option {
	return func(c *Client) {
		c.history = h
	}
}

// WithLogger sets the logger for turn diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserID overrides the user identity sent with every request.
func WithUserID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.userID = id
		}
	}
}

// WithLocation overrides the delivery coordinates sent with every turn.
func WithLocation(lat, lng float64) Option {
	return func(c *Client) {
		c.location = agent.Location{Latitude: lat, Longitude: lng}
	}
}

// WithTrace attaches live-progress callbacks to every turn.
func WithTrace(trace *TurnTrace) Option {
	return func(c *Client) {
		c.trace = trace
	}
}

// WithTokenCounter overrides the counter used for outbound size logging.
func WithTokenCounter(counter tokens.Counter) Option {
	return func(c *Client) {
		c.counter = counter
	}
}

// WithTracker injects a preconfigured tool timeline tracker. The caller
// owns its grace period and live-cleared callback.
func WithTracker(t *timeline.Tracker) Option {
	return func(c *Client) {
		c.tracker = t
	}
}

// Client assembles conversation turns. It sends user messages to the
// agent, routes each stream event to the reasoning, timeline, and card
// components, and folds the result into an append-only session. Only
// one turn may be in flight at a time.
type Client struct {
	agent    *agent.Client
	history  *history.Client
	session  *Session
	tracker  *timeline.Tracker
	logger   *slog.Logger
	counter  tokens.Counter
	trace    *TurnTrace
	userID   string
	location agent.Location

	mu       sync.Mutex
	inFlight bool
	cancel   context.CancelFunc
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		session:  NewSession(),
		logger:   slog.Default(),
		counter:  tokens.NewCounter(),
		userID:   DefaultUserID,
		location: defaultLocation,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.agent == nil {
		c.agent = agent.NewClient(agent.WithLogger(c.logger))
	}
	if c.history == nil {
		c.history = history.NewClient()
	}
	if c.tracker == nil {
		c.tracker = timeline.NewTracker(timeline.WithLiveClearedFunc(c.trace.liveCleared))
	}
	return c
}

// SendOptions carries per-turn extras.
type SendOptions struct {
	// Media attaches an image or similar payload to the message.
	Media *agent.Media
}

// Send runs one conversation turn and returns the assistant message it
// produced, or nil when the stream yielded nothing. The user message is
// appended to the session before streaming begins. When the transport
// fails a fallback error message is appended in the assistant's place;
// a cancelled turn is discarded without one.
func (c *Client) Send(ctx context.Context, text string) (*Message, error) {
	return c.SendWithOptions(ctx, text, nil)
}

// SendWithOptions is Send with per-turn extras such as attached media.
func (c *Client) SendWithOptions(ctx context.Context, text string, opts *SendOptions) (*Message, error) {
	ctx, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer c.end()

	ctx, span := tracer.Start(ctx, "conversation.turn")
	defer span.End()

	prior := c.session.Messages()

	userMsg := Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	}
	var media *agent.Media
	if opts != nil && opts.Media != nil {
		media = opts.Media
		if media.Type == "image" {
			userMsg.Image = media.Data
		}
	}
	c.session.Append(userMsg)

	outbound := Window(prior, text)
	req := &agent.ChatRequest{
		Message:        outbound,
		ConversationID: c.session.ID(),
		UserID:         c.userID,
		Location:       &c.location,
		Media:          media,
	}

	promptTokens, estimated := c.counter.Count(outbound)
	c.logger.Debug("sending turn",
		slog.String("conversation_id", req.ConversationID),
		slog.Int("history", len(prior)),
		slog.Int("prompt_tokens", promptTokens),
		slog.Bool("estimated", estimated))

	s, err := c.agent.StreamChat(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		span.RecordError(err)
		c.appendFailure(err)
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	defer s.Close()

	t := &turn{client: c}
	for s.Next() {
		t.handle(s.Event())
	}
	span.SetAttributes(
		attribute.Int("turn.events", t.events),
		attribute.String("conversation.id", c.session.ID()),
	)

	if ctx.Err() != nil {
		c.tracker.Clear()
		return nil, ctx.Err()
	}
	if err := s.Err(); err != nil {
		c.tracker.Clear()
		span.RecordError(err)
		c.appendFailure(err)
		return nil, fmt.Errorf("stream aborted: %w", err)
	}

	return t.fold(), nil
}

// turn accumulates the transient state of one streaming response.
type turn struct {
	client   *Client
	thinking []string
	steps    []ReasoningStep
	items    []cards.Item
	text     string
	events   int
}

func (t *turn) handle(ev stream.Event) {
	c := t.client
	t.events++
	switch ev.Kind {
	case stream.KindThinking:
		if text := ev.Text(); text != "" {
			t.thinking = append(t.thinking, text)
			c.trace.thinking(text)
		}

	case stream.KindReasoningStep:
		data, err := ev.ReasoningStep()
		if err != nil {
			c.logger.Debug("skipping malformed reasoning step", slog.String("error", err.Error()))
			return
		}
		res := reasoning.Normalize(data.Thought, data.Step)
		step := ReasoningStep{
			Step:     data.Step,
			Raw:      data.Thought,
			Cleaned:  res.Cleaned,
			ToolCall: res.ToolCall,
		}
		t.steps = append(t.steps, step)
		c.trace.reasoningStep(step)
		if res.ToolCall != nil {
			rec := c.tracker.PreliminaryStarted(res.ToolCall.Name, res.ToolCall.Input)
			c.trace.toolUpdate(rec)
		}

	case stream.KindAgentAction, stream.KindToolStart:
		rec := c.tracker.ToolStarted(ev.ToolName, decodePayload(ev.Input))
		c.trace.toolUpdate(rec)

	case stream.KindToolEnd:
		rec := c.tracker.ToolEnded(ev.ToolName, decodePayload(ev.Output))
		c.trace.toolUpdate(rec)

	case stream.KindToolError:
		text := ev.Text()
		rec := c.tracker.ToolFailed(ev.ToolName, text)
		if text != "" {
			// Failures stay readable after the live overlay goes away.
			t.thinking = append(t.thinking, text)
		}
		c.trace.toolUpdate(rec)

	case stream.KindStructuredData:
		for _, item := range cards.Decode(ev.Data) {
			t.items = append(t.items, item)
			c.trace.structuredItem(item)
		}

	case stream.KindMessage:
		var prose strings.Builder
		for _, seg := range cards.Split(ev.Text()) {
			if seg.Card != nil {
				t.items = append(t.items, *seg.Card)
				c.trace.structuredItem(*seg.Card)
				continue
			}
			prose.WriteString(seg.Prose)
		}
		t.text = strings.TrimSpace(prose.String())
		c.trace.messageText(t.text)

	case stream.KindError:
		if text := ev.Text(); text != "" {
			t.thinking = append(t.thinking, text)
			c.trace.thinking(text)
		}

	case stream.KindDone:
		c.session.Bind(ev.ConversationID)

	default:
		c.logger.Debug("ignoring unknown event kind", slog.String("kind", string(ev.Kind)))
	}
}

// fold assembles the accumulated state into an assistant message and
// appends it to the session. A turn that produced nothing leaves the
// session untouched and returns nil.
func (t *turn) fold() *Message {
	c := t.client
	records := c.tracker.Finish()
	thinking := strings.Join(t.thinking, "\n\n")

	if t.text == "" && thinking == "" && len(t.steps) == 0 && len(t.items) == 0 && len(records) == 0 {
		return nil
	}

	msg := Message{
		ID:             uuid.NewString(),
		Role:           RoleAssistant,
		Text:           t.text,
		Thinking:       thinking,
		StructuredData: t.items,
		ReasoningSteps: t.steps,
		ToolHistory:    records,
		Timestamp:      time.Now(),
	}
	c.session.Append(msg)
	return &msg
}

// appendFailure records a user-facing fallback message for a broken
// transport. The turn is not retried.
func (c *Client) appendFailure(cause error) {
	c.logger.Error("turn failed", slog.String("error", cause.Error()))
	c.session.Append(Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Text:      transportFailureText,
		Timestamp: time.Now(),
		IsError:   true,
	})
}

// decodePayload turns a tool input or output into a map. Producers send
// either a JSON object or a stringified one; both are accepted and
// anything else is dropped.
func decodePayload(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	if m, ok := stream.DecodeObject(raw); ok {
		return m
	}
	if s, ok := stream.DecodeString(raw); ok {
		if m, _, ok := cards.ParseLoose(s); ok {
			return m
		}
	}
	return nil
}

// LoadConversation replaces the session with a previously stored
// conversation. Records that cannot be read are skipped; the rest are
// ordered oldest first.
func (c *Client) LoadConversation(ctx context.Context, id string) error {
	ctx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer c.end()

	conv, err := c.history.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	msgs := make([]Message, 0, len(conv.Messages))
	for _, rec := range conv.Messages {
		hm, ok := rec.Normalize()
		if !ok {
			c.logger.Warn("skipping unreadable history record",
				slog.String("conversation_id", id))
			continue
		}
		msg := Message{
			ID:        uuid.NewString(),
			Role:      RoleUser,
			Text:      hm.Text,
			Timestamp: hm.Timestamp,
		}
		if hm.Role == history.RoleAssistant {
			msg.Role = RoleAssistant
		}
		if items := cards.Decode(rec["structured_data"]); len(items) > 0 {
			msg.StructuredData = items
		}
		msgs = append(msgs, msg)
	}

	sessionID := conv.SessionID
	if sessionID == "" {
		sessionID = id
	}
	c.tracker.Clear()
	c.session.Replace(sessionID, msgs)
	c.logger.Info("conversation loaded",
		slog.String("conversation_id", sessionID),
		slog.Int("messages", len(msgs)))
	return nil
}

// ListConversations returns stored conversations for this client's
// user, newest first.
func (c *Client) ListConversations(ctx context.Context, limit, offset int) (*history.ListResult, error) {
	return c.history.List(ctx, &history.ListRequest{
		UserID: c.userID,
		Limit:  limit,
		Offset: offset,
	})
}

// DeleteConversation removes a stored conversation. Deleting the one
// currently loaded also clears the session.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if err := c.history.Delete(ctx, id); err != nil {
		return err
	}
	if id == c.session.ID() {
		c.Clear()
	}
	return nil
}

// Messages returns a copy of the session history.
func (c *Client) Messages() []Message {
	return c.session.Messages()
}

// SessionID returns the bound conversation id, or "" before the first
// turn completes.
func (c *Client) SessionID() string {
	return c.session.ID()
}

// Live reports the record currently shown in the live tool view.
func (c *Client) Live() (timeline.Record, bool) {
	return c.tracker.Live()
}

// Clear aborts any in-flight turn and resets the client to a fresh
// conversation.
func (c *Client) Clear() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.tracker.Clear()
	c.session.Clear()
}

func (c *Client) begin(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return nil, ErrTurnInFlight
	}
	ctx, cancel := context.WithCancel(ctx)
	c.inFlight = true
	c.cancel = cancel
	return ctx, nil
}

func (c *Client) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inFlight = false
}
