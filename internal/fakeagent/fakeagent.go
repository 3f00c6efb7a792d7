// Package fakeagent is a scripted stand-in for the conversational agent
// backend. It speaks the same wire surface as the real service -- the
// chat stream, the conversation history API, and the dining catalog --
// but every chat is answered from a fixed script table instead of a
// model, so responses are canned regardless of phrasing. It exists for
// local development and end-to-end tests.
package fakeagent

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gd03champ/swiggy-ai-agent/internal/storage"
)

// Option configures a Handler.
type Option func(*Handler)

// WithScripts replaces the built-in scenario table.
func WithScripts(scripts []Script) Option {
	return func(h *Handler) {
		h.scripts = scripts
	}
}

// WithLogger sets the handler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithFrameDelay paces the stream so a watching client sees events
// arrive progressively. Zero streams as fast as the socket allows.
func WithFrameDelay(d time.Duration) Option {
	return func(h *Handler) {
		h.delay = d
	}
}

// Handler serves the scripted agent surface from a conversation store
// and a scenario table.
type Handler struct {
	store   storage.Store
	scripts []Script
	logger  *slog.Logger
	delay   time.Duration
}

// NewHandler builds a handler around the given store.
func NewHandler(store storage.Store, opts ...Option) *Handler {
	h := &Handler{
		store:   store,
		scripts: DefaultScripts(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mount registers every route on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.handleHealth)
	r.Post("/api/agent/chat/stream", h.handleChatStream)
	r.Post("/api/conversation/history", h.handleHistory)
	r.Get("/api/conversation/{conversationID}", h.handleGetConversation)
	r.Delete("/api/conversation/{conversationID}", h.handleDeleteConversation)
	r.Get("/api/restaurants", h.handleRestaurants)
	r.Get("/api/search", h.handleSearch)
	r.Get("/api/menu", h.handleMenu)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "fakeagent"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail emits the {"detail": ...} error envelope the real
// backend uses.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
