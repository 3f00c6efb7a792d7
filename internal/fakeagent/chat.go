package fakeagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gd03champ/swiggy-ai-agent/internal/api/agent"
	"github.com/gd03champ/swiggy-ai-agent/internal/server"
	"github.com/gd03champ/swiggy-ai-agent/internal/storage"
	"github.com/gd03champ/swiggy-ai-agent/internal/stream"
)

// persistTimeout bounds store writes. Writes run on a background
// context so a client that hangs up mid-stream doesn't lose them.
const persistTimeout = 5 * time.Second

func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req agent.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.AddError(r.Context(), err)
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeDetail(w, http.StatusBadRequest, "Message must not be empty")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}
	server.AddLogField(r.Context(), "conversation_id", conversationID)

	h.persistMessage(conversationID, req.UserID, "human", userMessageText(req))

	script, ok := SelectScript(h.scripts, req.Message, req.Media != nil)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "No scenario matches the message")
		return
	}
	server.AddLogField(r.Context(), "scenario", script.Name)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		server.AddError(r.Context(), errors.New("streaming not supported"))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var reply string
	persisted := false
	for _, frame := range script.Frames {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		switch {
		case frame.Abort:
			panic(http.ErrAbortHandler)

		case frame.Raw != "":
			fmt.Fprintf(w, "%s\n", frame.Raw)

		default:
			ev := frame.Event
			if ev.Kind == stream.KindMessage {
				if text, ok := stream.DecodeString(ev.Data); ok {
					reply = text
				}
			}
			if ev.Kind == stream.KindDone {
				ev.ConversationID = conversationID
				// Persist before the done frame goes out, so a client
				// that acts on done sees the committed turn.
				if reply != "" && !persisted {
					h.persistMessage(conversationID, req.UserID, "ai", reply)
					persisted = true
				}
			}
			if err := stream.WriteFrame(w, ev); err != nil {
				server.AddError(r.Context(), err)
				return
			}
		}
		flusher.Flush()

		if h.delay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(h.delay):
			}
		}
	}

	if reply != "" && !persisted {
		h.persistMessage(conversationID, req.UserID, "ai", reply)
	}
}

// userMessageText is what gets persisted for the user's turn. An image
// attachment adds the note the agent would otherwise never see.
func userMessageText(req agent.ChatRequest) string {
	if req.Media == nil || req.Media.Type != "image" || req.Media.Data == "" {
		return req.Message
	}
	name, _ := req.Media.Metadata["name"].(string)
	if name == "" {
		name = "uploaded image"
	}
	return fmt.Sprintf("%s\n\n[Note: I've attached an image of %s for you to analyze]", req.Message, name)
}

// persistMessage writes one turn to the store, creating the
// conversation on first touch. Persistence is best-effort: a failed
// write is logged and the stream carries on.
func (h *Handler) persistMessage(conversationID, userID, role, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	msg := &storage.Message{Role: role, Content: text}
	err := h.store.AppendMessage(ctx, conversationID, msg)
	if errors.Is(err, storage.ErrNotFound) {
		conv := &storage.Conversation{SessionID: conversationID, UserID: userID}
		if err := h.store.CreateConversation(ctx, conv); err != nil && !errors.Is(err, storage.ErrExists) {
			h.logger.Error("failed to create conversation",
				slog.String("conversation_id", conversationID),
				slog.String("error", err.Error()),
			)
			return
		}
		err = h.store.AppendMessage(ctx, conversationID, msg)
	}
	if err != nil {
		h.logger.Error("failed to persist message",
			slog.String("conversation_id", conversationID),
			slog.String("role", role),
			slog.String("error", err.Error()),
		)
	}
}
