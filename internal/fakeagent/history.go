package fakeagent

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gd03champ/swiggy-ai-agent/internal/api/history"
	"github.com/gd03champ/swiggy-ai-agent/internal/server"
	"github.com/gd03champ/swiggy-ai-agent/internal/storage"
)

// messageCap bounds how many messages a conversation exposes; the
// oldest fall off first, matching the real backend's window.
const messageCap = 20

const conversationNotFound = "Conversation not found"

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	var req history.ListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.AddError(r.Context(), err)
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.SortOrder == 0 {
		req.SortOrder = -1
	}

	page, total, err := h.store.ListConversations(r.Context(), storage.ListOptions{
		UserID:    req.UserID,
		Limit:     req.Limit,
		Offset:    req.Offset,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		server.AddError(r.Context(), err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	conversations := make([]history.Conversation, 0, len(page))
	for _, conv := range page {
		conversations = append(conversations, summarize(conv))
	}

	writeJSON(w, http.StatusOK, history.ListResult{
		Conversations: conversations,
		Total:         total,
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
}

func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	conv, err := h.store.GetConversation(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, conversationNotFound)
		return
	}
	if err != nil {
		server.AddError(r.Context(), err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, wireConversation(conv))
}

func (h *Handler) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	err := h.store.DeleteConversation(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, conversationNotFound)
		return
	}
	if err != nil {
		server.AddError(r.Context(), err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Conversation deleted successfully",
	})
}

// wireConversation maps a stored conversation onto the history API
// document, windowed to the most recent messages.
func wireConversation(conv *storage.Conversation) history.Conversation {
	msgs := conv.Messages
	if len(msgs) > messageCap {
		msgs = msgs[len(msgs)-messageCap:]
	}

	records := make([]history.Record, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, history.Record{
			"type":      m.Role,
			"text":      m.Content,
			"timestamp": m.Timestamp.Format(time.RFC3339Nano),
		})
	}

	return history.Conversation{
		SessionID: conv.SessionID,
		UserID:    conv.UserID,
		Messages:  records,
		CreatedAt: conv.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: conv.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// summarize adds the listing-only fields: a preview drawn from the
// first user message, the message count, and the turn time bounds.
func summarize(conv *storage.Conversation) history.Conversation {
	out := wireConversation(conv)

	if len(out.Messages) == 0 {
		out.Summary = "Empty Conversation"
		out.StartTime = out.CreatedAt
		out.EndTime = out.UpdatedAt
		return out
	}

	out.Summary = "Conversation"
	for _, rec := range out.Messages {
		if rec["type"] == "human" {
			if text, ok := rec["text"].(string); ok {
				out.Summary = preview(text)
			}
			break
		}
	}
	out.MessageCount = len(out.Messages)
	out.StartTime, _ = out.Messages[0]["timestamp"].(string)
	out.EndTime, _ = out.Messages[len(out.Messages)-1]["timestamp"].(string)
	return out
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= 100 {
		return text
	}
	return string(runes[:100]) + "..."
}
