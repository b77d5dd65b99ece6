package server

import (
	"net/http"
	"time"

	"github.com/Inova117/mamapanic/internal/model"
)

// HandleSendMessage handles POST /v1/messages. The pipeline owns
// sanitization, rate limiting, and audit; the handler only maps errors.
func (h *Handlers) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	sender, err := h.currentProfile(r)
	if err != nil {
		h.writeStorageError(w, r, err, "profile not found")
		return
	}

	var req model.SendMessageRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.RecipientID == sender.ID {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "no puedes enviarte mensajes a ti misma")
		return
	}

	msg, err := h.pipeline.SendDirect(r.Context(), sender, req)
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, msg)
}

// HandleConversation handles GET /v1/messages/{user_id}. Returns the
// thread between the caller and the given user, oldest first.
func (h *Handlers) HandleConversation(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	otherID, err := pathUUID(r, "user_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	limit := queryLimit(r, 50)

	messages, err := h.db.ListConversation(r.Context(), claims.UserID(), otherID, limit)
	if err != nil {
		h.writeInternalError(w, r, "failed to list conversation", err)
		return
	}
	writeList(w, r, messages, limit, len(messages))
}

// HandleMarkRead handles POST /v1/messages/{user_id}/read. Marks every
// unread message from that sender as read.
func (h *Handlers) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	senderID, err := pathUUID(r, "user_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	count, err := h.db.MarkMessagesRead(r.Context(), claims.UserID(), senderID)
	if err != nil {
		h.writeInternalError(w, r, "failed to mark messages read", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int64{"marked_read": count})
}

// HandleUnreadCount handles GET /v1/messages/unread.
func (h *Handlers) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	count, err := h.db.CountUnreadMessages(r.Context(), claims.UserID())
	if err != nil {
		h.writeInternalError(w, r, "failed to count unread messages", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int64{"unread_count": count})
}

// HandleListClients handles GET /v1/clients (coach only). Returns every
// mother with her latest thread activity and the coach's unread count.
func (h *Handlers) HandleListClients(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	conversations, err := h.db.ListClientConversations(r.Context(), claims.UserID())
	if err != nil {
		h.writeInternalError(w, r, "failed to list clients", err)
		return
	}
	writeJSON(w, r, http.StatusOK, conversations)
}

// HandleSubscribe handles GET /v1/subscribe (SSE). Streams message
// events addressed to the authenticated user.
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	if h.broker == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeInternalError,
			"SSE not available (LISTEN/NOTIFY not configured)")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "streaming not supported")
		return
	}

	claims := ClaimsFromContext(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Disable the server's WriteTimeout for this long-lived connection.
	// Without this, idle SSE connections are killed after WriteTimeout.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	ch := h.broker.Subscribe(claims.UserID())
	defer h.broker.Unsubscribe(claims.UserID(), ch)

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			if _, err := w.Write([]byte(":keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
