package server

import (
	"net/http"

	"github.com/Inova117/mamapanic/internal/model"
)

// HandleSendChat handles POST /v1/chat. Stores the user turn, generates
// the companion reply, and returns the assistant message.
func (h *Handlers) HandleSendChat(w http.ResponseWriter, r *http.Request) {
	sender, err := h.currentProfile(r)
	if err != nil {
		h.writeStorageError(w, r, err, "profile not found")
		return
	}

	var req model.ChatRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.SessionID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "session_id is required")
		return
	}

	reply, err := h.pipeline.SendChat(r.Context(), sender, req)
	if err != nil {
		h.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, reply)
}

// HandleChatHistory handles GET /v1/chat/{session_id}.
func (h *Handlers) HandleChatHistory(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "session_id is required")
		return
	}
	limit := queryLimit(r, 50)

	history, err := h.db.ListChatHistory(r.Context(), claims.UserID(), sessionID, limit)
	if err != nil {
		h.writeInternalError(w, r, "failed to list chat history", err)
		return
	}
	writeList(w, r, history, limit, len(history))
}
