package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Inova117/mamapanic/internal/model"
)

// HandleListAuditLog handles GET /v1/admin/audit. Optional ?user_id=
// filter, ?limit= clamp.
func (h *Handlers) HandleListAuditLog(w http.ResponseWriter, r *http.Request) {
	var userID *uuid.UUID
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid user_id: "+v)
			return
		}
		userID = &id
	}
	limit := queryLimit(r, 100)

	entries, err := h.db.ListAuditEntries(r.Context(), userID, limit)
	if err != nil {
		h.writeInternalError(w, r, "failed to list audit log", err)
		return
	}
	writeList(w, r, entries, limit, len(entries))
}

// HandleDebugLog handles GET /v1/admin/debug. Returns the in-memory
// ring, newest first.
func (h *Handlers) HandleDebugLog(w http.ResponseWriter, r *http.Request) {
	if h.debug == nil {
		writeJSON(w, r, http.StatusOK, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, h.debug.Entries())
}

// HandleClearDebugLog handles DELETE /v1/admin/debug.
func (h *Handlers) HandleClearDebugLog(w http.ResponseWriter, r *http.Request) {
	if h.debug != nil {
		h.debug.Clear()
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "cleared"})
}
