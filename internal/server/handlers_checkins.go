package server

import (
	"errors"
	"net/http"

	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/ratelimit"
	"github.com/Inova117/mamapanic/internal/sanitize"
	"github.com/Inova117/mamapanic/internal/storage"
)

// HandleCreateCheckIn handles POST /v1/checkins.
func (h *Handlers) HandleCreateCheckIn(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req model.CreateCheckInRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	if req.BrainDump != nil && *req.BrainDump != "" {
		notes := sanitize.ValidateNotes(*req.BrainDump, sanitize.MaxNotesLen)
		if !notes.Valid {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, notes.Error)
			return
		}
		req.BrainDump = &notes.Sanitized
	}

	if !h.guard.CanCreateCheckIn(r.Context(), claims.Subject) {
		h.auditor.RateLimitHit(claims.Subject, ratelimit.CreateCheckIn.Action)
		writeError(w, r, http.StatusTooManyRequests, model.ErrCodeRateLimited,
			ratelimit.Message(ratelimit.CreateCheckIn.Action))
		return
	}

	aiResponse := h.companion.CheckInValidation(r.Context(), req.Mood, req.BrainDump)

	checkin, err := h.db.CreateCheckIn(r.Context(), claims.UserID(), req, &aiResponse)
	if err != nil {
		h.writeInternalError(w, r, "failed to create check-in", err)
		return
	}

	h.auditor.CheckInCreated(claims.Subject, checkin.ID.String(), checkin.Mood)
	writeJSON(w, r, http.StatusCreated, checkin)
}

// HandleListCheckIns handles GET /v1/checkins.
func (h *Handlers) HandleListCheckIns(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	limit := queryLimit(r, 7)

	checkins, err := h.db.ListCheckIns(r.Context(), claims.UserID(), limit)
	if err != nil {
		h.writeInternalError(w, r, "failed to list check-ins", err)
		return
	}
	writeList(w, r, checkins, limit, len(checkins))
}

// HandleTodayCheckIn handles GET /v1/checkins/today.
func (h *Handlers) HandleTodayCheckIn(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	checkin, err := h.db.GetTodayCheckIn(r.Context(), claims.UserID())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// No check-in yet today is a normal state, not an error.
			writeJSON(w, r, http.StatusOK, nil)
			return
		}
		h.writeInternalError(w, r, "failed to get today's check-in", err)
		return
	}
	writeJSON(w, r, http.StatusOK, checkin)
}
