package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/ratelimit"
	"github.com/Inova117/mamapanic/internal/sanitize"
	"github.com/Inova117/mamapanic/internal/storage"
)

// HandleCreateBitacora handles POST /v1/bitacoras.
func (h *Handlers) HandleCreateBitacora(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	input, ok := h.decodeBitacoraInput(w, r)
	if !ok {
		return
	}

	if !h.guard.CanCreateBitacora(r.Context(), claims.Subject) {
		h.auditor.RateLimitHit(claims.Subject, ratelimit.CreateBitacora.Action)
		writeError(w, r, http.StatusTooManyRequests, model.ErrCodeRateLimited,
			ratelimit.Message(ratelimit.CreateBitacora.Action))
		return
	}

	summary := h.companion.BitacoraSummary(r.Context(), bitacoraFromInput(input))

	bitacora, err := h.db.CreateBitacora(r.Context(), claims.UserID(), input, &summary)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, r, http.StatusConflict, model.ErrCodeConflict, "ya existe una bitácora para esa fecha")
			return
		}
		h.writeInternalError(w, r, "failed to create bitacora", err)
		return
	}

	h.auditor.BitacoraCreated(claims.Subject, bitacora.ID.String(), bitacora.DayNumber)
	writeJSON(w, r, http.StatusCreated, bitacora)
}

// HandleUpdateBitacora handles PUT /v1/bitacoras/{id}.
func (h *Handlers) HandleUpdateBitacora(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	input, ok := h.decodeBitacoraInput(w, r)
	if !ok {
		return
	}

	summary := h.companion.BitacoraSummary(r.Context(), bitacoraFromInput(input))

	bitacora, err := h.db.UpdateBitacora(r.Context(), claims.UserID(), id, input, &summary)
	if err != nil {
		h.writeStorageError(w, r, err, "bitacora not found")
		return
	}

	h.auditor.BitacoraUpdated(claims.Subject, bitacora.ID.String())
	writeJSON(w, r, http.StatusOK, bitacora)
}

// HandleListBitacoras handles GET /v1/bitacoras.
func (h *Handlers) HandleListBitacoras(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	limit := queryLimit(r, 30)

	bitacoras, err := h.db.ListBitacoras(r.Context(), claims.UserID(), limit)
	if err != nil {
		h.writeInternalError(w, r, "failed to list bitacoras", err)
		return
	}
	writeList(w, r, bitacoras, limit, len(bitacoras))
}

// HandleGetBitacora handles GET /v1/bitacoras/{id}.
func (h *Handlers) HandleGetBitacora(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	bitacora, err := h.db.GetBitacora(r.Context(), claims.UserID(), id)
	if err != nil {
		h.writeStorageError(w, r, err, "bitacora not found")
		return
	}
	writeJSON(w, r, http.StatusOK, bitacora)
}

// HandleTodayBitacora handles GET /v1/bitacoras/today.
func (h *Handlers) HandleTodayBitacora(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	today := time.Now().UTC().Format("2006-01-02")

	bitacora, err := h.db.GetBitacoraByDate(r.Context(), claims.UserID(), today)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, r, http.StatusOK, nil)
			return
		}
		h.writeInternalError(w, r, "failed to get today's bitacora", err)
		return
	}
	writeJSON(w, r, http.StatusOK, bitacora)
}

// HandleMotherBitacoras handles GET /v1/mothers/{user_id}/bitacoras.
// Coach-only view over a client's sleep logs.
func (h *Handlers) HandleMotherBitacoras(w http.ResponseWriter, r *http.Request) {
	motherID, err := pathUUID(r, "user_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	limit := queryLimit(r, 30)

	bitacoras, err := h.db.ListBitacoras(r.Context(), motherID, limit)
	if err != nil {
		h.writeInternalError(w, r, "failed to list bitacoras", err)
		return
	}
	writeList(w, r, bitacoras, limit, len(bitacoras))
}

// decodeBitacoraInput decodes, validates, and sanitizes a bitácora body.
// On failure it has already written the error response.
func (h *Handlers) decodeBitacoraInput(w http.ResponseWriter, r *http.Request) (model.BitacoraInput, bool) {
	var input model.BitacoraInput
	if err := decodeJSON(w, r, &input, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return input, false
	}
	if err := input.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return input, false
	}
	if input.Notes != nil && *input.Notes != "" {
		notes := sanitize.ValidateNotes(*input.Notes, sanitize.MaxNotesLen)
		if !notes.Valid {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, notes.Error)
			return input, false
		}
		input.Notes = &notes.Sanitized
	}
	return input, true
}

// bitacoraFromInput builds an unsaved record so the companion can
// summarize the log before it is stored.
func bitacoraFromInput(in model.BitacoraInput) model.Bitacora {
	return model.Bitacora{
		Date:                    in.Date,
		PreviousDayWakeTime:     in.PreviousDayWakeTime,
		Nap1:                    in.Nap1,
		Nap2:                    in.Nap2,
		Nap3:                    in.Nap3,
		HowBabyAte:              in.HowBabyAte,
		RelaxingRoutineStart:    in.RelaxingRoutineStart,
		BabyMood:                in.BabyMood,
		LastFeedingTime:         in.LastFeedingTime,
		LaidDownForBed:          in.LaidDownForBed,
		FellAsleepAt:            in.FellAsleepAt,
		TimeToFallAsleepMinutes: in.TimeToFallAsleepMinutes,
		NumberOfWakings:         in.NumberOfWakings,
		NightWakings:            in.NightWakings,
		MorningWakeTime:         in.MorningWakeTime,
		Notes:                   in.Notes,
	}
}
