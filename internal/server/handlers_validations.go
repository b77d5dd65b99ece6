package server

import (
	"net/http"

	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/sanitize"
)

// categoryFilter reads an optional ?category= query parameter.
func categoryFilter(r *http.Request) *model.ValidationCategory {
	if v := r.URL.Query().Get("category"); v != "" {
		c := model.ValidationCategory(v)
		return &c
	}
	return nil
}

// HandleListValidations handles GET /v1/validations.
func (h *Handlers) HandleListValidations(w http.ResponseWriter, r *http.Request) {
	cards, err := h.db.ListValidationCards(r.Context(), categoryFilter(r))
	if err != nil {
		h.writeInternalError(w, r, "failed to list validation cards", err)
		return
	}
	writeJSON(w, r, http.StatusOK, cards)
}

// HandleRandomValidation handles GET /v1/validations/random.
func (h *Handlers) HandleRandomValidation(w http.ResponseWriter, r *http.Request) {
	card, err := h.db.RandomValidationCard(r.Context(), categoryFilter(r))
	if err != nil {
		h.writeStorageError(w, r, err, "no validation cards available")
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

// HandleCreateValidation handles POST /v1/validations (coach+).
func (h *Handlers) HandleCreateValidation(w http.ResponseWriter, r *http.Request) {
	var req model.CreateValidationCardRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	msg := sanitize.ValidateNotes(req.MessageES, sanitize.MaxMessageLen)
	if !msg.Valid {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, msg.Error)
		return
	}
	req.MessageES = msg.Sanitized

	card, err := h.db.CreateValidationCard(r.Context(), req)
	if err != nil {
		h.writeInternalError(w, r, "failed to create validation card", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}
