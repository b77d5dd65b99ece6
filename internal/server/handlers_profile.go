package server

import (
	"net/http"

	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/sanitize"
)

// HandleGetProfile handles GET /v1/profile.
func (h *Handlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.currentProfile(r)
	if err != nil {
		h.writeStorageError(w, r, err, "profile not found")
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}

// HandleUpdateProfile handles PATCH /v1/profile.
func (h *Handlers) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req model.UpdateProfileRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.DisplayName == nil && req.AvatarURL == nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "nothing to update")
		return
	}
	if req.DisplayName != nil {
		name := sanitize.ValidateName(*req.DisplayName)
		if !name.Valid {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, name.Error)
			return
		}
		req.DisplayName = &name.Sanitized
	}

	profile, err := h.db.UpdateProfile(r.Context(), claims.UserID(), req)
	if err != nil {
		h.writeStorageError(w, r, err, "profile not found")
		return
	}

	h.auditor.ProfileUpdated(claims.Subject)
	writeJSON(w, r, http.StatusOK, profile)
}

// HandleListCoaches handles GET /v1/coaches. Mothers use it to find who
// to message.
func (h *Handlers) HandleListCoaches(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.db.ListCoaches(r.Context())
	if err != nil {
		h.writeInternalError(w, r, "failed to list coaches", err)
		return
	}
	writeJSON(w, r, http.StatusOK, coaches)
}
