package server

import (
	"errors"
	"net/http"

	"github.com/Inova117/mamapanic/internal/auth"
	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/sanitize"
	"github.com/Inova117/mamapanic/internal/storage"
)

// HandleRegister handles POST /v1/auth/register.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	email := sanitize.ValidateEmail(req.Email)
	if !email.Valid {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, email.Error)
		return
	}
	if pw := sanitize.ValidatePassword(req.Password); !pw.Valid {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, pw.Error)
		return
	}
	name := sanitize.ValidateName(req.DisplayName)
	if !name.Valid {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, name.Error)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeInternalError(w, r, "failed to hash password", err)
		return
	}

	profile, err := h.db.CreateProfile(r.Context(), email.Sanitized, name.Sanitized, hash, model.RoleMother)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, r, http.StatusConflict, model.ErrCodeConflict, "El correo ya está registrado")
			return
		}
		h.writeInternalError(w, r, "failed to create profile", err)
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(profile)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}

	h.auditor.SessionStarted(profile.ID.String())

	writeJSON(w, r, http.StatusCreated, model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Profile:   profile,
	})
}

// HandleLogin handles POST /v1/auth/login.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	email := sanitize.ValidateEmail(req.Email)
	if !email.Valid {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "credenciales inválidas")
		return
	}

	profile, err := h.db.GetProfileByEmail(r.Context(), email.Sanitized)
	if err != nil {
		// Burn a hash verification so a missing account costs the same
		// as a wrong password.
		auth.DummyVerify()
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "credenciales inválidas")
		return
	}

	valid, err := auth.VerifyPassword(req.Password, profile.PasswordHash)
	if err != nil || !valid {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "credenciales inválidas")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(profile)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}

	h.auditor.SessionStarted(profile.ID.String())

	writeJSON(w, r, http.StatusOK, model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Profile:   profile,
	})
}

// HandleLogout handles POST /v1/auth/logout. Tokens are stateless; the
// endpoint exists to record the session end.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	h.auditor.SessionEnded(claims.Subject)
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}
