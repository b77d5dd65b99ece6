package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Inova117/mamapanic/internal/audit"
	"github.com/Inova117/mamapanic/internal/auth"
	"github.com/Inova117/mamapanic/internal/companion"
	"github.com/Inova117/mamapanic/internal/debuglog"
	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/pipeline"
	"github.com/Inova117/mamapanic/internal/ratelimit"
	"github.com/Inova117/mamapanic/internal/storage"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	db                  *storage.DB
	jwtMgr              *auth.JWTManager
	pipeline            *pipeline.Pipeline
	companion           *companion.Companion
	guard               *ratelimit.Guard
	auditor             *audit.Logger
	debug               *debuglog.Buffer
	broker              *Broker
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): Broker, Debug.
type HandlersDeps struct {
	DB                  *storage.DB
	JWTMgr              *auth.JWTManager
	Pipeline            *pipeline.Pipeline
	Companion           *companion.Companion
	Guard               *ratelimit.Guard
	Auditor             *audit.Logger
	Debug               *debuglog.Buffer
	Broker              *Broker
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		db:                  d.DB,
		jwtMgr:              d.JWTMgr,
		pipeline:            d.Pipeline,
		companion:           d.Companion,
		guard:               d.Guard,
		auditor:             d.Auditor,
		debug:               d.Debug,
		broker:              d.Broker,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
	}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pgStatus := "connected"
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		pgStatus = "disconnected"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	resp := model.HealthResponse{
		Status:    status,
		Version:   h.version,
		Postgres:  pgStatus,
		Companion: h.companion.ProviderName(),
		Uptime:    int64(time.Since(h.startedAt).Seconds()),
	}
	if h.broker != nil {
		resp.SSEBroker = "running"
	}

	writeJSON(w, r, httpStatus, resp)
}

// --- Shared helpers ---

// writeInternalError logs the underlying error and responds 500 without
// leaking details to the client.
func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err, "request_id", RequestIDFromContext(r.Context()))
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, msg)
}

// writeStorageError maps storage sentinel errors to API responses.
func (h *Handlers) writeStorageError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, storage.ErrDuplicate):
		writeError(w, r, http.StatusConflict, model.ErrCodeConflict, "resource already exists")
	default:
		h.writeInternalError(w, r, "storage operation failed", err)
	}
}

// writePipelineError maps pipeline rejections to API responses.
func (h *Handlers) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *pipeline.ValidationError
	var rateErr *pipeline.RateLimitError
	var busyErr *pipeline.ConversationBusyError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, validationErr.Message)
	case errors.As(err, &rateErr):
		writeError(w, r, http.StatusTooManyRequests, model.ErrCodeRateLimited, rateErr.Message)
	case errors.As(err, &busyErr):
		writeError(w, r, http.StatusConflict, model.ErrCodeConflict, "otro envío está en curso, intenta de nuevo")
	default:
		h.writeInternalError(w, r, "failed to send message", err)
	}
}

// currentProfile loads the authenticated user's profile from claims.
func (h *Handlers) currentProfile(r *http.Request) (model.Profile, error) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		return model.Profile{}, fmt.Errorf("server: no claims in context")
	}
	return h.db.GetProfile(r.Context(), claims.UserID())
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	s := r.PathValue(key)
	if s == "" {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %s", key, s)
	}
	return id, nil
}
