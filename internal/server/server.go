package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Inova117/mamapanic/internal/audit"
	"github.com/Inova117/mamapanic/internal/auth"
	"github.com/Inova117/mamapanic/internal/companion"
	"github.com/Inova117/mamapanic/internal/debuglog"
	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/pipeline"
	"github.com/Inova117/mamapanic/internal/ratelimit"
	"github.com/Inova117/mamapanic/internal/storage"
)

// Server is the Respira HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a
// Server. Optional fields (nil-safe): Broker, Debug.
type ServerConfig struct {
	// Required dependencies.
	DB        *storage.DB
	JWTMgr    *auth.JWTManager
	Pipeline  *pipeline.Pipeline
	Companion *companion.Companion
	Guard     *ratelimit.Guard
	Auditor   *audit.Logger
	Logger    *slog.Logger

	// Optional dependencies (nil = disabled).
	Broker *Broker
	Debug  *debuglog.Buffer

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		DB:                  cfg.DB,
		JWTMgr:              cfg.JWTMgr,
		Pipeline:            cfg.Pipeline,
		Companion:           cfg.Companion,
		Guard:               cfg.Guard,
		Auditor:             cfg.Auditor,
		Debug:               cfg.Debug,
		Broker:              cfg.Broker,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	mux := http.NewServeMux()

	// Auth endpoints (no token required).
	mux.HandleFunc("POST /v1/auth/register", h.HandleRegister)
	mux.HandleFunc("POST /v1/auth/login", h.HandleLogin)
	mux.HandleFunc("POST /v1/auth/logout", h.HandleLogout)

	// Profile.
	mux.HandleFunc("GET /v1/profile", h.HandleGetProfile)
	mux.HandleFunc("PATCH /v1/profile", h.HandleUpdateProfile)
	mux.HandleFunc("GET /v1/coaches", h.HandleListCoaches)

	// Daily check-ins.
	mux.HandleFunc("POST /v1/checkins", h.HandleCreateCheckIn)
	mux.HandleFunc("GET /v1/checkins", h.HandleListCheckIns)
	mux.HandleFunc("GET /v1/checkins/today", h.HandleTodayCheckIn)

	// Bitácora (sleep log).
	mux.HandleFunc("POST /v1/bitacoras", h.HandleCreateBitacora)
	mux.HandleFunc("GET /v1/bitacoras", h.HandleListBitacoras)
	mux.HandleFunc("GET /v1/bitacoras/today", h.HandleTodayBitacora)
	mux.HandleFunc("GET /v1/bitacoras/{id}", h.HandleGetBitacora)
	mux.HandleFunc("PUT /v1/bitacoras/{id}", h.HandleUpdateBitacora)

	// Coach dashboard: clients with thread activity, plus a client's logs.
	coachOnly := requireRole(model.RoleCoach)
	mux.Handle("GET /v1/clients", coachOnly(http.HandlerFunc(h.HandleListClients)))
	mux.Handle("GET /v1/mothers/{user_id}/bitacoras", coachOnly(http.HandlerFunc(h.HandleMotherBitacoras)))

	// Direct messages mother ↔ coach, plus SSE delivery.
	mux.HandleFunc("POST /v1/messages", h.HandleSendMessage)
	mux.HandleFunc("GET /v1/messages/unread", h.HandleUnreadCount)
	mux.HandleFunc("GET /v1/messages/{user_id}", h.HandleConversation)
	mux.HandleFunc("POST /v1/messages/{user_id}/read", h.HandleMarkRead)
	mux.HandleFunc("GET /v1/subscribe", h.HandleSubscribe)

	// AI companion chat.
	mux.HandleFunc("POST /v1/chat", h.HandleSendChat)
	mux.HandleFunc("GET /v1/chat/{session_id}", h.HandleChatHistory)

	// Validation cards.
	mux.HandleFunc("GET /v1/validations", h.HandleListValidations)
	mux.HandleFunc("GET /v1/validations/random", h.HandleRandomValidation)
	mux.Handle("POST /v1/validations", coachOnly(http.HandlerFunc(h.HandleCreateValidation)))

	// Community presence (simulated).
	mux.HandleFunc("GET /v1/community/presence", h.HandleCommunityPresence)

	// Crisis mode breathing parameters (public).
	mux.HandleFunc("GET /v1/crisis/breathing", h.HandleBreathingConfig)

	// Admin.
	adminOnly := requireRole(model.RoleAdmin)
	mux.Handle("GET /v1/admin/audit", adminOnly(http.HandlerFunc(h.HandleListAuditLog)))
	mux.Handle("GET /v1/admin/debug", adminOnly(http.HandlerFunc(h.HandleDebugLog)))
	mux.Handle("DELETE /v1/admin/debug", adminOnly(http.HandlerFunc(h.HandleClearDebugLog)))

	// Health (no auth).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Handlers returns the underlying Handlers for wiring at startup.
func (s *Server) Handlers() *Handlers {
	return s.handlers
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
