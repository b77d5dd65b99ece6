// Package ratelimit enforces per-user, per-action request caps over an
// approximately sliding time window.
//
// The counting itself is delegated to a Counter — Postgres-backed in
// production (storage.CheckRateLimit), in-memory for tests and embedded use.
// The Guard wrapping it is deliberately fail-open: if the counter errors,
// the action is allowed. Blocking a distressed mother from sending a message
// because the counter store hiccuped is worse than under-enforcing the cap.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Config caps one action kind. Immutable; defined at compile time.
type Config struct {
	Action        string
	MaxRequests   int
	WindowMinutes int
}

// Window returns the config's window as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// Per-action presets, mirroring the actions user-authored content can take.
var (
	SendMessage     = Config{Action: "send_message", MaxRequests: 30, WindowMinutes: 60}
	CreateBitacora  = Config{Action: "create_bitacora", MaxRequests: 10, WindowMinutes: 1440}
	UploadFile      = Config{Action: "upload_file", MaxRequests: 5, WindowMinutes: 60}
	CreateCheckIn   = Config{Action: "create_checkin", MaxRequests: 20, WindowMinutes: 1440}
	SendChatMessage = Config{Action: "send_chat_message", MaxRequests: 50, WindowMinutes: 60}
)

// Counter is the atomic check-and-increment contract. Implementations must
// atomically record the request and report whether the identity is still
// within maxRequests for the trailing window. An approximate sliding window
// is acceptable; at-least-once counting is required.
type Counter interface {
	CheckAndIncrement(ctx context.Context, identity, action string, maxRequests int, window time.Duration) (bool, error)
}

// Guard decides whether an identity may perform an action.
type Guard struct {
	counter Counter
	logger  *slog.Logger
}

// NewGuard creates a Guard over the given counter.
func NewGuard(counter Counter, logger *slog.Logger) *Guard {
	return &Guard{counter: counter, logger: logger}
}

// CanPerform reports whether identity may perform the configured action now.
// Empty identity is denied (unauthenticated callers get no budget).
// A counter error is allowed through — fail-open — and logged.
func (g *Guard) CanPerform(ctx context.Context, identity string, cfg Config) bool {
	if identity == "" {
		return false
	}

	allowed, err := g.counter.CheckAndIncrement(ctx, identity, cfg.Action, cfg.MaxRequests, cfg.Window())
	if err != nil {
		g.logger.Warn("rate limit check failed, allowing request",
			"action", cfg.Action, "error", err)
		return true
	}
	return allowed
}

// CanSendMessage reports whether identity may send a direct message.
func (g *Guard) CanSendMessage(ctx context.Context, identity string) bool {
	return g.CanPerform(ctx, identity, SendMessage)
}

// CanCreateBitacora reports whether identity may create a bitácora entry.
func (g *Guard) CanCreateBitacora(ctx context.Context, identity string) bool {
	return g.CanPerform(ctx, identity, CreateBitacora)
}

// CanUploadFile reports whether identity may upload a file.
func (g *Guard) CanUploadFile(ctx context.Context, identity string) bool {
	return g.CanPerform(ctx, identity, UploadFile)
}

// CanCreateCheckIn reports whether identity may create a daily check-in.
func (g *Guard) CanCreateCheckIn(ctx context.Context, identity string) bool {
	return g.CanPerform(ctx, identity, CreateCheckIn)
}

// CanSendChatMessage reports whether identity may message the AI companion.
func (g *Guard) CanSendChatMessage(ctx context.Context, identity string) bool {
	return g.CanPerform(ctx, identity, SendChatMessage)
}

var limitMessages = map[string]string{
	"send_message":      "Has enviado demasiados mensajes. Por favor, espera unos minutos.",
	"create_bitacora":   "Has creado demasiadas bitácoras hoy. Intenta mañana.",
	"upload_file":       "Has subido demasiados archivos. Espera un momento.",
	"create_checkin":    "Has creado demasiados check-ins hoy. Intenta más tarde.",
	"send_chat_message": "Has enviado demasiados mensajes al chat. Espera un momento.",
}

// Message returns the user-facing explanation for a denied action,
// falling back to a generic message for unknown actions.
func Message(action string) string {
	if m, ok := limitMessages[action]; ok {
		return m
	}
	return "Has excedido el límite de uso. Por favor, espera un momento."
}
