// Package pipeline runs the guarded send path for outbound messages:
// validation, abuse detection, rate limiting, persistence, and audit,
// in that order. A message that fails an early stage never reaches a
// later one.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Inova117/mamapanic/internal/audit"
	"github.com/Inova117/mamapanic/internal/companion"
	"github.com/Inova117/mamapanic/internal/debuglog"
	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/ratelimit"
	"github.com/Inova117/mamapanic/internal/sanitize"
)

// Store is the persistence surface the pipeline writes through.
type Store interface {
	InsertDirectMessage(ctx context.Context, senderID, recipientID uuid.UUID, content string, clientRef *string) (model.DirectMessage, error)
	InsertChatMessage(ctx context.Context, userID uuid.UUID, sessionID string, role model.ChatRole, content string) (model.ChatMessage, error)
	RecentChatContext(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]model.ChatMessage, error)
}

// Pipeline coordinates the send path. One send per conversation may be
// in flight at a time; concurrent re-entry is rejected rather than
// queued so a stuck request cannot pile up duplicates behind it.
type Pipeline struct {
	store     Store
	guard     *ratelimit.Guard
	auditor   *audit.Logger
	companion *companion.Companion
	debug     *debuglog.Buffer
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates a Pipeline. debug may be nil.
func New(store Store, guard *ratelimit.Guard, auditor *audit.Logger, comp *companion.Companion, debug *debuglog.Buffer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		guard:     guard,
		auditor:   auditor,
		companion: comp,
		debug:     debug,
		logger:    logger,
		inFlight:  make(map[string]struct{}),
	}
}

// SendDirect validates, rate-limits, stores, and audits one direct
// message from sender to recipient. The returned message carries the
// sanitized content actually stored.
func (p *Pipeline) SendDirect(ctx context.Context, sender model.Profile, req model.SendMessageRequest) (model.DirectMessage, error) {
	key := "dm:" + sender.ID.String() + ":" + req.RecipientID.String()
	release, err := p.acquire(key)
	if err != nil {
		return model.DirectMessage{}, err
	}
	defer release()

	content, err := p.screen(sender.ID.String(), req.Content)
	if err != nil {
		return model.DirectMessage{}, err
	}

	if !p.guard.CanSendMessage(ctx, sender.ID.String()) {
		p.auditor.RateLimitHit(sender.ID.String(), ratelimit.SendMessage.Action)
		p.debugf(debuglog.LevelWarn, "mensaje bloqueado por límite de envío: %s", sender.ID)
		return model.DirectMessage{}, &RateLimitError{
			Action:  ratelimit.SendMessage.Action,
			Message: ratelimit.Message(ratelimit.SendMessage.Action),
		}
	}

	msg, err := p.store.InsertDirectMessage(ctx, sender.ID, req.RecipientID, content, req.ClientRef)
	if err != nil {
		return model.DirectMessage{}, fmt.Errorf("pipeline: store message: %w", err)
	}

	p.auditor.MessageSent(sender.ID.String(), req.RecipientID.String(), len(content))
	p.debugf(debuglog.LevelInfo, "mensaje entregado: %s", msg.ID)
	return msg, nil
}

// SendChat runs one AI companion turn: the user's message is screened,
// rate-limited, and stored; the assistant reply is generated from the
// recent session context and stored alongside it. The assistant message
// is returned.
func (p *Pipeline) SendChat(ctx context.Context, sender model.Profile, req model.ChatRequest) (model.ChatMessage, error) {
	key := "chat:" + sender.ID.String() + ":" + req.SessionID
	release, err := p.acquire(key)
	if err != nil {
		return model.ChatMessage{}, err
	}
	defer release()

	content, err := p.screen(sender.ID.String(), req.Content)
	if err != nil {
		return model.ChatMessage{}, err
	}

	if !p.guard.CanSendChatMessage(ctx, sender.ID.String()) {
		p.auditor.RateLimitHit(sender.ID.String(), ratelimit.SendChatMessage.Action)
		return model.ChatMessage{}, &RateLimitError{
			Action:  ratelimit.SendChatMessage.Action,
			Message: ratelimit.Message(ratelimit.SendChatMessage.Action),
		}
	}

	history, err := p.store.RecentChatContext(ctx, sender.ID, req.SessionID, 10)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("pipeline: load chat context: %w", err)
	}

	if _, err := p.store.InsertChatMessage(ctx, sender.ID, req.SessionID, model.ChatRoleUser, content); err != nil {
		return model.ChatMessage{}, fmt.Errorf("pipeline: store user turn: %w", err)
	}
	p.auditor.ChatMessageSent(sender.ID.String(), len(content))

	reply := p.companion.ChatReply(ctx, history, content)

	assistant, err := p.store.InsertChatMessage(ctx, sender.ID, req.SessionID, model.ChatRoleAssistant, reply)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("pipeline: store assistant turn: %w", err)
	}

	p.debugf(debuglog.LevelInfo, "turno de chat completado: %s", req.SessionID)
	return assistant, nil
}

// screen sanitizes content and rejects injection attempts, recording
// them as suspicious activity.
func (p *Pipeline) screen(userID, content string) (string, error) {
	if sanitize.HasSQLInjection(content) || sanitize.HasXSS(content) {
		p.auditor.SuspiciousActivity(userID, "injection_attempt", map[string]any{
			"content_length": len(content),
		})
		p.debugf(debuglog.LevelError, "contenido sospechoso rechazado: %s", userID)
		return "", &ValidationError{Message: "Mensaje no permitido"}
	}

	result := sanitize.ValidateMessage(content)
	if !result.Valid {
		return "", &ValidationError{Message: result.Error}
	}
	return result.Sanitized, nil
}

func (p *Pipeline) acquire(key string) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[key]; busy {
		return nil, &ConversationBusyError{Key: key}
	}
	p.inFlight[key] = struct{}{}
	return func() {
		p.mu.Lock()
		delete(p.inFlight, key)
		p.mu.Unlock()
	}, nil
}

func (p *Pipeline) debugf(level debuglog.Level, format string, args ...any) {
	if p.debug == nil {
		return
	}
	p.debug.Add(level, fmt.Sprintf(format, args...))
}
