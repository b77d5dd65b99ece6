package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/Inova117/mamapanic/internal/telemetry"
)

// queueCapacity bounds the number of pending entries. When the queue is
// full, new entries are dropped rather than blocking the caller.
const queueCapacity = 1024

// writeTimeout caps how long a single store write may take.
const writeTimeout = 5 * time.Second

// Store persists audit entries.
type Store interface {
	AppendAuditEntry(ctx context.Context, entry Entry) error
}

// Logger dispatches audit entries to a Store from a background goroutine.
// Recording is fire-and-forget: a failed or dropped write is logged and
// counted, never surfaced to the caller.
type Logger struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	queue     chan Entry
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

// NewLogger creates an audit logger and starts its dispatch goroutine.
// Call Close to drain pending entries before shutdown.
func NewLogger(store Store, logger *slog.Logger) *Logger {
	l := &Logger{
		store:  store,
		logger: logger,
		now:    time.Now,
		queue:  make(chan Entry, queueCapacity),
		done:   make(chan struct{}),
	}
	l.registerMetrics()
	go l.dispatch()
	return l
}

// Record queues an audit entry. It never blocks and never fails; when the
// queue is full the entry is dropped and counted.
func (l *Logger) Record(userID string, action Action, resource Resource, metadata map[string]any) {
	entry := Entry{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	select {
	case l.queue <- entry:
	default:
		l.dropped.Add(1)
		l.logger.Warn("audit: queue full, entry dropped",
			"action", action, "resource", resource, "user_id", userID)
	}
}

func (l *Logger) dispatch() {
	for entry := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := l.store.AppendAuditEntry(ctx, entry)
		cancel()
		if err != nil {
			l.dropped.Add(1)
			l.logger.Warn("audit: write failed, entry dropped",
				"action", entry.Action, "resource", entry.Resource, "error", err)
		}
	}
	close(l.done)
}

// Close stops accepting entries and waits for the queue to drain, up to
// the context deadline. Safe to call more than once.
func (l *Logger) Close(ctx context.Context) {
	l.closeOnce.Do(func() { close(l.queue) })
	select {
	case <-l.done:
	case <-ctx.Done():
		l.logger.Warn("audit: close timed out draining queue", "pending", len(l.queue))
	}
}

// Dropped returns the total number of entries lost to a full queue or
// failed writes. A non-zero value indicates gaps in the audit trail.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

func (l *Logger) registerMetrics() {
	meter := telemetry.Meter("respira/audit")

	_, _ = meter.Int64ObservableGauge("respira.audit.dropped_total",
		metric.WithDescription("Total audit entries dropped due to queue capacity or write failures"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(l.Dropped())
			return nil
		}),
	)
}

// MessageSent records a delivered direct message.
func (l *Logger) MessageSent(userID, recipientID string, length int) {
	l.Record(userID, ActionMessageSent, ResourceDirectMessage, map[string]any{
		"recipient_id":   recipientID,
		"message_length": length,
	})
}

// ChatMessageSent records a message sent to the AI companion.
func (l *Logger) ChatMessageSent(userID string, length int) {
	l.Record(userID, ActionMessageSent, ResourceChatMessage, map[string]any{
		"message_length": length,
	})
}

// BitacoraCreated records a new daily sleep log.
func (l *Logger) BitacoraCreated(userID, bitacoraID string, dayNumber int) {
	l.Record(userID, ActionBitacoraCreated, ResourceBitacora, map[string]any{
		"bitacora_id": bitacoraID,
		"day_number":  dayNumber,
	})
}

// BitacoraUpdated records an edit to an existing sleep log.
func (l *Logger) BitacoraUpdated(userID, bitacoraID string) {
	l.Record(userID, ActionBitacoraUpdated, ResourceBitacora, map[string]any{
		"bitacora_id": bitacoraID,
	})
}

// CheckInCreated records a daily emotional check-in.
func (l *Logger) CheckInCreated(userID, checkinID string, mood int) {
	l.Record(userID, ActionCheckinCreated, ResourceCheckin, map[string]any{
		"checkin_id": checkinID,
		"mood":       mood,
	})
}

// ProfileUpdated records a profile edit.
func (l *Logger) ProfileUpdated(userID string) {
	l.Record(userID, ActionProfileUpdated, ResourceProfile, nil)
}

// SuspiciousActivity records content rejected by validation, such as
// injection attempts.
func (l *Logger) SuspiciousActivity(userID, reason string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["reason"] = reason
	l.Record(userID, ActionSuspiciousActivity, ResourceSecurity, metadata)
}

// RateLimitHit records a request denied by rate limiting.
func (l *Logger) RateLimitHit(userID, limitedAction string) {
	l.Record(userID, ActionRateLimitHit, ResourceSecurity, map[string]any{
		"limited_action": limitedAction,
	})
}

// SessionStarted records a successful login.
func (l *Logger) SessionStarted(userID string) {
	l.Record(userID, ActionSessionStarted, ResourceAuth, nil)
}

// SessionEnded records a logout.
func (l *Logger) SessionEnded(userID string) {
	l.Record(userID, ActionSessionEnded, ResourceAuth, nil)
}
