package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/storage"
)

// Broker fans out Postgres LISTEN/NOTIFY message events to SSE
// subscribers. It runs a background goroutine that calls
// db.WaitForNotification in a loop and routes each event to the
// recipient's active subscriber channels. Events for users without an
// open stream are dropped; the message itself is already stored.
type Broker struct {
	db     *storage.DB
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan []byte]struct{}
}

// NewBroker creates a new SSE broker. Call Start to begin listening.
func NewBroker(db *storage.DB, logger *slog.Logger) *Broker {
	return &Broker{
		db:          db,
		logger:      logger,
		subscribers: make(map[uuid.UUID]map[chan []byte]struct{}),
	}
}

// Start begins listening on the messages channel.
// It blocks, so call it in a goroutine. Returns when ctx is cancelled.
func (b *Broker) Start(ctx context.Context) {
	if err := b.db.Listen(ctx, storage.ChannelMessages); err != nil {
		b.logger.Error("broker: listen messages", "error", err)
		return
	}

	b.logger.Info("broker: listening for notifications", "channel", storage.ChannelMessages)

	for {
		_, payload, err := b.db.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // Shutting down.
			}
			b.logger.Warn("broker: notification error, retrying", "error", err)
			continue
		}

		var event model.MessageEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			b.logger.Warn("broker: malformed notification payload", "error", err)
			continue
		}

		b.deliver(event.RecipientID, formatSSE("message", payload))
	}
}

// Subscribe returns a channel that receives SSE-formatted events
// addressed to the given user. The caller must call Unsubscribe when done.
func (b *Broker) Subscribe(userID uuid.UUID) chan []byte {
	ch := make(chan []byte, 64) // Buffer to avoid blocking the delivery loop.
	b.mu.Lock()
	chans, ok := b.subscribers[userID]
	if !ok {
		chans = make(map[chan []byte]struct{})
		b.subscribers[userID] = chans
	}
	chans[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (b *Broker) Unsubscribe(userID uuid.UUID, ch chan []byte) {
	b.mu.Lock()
	if chans, ok := b.subscribers[userID]; ok {
		delete(chans, ch)
		if len(chans) == 0 {
			delete(b.subscribers, userID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// deliver sends an event to every open stream for one user. Slow
// subscribers with a full buffer are skipped so one stalled client
// cannot block the others.
func (b *Broker) deliver(userID uuid.UUID, event []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full, drop this event for them.
		}
	}
}

// formatSSE formats a notification as a Server-Sent Events message.
func formatSSE(eventType, data string) []byte {
	// SSE format: "event: <type>\ndata: <payload>\n\n"
	return []byte("event: " + eventType + "\ndata: " + data + "\n\n")
}
