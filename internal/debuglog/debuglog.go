// Package debuglog keeps a bounded in-memory ring of recent diagnostic
// entries that support views can render without access to server logs.
package debuglog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxEntries caps the ring; the oldest entry is evicted when full.
const maxEntries = 100

// Level classifies an entry.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is a single captured diagnostic line.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Level     Level     `json:"level"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Buffer holds the newest-first ring of entries and notifies subscribers
// on every append.
type Buffer struct {
	logger *slog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	entries     []Entry
	subscribers map[chan Entry]struct{}
}

// NewBuffer creates an empty ring. The slog logger receives a mirrored
// copy of every entry so captured lines still reach the server log.
func NewBuffer(logger *slog.Logger) *Buffer {
	return &Buffer{
		logger:      logger,
		now:         time.Now,
		subscribers: make(map[chan Entry]struct{}),
	}
}

// Add records an entry at the front of the ring, evicting the oldest
// entry beyond capacity, and notifies subscribers.
func (b *Buffer) Add(level Level, message string) Entry {
	entry := Entry{
		ID:        uuid.New(),
		Level:     level,
		Timestamp: b.now().UTC(),
		Message:   message,
	}

	b.mu.Lock()
	b.entries = append([]Entry{entry}, b.entries...)
	if len(b.entries) > maxEntries {
		b.entries = b.entries[:maxEntries]
	}
	for ch := range b.subscribers {
		select {
		case ch <- entry:
		default:
			// Slow subscriber; drop rather than block the writer.
		}
	}
	b.mu.Unlock()

	b.mirror(entry)
	return entry
}

// Info records an informational entry.
func (b *Buffer) Info(message string) Entry { return b.Add(LevelInfo, message) }

// Warn records a warning entry.
func (b *Buffer) Warn(message string) Entry { return b.Add(LevelWarn, message) }

// Error records an error entry.
func (b *Buffer) Error(message string) Entry { return b.Add(LevelError, message) }

// Entries returns a newest-first snapshot of the ring.
func (b *Buffer) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Entry(nil), b.entries...)
}

// Clear empties the ring and delivers a zero-ID sentinel entry to every
// subscriber so live views reset alongside the buffer.
func (b *Buffer) Clear() {
	sentinel := Entry{Timestamp: b.now().UTC()}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	for ch := range b.subscribers {
		select {
		case ch <- sentinel:
		default:
			// Slow subscriber; drop rather than block the writer.
		}
	}
}

// Subscribe returns a channel that receives every entry added after the
// call, plus an unsubscribe function. A Clear arrives as an entry with
// a zero ID. The channel is buffered; entries are dropped for
// subscribers that fall behind.
func (b *Buffer) Subscribe() (<-chan Entry, func()) {
	ch := make(chan Entry, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Buffer) mirror(entry Entry) {
	if b.logger == nil {
		return
	}
	lvl := slog.LevelInfo
	switch entry.Level {
	case LevelWarn:
		lvl = slog.LevelWarn
	case LevelError:
		lvl = slog.LevelError
	}
	b.logger.Log(context.Background(), lvl, entry.Message, "source", "debuglog")
}
