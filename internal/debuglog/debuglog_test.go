package debuglog_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Inova117/mamapanic/internal/debuglog"
)

func TestBufferNewestFirst(t *testing.T) {
	b := debuglog.NewBuffer(nil)

	b.Info("first")
	b.Warn("second")
	b.Error("third")

	entries := b.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, debuglog.LevelError, entries[0].Level)
	assert.Equal(t, "second", entries[1].Message)
	assert.Equal(t, "first", entries[2].Message)
}

func TestBufferCapsAtOneHundred(t *testing.T) {
	b := debuglog.NewBuffer(nil)

	for i := 0; i < 105; i++ {
		b.Info(fmt.Sprintf("entry %d", i))
	}

	entries := b.Entries()
	require.Len(t, entries, 100)
	assert.Equal(t, "entry 104", entries[0].Message, "newest entry stays at the front")
	assert.Equal(t, "entry 5", entries[99].Message, "oldest five are evicted")
}

func TestBufferClear(t *testing.T) {
	b := debuglog.NewBuffer(nil)
	b.Info("something")
	b.Clear()
	assert.Empty(t, b.Entries())
}

func TestClearNotifiesSubscribers(t *testing.T) {
	b := debuglog.NewBuffer(nil)

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Info("kept until clear")
	select {
	case <-ch:
	default:
		t.Fatal("subscriber did not receive the entry")
	}

	b.Clear()

	select {
	case e := <-ch:
		assert.Equal(t, uuid.Nil, e.ID, "clear arrives as the zero-ID sentinel")
		assert.Empty(t, e.Message)
	default:
		t.Fatal("subscriber was not notified of the clear")
	}
	assert.Empty(t, b.Entries())
}

func TestSubscribeReceivesNewEntries(t *testing.T) {
	b := debuglog.NewBuffer(nil)
	b.Info("before subscribe")

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Warn("after subscribe")

	select {
	case e := <-ch:
		assert.Equal(t, "after subscribe", e.Message)
		assert.Equal(t, debuglog.LevelWarn, e.Level)
	default:
		t.Fatal("subscriber did not receive the entry")
	}

	// Entries added before subscribing are not replayed.
	select {
	case e := <-ch:
		t.Fatalf("unexpected extra entry: %q", e.Message)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := debuglog.NewBuffer(nil)

	ch, unsubscribe := b.Subscribe()
	unsubscribe()
	unsubscribe() // idempotent

	b.Info("after unsubscribe")

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")
}
