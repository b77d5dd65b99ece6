package server

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestBroker() *Broker {
	return NewBroker(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBrokerDeliversToRecipientOnly(t *testing.T) {
	b := newTestBroker()
	alice := uuid.New()
	bob := uuid.New()

	aliceCh := b.Subscribe(alice)
	bobCh := b.Subscribe(bob)
	defer b.Unsubscribe(alice, aliceCh)
	defer b.Unsubscribe(bob, bobCh)

	event := formatSSE("message", `{"x":1}`)
	b.deliver(alice, event)

	select {
	case got := <-aliceCh:
		require.Equal(t, event, got)
	default:
		t.Fatal("alice did not receive the event")
	}

	select {
	case <-bobCh:
		t.Fatal("bob received an event addressed to alice")
	default:
	}
}

func TestBrokerMultipleStreamsPerUser(t *testing.T) {
	b := newTestBroker()
	user := uuid.New()

	ch1 := b.Subscribe(user)
	ch2 := b.Subscribe(user)
	defer b.Unsubscribe(user, ch1)
	defer b.Unsubscribe(user, ch2)

	b.deliver(user, []byte("e"))

	require.Len(t, ch1, 1)
	require.Len(t, ch2, 1)
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := newTestBroker()
	user := uuid.New()

	ch := b.Subscribe(user)
	defer b.Unsubscribe(user, ch)

	// Fill the buffer and one more; deliver must not block.
	for i := 0; i < cap(ch)+10; i++ {
		b.deliver(user, []byte("e"))
	}
	require.Len(t, ch, cap(ch))
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := newTestBroker()
	user := uuid.New()

	ch := b.Subscribe(user)
	b.Unsubscribe(user, ch)

	_, open := <-ch
	require.False(t, open)

	// Delivery to a user with no streams is a no-op.
	b.deliver(user, []byte("e"))
}

func TestFormatSSE(t *testing.T) {
	got := formatSSE("message", `{"a":1}`)
	require.Equal(t, "event: message\ndata: {\"a\":1}\n\n", string(got))
}
