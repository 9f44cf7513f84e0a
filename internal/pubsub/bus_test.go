package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/pkg/logger"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		require.FailNow(t, "no event received")
	}
	return Event{}
}

func TestBus_DeliversOnlyToRecipients(t *testing.T) {
	req := require.New(t)
	bus := NewBus(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice, bob := uuid.New(), uuid.New()
	aliceCh := bus.Subscribe(ctx, KindMessageCreated, Params{UserID: alice}, RecipientFilter)
	bobCh := bus.Subscribe(ctx, KindMessageCreated, Params{UserID: bob}, RecipientFilter)

	// Given an event addressed to alice only
	bus.Publish(Event{Kind: KindMessageCreated, Payload: "hello", RecipientIDs: []uuid.UUID{alice}})

	// Then alice receives it and bob does not
	req.Equal("hello", receive(t, aliceCh).Payload)
	select {
	case e := <-bobCh:
		req.Failf("unexpected event", "%v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_KindsAreIsolated(t *testing.T) {
	bus := NewBus(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := bus.Subscribe(ctx, KindChatCreated, Params{}, AllFilter)
	bus.Publish(Event{Kind: KindMessageUpdated, Payload: 1})
	bus.Publish(Event{Kind: KindChatCreated, Payload: 2})

	assert.Equal(t, 2, receive(t, ch).Payload)
}

func TestBus_PreservesPublishOrder(t *testing.T) {
	req := require.New(t)
	bus := NewBus(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := uuid.New()
	ch := bus.Subscribe(ctx, KindMessageCreated, Params{UserID: user}, nil)

	// When many events are published before the subscriber reads
	for i := 0; i < 100; i++ {
		bus.Publish(Event{Kind: KindMessageCreated, Payload: i, RecipientIDs: []uuid.UUID{user}})
	}

	// Then they arrive in order
	for i := 0; i < 100; i++ {
		req.Equal(i, receive(t, ch).Payload)
	}
}

func TestBus_CancelDeregistersAndCloses(t *testing.T) {
	req := require.New(t)
	bus := NewBus(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	ch := bus.Subscribe(ctx, KindUserActivityChanged, Params{}, AllFilter)
	req.Equal(1, bus.Subscribers(KindUserActivityChanged))

	cancel()

	select {
	case _, ok := <-ch:
		req.False(ok)
	case <-time.After(time.Second):
		req.FailNow("channel not closed")
	}
	req.Eventually(func() bool {
		return bus.Subscribers(KindUserActivityChanged) == 0
	}, time.Second, 5*time.Millisecond)

	// Publishing after cancellation must not panic or block
	bus.Publish(Event{Kind: KindUserActivityChanged})
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"messageCreated", KindMessageCreated, true},
		{"MESSAGE_UPDATED", KindMessageUpdated, true},
		{"chatCreated", KindChatCreated, true},
		{"userActivityChanged", KindUserActivityChanged, true},
		{"bogus", Kind("bogus"), false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
