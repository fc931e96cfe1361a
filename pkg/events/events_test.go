package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(NewTransporterJoined("W1", "Transporter Lounge"))

	select {
	case evt := <-sub:
		assert.Equal(t, NewTransporter, evt.Type)
		assert.Equal(t, "W1", evt.Payload["name"])
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)
}

func TestPublishNeverBlocksWithNoSubscribers(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(NewClockTick(float64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}
