package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/domain"
)

func recvEvent(t *testing.T, sub *Subscription) domain.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		require.True(t, ok, "subscription channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return domain.Event{}
	}
}

func TestMemoryBus_PublishReachesTopicSubscribers(t *testing.T) {
	b := NewMemory()
	defer b.Close()

	sub, err := b.Subscribe(domain.TopicOrders)
	require.NoError(t, err)
	other, err := b.Subscribe(domain.TopicTables)
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), domain.TopicOrders, domain.Event{
		Type: domain.EventOrderUpdate, OrderChange: domain.OrderCreated,
	}))

	ev := recvEvent(t, sub)
	assert.Equal(t, domain.EventOrderUpdate, ev.Type)
	assert.NotEmpty(t, ev.ID, "publish stamps an event id")

	select {
	case <-other.C:
		t.Fatal("event leaked across topics")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus_NoReplayForLateSubscriber(t *testing.T) {
	b := NewMemory()
	defer b.Close()

	require.NoError(t, b.Publish(context.Background(), domain.TopicOrders, domain.Event{Type: domain.EventOrderUpdate}))

	sub, err := b.Subscribe(domain.TopicOrders)
	require.NoError(t, err)

	select {
	case <-sub.C:
		t.Fatal("late subscriber must not see past events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewMemory()
	defer b.Close()

	sub, err := b.Subscribe(domain.TopicTables)
	require.NoError(t, err)
	sub.Close()

	require.NoError(t, b.Publish(context.Background(), domain.TopicTables, domain.Event{Type: domain.EventTableBlocked}))

	_, ok := <-sub.C
	assert.False(t, ok, "channel closes on unsubscribe")
}

func TestMemoryBus_DropsOnFullBuffer(t *testing.T) {
	b := NewMemory()
	defer b.Close()

	_, err := b.Subscribe(domain.TopicOrders)
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, b.Publish(context.Background(), domain.TopicOrders, domain.Event{Type: domain.EventOrderUpdate}))
	}
	assert.Equal(t, 10, b.DroppedEvents())
}

func TestMemoryBus_Close(t *testing.T) {
	b := NewMemory()
	sub, err := b.Subscribe(domain.TopicOrders)
	require.NoError(t, err)

	require.NoError(t, b.Close())

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Error(t, b.Publish(context.Background(), domain.TopicOrders, domain.Event{}))
	_, err = b.Subscribe(domain.TopicOrders)
	assert.Error(t, err)
}
