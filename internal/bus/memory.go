package bus

import (
	"context"
	"errors"
	"sync"

	"tableside/internal/domain"
)

const subscriberBuffer = 64

// MemoryBus is the in-process hub used when the service runs as a single
// coordinating process. Events to a full subscriber buffer are dropped; the
// client recovers by re-fetching authoritative state.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan domain.Event
	closed bool

	// Dropped counts events discarded due to full subscriber buffers.
	dropped int
}

func NewMemory() *MemoryBus {
	return &MemoryBus{subs: map[string]map[int]chan domain.Event{}}
}

func (b *MemoryBus) Publish(_ context.Context, topic string, ev domain.Event) error {
	stamp(&ev)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("bus closed")
	}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- ev:
		default:
			b.dropped++
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(topic string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("bus closed")
	}

	id := b.nextID
	b.nextID++
	ch := make(chan domain.Event, subscriberBuffer)
	if b.subs[topic] == nil {
		b.subs[topic] = map[int]chan domain.Event{}
	}
	b.subs[topic][id] = ch

	return &Subscription{
		Topic: topic,
		C:     ch,
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[topic][id]; ok {
				delete(b.subs[topic], id)
				close(sub)
			}
		},
	}, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, topic := range b.subs {
		for id, ch := range topic {
			delete(topic, id)
			close(ch)
		}
	}
	return nil
}

// DroppedEvents reports how many events were discarded on full buffers.
func (b *MemoryBus) DroppedEvents() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
