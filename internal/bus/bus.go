// Package bus fans out domain events to topic subscribers. Delivery is
// best-effort and at-most-once: there is no replay log, and a consumer that
// misses events must reconcile from authoritative state, not from the bus.
package bus

import (
	"context"

	"github.com/google/uuid"

	"tableside/internal/domain"
)

// Bus is the injectable broadcast hub. Implementations must never block a
// publisher on a slow subscriber.
type Bus interface {
	Publish(ctx context.Context, topic string, ev domain.Event) error
	Subscribe(topic string) (*Subscription, error)
	Close() error
}

// Subscription is one topic membership. Membership is explicit: it is not
// preserved across reconnects and a new subscriber sees only future events.
type Subscription struct {
	Topic  string
	C      <-chan domain.Event
	cancel func()
}

func (s *Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// stamp fills in event identity just before publishing.
func stamp(ev *domain.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
}
