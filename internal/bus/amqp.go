package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tableside/internal/domain"
	"tableside/internal/logging"
)

const eventsExchange = "pos.events"

// AMQPBus broadcasts events through a RabbitMQ topic exchange so multiple
// server processes can share one event stream. Routing key is the topic name.
type AMQPBus struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	acks <-chan amqp.Confirmation
	mu   sync.Mutex // serializes publishes while waiting for confirms
	log  *logging.Logger
}

func DialAMQP(url string, log *logging.Logger) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(eventsExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return &AMQPBus{conn: conn, ch: ch, acks: acks, log: log}, nil
}

func (b *AMQPBus) Publish(ctx context.Context, topic string, ev domain.Event) error {
	stamp(&ev)
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.ch.PublishWithContext(ctx, eventsExchange, topic, false, false, amqp.Publishing{
		DeliveryMode:  amqp.Transient,
		ContentType:   "application/json",
		MessageId:     ev.ID,
		CorrelationId: string(ev.Type),
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
	if err != nil {
		return err
	}

	select {
	case conf := <-b.acks:
		if !conf.Ack {
			return errors.New("publish NACK from broker")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe binds an exclusive auto-delete queue to the topic. The queue
// vanishes with the subscriber, so reconnecting clients start fresh.
func (b *AMQPBus) Subscribe(topic string) (*Subscription, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	if err := ch.QueueBind(q.Name, topic, eventsExchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, err
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	out := make(chan domain.Event, subscriberBuffer)
	go func() {
		defer close(out)
		for d := range deliveries {
			var ev domain.Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				b.log.Fail("event_decode", err, "topic", topic)
				continue
			}
			select {
			case out <- ev:
			default:
				// slow consumer, drop rather than stall the delivery loop
			}
		}
	}()

	return &Subscription{
		Topic:  topic,
		C:      out,
		cancel: func() { _ = ch.Close() },
	}, nil
}

func (b *AMQPBus) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
