package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

const maxBackoff = 30 * time.Second

// Consumer reads events from a durable queue bound to the exchange with the
// given routing keys.
type Consumer struct {
	url        string
	exchange   string
	queue      string
	bindings   []string
	prefetch   int
	retryDelay time.Duration
}

func NewConsumer(url, exchange, queue string, bindings ...string) *Consumer {
	if len(bindings) == 0 {
		bindings = []string{"#"}
	}
	return &Consumer{
		url:        url,
		exchange:   exchange,
		queue:      queue,
		bindings:   bindings,
		prefetch:   50,
		retryDelay: time.Second,
	}
}

// Consume reconnects until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context, handle func(context.Context, events.Event) error) error {
	backoff := c.retryDelay
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("rabbitmq consumer: dial failed: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = c.retryDelay

		err = c.consumeLoop(ctx, conn, handle)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("rabbitmq consumer: loop ended: %v; reconnecting", err)
		if !sleep(ctx, c.retryDelay) {
			return nil
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, handle func(context.Context, events.Event) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		log.Printf("rabbitmq consumer: set QoS failed: %v", err)
	}
	if err := declareExchange(ch, c.exchange); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if c.exchange != "" {
		for _, key := range c.bindings {
			if err := ch.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
				return fmt.Errorf("queue bind %s: %w", key, err)
			}
		}
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleDelivery(ctx, d.Body, handle); err != nil {
				log.Printf("rabbitmq consumer: handle message failed: %v", err)
				// no requeue, a poison message would loop forever
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleDelivery decodes body and passes the event on.
func HandleDelivery(ctx context.Context, body []byte, handle func(context.Context, events.Event) error) error {
	var ev events.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return handle(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
