package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader messageReader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

// ConsumeEvents decodes each message as an events.Event. Undecodable
// messages and messages handle fails on are logged and skipped, so one bad
// delivery never stops the loop.
func (c *Consumer) ConsumeEvents(ctx context.Context, handle func(context.Context, events.Event) error) error {
	return c.Consume(ctx, EventHandler(handle))
}

func EventHandler(handle func(context.Context, events.Event) error) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		var ev events.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Printf("kafka: decode event at offset %d: %v", msg.Offset, err)
			return nil
		}
		if err := handle(ctx, ev); err != nil {
			log.Printf("kafka: handle %s event %s at offset %d: %v", ev.Type, ev.ID, msg.Offset, err)
		}
		return nil
	}
}
