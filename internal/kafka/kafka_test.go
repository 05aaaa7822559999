package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandler_Decodes(t *testing.T) {
	payload, err := json.Marshal(events.Event{ID: "e1", Type: events.TypeReservationPaid, UserID: 3})
	require.NoError(t, err)

	var got events.Event
	handler := EventHandler(func(_ context.Context, ev events.Event) error {
		got = ev
		return nil
	})

	require.NoError(t, handler(context.Background(), kafka.Message{Value: payload}))
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, events.TypeReservationPaid, got.Type)
	assert.Equal(t, int64(3), got.UserID)
}

func TestEventHandler_SkipsGarbage(t *testing.T) {
	called := false
	handler := EventHandler(func(context.Context, events.Event) error {
		called = true
		return nil
	})

	assert.NoError(t, handler(context.Background(), kafka.Message{Value: []byte("{not json")}))
	assert.False(t, called)
}

func TestEventHandler_SkipsHandlerError(t *testing.T) {
	handler := EventHandler(func(context.Context, events.Event) error { return errors.New("mailer down") })

	assert.NoError(t, handler(context.Background(), kafka.Message{Value: []byte(`{"type":"waitlist.joined"}`)}))
}

type fakeReader struct {
	msgs []kafka.Message
}

func (r *fakeReader) ReadMessage(context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumeEvents_SurvivesHandlerError(t *testing.T) {
	reader := &fakeReader{}
	for _, id := range []string{"e1", "e2", "e3"} {
		payload, err := json.Marshal(events.Event{ID: id, Type: events.TypeReservationPaid})
		require.NoError(t, err)
		reader.msgs = append(reader.msgs, kafka.Message{Value: payload})
	}
	c := &Consumer{reader: reader}

	var seen []string
	err := c.ConsumeEvents(context.Background(), func(_ context.Context, ev events.Event) error {
		seen = append(seen, ev.ID)
		if ev.ID == "e1" {
			return errors.New("mailer down")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2", "e3"}, seen)
}

func TestProducer_Constructed(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"})
	require.NotNil(t, p.writer)
	assert.Equal(t, []string{"localhost:9092"}, p.brokers)
	assert.NoError(t, p.Close())

	var nilConsumer *Consumer
	assert.NoError(t, nilConsumer.Close())
}

func TestProducer_CheckConnectionWithoutBrokers(t *testing.T) {
	p := NewProducer(nil)
	assert.Error(t, p.CheckConnection(context.Background()))
}
