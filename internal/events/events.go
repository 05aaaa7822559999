// Package events defines the domain events the engine emits after commit and
// the notifier that hands them to a message broker.
package events

import (
	"context"
	"log"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/google/uuid"
)

type Type string

const (
	TypeWaitlistJoined       Type = "waitlist.joined"
	TypeWaitlistAdmitted     Type = "waitlist.admitted"
	TypeReservationClaimed   Type = "reservation.claimed"
	TypeReservationPaid      Type = "reservation.paid"
	TypeReservationCancelled Type = "reservation.cancelled"
	TypeReservationExpired   Type = "reservation.expired"
)

// Event is the wire form. It never carries the admission token.
type Event struct {
	ID            string     `json:"id"`
	Type          Type       `json:"type"`
	EventID       int64      `json:"event_id"`
	UserID        int64      `json:"user_id"`
	ReservationID int64      `json:"reservation_id,omitempty"`
	Status        string     `json:"status"`
	Email         string     `json:"email,omitempty"`
	ReservedUntil *time.Time `json:"reserved_until,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// Publisher is satisfied by the Kafka producer and the RabbitMQ publisher.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Emitter is what services depend on.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

type Notifier struct {
	publisher Publisher
	topic     string
}

func NewNotifier(publisher Publisher, topic string) *Notifier {
	return &Notifier{publisher: publisher, topic: topic}
}

// Emit fills in id and timestamp and publishes ev. Failures are logged only:
// the state change that produced the event is already committed.
func (n *Notifier) Emit(ctx context.Context, ev Event) {
	if n == nil || n.publisher == nil || n.topic == "" {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := n.publisher.Publish(ctx, n.topic, ev.ID, ev); err != nil {
		log.Printf("WARNING: failed to publish %s event for user %d: %v", ev.Type, ev.UserID, err)
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

func FromEntry(t Type, e *domain.WaitlistEntry) Event {
	ev := Event{
		Type:          t,
		EventID:       e.EventID,
		UserID:        e.UserID,
		Status:        string(e.Status),
		Email:         e.Email,
		ReservedUntil: e.TTLUntil,
	}
	if e.ReservationID != nil {
		ev.ReservationID = *e.ReservationID
	}
	return ev
}

func FromReservation(t Type, r *domain.Reservation, email string) Event {
	return Event{
		Type:          t,
		EventID:       r.EventID,
		UserID:        r.UserID,
		ReservationID: r.ID,
		Status:        string(r.Status),
		Email:         email,
		ReservedUntil: r.ReservedUntil,
	}
}

var (
	_ Emitter = (*Notifier)(nil)
	_ Emitter = Nop{}
)
