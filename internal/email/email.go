package email

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/ticketqueue/config"
	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/mailersend/mailersend-go"
)

const sendTimeout = 5 * time.Second

// Sender turns engine events into user emails. Without an API key it only
// logs what it would have sent.
type Sender struct {
	client    *mailersend.Mailersend
	fromEmail string
	fromName  string
}

func NewSender(cfg config.EmailConfig) *Sender {
	s := &Sender{fromEmail: cfg.FromEmail, fromName: cfg.FromName}
	if cfg.APIKey != "" {
		s.client = mailersend.NewMailersend(cfg.APIKey)
	}
	return s
}

func (s *Sender) Send(ctx context.Context, ev events.Event) error {
	if ev.Email == "" {
		return nil
	}
	subject, text, ok := Compose(ev)
	if !ok {
		return nil
	}

	if s.client == nil {
		log.Printf("email (dry run) to %s: %s", ev.Email, subject)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	message := s.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: s.fromName, Email: s.fromEmail})
	message.SetRecipients([]mailersend.Recipient{{Email: ev.Email}})
	message.SetSubject(subject)
	message.SetText(text)

	res, err := s.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("email sent to %s, message id %s", ev.Email, res.Header.Get("X-Message-Id"))
	return nil
}

// Compose returns subject and body for the event types users are told about.
func Compose(ev events.Event) (subject, text string, ok bool) {
	switch ev.Type {
	case events.TypeWaitlistJoined:
		return fmt.Sprintf("You joined the waitlist for event %d", ev.EventID),
			"You are in the queue. We will email you as soon as it is your turn.", true
	case events.TypeWaitlistAdmitted:
		return fmt.Sprintf("It's your turn: event %d", ev.EventID),
			fmt.Sprintf("A ticket is being held for you%s. Open the app to complete your purchase.", until(ev)), true
	case events.TypeReservationPaid:
		return fmt.Sprintf("Your tickets for event %d", ev.EventID),
			fmt.Sprintf("Payment received for reservation %d. Enjoy the event!", ev.ReservationID), true
	case events.TypeReservationExpired:
		return fmt.Sprintf("Your reservation for event %d expired", ev.EventID),
			fmt.Sprintf("Reservation %d was not paid in time and the tickets were released.", ev.ReservationID), true
	case events.TypeReservationCancelled:
		return fmt.Sprintf("Reservation %d cancelled", ev.ReservationID),
			"Your reservation was cancelled and the tickets were released.", true
	}
	return "", "", false
}

func until(ev events.Event) string {
	if ev.ReservedUntil == nil {
		return ""
	}
	return " until " + ev.ReservedUntil.UTC().Format("15:04 MST")
}
