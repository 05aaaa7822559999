package waitlist

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/Domenick1991/ticketqueue/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type WaitlistUseCase interface {
	Join(ctx context.Context, eventID, userID int64, email string) (*domain.WaitlistEntry, error)
	Position(ctx context.Context, entry *domain.WaitlistEntry) (int, error)
	Leave(ctx context.Context, eventID, userID int64) error
	Status(ctx context.Context, eventID, userID int64) (*StatusView, error)
	List(ctx context.Context, eventID int64, limit, offset int) ([]domain.WaitlistEntry, error)
}

// StatusView is what a polling client sees. Position is 0 unless the entry
// is still queued.
type StatusView struct {
	Entry       domain.WaitlistEntry
	Position    int
	QueueSize   int
	Reservation *domain.Reservation
}

type WaitlistService struct {
	uow    repository.UnitOfWork
	events events.Emitter
}

type WaitlistServiceOption func(*WaitlistService)

func WithEmitter(e events.Emitter) WaitlistServiceOption {
	return func(s *WaitlistService) {
		s.events = e
	}
}

func NewWaitlistService(uow repository.UnitOfWork, opts ...WaitlistServiceOption) *WaitlistService {
	s := &WaitlistService{uow: uow, events: events.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WaitlistService) Join(ctx context.Context, eventID, userID int64, email string) (*domain.WaitlistEntry, error) {
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, &domain.ValidationError{Field: "email", Reason: "invalid address"}
		}
	}

	entry := &domain.WaitlistEntry{EventID: eventID, UserID: userID, Email: email}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Waitlist().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, events.FromEntry(events.TypeWaitlistJoined, entry))
	return entry, nil
}

func (s *WaitlistService) Position(ctx context.Context, entry *domain.WaitlistEntry) (int, error) {
	if entry.Status != domain.WaitlistStatusQueued {
		return 0, nil
	}
	var pos int
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		pos, err = tx.Waitlist().CountQueuedUpTo(ctx, entry.EventID, entry.ID)
		return err
	})
	return pos, err
}

// Leave removes the entry whatever its status. A hold the entry still points
// to is left for the sweeper.
func (s *WaitlistService) Leave(ctx context.Context, eventID, userID int64) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Waitlist().Delete(ctx, eventID, userID)
	})
}

func (s *WaitlistService) Status(ctx context.Context, eventID, userID int64) (*StatusView, error) {
	view := &StatusView{}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		entry, err := tx.Waitlist().GetByUser(ctx, eventID, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotInQueue
		}
		if err != nil {
			return err
		}
		view.Entry = *entry

		if view.QueueSize, err = tx.Waitlist().CountQueued(ctx, eventID); err != nil {
			return err
		}
		if entry.Status == domain.WaitlistStatusQueued {
			if view.Position, err = tx.Waitlist().CountQueuedUpTo(ctx, eventID, entry.ID); err != nil {
				return err
			}
		}
		if entry.ReservationID != nil {
			res, err := tx.Reservations().Get(ctx, *entry.ReservationID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("load hold %d: %w", *entry.ReservationID, err)
			}
			view.Reservation = res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *WaitlistService) List(ctx context.Context, eventID int64, limit, offset int) ([]domain.WaitlistEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	var out []domain.WaitlistEntry
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.Waitlist().ListByEvent(ctx, eventID, limit, offset)
		return err
	})
	return out, err
}

var _ WaitlistUseCase = (*WaitlistService)(nil)
