package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
)

// UnitOfWork runs fn inside one atomic transaction. If fn returns an error
// every change made through tx is rolled back. Lock* methods take row locks
// that are held until the transaction ends.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Waitlist() WaitlistRepository
	TicketTypes() TicketTypeRepository
	Seats() SeatRepository
	Reservations() ReservationRepository
	Tickets() TicketRepository
	Payments() PaymentRepository
}

type WaitlistRepository interface {
	// Create assigns ID and timestamps. Returns domain.ErrAlreadyQueued when
	// the (event, user) pair already has an entry.
	Create(ctx context.Context, entry *domain.WaitlistEntry) error
	GetByUser(ctx context.Context, eventID, userID int64) (*domain.WaitlistEntry, error)
	LockByUser(ctx context.Context, eventID, userID int64) (*domain.WaitlistEntry, error)
	// LockQueued locks up to limit queued entries of the event in FIFO order.
	LockQueued(ctx context.Context, eventID int64, limit int) ([]domain.WaitlistEntry, error)
	Update(ctx context.Context, entry *domain.WaitlistEntry) error
	Delete(ctx context.Context, eventID, userID int64) error
	CountQueued(ctx context.Context, eventID int64) (int, error)
	CountQueuedUpTo(ctx context.Context, eventID, entryID int64) (int, error)
	ListByEvent(ctx context.Context, eventID int64, limit, offset int) ([]domain.WaitlistEntry, error)
}

type TicketTypeRepository interface {
	Get(ctx context.Context, id int64) (*domain.TicketType, error)
	Lock(ctx context.Context, id int64) (*domain.TicketType, error)
	// LockFirstAvailable locks the oldest on-sale type of the event that has
	// at least qty units left.
	LockFirstAvailable(ctx context.Context, eventID int64, qty int, at time.Time) (*domain.TicketType, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.TicketType, error)
	SetSold(ctx context.Context, id int64, sold int) error
}

type SeatRepository interface {
	// LockMany locks the requested seats of the event ordered by id. Seats that
	// do not exist or belong to another event are absent from the result.
	LockMany(ctx context.Context, eventID int64, ids []int64) ([]domain.Seat, error)
	// Transition moves seats currently in from to to and returns the number of
	// rows changed.
	Transition(ctx context.Context, ids []int64, from, to domain.SeatStatus) (int64, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Seat, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	Get(ctx context.Context, id int64) (*domain.Reservation, error)
	Lock(ctx context.Context, id int64) (*domain.Reservation, error)
	Update(ctx context.Context, r *domain.Reservation) error
	// ListLapsed returns reserved reservations with reserved_until < now,
	// oldest deadline first.
	ListLapsed(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
}

type TicketRepository interface {
	CreateMany(ctx context.Context, tickets []domain.Ticket) error
	ListByReservation(ctx context.Context, reservationID int64) ([]domain.Ticket, error)
	TransitionByReservation(ctx context.Context, reservationID int64, from, to domain.TicketStatus) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
}
