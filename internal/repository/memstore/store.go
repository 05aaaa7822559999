// Package memstore is an in-memory repository.UnitOfWork for tests. Each
// transaction runs against a private copy of the state under a single mutex
// and the copy replaces the state only when the transaction succeeds, which
// gives the same atomicity and lock serialization the engine relies on from
// PostgreSQL.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/clock"
	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/repository"
)

type Store struct {
	mu       sync.Mutex
	state    *state
	clock    clock.Clock
	lockErrs map[int64]error
}

type state struct {
	seq          int64
	entries      map[int64]domain.WaitlistEntry
	ticketTypes  map[int64]domain.TicketType
	seats        map[int64]domain.Seat
	reservations map[int64]domain.Reservation
	tickets      map[int64]domain.Ticket
	payments     map[int64]domain.Payment
}

func New(c clock.Clock) *Store {
	if c == nil {
		c = clock.Real{}
	}
	return &Store{
		clock:    c,
		lockErrs: make(map[int64]error),
		state: &state{
			entries:      make(map[int64]domain.WaitlistEntry),
			ticketTypes:  make(map[int64]domain.TicketType),
			seats:        make(map[int64]domain.Seat),
			reservations: make(map[int64]domain.Reservation),
			tickets:      make(map[int64]domain.Ticket),
			payments:     make(map[int64]domain.Payment),
		},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &memTx{st: work, now: s.clock.Now, lockErrs: s.lockErrs}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// FailReservationLock makes every Lock of the reservation return err until
// cleared with a nil err.
func (s *Store) FailReservationLock(id int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.lockErrs, id)
		return
	}
	s.lockErrs[id] = err
}

func (s *Store) AddTicketType(t domain.TicketType) domain.TicketType {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.state.next()
	t.CreatedAt = s.clock.Now()
	t.UpdatedAt = t.CreatedAt
	s.state.ticketTypes[t.ID] = t
	return t
}

func (s *Store) AddSeat(seat domain.Seat) domain.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat.ID = s.state.next()
	if seat.Status == "" {
		seat.Status = domain.SeatStatusAvailable
	}
	seat.CreatedAt = s.clock.Now()
	seat.UpdatedAt = seat.CreatedAt
	s.state.seats[seat.ID] = seat
	return seat
}

func (s *Store) TicketType(id int64) domain.TicketType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ticketTypes[id]
}

func (s *Store) Seat(id int64) domain.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.seats[id]
}

func (s *Store) Reservation(id int64) domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.reservations[id]
}

func (s *Store) Reservations() []domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Reservation, 0, len(s.state.reservations))
	for _, r := range s.state.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Entry returns the entry of the pair and whether it exists.
func (s *Store) Entry(eventID, userID int64) (domain.WaitlistEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.state.entries {
		if e.EventID == eventID && e.UserID == userID {
			return e, true
		}
	}
	return domain.WaitlistEntry{}, false
}

func (s *Store) Tickets(reservationID int64) []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ticketsOf(reservationID)
}

func (s *Store) Payments() []domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Payment, 0, len(s.state.payments))
	for _, p := range s.state.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *state) next() int64 {
	st.seq++
	return st.seq
}

func (st *state) clone() *state {
	c := &state{
		seq:          st.seq,
		entries:      make(map[int64]domain.WaitlistEntry, len(st.entries)),
		ticketTypes:  make(map[int64]domain.TicketType, len(st.ticketTypes)),
		seats:        make(map[int64]domain.Seat, len(st.seats)),
		reservations: make(map[int64]domain.Reservation, len(st.reservations)),
		tickets:      make(map[int64]domain.Ticket, len(st.tickets)),
		payments:     make(map[int64]domain.Payment, len(st.payments)),
	}
	for k, v := range st.entries {
		c.entries[k] = v
	}
	for k, v := range st.ticketTypes {
		c.ticketTypes[k] = v
	}
	for k, v := range st.seats {
		c.seats[k] = v
	}
	for k, v := range st.reservations {
		c.reservations[k] = v
	}
	for k, v := range st.tickets {
		c.tickets[k] = v
	}
	for k, v := range st.payments {
		c.payments[k] = v
	}
	return c
}

func (st *state) ticketsOf(reservationID int64) []domain.Ticket {
	out := make([]domain.Ticket, 0)
	for _, t := range st.tickets {
		if t.ReservationID == reservationID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memTx struct {
	st       *state
	now      func() time.Time
	lockErrs map[int64]error
}

func (t *memTx) Waitlist() repository.WaitlistRepository        { return (*waitlistRepo)(t) }
func (t *memTx) TicketTypes() repository.TicketTypeRepository   { return (*ticketTypeRepo)(t) }
func (t *memTx) Seats() repository.SeatRepository               { return (*seatRepo)(t) }
func (t *memTx) Reservations() repository.ReservationRepository { return (*reservationRepo)(t) }
func (t *memTx) Tickets() repository.TicketRepository           { return (*ticketRepo)(t) }
func (t *memTx) Payments() repository.PaymentRepository         { return (*paymentRepo)(t) }

var _ repository.UnitOfWork = (*Store)(nil)
