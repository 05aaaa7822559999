package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
)

type waitlistRepo memTx

func (r *waitlistRepo) Create(_ context.Context, entry *domain.WaitlistEntry) error {
	for _, e := range r.st.entries {
		if e.EventID == entry.EventID && e.UserID == entry.UserID {
			return domain.ErrAlreadyQueued
		}
	}
	entry.ID = r.st.next()
	entry.Status = domain.WaitlistStatusQueued
	entry.CreatedAt = r.now()
	entry.UpdatedAt = entry.CreatedAt
	r.st.entries[entry.ID] = *entry
	return nil
}

func (r *waitlistRepo) GetByUser(_ context.Context, eventID, userID int64) (*domain.WaitlistEntry, error) {
	for _, e := range r.st.entries {
		if e.EventID == eventID && e.UserID == userID {
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *waitlistRepo) LockByUser(ctx context.Context, eventID, userID int64) (*domain.WaitlistEntry, error) {
	return r.GetByUser(ctx, eventID, userID)
}

func (r *waitlistRepo) LockQueued(_ context.Context, eventID int64, limit int) ([]domain.WaitlistEntry, error) {
	out := r.byEvent(eventID, func(e domain.WaitlistEntry) bool { return e.Status == domain.WaitlistStatusQueued })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *waitlistRepo) Update(_ context.Context, entry *domain.WaitlistEntry) error {
	cur, ok := r.st.entries[entry.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = entry.Status
	cur.AdmissionToken = entry.AdmissionToken
	cur.TTLUntil = entry.TTLUntil
	cur.ReservationID = entry.ReservationID
	cur.UpdatedAt = r.now()
	entry.UpdatedAt = cur.UpdatedAt
	r.st.entries[entry.ID] = cur
	return nil
}

func (r *waitlistRepo) Delete(_ context.Context, eventID, userID int64) error {
	for id, e := range r.st.entries {
		if e.EventID == eventID && e.UserID == userID {
			delete(r.st.entries, id)
			return nil
		}
	}
	return domain.ErrNotInQueue
}

func (r *waitlistRepo) CountQueued(_ context.Context, eventID int64) (int, error) {
	return len(r.byEvent(eventID, func(e domain.WaitlistEntry) bool { return e.Status == domain.WaitlistStatusQueued })), nil
}

func (r *waitlistRepo) CountQueuedUpTo(_ context.Context, eventID, entryID int64) (int, error) {
	return len(r.byEvent(eventID, func(e domain.WaitlistEntry) bool {
		return e.Status == domain.WaitlistStatusQueued && e.ID <= entryID
	})), nil
}

func (r *waitlistRepo) ListByEvent(_ context.Context, eventID int64, limit, offset int) ([]domain.WaitlistEntry, error) {
	out := r.byEvent(eventID, func(domain.WaitlistEntry) bool { return true })
	if offset >= len(out) {
		return []domain.WaitlistEntry{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *waitlistRepo) byEvent(eventID int64, keep func(domain.WaitlistEntry) bool) []domain.WaitlistEntry {
	out := make([]domain.WaitlistEntry, 0)
	for _, e := range r.st.entries {
		if e.EventID == eventID && keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type ticketTypeRepo memTx

func (r *ticketTypeRepo) Get(_ context.Context, id int64) (*domain.TicketType, error) {
	t, ok := r.st.ticketTypes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *ticketTypeRepo) Lock(ctx context.Context, id int64) (*domain.TicketType, error) {
	return r.Get(ctx, id)
}

func (r *ticketTypeRepo) LockFirstAvailable(ctx context.Context, eventID int64, qty int, at time.Time) (*domain.TicketType, error) {
	types, _ := r.ListByEvent(ctx, eventID)
	for i := range types {
		if types[i].OnSale(at) && types[i].Available() >= qty {
			return &types[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *ticketTypeRepo) ListByEvent(_ context.Context, eventID int64) ([]domain.TicketType, error) {
	out := make([]domain.TicketType, 0)
	for _, t := range r.st.ticketTypes {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetSold mirrors the 0 <= quantity_sold <= quantity_total check constraint.
func (r *ticketTypeRepo) SetSold(_ context.Context, id int64, sold int) error {
	t, ok := r.st.ticketTypes[id]
	if !ok {
		return domain.ErrNotFound
	}
	if sold < 0 || sold > t.QuantityTotal {
		return domain.ErrInsufficientCapacity
	}
	t.QuantitySold = sold
	t.UpdatedAt = r.now()
	r.st.ticketTypes[id] = t
	return nil
}

type seatRepo memTx

func (r *seatRepo) LockMany(_ context.Context, eventID int64, ids []int64) ([]domain.Seat, error) {
	out := make([]domain.Seat, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		s, ok := r.st.seats[id]
		if !ok || s.EventID != eventID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *seatRepo) Transition(_ context.Context, ids []int64, from, to domain.SeatStatus) (int64, error) {
	var n int64
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		s, ok := r.st.seats[id]
		if !ok || s.Status != from || seen[id] {
			continue
		}
		seen[id] = true
		s.Status = to
		s.UpdatedAt = r.now()
		r.st.seats[id] = s
		n++
	}
	return n, nil
}

func (r *seatRepo) ListByEvent(_ context.Context, eventID int64) ([]domain.Seat, error) {
	out := make([]domain.Seat, 0)
	for _, s := range r.st.seats {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Column < out[j].Column
	})
	return out, nil
}

type reservationRepo memTx

func (r *reservationRepo) Create(_ context.Context, res *domain.Reservation) error {
	res.ID = r.st.next()
	res.CreatedAt = r.now()
	res.UpdatedAt = res.CreatedAt
	r.st.reservations[res.ID] = *res
	return nil
}

func (r *reservationRepo) Get(_ context.Context, id int64) (*domain.Reservation, error) {
	res, ok := r.st.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &res, nil
}

func (r *reservationRepo) Lock(ctx context.Context, id int64) (*domain.Reservation, error) {
	if err, ok := r.lockErrs[id]; ok {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *reservationRepo) Update(_ context.Context, res *domain.Reservation) error {
	cur, ok := r.st.reservations[res.ID]
	if !ok {
		return domain.ErrNotFound
	}
	res.UserID = cur.UserID
	res.EventID = cur.EventID
	res.CreatedAt = cur.CreatedAt
	res.UpdatedAt = r.now()
	r.st.reservations[res.ID] = *res
	return nil
}

func (r *reservationRepo) ListLapsed(_ context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	out := make([]domain.Reservation, 0)
	for _, res := range r.st.reservations {
		if res.Lapsed(now) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservedUntil.Before(*out[j].ReservedUntil) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reservationRepo) ListByUser(_ context.Context, userID int64) ([]domain.Reservation, error) {
	out := make([]domain.Reservation, 0)
	for _, res := range r.st.reservations {
		if res.UserID == userID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type ticketRepo memTx

func (r *ticketRepo) CreateMany(_ context.Context, tickets []domain.Ticket) error {
	for i := range tickets {
		tickets[i].ID = r.st.next()
		tickets[i].CreatedAt = r.now()
		r.st.tickets[tickets[i].ID] = tickets[i]
	}
	return nil
}

func (r *ticketRepo) ListByReservation(_ context.Context, reservationID int64) ([]domain.Ticket, error) {
	return r.st.ticketsOf(reservationID), nil
}

func (r *ticketRepo) TransitionByReservation(_ context.Context, reservationID int64, from, to domain.TicketStatus) (int64, error) {
	var n int64
	for id, t := range r.st.tickets {
		if t.ReservationID == reservationID && t.Status == from {
			t.Status = to
			r.st.tickets[id] = t
			n++
		}
	}
	return n, nil
}

type paymentRepo memTx

func (r *paymentRepo) Create(_ context.Context, p *domain.Payment) error {
	p.ID = r.st.next()
	p.CreatedAt = r.now()
	r.st.payments[p.ID] = *p
	return nil
}
