package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/Domenick1991/ticketqueue/internal/repository"
)

// ClaimInput selects inventory for a user. Either SeatIDs or Quantity is set;
// with seats the quantity is the number of distinct seats.
type ClaimInput struct {
	EventID        int64
	UserID         int64
	TicketTypeID   int64
	SeatIDs        []int64
	Quantity       int
	AdmissionToken string
	TTLMinutes     int
}

func (s *AdmissionService) validateClaim(input *ClaimInput) (time.Duration, error) {
	if input.TicketTypeID <= 0 {
		return 0, &domain.ValidationError{Field: "ticket_type_id", Reason: "is required"}
	}
	if len(input.SeatIDs) > 0 {
		input.SeatIDs = distinct(input.SeatIDs)
		input.Quantity = len(input.SeatIDs)
	}
	if input.Quantity <= 0 {
		return 0, &domain.ValidationError{Field: "quantity", Reason: "seat_ids or a positive quantity is required"}
	}
	if input.Quantity > s.cfg.MaxPerClaim {
		return 0, &domain.ValidationError{Field: "quantity", Reason: fmt.Sprintf("at most %d per reservation", s.cfg.MaxPerClaim)}
	}
	if input.TTLMinutes == 0 {
		return s.cfg.Lease, nil
	}
	if input.TTLMinutes < MinClaimTTLMinutes || input.TTLMinutes > MaxClaimTTLMinutes {
		return 0, &domain.ValidationError{Field: "ttl_minutes", Reason: fmt.Sprintf("must be between %d and %d", MinClaimTTLMinutes, MaxClaimTTLMinutes)}
	}
	return time.Duration(input.TTLMinutes) * time.Minute, nil
}

// Claim reserves concrete inventory for the user. An admitted user presents
// the admission token and the admission hold is consumed: its inventory is
// given back and the requested inventory taken in the same transaction.
func (s *AdmissionService) Claim(ctx context.Context, input ClaimInput) (*domain.Reservation, error) {
	ttl, err := s.validateClaim(&input)
	if err != nil {
		return nil, err
	}
	if input.AdmissionToken == "" && s.cfg.RequireToken {
		return nil, domain.ErrInvalidToken
	}

	var (
		res   *domain.Reservation
		email string
	)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var (
			entry *domain.WaitlistEntry
			hold  *domain.Reservation
		)
		if input.AdmissionToken != "" {
			var err error
			entry, hold, err = s.lockAdmission(ctx, tx, input)
			if err != nil {
				return err
			}
			email = entry.Email
		}

		if hold != nil {
			if err := s.releaseInventory(ctx, tx, hold); err != nil {
				return fmt.Errorf("release hold %d: %w", hold.ID, err)
			}
		}

		tt, err := s.inventory.TryReserveTicketType(ctx, tx, input.TicketTypeID, input.Quantity)
		if err != nil {
			return err
		}
		if tt.EventID != input.EventID {
			return &domain.ValidationError{Field: "ticket_type_id", Reason: "does not belong to the event"}
		}

		var seats []domain.Seat
		if len(input.SeatIDs) > 0 {
			if seats, err = s.inventory.TryReserveSeats(ctx, tx, input.EventID, input.SeatIDs); err != nil {
				return err
			}
		}

		until := s.clock.Now().Add(ttl)
		total := tt.PriceCents * int64(input.Quantity)
		if len(seats) > 0 {
			total = 0
			for i := range seats {
				total += seats[i].Price(tt.PriceCents)
			}
		}

		res = hold
		if res == nil {
			res = &domain.Reservation{UserID: input.UserID, EventID: input.EventID}
		}
		res.TicketTypeID = tt.ID
		res.Quantity = input.Quantity
		res.UnitPriceCents = tt.PriceCents
		res.TotalAmountCents = total
		res.Status = domain.ReservationStatusReserved
		res.ReservedUntil = &until

		if hold != nil {
			err = tx.Reservations().Update(ctx, res)
		} else {
			err = tx.Reservations().Create(ctx, res)
		}
		if err != nil {
			return fmt.Errorf("save reservation: %w", err)
		}

		if len(seats) > 0 {
			tickets := make([]domain.Ticket, 0, len(seats))
			for i := range seats {
				seatID := seats[i].ID
				tickets = append(tickets, domain.Ticket{
					ReservationID: res.ID,
					SeatID:        &seatID,
					TicketTypeID:  tt.ID,
					Status:        domain.TicketStatusReserved,
					PriceCents:    seats[i].Price(tt.PriceCents),
					TicketNumber:  newTicketNumber(),
				})
			}
			if err := tx.Tickets().CreateMany(ctx, tickets); err != nil {
				return fmt.Errorf("create tickets: %w", err)
			}
		}

		if entry != nil {
			entry.TTLUntil = &until
			entry.ReservationID = &res.ID
			if err := tx.Waitlist().Update(ctx, entry); err != nil {
				return fmt.Errorf("resync entry %d: %w", entry.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, events.FromReservation(events.TypeReservationClaimed, res, email))
	return res, nil
}

// lockAdmission locks the user's hold and entry, in that order, and checks
// the token. The hold is nil when the entry has none left to consume.
func (s *AdmissionService) lockAdmission(ctx context.Context, tx repository.Tx, input ClaimInput) (*domain.WaitlistEntry, *domain.Reservation, error) {
	peek, err := tx.Waitlist().GetByUser(ctx, input.EventID, input.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, nil, err
	}

	var hold *domain.Reservation
	if peek.ReservationID != nil {
		hold, err = tx.Reservations().Lock(ctx, *peek.ReservationID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		if hold != nil && (hold.Status != domain.ReservationStatusReserved || hold.UserID != input.UserID) {
			hold = nil
		}
	}

	entry, err := tx.Waitlist().LockByUser(ctx, input.EventID, input.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, nil, err
	}
	if !entry.TokenValid(input.AdmissionToken, s.clock.Now()) {
		return nil, nil, domain.ErrInvalidToken
	}
	if hold != nil && (entry.ReservationID == nil || *entry.ReservationID != hold.ID) {
		hold = nil
	}
	return entry, hold, nil
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
