package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/Domenick1991/ticketqueue/internal/repository"
	"github.com/google/uuid"
)

func newTicketNumber() string {
	return uuid.NewString()
}

// Complete finalizes a live reservation: seats and tickets become sold, the
// reservation paid and the admitted entry completed.
func (s *AdmissionService) Complete(ctx context.Context, reservationID, userID int64) (*domain.Reservation, error) {
	var (
		res   *domain.Reservation
		email string
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = s.lockOwned(ctx, tx, reservationID, userID)
		if err != nil {
			return err
		}
		if !res.Active(s.clock.Now()) {
			return domain.ErrReservationNotActive
		}

		entry, err := s.lockLinkedEntry(ctx, tx, res)
		if err != nil {
			return err
		}

		tickets, err := tx.Tickets().ListByReservation(ctx, res.ID)
		if err != nil {
			return err
		}
		if err := s.inventory.SellSeats(ctx, tx, reservedSeatIDs(tickets)); err != nil {
			return fmt.Errorf("sell seats: %w", err)
		}
		if _, err := tx.Tickets().TransitionByReservation(ctx, res.ID, domain.TicketStatusReserved, domain.TicketStatusSold); err != nil {
			return fmt.Errorf("sell tickets: %w", err)
		}

		res.Status = domain.ReservationStatusPaid
		if err := tx.Reservations().Update(ctx, res); err != nil {
			return err
		}

		if entry != nil {
			email = entry.Email
			entry.Status = domain.WaitlistStatusCompleted
			if err := tx.Waitlist().Update(ctx, entry); err != nil {
				return err
			}
		}

		return tx.Payments().Create(ctx, &domain.Payment{
			ReservationID: res.ID,
			AmountCents:   res.TotalAmountCents,
			Status:        domain.PaymentStatusCompleted,
			TransactionID: uuid.NewString(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, events.FromReservation(events.TypeReservationPaid, res, email))
	return res, nil
}

// Cancel gives the reservation's inventory back right away and admits the
// next queued user into the freed capacity.
func (s *AdmissionService) Cancel(ctx context.Context, reservationID, userID int64) (*domain.Reservation, error) {
	var (
		res   *domain.Reservation
		entry *domain.WaitlistEntry
		next  *Admission
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = s.lockOwned(ctx, tx, reservationID, userID)
		if err != nil {
			return err
		}
		if res.Status != domain.ReservationStatusReserved {
			return domain.ErrReservationNotActive
		}

		if entry, err = s.ReleaseTx(ctx, tx, res, domain.ReservationStatusCancelled); err != nil {
			return err
		}

		next, err = s.AdmitNextTx(ctx, tx, res.EventID)
		if IsMiss(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	email := ""
	if entry != nil {
		email = entry.Email
	}
	s.events.Emit(ctx, events.FromReservation(events.TypeReservationCancelled, res, email))
	s.emitAdmitted(ctx, next)
	return res, nil
}

// ReleaseTx moves a locked, reserved reservation to final and gives back
// exactly what it holds: its ticket-type units and the seats of its reserved
// tickets. The linked admitted entry expires. It returns that entry, if any.
func (s *AdmissionService) ReleaseTx(ctx context.Context, tx repository.Tx, res *domain.Reservation, final domain.ReservationStatus) (*domain.WaitlistEntry, error) {
	if res.Status != domain.ReservationStatusReserved {
		return nil, domain.ErrReservationNotActive
	}

	entry, err := s.lockLinkedEntry(ctx, tx, res)
	if err != nil {
		return nil, err
	}

	if err := s.releaseInventory(ctx, tx, res); err != nil {
		return nil, err
	}

	res.Status = final
	if err := tx.Reservations().Update(ctx, res); err != nil {
		return nil, fmt.Errorf("update reservation %d: %w", res.ID, err)
	}

	if entry != nil {
		entry.Status = domain.WaitlistStatusExpired
		if err := tx.Waitlist().Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("expire entry %d: %w", entry.ID, err)
		}
	}
	return entry, nil
}

func (s *AdmissionService) releaseInventory(ctx context.Context, tx repository.Tx, res *domain.Reservation) error {
	if err := s.inventory.ReleaseTicketType(ctx, tx, res.TicketTypeID, res.Quantity); err != nil {
		return err
	}
	tickets, err := tx.Tickets().ListByReservation(ctx, res.ID)
	if err != nil {
		return err
	}
	if err := s.inventory.ReleaseSeats(ctx, tx, reservedSeatIDs(tickets)); err != nil {
		return err
	}
	_, err = tx.Tickets().TransitionByReservation(ctx, res.ID, domain.TicketStatusReserved, domain.TicketStatusCancelled)
	return err
}

func (s *AdmissionService) lockOwned(ctx context.Context, tx repository.Tx, reservationID, userID int64) (*domain.Reservation, error) {
	res, err := tx.Reservations().Lock(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return res, nil
}

// lockLinkedEntry returns the user's admitted entry when it is backed by res,
// or nil. Entries linked to another reservation are left alone.
func (s *AdmissionService) lockLinkedEntry(ctx context.Context, tx repository.Tx, res *domain.Reservation) (*domain.WaitlistEntry, error) {
	entry, err := tx.Waitlist().LockByUser(ctx, res.EventID, res.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.WaitlistStatusAdmitted {
		return nil, nil
	}
	if entry.ReservationID != nil && *entry.ReservationID != res.ID {
		return nil, nil
	}
	return entry, nil
}

func (s *AdmissionService) ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.Reservations().ListByUser(ctx, userID)
		return err
	})
	return out, err
}

func (s *AdmissionService) GetReservation(ctx context.Context, reservationID, userID int64) (*ReservationDetails, error) {
	details := &ReservationDetails{}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		res, err := tx.Reservations().Get(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.UserID != userID {
			return domain.ErrForbidden
		}
		details.Reservation = *res
		details.Tickets, err = tx.Tickets().ListByReservation(ctx, reservationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

func reservedSeatIDs(tickets []domain.Ticket) []int64 {
	ids := make([]int64, 0, len(tickets))
	for _, t := range tickets {
		if t.SeatID != nil && t.Status == domain.TicketStatusReserved {
			ids = append(ids, *t.SeatID)
		}
	}
	return ids
}
