// Package inventory holds the capacity-checked primitives over ticket types
// and seats. Every method runs inside the caller's transaction and relies on
// the row locks taken there, so a failed check leaves nothing to undo beyond
// the rollback the caller already performs.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/ticketqueue/internal/clock"
	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/repository"
)

type Inventory struct {
	clock clock.Clock
}

func New(c clock.Clock) *Inventory {
	if c == nil {
		c = clock.Real{}
	}
	return &Inventory{clock: c}
}

// TryReserveTicketType locks the type and takes qty units from it.
func (i *Inventory) TryReserveTicketType(ctx context.Context, tx repository.Tx, ticketTypeID int64, qty int) (*domain.TicketType, error) {
	if qty <= 0 {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	tt, err := tx.TicketTypes().Lock(ctx, ticketTypeID)
	if err != nil {
		return nil, fmt.Errorf("lock ticket type %d: %w", ticketTypeID, err)
	}
	return tt, i.take(ctx, tx, tt, qty)
}

// ReserveAnyTicketType takes qty units from the oldest on-sale type of the
// event that still has them.
func (i *Inventory) ReserveAnyTicketType(ctx context.Context, tx repository.Tx, eventID int64, qty int) (*domain.TicketType, error) {
	if qty <= 0 {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	tt, err := tx.TicketTypes().LockFirstAvailable(ctx, eventID, qty, i.clock.Now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInsufficientCapacity
	}
	if err != nil {
		return nil, fmt.Errorf("lock available ticket type: %w", err)
	}
	return tt, i.take(ctx, tx, tt, qty)
}

func (i *Inventory) take(ctx context.Context, tx repository.Tx, tt *domain.TicketType, qty int) error {
	if !tt.OnSale(i.clock.Now()) {
		return domain.ErrNotOnSale
	}
	if tt.QuantitySold+qty > tt.QuantityTotal {
		return domain.ErrInsufficientCapacity
	}
	if err := tx.TicketTypes().SetSold(ctx, tt.ID, tt.QuantitySold+qty); err != nil {
		return err
	}
	tt.QuantitySold += qty
	return nil
}

// ReleaseTicketType gives qty units back. The counter never drops below zero.
func (i *Inventory) ReleaseTicketType(ctx context.Context, tx repository.Tx, ticketTypeID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	tt, err := tx.TicketTypes().Lock(ctx, ticketTypeID)
	if err != nil {
		return fmt.Errorf("lock ticket type %d: %w", ticketTypeID, err)
	}
	sold := tt.QuantitySold - qty
	if sold < 0 {
		sold = 0
	}
	return tx.TicketTypes().SetSold(ctx, tt.ID, sold)
}

// TryReserveSeats flips every requested seat from available to reserved, or
// none of them.
func (i *Inventory) TryReserveSeats(ctx context.Context, tx repository.Tx, eventID int64, seatIDs []int64) ([]domain.Seat, error) {
	ids := dedupe(seatIDs)
	if len(ids) == 0 {
		return nil, &domain.ValidationError{Field: "seat_ids", Reason: "must not be empty"}
	}
	seats, err := tx.Seats().LockMany(ctx, eventID, ids)
	if err != nil {
		return nil, fmt.Errorf("lock seats: %w", err)
	}

	found := make(map[int64]domain.Seat, len(seats))
	for _, s := range seats {
		found[s.ID] = s
	}
	var blocked []int64
	for _, id := range ids {
		s, ok := found[id]
		if !ok || s.Status != domain.SeatStatusAvailable {
			blocked = append(blocked, id)
		}
	}
	if len(blocked) > 0 {
		return nil, &domain.SeatsUnavailableError{SeatIDs: blocked}
	}

	n, err := tx.Seats().Transition(ctx, ids, domain.SeatStatusAvailable, domain.SeatStatusReserved)
	if err != nil {
		return nil, err
	}
	if int(n) != len(ids) {
		return nil, &domain.SeatsUnavailableError{SeatIDs: ids}
	}
	for k := range seats {
		seats[k].Status = domain.SeatStatusReserved
	}
	return seats, nil
}

// ReleaseSeats returns reserved seats to available. Sold seats stay sold.
func (i *Inventory) ReleaseSeats(ctx context.Context, tx repository.Tx, seatIDs []int64) error {
	_, err := tx.Seats().Transition(ctx, dedupe(seatIDs), domain.SeatStatusReserved, domain.SeatStatusAvailable)
	return err
}

func (i *Inventory) SellSeats(ctx context.Context, tx repository.Tx, seatIDs []int64) error {
	_, err := tx.Seats().Transition(ctx, dedupe(seatIDs), domain.SeatStatusReserved, domain.SeatStatusSold)
	return err
}

func dedupe(ids []int64) []int64 {
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
