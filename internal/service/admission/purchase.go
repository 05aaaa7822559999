package admission

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/Domenick1991/ticketqueue/internal/repository"
)

// MaxPurchaseItems bounds the number of ticket types in one purchase.
const MaxPurchaseItems = 10

type PurchaseItem struct {
	TicketTypeID int64
	Quantity     int
}

// PurchaseInput is a direct purchase of several ticket types without an
// admission token.
type PurchaseInput struct {
	EventID    int64
	UserID     int64
	Items      []PurchaseItem
	TTLMinutes int
}

func (s *AdmissionService) validatePurchase(input *PurchaseInput) (time.Duration, error) {
	if len(input.Items) == 0 {
		return 0, &domain.ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	if len(input.Items) > MaxPurchaseItems {
		return 0, &domain.ValidationError{Field: "items", Reason: fmt.Sprintf("at most %d items per purchase", MaxPurchaseItems)}
	}

	seen := make(map[int64]struct{}, len(input.Items))
	for _, item := range input.Items {
		if item.TicketTypeID <= 0 {
			return 0, &domain.ValidationError{Field: "items.ticket_type_id", Reason: "is required"}
		}
		if _, ok := seen[item.TicketTypeID]; ok {
			return 0, &domain.ValidationError{Field: "items.ticket_type_id", Reason: fmt.Sprintf("ticket type %d listed twice", item.TicketTypeID)}
		}
		seen[item.TicketTypeID] = struct{}{}
		if item.Quantity <= 0 || item.Quantity > s.cfg.MaxPerClaim {
			return 0, &domain.ValidationError{Field: "items.quantity", Reason: fmt.Sprintf("must be between 1 and %d", s.cfg.MaxPerClaim)}
		}
	}

	if input.TTLMinutes == 0 {
		return s.cfg.Lease, nil
	}
	if input.TTLMinutes < MinClaimTTLMinutes || input.TTLMinutes > MaxClaimTTLMinutes {
		return 0, &domain.ValidationError{Field: "ttl_minutes", Reason: fmt.Sprintf("must be between %d and %d", MinClaimTTLMinutes, MaxClaimTTLMinutes)}
	}
	return time.Duration(input.TTLMinutes) * time.Minute, nil
}

// Purchase reserves every item or none. Ticket types are locked in id order
// so concurrent purchases over the same types cannot deadlock each other.
// Only available when admission tokens are not required.
func (s *AdmissionService) Purchase(ctx context.Context, input PurchaseInput) ([]domain.Reservation, error) {
	if s.cfg.RequireToken {
		return nil, domain.ErrInvalidToken
	}
	ttl, err := s.validatePurchase(&input)
	if err != nil {
		return nil, err
	}

	items := make([]PurchaseItem, len(input.Items))
	copy(items, input.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].TicketTypeID < items[j].TicketTypeID })

	var out []domain.Reservation
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		out = out[:0]
		until := s.clock.Now().Add(ttl)
		for _, item := range items {
			tt, err := s.inventory.TryReserveTicketType(ctx, tx, item.TicketTypeID, item.Quantity)
			if err != nil {
				return fmt.Errorf("ticket type %d: %w", item.TicketTypeID, err)
			}
			if tt.EventID != input.EventID {
				return &domain.ValidationError{Field: "items.ticket_type_id", Reason: fmt.Sprintf("ticket type %d does not belong to the event", tt.ID)}
			}

			until := until
			res := domain.Reservation{
				UserID:           input.UserID,
				EventID:          input.EventID,
				TicketTypeID:     tt.ID,
				Quantity:         item.Quantity,
				UnitPriceCents:   tt.PriceCents,
				TotalAmountCents: tt.PriceCents * int64(item.Quantity),
				Status:           domain.ReservationStatusReserved,
				ReservedUntil:    &until,
			}
			if err := tx.Reservations().Create(ctx, &res); err != nil {
				return fmt.Errorf("save reservation: %w", err)
			}
			out = append(out, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range out {
		s.events.Emit(ctx, events.FromReservation(events.TypeReservationClaimed, &out[i], ""))
	}
	return out, nil
}
