package availability

import (
	"context"
	"log"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/repository"
)

type AvailabilityUseCase interface {
	TicketTypes(ctx context.Context, eventID int64) ([]domain.TicketType, error)
	Seats(ctx context.Context, eventID int64) ([]domain.Seat, error)
}

type Cache interface {
	GetTicketTypes(ctx context.Context, eventID int64) ([]domain.TicketType, error)
	SetTicketTypes(ctx context.Context, eventID int64, types []domain.TicketType) error
}

// AvailabilityService serves the read side. Ticket-type counters go through
// the cache and may lag the store by the cache TTL; the admission path never
// reads from here.
type AvailabilityService struct {
	uow   repository.UnitOfWork
	cache Cache
}

func NewAvailabilityService(uow repository.UnitOfWork, cache Cache) *AvailabilityService {
	return &AvailabilityService{uow: uow, cache: cache}
}

func (s *AvailabilityService) TicketTypes(ctx context.Context, eventID int64) ([]domain.TicketType, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTicketTypes(ctx, eventID)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			log.Printf("availability: cache read for event %d: %v", eventID, err)
		}
	}

	var types []domain.TicketType
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		types, err = tx.TicketTypes().ListByEvent(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetTicketTypes(ctx, eventID, types); err != nil {
			log.Printf("availability: cache write for event %d: %v", eventID, err)
		}
	}
	return types, nil
}

func (s *AvailabilityService) Seats(ctx context.Context, eventID int64) ([]domain.Seat, error) {
	var seats []domain.Seat
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		seats, err = tx.Seats().ListByEvent(ctx, eventID)
		return err
	})
	return seats, err
}

var _ AvailabilityUseCase = (*AvailabilityService)(nil)
