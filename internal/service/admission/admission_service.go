package admission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/clock"
	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/Domenick1991/ticketqueue/internal/inventory"
	"github.com/Domenick1991/ticketqueue/internal/repository"
	"github.com/Domenick1991/ticketqueue/internal/token"
)

const (
	DefaultLease       = 15 * time.Minute
	DefaultMaxPerClaim = 10
	DefaultBatchCount  = 50
	MaxBatchCount      = 2000
	MinClaimTTLMinutes = 2
	MaxClaimTTLMinutes = 60
)

type AdmissionUseCase interface {
	AdmitNext(ctx context.Context, eventID int64) (*Admission, error)
	AdmitBatch(ctx context.Context, eventID int64, count int, ttl time.Duration) ([]Admission, error)
	Claim(ctx context.Context, input ClaimInput) (*domain.Reservation, error)
	Purchase(ctx context.Context, input PurchaseInput) ([]domain.Reservation, error)
	Complete(ctx context.Context, reservationID, userID int64) (*domain.Reservation, error)
	Cancel(ctx context.Context, reservationID, userID int64) (*domain.Reservation, error)
	ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error)
	GetReservation(ctx context.Context, reservationID, userID int64) (*ReservationDetails, error)
}

type Config struct {
	Lease        time.Duration
	RequireToken bool
	MaxPerClaim  int
}

// Admission is the result of moving one entry from queued to admitted. Token
// is returned to the caller once and never published.
type Admission struct {
	Entry       domain.WaitlistEntry
	Reservation domain.Reservation
	Token       string
}

type ReservationDetails struct {
	Reservation domain.Reservation
	Tickets     []domain.Ticket
}

type AdmissionService struct {
	uow       repository.UnitOfWork
	inventory *inventory.Inventory
	clock     clock.Clock
	tokens    token.Generator
	events    events.Emitter
	cfg       Config
}

type AdmissionServiceOption func(*AdmissionService)

func WithClock(c clock.Clock) AdmissionServiceOption {
	return func(s *AdmissionService) {
		s.clock = c
	}
}

func WithTokenGenerator(g token.Generator) AdmissionServiceOption {
	return func(s *AdmissionService) {
		s.tokens = g
	}
}

func WithEmitter(e events.Emitter) AdmissionServiceOption {
	return func(s *AdmissionService) {
		s.events = e
	}
}

func NewAdmissionService(uow repository.UnitOfWork, cfg Config, opts ...AdmissionServiceOption) *AdmissionService {
	if cfg.Lease <= 0 {
		cfg.Lease = DefaultLease
	}
	if cfg.MaxPerClaim <= 0 {
		cfg.MaxPerClaim = DefaultMaxPerClaim
	}
	s := &AdmissionService{
		uow:    uow,
		clock:  clock.Real{},
		tokens: token.NewRandomGenerator(),
		events: events.Nop{},
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.inventory = inventory.New(s.clock)
	return s
}

func (s *AdmissionService) Lease() time.Duration {
	return s.cfg.Lease
}

func (s *AdmissionService) AdmitNext(ctx context.Context, eventID int64) (*Admission, error) {
	var adm *Admission
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		adm, err = s.AdmitNextTx(ctx, tx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emitAdmitted(ctx, adm)
	return adm, nil
}

// AdmitNextTx admits the oldest queued entry of the event inside tx with the
// configured lease. It is the cascade step of cancel and sweep.
func (s *AdmissionService) AdmitNextTx(ctx context.Context, tx repository.Tx, eventID int64) (*Admission, error) {
	queued, err := tx.Waitlist().LockQueued(ctx, eventID, 1)
	if err != nil {
		return nil, fmt.Errorf("lock queue head: %w", err)
	}
	if len(queued) == 0 {
		return nil, domain.ErrNothingToAdmit
	}
	return s.admitTx(ctx, tx, &queued[0], s.cfg.Lease)
}

// AdmitBatch admits up to count entries in FIFO order, each with a 1-unit
// hold leased for ttl. It stops at the first entry capacity cannot cover.
func (s *AdmissionService) AdmitBatch(ctx context.Context, eventID int64, count int, ttl time.Duration) ([]Admission, error) {
	if count == 0 {
		count = DefaultBatchCount
	}
	if count < 0 || count > MaxBatchCount {
		return nil, &domain.ValidationError{Field: "count", Reason: fmt.Sprintf("must be between 1 and %d", MaxBatchCount)}
	}
	if ttl < 0 {
		return nil, &domain.ValidationError{Field: "ttl_seconds", Reason: "must not be negative"}
	}
	if ttl == 0 {
		ttl = s.cfg.Lease
	}

	admitted := make([]Admission, 0)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		admitted = admitted[:0]
		entries, err := tx.Waitlist().LockQueued(ctx, eventID, count)
		if err != nil {
			return fmt.Errorf("lock queued entries: %w", err)
		}
		for i := range entries {
			adm, err := s.admitTx(ctx, tx, &entries[i], ttl)
			if errors.Is(err, domain.ErrInsufficientCapacity) {
				log.Printf("admission: event %d out of capacity after %d of %d entries", eventID, len(admitted), len(entries))
				break
			}
			if err != nil {
				return err
			}
			admitted = append(admitted, *adm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range admitted {
		s.emitAdmitted(ctx, &admitted[i])
	}
	return admitted, nil
}

func (s *AdmissionService) admitTx(ctx context.Context, tx repository.Tx, entry *domain.WaitlistEntry, lease time.Duration) (*Admission, error) {
	if entry.Status != domain.WaitlistStatusQueued {
		return nil, domain.ErrAlreadyAdmitted
	}

	tt, err := s.inventory.ReserveAnyTicketType(ctx, tx, entry.EventID, 1)
	if err != nil {
		return nil, err
	}

	until := s.clock.Now().Add(lease)
	res := &domain.Reservation{
		UserID:           entry.UserID,
		EventID:          entry.EventID,
		TicketTypeID:     tt.ID,
		Quantity:         1,
		UnitPriceCents:   tt.PriceCents,
		TotalAmountCents: tt.PriceCents,
		Status:           domain.ReservationStatusReserved,
		ReservedUntil:    &until,
	}
	if err := tx.Reservations().Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create hold: %w", err)
	}

	tok, err := s.tokens.Generate()
	if err != nil {
		return nil, err
	}
	entry.Status = domain.WaitlistStatusAdmitted
	entry.AdmissionToken = &tok
	entry.TTLUntil = &until
	entry.ReservationID = &res.ID
	if err := tx.Waitlist().Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("admit entry %d: %w", entry.ID, err)
	}

	return &Admission{Entry: *entry, Reservation: *res, Token: tok}, nil
}

func (s *AdmissionService) emitAdmitted(ctx context.Context, adm *Admission) {
	if adm == nil {
		return
	}
	s.events.Emit(ctx, events.FromEntry(events.TypeWaitlistAdmitted, &adm.Entry))
}

// IsMiss reports whether err is an expected "no admission happened" outcome
// of a cascade step rather than a fault.
func IsMiss(err error) bool {
	return errors.Is(err, domain.ErrNothingToAdmit) || errors.Is(err, domain.ErrInsufficientCapacity)
}

var _ AdmissionUseCase = (*AdmissionService)(nil)
