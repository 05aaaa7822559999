package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/clock"
	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/Domenick1991/ticketqueue/internal/events"
	"github.com/Domenick1991/ticketqueue/internal/repository"
	"github.com/Domenick1991/ticketqueue/internal/service/admission"
)

const DefaultBatch = 500

// Engine is the slice of the admission service the sweeper drives.
type Engine interface {
	ReleaseTx(ctx context.Context, tx repository.Tx, res *domain.Reservation, final domain.ReservationStatus) (*domain.WaitlistEntry, error)
	AdmitNextTx(ctx context.Context, tx repository.Tx, eventID int64) (*admission.Admission, error)
}

// Locker keeps concurrent workers from sweeping at the same time.
type Locker interface {
	AcquireSweepLock(ctx context.Context, ttl time.Duration) (string, bool, error)
	ReleaseSweepLock(ctx context.Context, owner string) error
}

type Result struct {
	Scanned  int `json:"scanned"`
	Released int `json:"released"`
	Admitted int `json:"admitted"`
	Failed   int `json:"failed"`
}

type Sweeper struct {
	uow     repository.UnitOfWork
	engine  Engine
	clock   clock.Clock
	events  events.Emitter
	locker  Locker
	lockTTL time.Duration
	batch   int
}

type SweeperOption func(*Sweeper)

func WithClock(c clock.Clock) SweeperOption {
	return func(s *Sweeper) {
		s.clock = c
	}
}

func WithEmitter(e events.Emitter) SweeperOption {
	return func(s *Sweeper) {
		s.events = e
	}
}

func WithLocker(l Locker, ttl time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.locker = l
		s.lockTTL = ttl
	}
}

func WithBatch(n int) SweeperOption {
	return func(s *Sweeper) {
		if n > 0 {
			s.batch = n
		}
	}
}

func New(uow repository.UnitOfWork, engine Engine, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		uow:     uow,
		engine:  engine,
		clock:   clock.Real{},
		events:  events.Nop{},
		lockTTL: time.Minute,
		batch:   DefaultBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sweeper) Name() string {
	return "expiry-sweeper"
}

// Run adapts Sweep to the scheduler.
func (s *Sweeper) Run(ctx context.Context) error {
	res, err := s.Sweep(ctx)
	if err != nil {
		return err
	}
	if res.Scanned > 0 {
		log.Printf("sweeper: scanned=%d released=%d admitted=%d failed=%d", res.Scanned, res.Released, res.Admitted, res.Failed)
	}
	return nil
}

// Sweep reclaims lapsed reservations, each in its own transaction, and gives
// every freed slot one admission attempt. A failing reservation is counted
// and skipped.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var result Result

	if s.locker != nil {
		owner, ok, err := s.locker.AcquireSweepLock(ctx, s.lockTTL)
		switch {
		case err != nil:
			// every reservation is re-locked in its own tx, so sweeping
			// without the lock is still correct
			log.Printf("sweeper: acquire sweep lock: %v; sweeping unlocked", err)
		case !ok:
			log.Println("sweeper: another worker holds the sweep lock, skipping")
			return result, nil
		default:
			defer func() {
				if err := s.locker.ReleaseSweepLock(context.Background(), owner); err != nil {
					log.Printf("sweeper: release lock: %v", err)
				}
			}()
		}
	}

	var lapsed []domain.Reservation
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		lapsed, err = tx.Reservations().ListLapsed(ctx, s.clock.Now(), s.batch)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("list lapsed reservations: %w", err)
	}
	result.Scanned = len(lapsed)

	for i := range lapsed {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		released, next, err := s.reclaim(ctx, lapsed[i].ID)
		if err != nil {
			result.Failed++
			log.Printf("sweeper: reservation %d: %v", lapsed[i].ID, err)
			continue
		}
		if released == nil {
			continue
		}
		result.Released++
		s.events.Emit(ctx, events.FromReservation(events.TypeReservationExpired, released.reservation, released.email))
		if next != nil {
			result.Admitted++
			s.events.Emit(ctx, events.FromEntry(events.TypeWaitlistAdmitted, &next.Entry))
		}
	}
	return result, nil
}

type releasedHold struct {
	reservation *domain.Reservation
	email       string
}

// reclaim returns nil, nil, nil when someone else already settled the
// reservation.
func (s *Sweeper) reclaim(ctx context.Context, reservationID int64) (*releasedHold, *admission.Admission, error) {
	var (
		released *releasedHold
		next     *admission.Admission
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		released, next = nil, nil

		res, err := tx.Reservations().Lock(ctx, reservationID)
		if err != nil {
			return err
		}
		if !res.Lapsed(s.clock.Now()) {
			return nil
		}

		entry, err := s.engine.ReleaseTx(ctx, tx, res, domain.ReservationStatusExpired)
		if err != nil {
			return err
		}
		released = &releasedHold{reservation: res}
		if entry != nil {
			released.email = entry.Email
		}

		next, err = s.engine.AdmitNextTx(ctx, tx, res.EventID)
		if admission.IsMiss(err) {
			next = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return released, next, nil
}
