package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGUnitOfWork struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewUnitOfWork returns a UnitOfWork over db. A positive lockTimeout bounds
// how long any statement waits for a row lock.
func NewUnitOfWork(db *pgxpool.Pool, lockTimeout time.Duration) *PGUnitOfWork {
	return &PGUnitOfWork{db: db, lockTimeout: lockTimeout}
}

func (u *PGUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := u.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx)

	if u.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", u.lockTimeout.Milliseconds())); err != nil {
			return mapError(fmt.Errorf("set lock_timeout: %w", err))
		}
	}

	if err := fn(ctx, newPGTx(tx)); err != nil {
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

type pgTx struct {
	waitlist     *PGWaitlistRepository
	ticketTypes  *PGTicketTypeRepository
	seats        *PGSeatRepository
	reservations *PGReservationRepository
	tickets      *PGTicketRepository
	payments     *PGPaymentRepository
}

func newPGTx(q Querier) *pgTx {
	return &pgTx{
		waitlist:     &PGWaitlistRepository{db: q},
		ticketTypes:  &PGTicketTypeRepository{db: q},
		seats:        &PGSeatRepository{db: q},
		reservations: &PGReservationRepository{db: q},
		tickets:      &PGTicketRepository{db: q},
		payments:     &PGPaymentRepository{db: q},
	}
}

func (t *pgTx) Waitlist() WaitlistRepository        { return t.waitlist }
func (t *pgTx) TicketTypes() TicketTypeRepository   { return t.ticketTypes }
func (t *pgTx) Seats() SeatRepository               { return t.seats }
func (t *pgTx) Reservations() ReservationRepository { return t.reservations }
func (t *pgTx) Tickets() TicketRepository           { return t.tickets }
func (t *pgTx) Payments() PaymentRepository         { return t.payments }

var (
	_ UnitOfWork = (*PGUnitOfWork)(nil)
	_ Tx         = (*pgTx)(nil)
)
