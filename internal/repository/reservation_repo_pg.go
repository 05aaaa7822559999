package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/jackc/pgx/v5"
)

const reservationColumns = `id, user_id, event_id, ticket_type_id, quantity, unit_price_cents, total_amount_cents, status, reserved_until, created_at, updated_at`

type PGReservationRepository struct {
	db Querier
}

func NewReservationRepository(db Querier) ReservationRepository {
	return &PGReservationRepository{db: db}
}

func (r *PGReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	err := r.db.QueryRow(ctx, `INSERT INTO reservations (user_id, event_id, ticket_type_id, quantity, unit_price_cents, total_amount_cents, status, reserved_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		res.UserID, res.EventID, res.TicketTypeID, res.Quantity, res.UnitPriceCents, res.TotalAmountCents, res.Status, res.ReservedUntil).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	return mapError(err)
}

func (r *PGReservationRepository) Get(ctx context.Context, id int64) (*domain.Reservation, error) {
	return scanReservation(r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id))
}

func (r *PGReservationRepository) Lock(ctx context.Context, id int64) (*domain.Reservation, error) {
	return scanReservation(r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1 FOR UPDATE`, id))
}

func (r *PGReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	err := r.db.QueryRow(ctx, `UPDATE reservations
		SET ticket_type_id=$2, quantity=$3, unit_price_cents=$4, total_amount_cents=$5, status=$6, reserved_until=$7, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		res.ID, res.TicketTypeID, res.Quantity, res.UnitPriceCents, res.TotalAmountCents, res.Status, res.ReservedUntil).
		Scan(&res.UpdatedAt)
	return mapError(err)
}

func (r *PGReservationRepository) ListLapsed(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE status=$1 AND reserved_until < $2
		ORDER BY reserved_until
		LIMIT $3`, domain.ReservationStatusReserved, now, limit)
	if err != nil {
		return nil, mapError(err)
	}
	return collectReservations(rows)
}

func (r *PGReservationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return collectReservations(rows)
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := row.Scan(&res.ID, &res.UserID, &res.EventID, &res.TicketTypeID, &res.Quantity, &res.UnitPriceCents, &res.TotalAmountCents, &res.Status, &res.ReservedUntil, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return &res, nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()

	out := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, mapError(rows.Err())
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
