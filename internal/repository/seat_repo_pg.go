package repository

import (
	"context"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/jackc/pgx/v5"
)

const seatColumns = `id, event_id, venue_id, label, seat_row, seat_column, status, price_cents, created_at, updated_at`

type PGSeatRepository struct {
	db Querier
}

func NewSeatRepository(db Querier) SeatRepository {
	return &PGSeatRepository{db: db}
}

func (r *PGSeatRepository) LockMany(ctx context.Context, eventID int64, ids []int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT `+seatColumns+` FROM seats WHERE event_id=$1 AND id = ANY($2) ORDER BY id FOR UPDATE`, eventID, ids)
	if err != nil {
		return nil, mapError(err)
	}
	return collectSeats(rows)
}

func (r *PGSeatRepository) Transition(ctx context.Context, ids []int64, from, to domain.SeatStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `UPDATE seats SET status=$3, updated_at=now() WHERE id = ANY($1) AND status=$2`, ids, from, to)
	if err != nil {
		return 0, mapError(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *PGSeatRepository) ListByEvent(ctx context.Context, eventID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT `+seatColumns+` FROM seats WHERE event_id=$1 ORDER BY seat_row, seat_column`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	return collectSeats(rows)
}

func collectSeats(rows pgx.Rows) ([]domain.Seat, error) {
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.VenueID, &s.Label, &s.Row, &s.Column, &s.Status, &s.PriceCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, mapError(err)
		}
		seats = append(seats, s)
	}
	return seats, mapError(rows.Err())
}

var _ SeatRepository = (*PGSeatRepository)(nil)
