package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/jackc/pgx/v5"
)

const ticketTypeColumns = `id, event_id, name, price_cents, quantity_total, quantity_sold, is_active, sales_start_at, sales_end_at, created_at, updated_at`

type PGTicketTypeRepository struct {
	db Querier
}

func NewTicketTypeRepository(db Querier) TicketTypeRepository {
	return &PGTicketTypeRepository{db: db}
}

func (r *PGTicketTypeRepository) Get(ctx context.Context, id int64) (*domain.TicketType, error) {
	return scanTicketType(r.db.QueryRow(ctx, `SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id=$1`, id))
}

func (r *PGTicketTypeRepository) Lock(ctx context.Context, id int64) (*domain.TicketType, error) {
	return scanTicketType(r.db.QueryRow(ctx, `SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id=$1 FOR UPDATE`, id))
}

func (r *PGTicketTypeRepository) LockFirstAvailable(ctx context.Context, eventID int64, qty int, at time.Time) (*domain.TicketType, error) {
	return scanTicketType(r.db.QueryRow(ctx, `SELECT `+ticketTypeColumns+` FROM ticket_types
		WHERE event_id=$1
		  AND is_active
		  AND quantity_total - quantity_sold >= $2
		  AND (sales_start_at IS NULL OR sales_start_at <= $3)
		  AND (sales_end_at IS NULL OR sales_end_at > $3)
		ORDER BY id
		LIMIT 1
		FOR UPDATE`, eventID, qty, at))
}

func (r *PGTicketTypeRepository) ListByEvent(ctx context.Context, eventID int64) ([]domain.TicketType, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketTypeColumns+` FROM ticket_types WHERE event_id=$1 ORDER BY id`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	types := make([]domain.TicketType, 0)
	for rows.Next() {
		t, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *t)
	}
	return types, mapError(rows.Err())
}

func (r *PGTicketTypeRepository) SetSold(ctx context.Context, id int64, sold int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE ticket_types SET quantity_sold=$2, updated_at=now() WHERE id=$1`, id, sold)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTicketType(row pgx.Row) (*domain.TicketType, error) {
	var t domain.TicketType
	if err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.PriceCents, &t.QuantityTotal, &t.QuantitySold, &t.IsActive, &t.SalesStartAt, &t.SalesEndAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

var _ TicketTypeRepository = (*PGTicketTypeRepository)(nil)
