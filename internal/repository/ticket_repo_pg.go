package repository

import (
	"context"

	"github.com/Domenick1991/ticketqueue/internal/domain"
)

type PGTicketRepository struct {
	db Querier
}

func NewTicketRepository(db Querier) TicketRepository {
	return &PGTicketRepository{db: db}
}

func (r *PGTicketRepository) CreateMany(ctx context.Context, tickets []domain.Ticket) error {
	for i := range tickets {
		t := &tickets[i]
		if err := r.db.QueryRow(ctx, `INSERT INTO tickets (reservation_id, seat_id, ticket_type_id, status, price_cents, ticket_number)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`, t.ReservationID, t.SeatID, t.TicketTypeID, t.Status, t.PriceCents, t.TicketNumber).
			Scan(&t.ID, &t.CreatedAt); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *PGTicketRepository) ListByReservation(ctx context.Context, reservationID int64) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT id, reservation_id, seat_id, ticket_type_id, status, price_cents, ticket_number, created_at
		FROM tickets WHERE reservation_id=$1 ORDER BY id`, reservationID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.ReservationID, &t.SeatID, &t.TicketTypeID, &t.Status, &t.PriceCents, &t.TicketNumber, &t.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		tickets = append(tickets, t)
	}
	return tickets, mapError(rows.Err())
}

func (r *PGTicketRepository) TransitionByReservation(ctx context.Context, reservationID int64, from, to domain.TicketStatus) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE tickets SET status=$3, updated_at=now() WHERE reservation_id=$1 AND status=$2`, reservationID, from, to)
	if err != nil {
		return 0, mapError(err)
	}
	return cmd.RowsAffected(), nil
}

type PGPaymentRepository struct {
	db Querier
}

func NewPaymentRepository(db Querier) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	err := r.db.QueryRow(ctx, `INSERT INTO payments (reservation_id, amount_cents, status, transaction_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, p.ReservationID, p.AmountCents, p.Status, p.TransactionID).
		Scan(&p.ID, &p.CreatedAt)
	return mapError(err)
}

var (
	_ TicketRepository  = (*PGTicketRepository)(nil)
	_ PaymentRepository = (*PGPaymentRepository)(nil)
)
