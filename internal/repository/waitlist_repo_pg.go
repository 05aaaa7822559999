package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/ticketqueue/internal/domain"
	"github.com/jackc/pgx/v5"
)

const waitlistColumns = `id, event_id, user_id, status, admission_token, ttl_until, reservation_id, email, created_at, updated_at`

type PGWaitlistRepository struct {
	db Querier
}

func NewWaitlistRepository(db Querier) WaitlistRepository {
	return &PGWaitlistRepository{db: db}
}

func (r *PGWaitlistRepository) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	entry.Status = domain.WaitlistStatusQueued
	err := r.db.QueryRow(ctx, `INSERT INTO waitlist_entries (event_id, user_id, status, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING id, created_at, updated_at`, entry.EventID, entry.UserID, entry.Status, entry.Email).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAlreadyQueued
	}
	return mapError(err)
}

func (r *PGWaitlistRepository) GetByUser(ctx context.Context, eventID, userID int64) (*domain.WaitlistEntry, error) {
	return scanEntry(r.db.QueryRow(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries WHERE event_id=$1 AND user_id=$2`, eventID, userID))
}

func (r *PGWaitlistRepository) LockByUser(ctx context.Context, eventID, userID int64) (*domain.WaitlistEntry, error) {
	return scanEntry(r.db.QueryRow(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries WHERE event_id=$1 AND user_id=$2 FOR UPDATE`, eventID, userID))
}

func (r *PGWaitlistRepository) LockQueued(ctx context.Context, eventID int64, limit int) ([]domain.WaitlistEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries
		WHERE event_id=$1 AND status=$2
		ORDER BY id
		LIMIT $3
		FOR UPDATE`, eventID, domain.WaitlistStatusQueued, limit)
	if err != nil {
		return nil, mapError(err)
	}
	return collectEntries(rows)
}

func (r *PGWaitlistRepository) Update(ctx context.Context, entry *domain.WaitlistEntry) error {
	err := r.db.QueryRow(ctx, `UPDATE waitlist_entries
		SET status=$2, admission_token=$3, ttl_until=$4, reservation_id=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`, entry.ID, entry.Status, entry.AdmissionToken, entry.TTLUntil, entry.ReservationID).
		Scan(&entry.UpdatedAt)
	return mapError(err)
}

func (r *PGWaitlistRepository) Delete(ctx context.Context, eventID, userID int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM waitlist_entries WHERE event_id=$1 AND user_id=$2`, eventID, userID)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotInQueue
	}
	return nil
}

func (r *PGWaitlistRepository) CountQueued(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM waitlist_entries WHERE event_id=$1 AND status=$2`, eventID, domain.WaitlistStatusQueued).Scan(&n)
	return n, mapError(err)
}

func (r *PGWaitlistRepository) CountQueuedUpTo(ctx context.Context, eventID, entryID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM waitlist_entries WHERE event_id=$1 AND status=$2 AND id<=$3`, eventID, domain.WaitlistStatusQueued, entryID).Scan(&n)
	return n, mapError(err)
}

func (r *PGWaitlistRepository) ListByEvent(ctx context.Context, eventID int64, limit, offset int) ([]domain.WaitlistEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries WHERE event_id=$1 ORDER BY id LIMIT $2 OFFSET $3`, eventID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return collectEntries(rows)
}

func scanEntry(row pgx.Row) (*domain.WaitlistEntry, error) {
	var e domain.WaitlistEntry
	if err := row.Scan(&e.ID, &e.EventID, &e.UserID, &e.Status, &e.AdmissionToken, &e.TTLUntil, &e.ReservationID, &e.Email, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]domain.WaitlistEntry, error) {
	defer rows.Close()

	entries := make([]domain.WaitlistEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, mapError(rows.Err())
}

var _ WaitlistRepository = (*PGWaitlistRepository)(nil)
