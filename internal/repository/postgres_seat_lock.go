package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
)

const seatLockColumns = `id, showtime_id, holder_id, session_id, seat_codes, status, created_at, expires_at, updated_at`

type PostgresSeatLockRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatLockRepository(db *pgxpool.Pool) *PostgresSeatLockRepository {
	return &PostgresSeatLockRepository{
		db: db,
	}
}

// Acquire expires the showtime's lapsed locks, rejects seats covered by other
// holders' live locks, supersedes the holder's own overlapping locks and
// inserts the new lock, all under the showtime's advisory lock.
func (p *PostgresSeatLockRepository) Acquire(ctx context.Context, lock *domain.SeatLock) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		err := lockShowtime(ctx, tx, lock.ShowtimeID)
		if err != nil {
			return err
		}

		query := `
			UPDATE seat_locks
			SET status = 'expired', updated_at = $2
			WHERE showtime_id = $1 AND status = 'active' AND expires_at <= $2
		`

		_, err = tx.Exec(ctx, query, lock.ShowtimeID, lock.CreatedAt)
		if err != nil {
			return err
		}

		conflicts, err := findConflicts(ctx, tx, lock.ShowtimeID, lock.HolderID, lock.SeatCodes, lock.CreatedAt)
		if err != nil {
			return err
		}

		if len(conflicts) > 0 {
			return domain.NewConflictError(conflicts)
		}

		query = `
			UPDATE seat_locks
			SET status = 'released', updated_at = $3
			WHERE showtime_id = $1
				AND holder_id = $2
				AND status = 'active'
				AND seat_codes && $4::text[]
		`

		_, err = tx.Exec(ctx, query, lock.ShowtimeID, lock.HolderID, lock.CreatedAt, lock.SeatCodes)
		if err != nil {
			return err
		}

		query = `
			INSERT INTO seat_locks (` + seatLockColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		_, err = tx.Exec(
			ctx,
			query,
			lock.ID,
			lock.ShowtimeID,
			lock.HolderID,
			lock.SessionID,
			lock.SeatCodes,
			lock.Status,
			lock.CreatedAt,
			lock.ExpiresAt,
			lock.UpdatedAt,
		)

		return err
	})
}

// Release only moves a live lock. A lapsed one is left for the sweep to
// expire and reads as not found.
func (p *PostgresSeatLockRepository) Release(
	ctx context.Context,
	lockID, holderID uuid.UUID,
	at time.Time) (*domain.SeatLock, error) {

	query := `
		UPDATE seat_locks
		SET status = 'released', updated_at = $3
		WHERE id = $1 AND holder_id = $2 AND status = 'active' AND expires_at > $3
		RETURNING ` + seatLockColumns

	rows, err := p.db.Query(ctx, query, lockID, holderID, at)
	if err != nil {
		return nil, err
	}

	locks, err := scanSeatLocks(rows)
	if err != nil {
		return nil, err
	}

	if len(locks) == 0 {
		return nil, &domain.NotFoundError{Entity: "seat lock"}
	}

	return &locks[0], nil
}

func (p *PostgresSeatLockRepository) Complete(
	ctx context.Context,
	showtimeID, holderID uuid.UUID,
	codes []string,
	at time.Time) ([]domain.SeatLock, error) {

	query := `
		UPDATE seat_locks
		SET status = 'completed', updated_at = $3
		WHERE showtime_id = $1
			AND holder_id = $2
			AND status = 'active'
			AND expires_at > $3
			AND seat_codes && $4::text[]
		RETURNING ` + seatLockColumns

	rows, err := p.db.Query(ctx, query, showtimeID, holderID, at, codes)
	if err != nil {
		return nil, err
	}

	return scanSeatLocks(rows)
}

func (p *PostgresSeatLockRepository) ExpireStale(ctx context.Context, at time.Time) ([]domain.SeatLock, error) {
	query := `
		UPDATE seat_locks
		SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND expires_at <= $1
		RETURNING ` + seatLockColumns

	rows, err := p.db.Query(ctx, query, at)
	if err != nil {
		return nil, err
	}

	return scanSeatLocks(rows)
}

func (p *PostgresSeatLockRepository) FindConflicts(
	ctx context.Context,
	showtimeID, holderID uuid.UUID,
	codes []string,
	at time.Time) ([]string, error) {

	return findConflicts(ctx, p.db, showtimeID, holderID, codes, at)
}

func (p *PostgresSeatLockRepository) ListActiveByShowtime(
	ctx context.Context,
	showtimeID uuid.UUID,
	at time.Time) ([]domain.SeatLock, error) {

	query := `
		SELECT ` + seatLockColumns + `
		FROM seat_locks
		WHERE showtime_id = $1 AND status = 'active' AND expires_at > $2
		ORDER BY created_at
	`

	rows, err := p.db.Query(ctx, query, showtimeID, at)
	if err != nil {
		return nil, err
	}

	return scanSeatLocks(rows)
}

func (p *PostgresSeatLockRepository) ListByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.SeatLock, error) {
	query := `
		SELECT ` + seatLockColumns + `
		FROM seat_locks
		WHERE holder_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`

	rows, err := p.db.Query(ctx, query, holderID)
	if err != nil {
		return nil, err
	}

	return scanSeatLocks(rows)
}

// findConflicts returns the requested codes covered by live locks of holders
// other than holderID. A lock past its expiry never conflicts, whatever its
// stored status.
func findConflicts(
	ctx context.Context,
	q dbtx,
	showtimeID, holderID uuid.UUID,
	codes []string,
	at time.Time) ([]string, error) {

	query := `
		SELECT DISTINCT code
		FROM seat_locks l, unnest(l.seat_codes) AS code
		WHERE l.showtime_id = $1
			AND l.holder_id <> $2
			AND l.status = 'active'
			AND l.expires_at > $3
			AND code = ANY($4::text[])
		ORDER BY code
	`

	rows, err := q.Query(ctx, query, showtimeID, holderID, at, codes)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanSeatLocks(rows pgx.Rows) ([]domain.SeatLock, error) {
	defer rows.Close()

	locks := make([]domain.SeatLock, 0)

	for rows.Next() {
		var lock domain.SeatLock

		err := rows.Scan(
			&lock.ID,
			&lock.ShowtimeID,
			&lock.HolderID,
			&lock.SessionID,
			&lock.SeatCodes,
			&lock.Status,
			&lock.CreatedAt,
			&lock.ExpiresAt,
			&lock.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		lock.CreatedAt = lock.CreatedAt.UTC()
		lock.ExpiresAt = lock.ExpiresAt.UTC()
		lock.UpdatedAt = lock.UpdatedAt.UTC()
		locks = append(locks, lock)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return locks, nil
}
