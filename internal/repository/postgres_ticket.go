package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
)

const ticketColumns = `
	id, booking_id, showtime_id, seat_id, seat_code, scan_code, status,
	issued_at, checked_in_at, checked_in_by, cancelled_at`

type PostgresTicketRepository struct {
	db *pgxpool.Pool
}

func NewPostgresTicketRepository(db *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{
		db: db,
	}
}

func (p *PostgresTicketRepository) CreateBatch(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO tickets (id, booking_id, showtime_id, seat_id, seat_code, scan_code, status, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (booking_id, seat_id) DO NOTHING
	`

	for _, t := range tickets {
		batch.Queue(query, t.ID, t.BookingID, t.ShowtimeID, t.SeatID, t.SeatCode, t.ScanCode, t.Status, t.IssuedAt)
	}

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (p *PostgresTicketRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return p.getOne(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
}

// GetByScanCode prefers the live ticket when a re-sold seat left cancelled
// tickets behind under the same code.
func (p *PostgresTicketRepository) GetByScanCode(ctx context.Context, scanCode string) (*domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE scan_code = $1
		ORDER BY status = 'cancelled', issued_at DESC
		LIMIT 1
	`

	return p.getOne(ctx, query, scanCode)
}

func (p *PostgresTicketRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE booking_id = $1
		ORDER BY seat_code
	`

	rows, err := p.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}

	return scanTickets(rows)
}

func (p *PostgresTicketRepository) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE showtime_id = $1
		ORDER BY seat_code
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}

	return scanTickets(rows)
}

func (p *PostgresTicketRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Ticket, error) {
	query := `
		SELECT
			t.id, t.booking_id, t.showtime_id, t.seat_id, t.seat_code, t.scan_code, t.status,
			t.issued_at, t.checked_in_at, t.checked_in_by, t.cancelled_at
		FROM tickets t
		JOIN bookings b ON b.id = t.booking_id
		WHERE b.customer_id = $1
		ORDER BY t.issued_at DESC, t.seat_code
	`

	rows, err := p.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}

	return scanTickets(rows)
}

// CheckIn only moves a ticket that is still valid; a re-scan leaves
// checked_in_at as it was.
func (p *PostgresTicketRepository) CheckIn(
	ctx context.Context,
	id, operatorID uuid.UUID,
	at time.Time) (*domain.Ticket, error) {

	query := `
		UPDATE tickets
		SET status = 'checked_in', checked_in_at = $3, checked_in_by = $2
		WHERE id = $1 AND status = 'valid'
		RETURNING ` + ticketColumns

	rows, err := p.db.Query(ctx, query, id, operatorID, at)
	if err != nil {
		return nil, err
	}

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}

	if len(tickets) == 1 {
		return &tickets[0], nil
	}

	current, err := p.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	reason := domain.CheckinCancelled
	if current.Status == domain.TicketCheckedIn {
		reason = domain.CheckinAlreadyCheckedIn
	}

	return current, &domain.StateError{Entity: "ticket", Status: string(current.Status), Reason: string(reason)}
}

func (p *PostgresTicketRepository) getOne(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	rows, err := p.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}

	if len(tickets) == 0 {
		return nil, &domain.NotFoundError{Entity: "ticket"}
	}

	return &tickets[0], nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)

	for rows.Next() {
		var t domain.Ticket

		err := rows.Scan(
			&t.ID,
			&t.BookingID,
			&t.ShowtimeID,
			&t.SeatID,
			&t.SeatCode,
			&t.ScanCode,
			&t.Status,
			&t.IssuedAt,
			&t.CheckedInAt,
			&t.CheckedInBy,
			&t.CancelledAt,
		)
		if err != nil {
			return nil, err
		}

		t.IssuedAt = t.IssuedAt.UTC()
		t.CheckedInAt = utcPtr(t.CheckedInAt)
		t.CancelledAt = utcPtr(t.CancelledAt)
		tickets = append(tickets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	u := t.UTC()

	return &u
}
