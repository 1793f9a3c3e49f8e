package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/shopspring/decimal"
)

const bookingColumns = `
	b.id, b.customer_id, b.showtime_id, b.total_amount, b.status,
	b.payment_ref, b.payment_method, b.paid_amount, b.paid_at,
	b.created_at, b.updated_at, b.cancelled_at, b.cancel_reason`

const activeSeatsIndex = "booking_seats_active_uniq"

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

// Create re-checks that no pending or paid booking of the showtime holds any
// of the seats and inserts the booking with its seats. The partial unique
// index on booking_seats backs the check.
func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		err := lockShowtime(ctx, tx, booking.ShowtimeID)
		if err != nil {
			return err
		}

		taken, err := takenSeatCodes(ctx, tx, booking)
		if err != nil {
			return err
		}

		if len(taken) > 0 {
			return domain.NewConflictError(taken)
		}

		query := `
			INSERT INTO bookings (id, customer_id, showtime_id, total_amount, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err = tx.Exec(
			ctx,
			query,
			booking.ID,
			booking.CustomerID,
			booking.ShowtimeID,
			booking.TotalAmount,
			booking.Status,
			booking.CreatedAt,
			booking.UpdatedAt,
		)
		if err != nil {
			return err
		}

		seatIDs := make([]string, len(booking.Seats))
		codes := make([]string, len(booking.Seats))
		types := make([]string, len(booking.Seats))
		prices := make([]string, len(booking.Seats))

		for i, seat := range booking.Seats {
			seatIDs[i] = seat.SeatID.String()
			codes[i] = seat.Code
			types[i] = string(seat.Type)
			prices[i] = seat.Price.String()
		}

		query = `
			INSERT INTO booking_seats (booking_id, showtime_id, seat_id, seat_code, seat_type, price, position)
			SELECT $1, $2, s.seat_id, s.seat_code, s.seat_type, s.price, s.position
			FROM unnest($3::uuid[], $4::text[], $5::text[], $6::numeric[])
				WITH ORDINALITY AS s(seat_id, seat_code, seat_type, price, position)
		`

		_, err = tx.Exec(ctx, query, booking.ID, booking.ShowtimeID, seatIDs, codes, types, prices)

		return err
	})

	if isUniqueViolation(err, activeSeatsIndex) {
		taken, queryErr := takenSeatCodes(ctx, p.db, booking)
		if queryErr != nil || len(taken) == 0 {
			return domain.NewConflictError(booking.SeatCodes())
		}

		return domain.NewConflictError(taken)
	}

	return err
}

// takenSeatCodes lists the booking's seats already held by a pending or paid
// booking of the showtime.
func takenSeatCodes(ctx context.Context, q dbtx, booking *domain.Booking) ([]string, error) {
	query := `
		SELECT seat_code
		FROM booking_seats
		WHERE showtime_id = $1 AND active AND seat_id = ANY($2::uuid[])
		ORDER BY seat_code
	`

	rows, err := q.Query(ctx, query, booking.ShowtimeID, uuidStrings(booking.SeatIDs()))
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (p *PostgresBookingRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	rows, err := p.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}

	bookings, err := p.collectBookings(ctx, p.db, rows)
	if err != nil {
		return nil, err
	}

	if len(bookings) == 0 {
		return nil, &domain.NotFoundError{Entity: "booking"}
	}

	return &bookings[0], nil
}

func (p *PostgresBookingRepository) MarkPaid(
	ctx context.Context,
	id uuid.UUID,
	payment domain.Payment) (*domain.Booking, error) {

	query := `
		UPDATE bookings b
		SET status = 'paid',
			payment_ref = $2,
			payment_method = $3,
			paid_amount = $4,
			paid_at = $5,
			updated_at = $5
		WHERE b.id = $1 AND b.status = 'pending'
		RETURNING ` + bookingColumns

	rows, err := p.db.Query(ctx, query, id, payment.Reference, payment.Method, payment.Amount, payment.PaidAt)
	if err != nil {
		return nil, err
	}

	bookings, err := p.collectBookings(ctx, p.db, rows)
	if err != nil {
		return nil, err
	}

	if len(bookings) == 0 {
		return nil, p.transitionError(ctx, p.db, id)
	}

	return &bookings[0], nil
}

func (p *PostgresBookingRepository) Cancel(
	ctx context.Context,
	id uuid.UUID,
	from []domain.BookingStatus,
	reason domain.CancelReason,
	at time.Time) (*domain.Booking, error) {

	var cancelled *domain.Booking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		statuses := make([]string, len(from))
		for i, s := range from {
			statuses[i] = string(s)
		}

		query := `
			UPDATE bookings b
			SET status = 'cancelled', cancelled_at = $2, cancel_reason = $3, updated_at = $2
			WHERE b.id = $1 AND b.status = ANY($4::text[])
			RETURNING ` + bookingColumns

		rows, err := tx.Query(ctx, query, id, at, reason, statuses)
		if err != nil {
			return err
		}

		bookings, err := p.collectBookings(ctx, tx, rows)
		if err != nil {
			return err
		}

		if len(bookings) == 0 {
			return p.transitionError(ctx, tx, id)
		}

		err = releaseBookings(ctx, tx, []string{id.String()}, at)
		if err != nil {
			return err
		}

		cancelled = &bookings[0]

		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

// CancelStale cancels the pending bookings matching filter. Only rows
// still pending at the moment of the update move, so it is safe to run
// concurrently with payments and other sweeps.
func (p *PostgresBookingRepository) CancelStale(
	ctx context.Context,
	filter domain.StaleFilter,
	at time.Time) ([]domain.Booking, error) {

	var (
		swept         []domain.Booking
		createdBefore *time.Time
	)

	if !filter.CreatedBefore.IsZero() {
		createdBefore = &filter.CreatedBefore
	}

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE bookings b
			SET status = 'cancelled', cancelled_at = $1, cancel_reason = $2, updated_at = $1
			WHERE b.status = 'pending'
				AND ($3::timestamptz IS NULL OR b.created_at < $3)
				AND ($4::uuid IS NULL OR b.showtime_id = $4)
				AND ($5::uuid IS NULL OR b.customer_id = $5)
			RETURNING ` + bookingColumns

		rows, err := tx.Query(
			ctx,
			query,
			at,
			domain.CancelReasonStale,
			createdBefore,
			filter.ShowtimeID,
			filter.CustomerID,
		)
		if err != nil {
			return err
		}

		bookings, err := p.collectBookings(ctx, tx, rows)
		if err != nil {
			return err
		}

		ids := make([]string, len(bookings))
		for i, b := range bookings {
			ids[i] = b.ID.String()
		}

		err = releaseBookings(ctx, tx, ids, at)
		if err != nil {
			return err
		}

		swept = bookings

		return nil
	})
	if err != nil {
		return nil, err
	}

	return swept, nil
}

func (p *PostgresBookingRepository) ListActiveBySeat(
	ctx context.Context,
	showtimeIDs []uuid.UUID,
	seatID uuid.UUID) ([]domain.Booking, error) {

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN booking_seats bs ON bs.booking_id = b.id
		WHERE b.showtime_id = ANY($1::uuid[])
			AND b.status IN ('pending', 'paid')
			AND bs.seat_id = $2
			AND bs.active
		ORDER BY b.created_at
	`

	rows, err := p.db.Query(ctx, query, uuidStrings(showtimeIDs), seatID)
	if err != nil {
		return nil, err
	}

	return p.collectBookings(ctx, p.db, rows)
}

func (p *PostgresBookingRepository) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.showtime_id = $1
		ORDER BY b.created_at
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}

	return p.collectBookings(ctx, p.db, rows)
}

func (p *PostgresBookingRepository) ListByCustomer(
	ctx context.Context,
	customerID uuid.UUID,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	query := `
		SELECT COUNT(*) OVER(), ` + bookingColumns + `
		FROM bookings b
		WHERE b.customer_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, customerID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	totalRecords := 0

	for rows.Next() {
		var row bookingRow

		err = rows.Scan(append([]any{&totalRecords}, row.dest()...)...)
		if err != nil {
			return nil, nil, err
		}

		bookings = append(bookings, row.toDomain())
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	err = loadBookingSeats(ctx, p.db, bookings)
	if err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return bookings, metadata, nil
}

func (p *PostgresBookingRepository) collectBookings(ctx context.Context, q dbtx, rows pgx.Rows) ([]domain.Booking, error) {
	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}

	err = loadBookingSeats(ctx, q, bookings)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

// transitionError explains why a conditional update on a booking matched no
// row.
func (p *PostgresBookingRepository) transitionError(ctx context.Context, q dbtx, id uuid.UUID) error {
	var status domain.BookingStatus

	err := q.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Entity: "booking"}
	}
	if err != nil {
		return err
	}

	return &domain.StateError{Entity: "booking", Status: string(status)}
}

// releaseBookings frees the seats of cancelled bookings and cancels their
// valid tickets.
func releaseBookings(ctx context.Context, tx pgx.Tx, bookingIDs []string, at time.Time) error {
	if len(bookingIDs) == 0 {
		return nil
	}

	_, err := tx.Exec(ctx, `UPDATE booking_seats SET active = false WHERE booking_id = ANY($1::uuid[])`, bookingIDs)
	if err != nil {
		return err
	}

	query := `
		UPDATE tickets
		SET status = 'cancelled', cancelled_at = $2
		WHERE booking_id = ANY($1::uuid[]) AND status = 'valid'
	`

	_, err = tx.Exec(ctx, query, bookingIDs, at)

	return err
}

func loadBookingSeats(ctx context.Context, q dbtx, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(bookings))
	ids := make([]string, len(bookings))

	for i, b := range bookings {
		index[b.ID] = i
		ids[i] = b.ID.String()
	}

	query := `
		SELECT booking_id, seat_id, seat_code, seat_type, price
		FROM booking_seats
		WHERE booking_id = ANY($1::uuid[])
		ORDER BY booking_id, position
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookingID uuid.UUID
			seat      domain.BookingSeat
		)

		err = rows.Scan(&bookingID, &seat.SeatID, &seat.Code, &seat.Type, &seat.Price)
		if err != nil {
			return err
		}

		i := index[bookingID]
		bookings[i].Seats = append(bookings[i].Seats, seat)
	}

	return rows.Err()
}

type bookingRow struct {
	booking       domain.Booking
	paymentRef    *string
	paymentMethod *string
	paidAmount    decimal.NullDecimal
	paidAt        *time.Time
	cancelReason  *string
}

func (r *bookingRow) dest() []any {
	return []any{
		&r.booking.ID,
		&r.booking.CustomerID,
		&r.booking.ShowtimeID,
		&r.booking.TotalAmount,
		&r.booking.Status,
		&r.paymentRef,
		&r.paymentMethod,
		&r.paidAmount,
		&r.paidAt,
		&r.booking.CreatedAt,
		&r.booking.UpdatedAt,
		&r.booking.CancelledAt,
		&r.cancelReason,
	}
}

func (r *bookingRow) toDomain() domain.Booking {
	b := r.booking

	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()

	if b.CancelledAt != nil {
		t := b.CancelledAt.UTC()
		b.CancelledAt = &t
	}

	if r.cancelReason != nil {
		reason := domain.CancelReason(*r.cancelReason)
		b.CancelReason = &reason
	}

	if r.paymentRef != nil {
		payment := &domain.Payment{Reference: *r.paymentRef}

		if r.paymentMethod != nil {
			payment.Method = *r.paymentMethod
		}
		if r.paidAmount.Valid {
			payment.Amount = r.paidAmount.Decimal
		}
		if r.paidAt != nil {
			payment.PaidAt = r.paidAt.UTC()
		}

		b.Payment = payment
	}

	return b
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var row bookingRow

		err := rows.Scan(row.dest()...)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}
