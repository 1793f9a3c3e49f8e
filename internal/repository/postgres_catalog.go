package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
)

type PostgresCatalogRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCatalogRepository(db *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		db: db,
	}
}

func (p *PostgresCatalogRepository) GetShowtime(ctx context.Context, id uuid.UUID) (*domain.Showtime, error) {
	query := `
		SELECT id, movie_id, hall_id, start_time, base_price, status
		FROM showtimes
		WHERE id = $1
	`

	var showtime domain.Showtime

	err := p.db.QueryRow(ctx, query, id).Scan(
		&showtime.ID,
		&showtime.MovieID,
		&showtime.HallID,
		&showtime.StartsAt,
		&showtime.BasePrice,
		&showtime.Status,
	)
	if err != nil {
		return nil, notFoundOr(err, "showtime")
	}

	showtime.StartsAt = showtime.StartsAt.UTC()

	return &showtime, nil
}

func (p *PostgresCatalogRepository) GetShowtimeDetails(ctx context.Context, id uuid.UUID) (*domain.ShowtimeDetails, error) {
	query := `
		SELECT
			s.id, s.movie_id, s.hall_id, s.start_time, s.base_price, s.status,
			m.title, m.poster_url, m.duration,
			h.name, h.cinema_id,
			c.name
		FROM showtimes s
		JOIN movies m ON s.movie_id = m.id
		JOIN halls h ON s.hall_id = h.id
		JOIN cinemas c ON h.cinema_id = c.id
		WHERE s.id = $1
	`

	var d domain.ShowtimeDetails

	err := p.db.QueryRow(ctx, query, id).Scan(
		&d.Showtime.ID,
		&d.Showtime.MovieID,
		&d.Showtime.HallID,
		&d.Showtime.StartsAt,
		&d.Showtime.BasePrice,
		&d.Showtime.Status,
		&d.Movie.Title,
		&d.Movie.PosterUrl,
		&d.Movie.Duration,
		&d.Hall.Name,
		&d.Hall.CinemaID,
		&d.Cinema.Name,
	)
	if err != nil {
		return nil, notFoundOr(err, "showtime")
	}

	d.Showtime.StartsAt = d.Showtime.StartsAt.UTC()
	d.Movie.ID = d.Showtime.MovieID
	d.Hall.ID = d.Showtime.HallID
	d.Cinema.ID = d.Hall.CinemaID

	return &d, nil
}

func (p *PostgresCatalogRepository) GetUpcomingShowtimesByHall(
	ctx context.Context,
	hallID uuid.UUID,
	from time.Time) ([]domain.Showtime, error) {

	query := `
		SELECT id, movie_id, hall_id, start_time, base_price, status
		FROM showtimes
		WHERE hall_id = $1 AND start_time > $2 AND status = 'active'
		ORDER BY start_time
	`

	rows, err := p.db.Query(ctx, query, hallID, from.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	showtimes := make([]domain.Showtime, 0)

	for rows.Next() {
		var s domain.Showtime

		err = rows.Scan(&s.ID, &s.MovieID, &s.HallID, &s.StartsAt, &s.BasePrice, &s.Status)
		if err != nil {
			return nil, err
		}

		s.StartsAt = s.StartsAt.UTC()
		showtimes = append(showtimes, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return showtimes, nil
}

// GetSeatsByCodes returns the seats of a hall matching codes, in the order of
// codes. Unknown codes are skipped; callers compare lengths.
func (p *PostgresCatalogRepository) GetSeatsByCodes(
	ctx context.Context,
	hallID uuid.UUID,
	codes []string) ([]domain.Seat, error) {

	query := `
		SELECT se.id, se.hall_id, se.seat_code, se.seat_type, se.is_broken
		FROM unnest($2::text[]) WITH ORDINALITY AS req(code, ord)
		JOIN seats se ON se.hall_id = $1 AND se.seat_code = req.code
		ORDER BY req.ord
	`

	rows, err := p.db.Query(ctx, query, hallID, codes)
	if err != nil {
		return nil, err
	}

	return scanSeats(rows)
}

func (p *PostgresCatalogRepository) GetSeatByCode(ctx context.Context, hallID uuid.UUID, code string) (*domain.Seat, error) {
	query := `
		SELECT id, hall_id, seat_code, seat_type, is_broken
		FROM seats
		WHERE hall_id = $1 AND seat_code = $2
	`

	var seat domain.Seat

	err := p.db.QueryRow(ctx, query, hallID, code).Scan(
		&seat.ID,
		&seat.HallID,
		&seat.Code,
		&seat.Type,
		&seat.Broken,
	)
	if err != nil {
		return nil, notFoundOr(err, "seat")
	}

	return &seat, nil
}

func (p *PostgresCatalogRepository) GetSeatsByHall(ctx context.Context, hallID uuid.UUID) ([]domain.Seat, error) {
	query := `
		SELECT id, hall_id, seat_code, seat_type, is_broken
		FROM seats
		WHERE hall_id = $1
		ORDER BY seat_code
	`

	rows, err := p.db.Query(ctx, query, hallID)
	if err != nil {
		return nil, err
	}

	return scanSeats(rows)
}

func (p *PostgresCatalogRepository) GetBrokenSeats(ctx context.Context, hallID *uuid.UUID) ([]domain.Seat, error) {
	query := `
		SELECT id, hall_id, seat_code, seat_type, is_broken
		FROM seats
		WHERE is_broken AND ($1::uuid IS NULL OR hall_id = $1)
		ORDER BY hall_id, seat_code
	`

	rows, err := p.db.Query(ctx, query, hallID)
	if err != nil {
		return nil, err
	}

	return scanSeats(rows)
}

func (p *PostgresCatalogRepository) SetSeatBroken(ctx context.Context, seatID uuid.UUID, broken bool) error {
	query := `
		UPDATE seats
		SET is_broken = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := p.db.Exec(ctx, query, seatID, broken)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "seat"}
	}

	return nil
}

func (p *PostgresCatalogRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `
		SELECT id, name, email, phone
		FROM customers
		WHERE id = $1
	`

	var customer domain.Customer

	err := p.db.QueryRow(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
	)
	if err != nil {
		return nil, notFoundOr(err, "customer")
	}

	return &customer, nil
}

func scanSeats(rows pgx.Rows) ([]domain.Seat, error) {
	defer rows.Close()

	seats := make([]domain.Seat, 0)

	for rows.Next() {
		var seat domain.Seat

		err := rows.Scan(
			&seat.ID,
			&seat.HallID,
			&seat.Code,
			&seat.Type,
			&seat.Broken,
		)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}
