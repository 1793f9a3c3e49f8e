package seatops

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
)

// BookingCanceller is the privileged cancellation path of the booking ledger.
type BookingCanceller interface {
	CancelForSeatRemediation(ctx context.Context, bookingID uuid.UUID, actor domain.Identity) (*domain.Booking, error)
}

type ReportRequest struct {
	HallID   uuid.UUID
	SeatCode string
	Reporter domain.Identity
	Note     string
}

type RemediationFailure struct {
	BookingID uuid.UUID
	Error     string
}

// Remediation is the outcome of taking a seat out of service.
type Remediation struct {
	Seat      domain.Seat
	Cancelled []domain.Booking
	Failed    []RemediationFailure
}

type Service struct {
	catalog   domain.CatalogRepository
	bookings  domain.BookingRepository
	locks     domain.SeatLockRepository
	canceller BookingCanceller
	activity  domain.ActivityLogger
	notifier  domain.SeatChangeNotifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	catalog domain.CatalogRepository,
	bookings domain.BookingRepository,
	locks domain.SeatLockRepository,
	canceller BookingCanceller,
	activity domain.ActivityLogger,
	notifier domain.SeatChangeNotifier,
	logger *slog.Logger,
	now func() time.Time) *Service {

	if now == nil {
		now = time.Now
	}

	return &Service{
		catalog:   catalog,
		bookings:  bookings,
		locks:     locks,
		canceller: canceller,
		activity:  activity,
		notifier:  notifier,
		logger:    logger,
		now:       now,
	}
}

// ReportBroken takes a seat out of service and cancels every pending or paid
// booking holding it on the hall's upcoming showtimes. A booking that cannot
// be cancelled is reported and the remaining ones are still processed.
func (s *Service) ReportBroken(ctx context.Context, req ReportRequest) (*Remediation, error) {
	code := strings.ToUpper(strings.TrimSpace(req.SeatCode))
	if code == "" {
		return nil, &domain.ValidationError{Field: "seatCode", Message: "is required"}
	}

	seat, err := s.catalog.GetSeatByCode(ctx, req.HallID, code)
	if err != nil {
		return nil, fmt.Errorf("report broken seat: %w", err)
	}

	if !seat.Broken {
		err = s.catalog.SetSeatBroken(ctx, seat.ID, true)
		if err != nil {
			return nil, fmt.Errorf("report broken seat: %w", err)
		}

		seat.Broken = true
	}

	now := s.now().UTC()

	showtimes, err := s.catalog.GetUpcomingShowtimesByHall(ctx, req.HallID, now)
	if err != nil {
		return nil, fmt.Errorf("report broken seat: %w", err)
	}

	remediation := &Remediation{
		Seat:      *seat,
		Cancelled: make([]domain.Booking, 0),
		Failed:    make([]RemediationFailure, 0),
	}

	if len(showtimes) > 0 {
		ids := make([]uuid.UUID, len(showtimes))
		for i, st := range showtimes {
			ids[i] = st.ID
		}

		affected, err := s.bookings.ListActiveBySeat(ctx, ids, seat.ID)
		if err != nil {
			return nil, fmt.Errorf("report broken seat: %w", err)
		}

		for _, b := range affected {
			cancelled, err := s.canceller.CancelForSeatRemediation(ctx, b.ID, req.Reporter)
			if err != nil {
				s.logger.Error("failed to cancel booking of broken seat",
					"booking_id", b.ID,
					"seat_code", seat.Code,
					"error", err,
				)

				remediation.Failed = append(remediation.Failed, RemediationFailure{BookingID: b.ID, Error: err.Error()})
				continue
			}

			remediation.Cancelled = append(remediation.Cancelled, *cancelled)
		}

		for _, id := range ids {
			s.notifier.SeatsChanged(ctx, id)
		}
	}

	activity := domain.NewActivity(domain.ActivitySeatBroken, req.Reporter, now, map[string]any{
		"hall_id":            req.HallID.String(),
		"seat_code":          seat.Code,
		"note":               req.Note,
		"cancelled_bookings": len(remediation.Cancelled),
		"failed_bookings":    len(remediation.Failed),
	})
	if len(remediation.Failed) > 0 {
		activity = activity.Failed(fmt.Errorf("%d booking(s) could not be cancelled", len(remediation.Failed)))
	}
	s.activity.Log(ctx, activity)

	return remediation, nil
}

// Restore puts a seat back into service. Bookings cancelled while it was
// broken stay cancelled.
func (s *Service) Restore(ctx context.Context, hallID uuid.UUID, seatCode string, actor domain.Identity) (*domain.Seat, error) {
	code := strings.ToUpper(strings.TrimSpace(seatCode))
	if code == "" {
		return nil, &domain.ValidationError{Field: "seatCode", Message: "is required"}
	}

	seat, err := s.catalog.GetSeatByCode(ctx, hallID, code)
	if err != nil {
		return nil, fmt.Errorf("restore seat: %w", err)
	}

	if seat.Broken {
		err = s.catalog.SetSeatBroken(ctx, seat.ID, false)
		if err != nil {
			return nil, fmt.Errorf("restore seat: %w", err)
		}

		seat.Broken = false
	}

	now := s.now().UTC()

	s.activity.Log(ctx, domain.NewActivity(domain.ActivitySeatRestored, actor, now, map[string]any{
		"hall_id":   hallID.String(),
		"seat_code": seat.Code,
	}))

	showtimes, err := s.catalog.GetUpcomingShowtimesByHall(ctx, hallID, now)
	if err != nil {
		s.logger.Warn("failed to list showtimes of restored seat", "hall_id", hallID, "error", err)
		return seat, nil
	}

	for _, st := range showtimes {
		s.notifier.SeatsChanged(ctx, st.ID)
	}

	return seat, nil
}

// ListBroken returns the seats out of service, of one hall when hallID is
// set.
func (s *Service) ListBroken(ctx context.Context, hallID *uuid.UUID) ([]domain.Seat, error) {
	seats, err := s.catalog.GetBrokenSeats(ctx, hallID)
	if err != nil {
		return nil, fmt.Errorf("list broken seats: %w", err)
	}

	return seats, nil
}

// SeatMap reports the state of every seat of the showtime's hall. A broken
// seat reads broken whatever else holds it, then booked wins over locked.
func (s *Service) SeatMap(ctx context.Context, showtimeID uuid.UUID) (*domain.SeatMap, error) {
	showtime, err := s.catalog.GetShowtime(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("seat map: %w", err)
	}

	seats, err := s.catalog.GetSeatsByHall(ctx, showtime.HallID)
	if err != nil {
		return nil, fmt.Errorf("seat map: %w", err)
	}

	now := s.now().UTC()

	locks, err := s.locks.ListActiveByShowtime(ctx, showtimeID, now)
	if err != nil {
		return nil, fmt.Errorf("seat map: %w", err)
	}

	bookings, err := s.bookings.ListByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("seat map: %w", err)
	}

	locked := make(map[string]struct{})
	for _, lock := range locks {
		if !lock.IsActiveAt(now) {
			continue
		}
		for _, code := range lock.SeatCodes {
			locked[code] = struct{}{}
		}
	}

	booked := make(map[uuid.UUID]struct{})
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		for _, seat := range b.Seats {
			booked[seat.SeatID] = struct{}{}
		}
	}

	entries := make([]domain.SeatMapEntry, len(seats))

	for i, seat := range seats {
		state := domain.SeatAvailable

		if _, ok := locked[seat.Code]; ok {
			state = domain.SeatLocked
		}
		if _, ok := booked[seat.ID]; ok {
			state = domain.SeatBooked
		}
		if seat.Broken {
			state = domain.SeatBroken
		}

		entries[i] = domain.SeatMapEntry{
			SeatID: seat.ID,
			Code:   seat.Code,
			Type:   seat.Type,
			State:  state,
		}
	}

	return &domain.SeatMap{
		ShowtimeID:  showtime.ID,
		HallID:      showtime.HallID,
		Seats:       entries,
		GeneratedAt: now,
	}, nil
}
