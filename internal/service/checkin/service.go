package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/metrics"
	"go.opentelemetry.io/otel/metric"
)

// Request names the tickets to admit, either directly or as the valid
// tickets of one booking.
type Request struct {
	TicketIDs []uuid.UUID
	BookingID *uuid.UUID
	Operator  domain.Identity
}

type Service struct {
	tickets  domain.TicketRepository
	bookings domain.BookingRepository
	catalog  domain.CatalogRepository
	activity domain.ActivityLogger
	logger   *slog.Logger
	now      func() time.Time

	admitted metric.Int64Counter
	rejected metric.Int64Counter
}

func NewService(
	tickets domain.TicketRepository,
	bookings domain.BookingRepository,
	catalog domain.CatalogRepository,
	activity domain.ActivityLogger,
	logger *slog.Logger,
	now func() time.Time) *Service {

	if now == nil {
		now = time.Now
	}

	return &Service{
		tickets:  tickets,
		bookings: bookings,
		catalog:  catalog,
		activity: activity,
		logger:   logger,
		now:      now,
		admitted: metrics.Counter("checkins.admitted", "Tickets checked in"),
		rejected: metrics.Counter("checkins.rejected", "Check-in attempts rejected per ticket"),
	}
}

// Validate resolves a scanned code to everything staff need at the door. It
// changes nothing.
func (s *Service) Validate(ctx context.Context, scanCode string) (*domain.BookingContext, error) {
	scanCode = strings.ToUpper(strings.TrimSpace(scanCode))
	if scanCode == "" {
		return nil, &domain.ValidationError{Field: "scanCode", Message: "is required"}
	}

	ticket, err := s.tickets.GetByScanCode(ctx, scanCode)
	if err != nil {
		return nil, fmt.Errorf("validate scan code: %w", err)
	}

	booking, err := s.bookings.GetById(ctx, ticket.BookingID)
	if err != nil {
		return nil, fmt.Errorf("validate scan code: %w", err)
	}

	tickets, err := s.tickets.ListByBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("validate scan code: %w", err)
	}

	details, err := s.catalog.GetShowtimeDetails(ctx, ticket.ShowtimeID)
	if err != nil {
		return nil, fmt.Errorf("validate scan code: %w", err)
	}

	customer, err := s.catalog.GetCustomer(ctx, booking.CustomerID)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		s.logger.Warn("booking customer not found", "booking_id", booking.ID, "customer_id", booking.CustomerID)
		customer = nil
	case err != nil:
		return nil, fmt.Errorf("validate scan code: %w", err)
	}

	return &domain.BookingContext{
		Ticket:   *ticket,
		Booking:  *booking,
		Tickets:  tickets,
		Showtime: *details,
		Customer: customer,
	}, nil
}

// Checkin admits each target ticket on its own. Tickets that cannot be
// admitted are reported in the result next to the admitted ones; only a
// data store failure ends the batch early.
func (s *Service) Checkin(ctx context.Context, req Request) (*domain.CheckinResult, error) {
	if (len(req.TicketIDs) == 0) == (req.BookingID == nil) {
		return nil, &domain.ValidationError{Field: "target", Message: "must be either ticket ids or a booking id"}
	}

	ids := dedupe(req.TicketIDs)

	if req.BookingID != nil {
		var err error

		ids, err = s.validTicketsOf(ctx, *req.BookingID)
		if err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	result := &domain.CheckinResult{
		CheckedIn: make([]domain.Ticket, 0, len(ids)),
		Failed:    make([]domain.CheckinFailure, 0),
	}

	for _, id := range ids {
		ticket, err := s.tickets.CheckIn(ctx, id, req.Operator.HolderID, now)

		var stateErr *domain.StateError

		switch {
		case err == nil:
			result.CheckedIn = append(result.CheckedIn, *ticket)
		case errors.Is(err, domain.ErrRecordNotFound):
			result.Failed = append(result.Failed, domain.CheckinFailure{TicketID: id, Reason: domain.CheckinNotFound})
		case errors.As(err, &stateErr):
			result.Failed = append(result.Failed, domain.CheckinFailure{TicketID: id, Reason: failureReason(stateErr)})
		default:
			return nil, fmt.Errorf("check in ticket %s: %w", id, err)
		}
	}

	s.admitted.Add(ctx, int64(len(result.CheckedIn)))
	s.rejected.Add(ctx, int64(len(result.Failed)))

	details := map[string]any{
		"checked_in": len(result.CheckedIn),
		"failed":     len(result.Failed),
	}
	if req.BookingID != nil {
		details["booking_id"] = req.BookingID.String()
	}

	activity := domain.NewActivity(domain.ActivityCheckin, req.Operator, now, details)
	if len(result.CheckedIn) == 0 {
		activity = activity.Failed(errors.New("no ticket checked in"))
	}
	s.activity.Log(ctx, activity)

	return result, nil
}

func (s *Service) validTicketsOf(ctx context.Context, bookingID uuid.UUID) ([]uuid.UUID, error) {
	booking, err := s.bookings.GetById(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("check in booking: %w", err)
	}

	tickets, err := s.tickets.ListByBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("check in booking: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == domain.TicketValid {
			ids = append(ids, t.ID)
		}
	}

	if len(ids) == 0 {
		return nil, &domain.StateError{Entity: "booking", Status: string(booking.Status), Reason: "has no valid tickets"}
	}

	return ids, nil
}

func failureReason(err *domain.StateError) domain.CheckinFailureReason {
	if err.Status == string(domain.TicketCheckedIn) {
		return domain.CheckinAlreadyCheckedIn
	}

	return domain.CheckinCancelled
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
