package ticketing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/metrics"
	"go.opentelemetry.io/otel/metric"
)

type Service struct {
	tickets  domain.TicketRepository
	catalog  domain.CatalogRepository
	activity domain.ActivityLogger
	logger   *slog.Logger
	now      func() time.Time

	issued metric.Int64Counter
}

func NewService(
	tickets domain.TicketRepository,
	catalog domain.CatalogRepository,
	activity domain.ActivityLogger,
	logger *slog.Logger,
	now func() time.Time) *Service {

	if now == nil {
		now = time.Now
	}

	return &Service{
		tickets:  tickets,
		catalog:  catalog,
		activity: activity,
		logger:   logger,
		now:      now,
		issued:   metrics.Counter("tickets.issued", "Tickets minted for paid bookings"),
	}
}

// IssueForBooking mints one valid ticket per seat of a paid booking and
// returns all of the booking's tickets. Seats that already have a ticket are
// left alone, so calling it again never duplicates.
func (s *Service) IssueForBooking(ctx context.Context, booking *domain.Booking) ([]domain.Ticket, error) {
	if booking.Status != domain.BookingPaid {
		return nil, &domain.StateError{
			Entity: "booking",
			Status: string(booking.Status),
			Reason: "must be paid before tickets are issued",
		}
	}

	existing, err := s.tickets.ListByBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	ticketed := make(map[uuid.UUID]struct{}, len(existing))
	for _, t := range existing {
		ticketed[t.SeatID] = struct{}{}
	}

	missing := make([]domain.BookingSeat, 0, len(booking.Seats))
	for _, seat := range booking.Seats {
		if _, ok := ticketed[seat.SeatID]; !ok {
			missing = append(missing, seat)
		}
	}

	if len(missing) == 0 {
		return existing, nil
	}

	details, err := s.catalog.GetShowtimeDetails(ctx, booking.ShowtimeID)
	if err != nil {
		return nil, fmt.Errorf("get showtime details: %w", err)
	}

	now := s.now().UTC()
	tickets := make([]domain.Ticket, len(missing))

	for i, seat := range missing {
		tickets[i] = domain.Ticket{
			ID:         domain.NewID(),
			BookingID:  booking.ID,
			ShowtimeID: booking.ShowtimeID,
			SeatID:     seat.SeatID,
			SeatCode:   seat.Code,
			ScanCode:   domain.ScanCode(*details, seat.SeatID, seat.Code),
			Status:     domain.TicketValid,
			IssuedAt:   now,
		}
	}

	err = s.tickets.CreateBatch(ctx, tickets)
	if err != nil {
		return nil, fmt.Errorf("create tickets: %w", err)
	}

	s.issued.Add(ctx, int64(len(tickets)))
	s.activity.Log(ctx, domain.NewActivity(domain.ActivityTicketsIssued, domain.SystemIdentity, now, map[string]any{
		"booking_id": booking.ID.String(),
		"count":      len(tickets),
	}))

	all, err := s.tickets.ListByBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	return all, nil
}

func (s *Service) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.Ticket, error) {
	return s.tickets.ListByBooking(ctx, bookingID)
}

func (s *Service) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.Ticket, error) {
	return s.tickets.ListByShowtime(ctx, showtimeID)
}

// ListByCustomer returns the customer's tickets that still admit at the door.
func (s *Service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer tickets: %w", err)
	}

	valid := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == domain.TicketValid {
			valid = append(valid, t)
		}
	}

	return valid, nil
}
