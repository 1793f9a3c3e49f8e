package booking

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

const DefaultMaxSeatsPerBooking = 10

// LockChecker is the part of the seat lock manager the ledger consults.
type LockChecker interface {
	Conflicts(ctx context.Context, showtimeID, holderID uuid.UUID, codes []string) ([]string, error)
	Complete(ctx context.Context, showtimeID, holderID uuid.UUID, codes []string) error
}

type TicketIssuer interface {
	IssueForBooking(ctx context.Context, booking *domain.Booking) ([]domain.Ticket, error)
}

type Config struct {
	MaxSeatsPerBooking int
	StaleAfter         time.Duration
	Now                func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MaxSeatsPerBooking <= 0 {
		c.MaxSeatsPerBooking = DefaultMaxSeatsPerBooking
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = domain.StaleBookingAge
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return c
}

type CreateRequest struct {
	ShowtimeID uuid.UUID
	SeatCodes  []string
	Customer   domain.Identity
}

type PaidBooking struct {
	Booking *domain.Booking
	Tickets []domain.Ticket
	// Replayed is set when the booking was already paid before this call.
	Replayed bool
}

// Service is the booking ledger. The repository's per-showtime disjointness
// check is what keeps two bookings off the same seat; seat locks are only
// consulted as a courtesy to their holders.
type Service struct {
	bookings domain.BookingRepository
	catalog  domain.CatalogRepository
	locks    LockChecker
	tickets  TicketIssuer
	activity domain.ActivityLogger
	notifier domain.SeatChangeNotifier
	logger   *slog.Logger
	cfg      Config

	created   metric.Int64Counter
	conflicts metric.Int64Counter
	swept     metric.Int64Counter
}

func NewService(
	bookings domain.BookingRepository,
	catalog domain.CatalogRepository,
	locks LockChecker,
	tickets TicketIssuer,
	activity domain.ActivityLogger,
	notifier domain.SeatChangeNotifier,
	logger *slog.Logger,
	cfg Config) *Service {

	return &Service{
		bookings:  bookings,
		catalog:   catalog,
		locks:     locks,
		tickets:   tickets,
		activity:  activity,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		created:   metrics.Counter("bookings.created", "Pending bookings created"),
		conflicts: metrics.Counter("bookings.conflicts", "Booking requests rejected because of taken seats"),
		swept:     metrics.Counter("bookings.swept", "Pending bookings cancelled by sweeps"),
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Booking, error) {
	codes, err := domain.ValidateSeatCodes(req.SeatCodes, s.cfg.MaxSeatsPerBooking)
	if err != nil {
		return nil, err
	}

	showtime, err := s.catalog.GetShowtime(ctx, req.ShowtimeID)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if !showtime.IsBookable() {
		return nil, &domain.NotFoundError{Entity: "showtime"}
	}

	seats, err := s.catalog.GetSeatsByCodes(ctx, showtime.HallID, codes)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	err = domain.CheckSeats(codes, seats)
	if err != nil {
		return nil, err
	}

	held, err := s.locks.Conflicts(ctx, showtime.ID, req.Customer.HolderID, codes)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if len(held) > 0 {
		s.conflicts.Add(ctx, 1)
		return nil, domain.NewConflictError(held)
	}

	lines, total := domain.PriceSeats(showtime.BasePrice, seats)
	now := s.cfg.Now().UTC()

	booking := &domain.Booking{
		ID:          domain.NewID(),
		CustomerID:  req.Customer.HolderID,
		ShowtimeID:  showtime.ID,
		Seats:       lines,
		TotalAmount: total,
		Status:      domain.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	activity := domain.NewActivity(domain.ActivityBookingCreated, req.Customer, now, map[string]any{
		"booking_id":   booking.ID.String(),
		"showtime_id":  showtime.ID.String(),
		"seats":        codes,
		"total_amount": total.String(),
	})

	err = s.bookings.Create(ctx, booking)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.conflicts.Add(ctx, 1)
		}

		s.activity.Log(ctx, activity.Failed(err))

		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.created.Add(ctx, 1)
	s.activity.Log(ctx, activity)
	s.notifier.SeatsChanged(ctx, showtime.ID)

	return booking, nil
}

// MarkPaid records the payment on a pending booking and has its tickets
// issued. Repeating it on a paid booking returns that booking and its
// existing tickets; the issuer also mints any ticket an earlier call failed
// to write.
func (s *Service) MarkPaid(ctx context.Context, bookingID uuid.UUID, payment domain.Payment) (*PaidBooking, error) {
	payment.Reference = strings.TrimSpace(payment.Reference)
	if payment.Reference == "" {
		return nil, &domain.ValidationError{Field: "paymentReference", Message: "is required"}
	}

	if payment.PaidAt.IsZero() {
		payment.PaidAt = s.cfg.Now()
	}
	payment.PaidAt = payment.PaidAt.UTC()

	booking, err := s.bookings.MarkPaid(ctx, bookingID, payment)

	replay := false
	if errors.Is(err, domain.ErrInvalidState) {
		existing, getErr := s.bookings.GetById(ctx, bookingID)
		if getErr != nil {
			return nil, fmt.Errorf("mark booking paid: %w", getErr)
		}

		if existing.Status != domain.BookingPaid {
			return nil, fmt.Errorf("mark booking paid: %w", err)
		}

		booking, err, replay = existing, nil, true
	}
	if err != nil {
		return nil, fmt.Errorf("mark booking paid: %w", err)
	}

	tickets, err := s.tickets.IssueForBooking(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("issue tickets for booking %s: %w", booking.ID, err)
	}

	err = s.locks.Complete(ctx, booking.ShowtimeID, booking.CustomerID, booking.SeatCodes())
	if err != nil {
		s.logger.Warn("failed to complete seat locks after payment", "booking_id", booking.ID, "error", err)
	}

	if !replay {
		s.activity.Log(ctx, domain.NewActivity(domain.ActivityPayment, domain.SystemIdentity, payment.PaidAt, map[string]any{
			"booking_id":  booking.ID.String(),
			"customer_id": booking.CustomerID.String(),
			"reference":   payment.Reference,
			"method":      payment.Method,
			"amount":      payment.Amount.String(),
			"tickets":     len(tickets),
		}))
	}

	return &PaidBooking{Booking: booking, Tickets: tickets, Replayed: replay}, nil
}

// Cancel is the customer-facing cancellation. Only pending bookings move;
// customers cannot see, and so cannot cancel, bookings of others.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID, actor domain.Identity) (*domain.Booking, error) {
	_, err := s.Get(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}

	return s.cancel(ctx, bookingID, actor, []domain.BookingStatus{domain.BookingPending}, domain.CancelReasonCustomer)
}

// CancelForSeatRemediation cancels a pending or paid booking whose seat went
// out of service. Its valid tickets are cancelled with it.
func (s *Service) CancelForSeatRemediation(
	ctx context.Context,
	bookingID uuid.UUID,
	actor domain.Identity) (*domain.Booking, error) {

	from := []domain.BookingStatus{domain.BookingPending, domain.BookingPaid}

	return s.cancel(ctx, bookingID, actor, from, domain.CancelReasonSeatBroken)
}

func (s *Service) cancel(
	ctx context.Context,
	bookingID uuid.UUID,
	actor domain.Identity,
	from []domain.BookingStatus,
	reason domain.CancelReason) (*domain.Booking, error) {

	now := s.cfg.Now().UTC()
	activity := domain.NewActivity(domain.ActivityBookingCancelled, actor, now, map[string]any{
		"booking_id": bookingID.String(),
		"reason":     string(reason),
	})

	booking, err := s.bookings.Cancel(ctx, bookingID, from, reason, now)
	if err != nil {
		s.activity.Log(ctx, activity.Failed(err))
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.activity.Log(ctx, activity)
	s.notifier.SeatsChanged(ctx, booking.ShowtimeID)

	return booking, nil
}

// SweepStale cancels the showtime's pending bookings older than olderThan,
// or the configured age when olderThan is not positive.
func (s *Service) SweepStale(ctx context.Context, showtimeID uuid.UUID, olderThan time.Duration) ([]domain.Booking, error) {
	now := s.cfg.Now().UTC()
	filter := domain.StaleFilter{
		ShowtimeID:    &showtimeID,
		CreatedBefore: now.Add(-s.staleAge(olderThan)),
	}

	return s.sweep(ctx, filter, domain.SystemIdentity, now)
}

// SweepAllStale is the scheduled form of SweepStale across every showtime.
func (s *Service) SweepAllStale(ctx context.Context, olderThan time.Duration) ([]domain.Booking, error) {
	now := s.cfg.Now().UTC()
	filter := domain.StaleFilter{
		CreatedBefore: now.Add(-s.staleAge(olderThan)),
	}

	return s.sweep(ctx, filter, domain.SystemIdentity, now)
}

// ForceCleanup cancels every pending booking the customer holds on the
// showtime, whatever its age.
func (s *Service) ForceCleanup(ctx context.Context, showtimeID uuid.UUID, customer domain.Identity) ([]domain.Booking, error) {
	filter := domain.StaleFilter{
		ShowtimeID: &showtimeID,
		CustomerID: &customer.HolderID,
	}

	return s.sweep(ctx, filter, customer, s.cfg.Now().UTC())
}

func (s *Service) sweep(
	ctx context.Context,
	filter domain.StaleFilter,
	actor domain.Identity,
	now time.Time) ([]domain.Booking, error) {

	bookings, err := s.bookings.CancelStale(ctx, filter, now)
	if err != nil {
		return nil, fmt.Errorf("sweep stale bookings: %w", err)
	}

	if len(bookings) == 0 {
		return bookings, nil
	}

	s.swept.Add(ctx, int64(len(bookings)))

	ids := make([]string, len(bookings))
	showtimes := make(map[uuid.UUID]struct{})

	for i, b := range bookings {
		ids[i] = b.ID.String()
		showtimes[b.ShowtimeID] = struct{}{}
	}

	for showtimeID := range showtimes {
		s.notifier.SeatsChanged(ctx, showtimeID)
	}

	s.activity.Log(ctx, domain.NewActivity(domain.ActivityBookingsSwept, actor, now, map[string]any{
		"booking_ids": ids,
		"count":       len(bookings),
	}))

	return bookings, nil
}

func (s *Service) staleAge(olderThan time.Duration) time.Duration {
	if olderThan <= 0 {
		return s.cfg.StaleAfter
	}

	return olderThan
}

// Get returns the booking when actor may see it: staff see every booking,
// customers only their own.
func (s *Service) Get(ctx context.Context, bookingID uuid.UUID, actor domain.Identity) (*domain.Booking, error) {
	booking, err := s.bookings.GetById(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if !actor.IsStaff() && !actor.Is(domain.RoleSystem) && booking.CustomerID != actor.HolderID {
		return nil, &domain.NotFoundError{Entity: "booking"}
	}

	return booking, nil
}

func (s *Service) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.Booking, error) {
	return s.bookings.ListByShowtime(ctx, showtimeID)
}

func (s *Service) ListByCustomer(
	ctx context.Context,
	customerID uuid.UUID,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	return s.bookings.ListByCustomer(ctx, customerID, pagination.Normalize())
}
