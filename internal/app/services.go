package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/redisx"
	"github.com/metinatakli/cinema-ticketing/internal/service/booking"
	"github.com/metinatakli/cinema-ticketing/internal/service/checkin"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatlock"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatops"
)

type seatLockService interface {
	Acquire(ctx context.Context, req seatlock.AcquireRequest) (*domain.SeatLock, error)
	Release(ctx context.Context, lockID uuid.UUID, holder domain.Identity) (*domain.SeatLock, error)
	SweepExpired(ctx context.Context) (*seatlock.SweepResult, error)
	ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.SeatLock, error)
	ListByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.SeatLock, error)
}

type bookingService interface {
	Create(ctx context.Context, req booking.CreateRequest) (*domain.Booking, error)
	MarkPaid(ctx context.Context, bookingID uuid.UUID, payment domain.Payment) (*booking.PaidBooking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, actor domain.Identity) (*domain.Booking, error)
	SweepAllStale(ctx context.Context, olderThan time.Duration) ([]domain.Booking, error)
	ForceCleanup(ctx context.Context, showtimeID uuid.UUID, customer domain.Identity) ([]domain.Booking, error)
	Get(ctx context.Context, bookingID uuid.UUID, actor domain.Identity) (*domain.Booking, error)
	ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error)
}

type ticketService interface {
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.Ticket, error)
	ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.Ticket, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Ticket, error)
}

type checkinService interface {
	Validate(ctx context.Context, scanCode string) (*domain.BookingContext, error)
	Checkin(ctx context.Context, req checkin.Request) (*domain.CheckinResult, error)
}

type seatOpsService interface {
	ReportBroken(ctx context.Context, req seatops.ReportRequest) (*seatops.Remediation, error)
	Restore(ctx context.Context, hallID uuid.UUID, seatCode string, actor domain.Identity) (*domain.Seat, error)
	ListBroken(ctx context.Context, hallID *uuid.UUID) ([]domain.Seat, error)
	SeatMap(ctx context.Context, showtimeID uuid.UUID) (*domain.SeatMap, error)
}

// catalogReader resolves what the ticket email shows.
type catalogReader interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetShowtimeDetails(ctx context.Context, id uuid.UUID) (*domain.ShowtimeDetails, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, id string) (redisx.Decision, error)
}
