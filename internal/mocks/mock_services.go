package mocks

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
	"github.com/stretchr/testify/mock"
)

type MockSeatLockService struct {
	mock.Mock
}

func (m *MockSeatLockService) Acquire(ctx context.Context, req seatlock.AcquireRequest) (*domain.SeatLock, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatLock), args.Error(1)
}

func (m *MockSeatLockService) Release(ctx context.Context, lockID uuid.UUID, holder domain.Identity) (*domain.SeatLock, error) {
	args := m.Called(ctx, lockID, holder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatLock), args.Error(1)
}

func (m *MockSeatLockService) SweepExpired(ctx context.Context) (*seatlock.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seatlock.SweepResult), args.Error(1)
}

func (m *MockSeatLockService) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.SeatLock, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatLock), args.Error(1)
}

func (m *MockSeatLockService) ListByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.SeatLock, error) {
	args := m.Called(ctx, holderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatLock), args.Error(1)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, req booking.CreateRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) MarkPaid(
	ctx context.Context,
	bookingID uuid.UUID,
	payment domain.Payment) (*booking.PaidBooking, error) {

	args := m.Called(ctx, bookingID, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.PaidBooking), args.Error(1)
}

func (m *MockBookingService) Cancel(ctx context.Context, bookingID uuid.UUID, actor domain.Identity) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) SweepAllStale(ctx context.Context, olderThan time.Duration) ([]domain.Booking, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingService) ForceCleanup(
	ctx context.Context,
	showtimeID uuid.UUID,
	customer domain.Identity) ([]domain.Booking, error) {

	args := m.Called(ctx, showtimeID, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingService) Get(ctx context.Context, bookingID uuid.UUID, actor domain.Identity) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.Booking, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingService) ListByCustomer(
	ctx context.Context,
	customerID uuid.UUID,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	args := m.Called(ctx, customerID, pagination)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Booking), args.Get(1).(*domain.Metadata), args.Error(2)
}

type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.Ticket, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockTicketService) ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]domain.Ticket, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockTicketService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Ticket, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

type MockCheckinService struct {
	mock.Mock
}

func (m *MockCheckinService) Validate(ctx context.Context, scanCode string) (*domain.BookingContext, error) {
	args := m.Called(ctx, scanCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingContext), args.Error(1)
}

func (m *MockCheckinService) Checkin(ctx context.Context, req checkin.Request) (*domain.CheckinResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckinResult), args.Error(1)
}

type MockSeatOpsService struct {
	mock.Mock
}

func (m *MockSeatOpsService) ReportBroken(ctx context.Context, req seatops.ReportRequest) (*seatops.Remediation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seatops.Remediation), args.Error(1)
}

func (m *MockSeatOpsService) Restore(
	ctx context.Context,
	hallID uuid.UUID,
	seatCode string,
	actor domain.Identity) (*domain.Seat, error) {

	args := m.Called(ctx, hallID, seatCode, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockSeatOpsService) ListBroken(ctx context.Context, hallID *uuid.UUID) ([]domain.Seat, error) {
	args := m.Called(ctx, hallID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatOpsService) SeatMap(ctx context.Context, showtimeID uuid.UUID) (*domain.SeatMap, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatMap), args.Error(1)
}

type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, id string) (redisx.Decision, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(redisx.Decision), args.Error(1)
}
