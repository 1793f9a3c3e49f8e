package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockLockChecker struct {
	mock.Mock
}

func (m *MockLockChecker) Conflicts(ctx context.Context, showtimeID, holderID uuid.UUID, codes []string) ([]string, error) {
	args := m.Called(ctx, showtimeID, holderID, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLockChecker) Complete(ctx context.Context, showtimeID, holderID uuid.UUID, codes []string) error {
	args := m.Called(ctx, showtimeID, holderID, codes)
	return args.Error(0)
}

type MockTicketIssuer struct {
	mock.Mock
}

func (m *MockTicketIssuer) IssueForBooking(ctx context.Context, booking *domain.Booking) ([]domain.Ticket, error) {
	args := m.Called(ctx, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

type MockBookingCanceller struct {
	mock.Mock
}

func (m *MockBookingCanceller) CancelForSeatRemediation(
	ctx context.Context,
	bookingID uuid.UUID,
	actor domain.Identity) (*domain.Booking, error) {

	args := m.Called(ctx, bookingID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
