package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockCatalogRepo struct {
	mock.Mock
	domain.CatalogRepository
}

func (m *MockCatalogRepo) GetShowtime(ctx context.Context, id uuid.UUID) (*domain.Showtime, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Showtime), args.Error(1)
}

func (m *MockCatalogRepo) GetShowtimeDetails(ctx context.Context, id uuid.UUID) (*domain.ShowtimeDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShowtimeDetails), args.Error(1)
}

func (m *MockCatalogRepo) GetUpcomingShowtimesByHall(
	ctx context.Context,
	hallID uuid.UUID,
	from time.Time) ([]domain.Showtime, error) {

	args := m.Called(ctx, hallID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Showtime), args.Error(1)
}

func (m *MockCatalogRepo) GetSeatsByCodes(ctx context.Context, hallID uuid.UUID, codes []string) ([]domain.Seat, error) {
	args := m.Called(ctx, hallID, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockCatalogRepo) GetSeatByCode(ctx context.Context, hallID uuid.UUID, code string) (*domain.Seat, error) {
	args := m.Called(ctx, hallID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockCatalogRepo) GetSeatsByHall(ctx context.Context, hallID uuid.UUID) ([]domain.Seat, error) {
	args := m.Called(ctx, hallID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockCatalogRepo) GetBrokenSeats(ctx context.Context, hallID *uuid.UUID) ([]domain.Seat, error) {
	args := m.Called(ctx, hallID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockCatalogRepo) SetSeatBroken(ctx context.Context, seatID uuid.UUID, broken bool) error {
	args := m.Called(ctx, seatID, broken)
	return args.Error(0)
}

func (m *MockCatalogRepo) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}
