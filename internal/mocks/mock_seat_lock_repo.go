package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatLockRepo struct {
	mock.Mock
	domain.SeatLockRepository
}

func (m *MockSeatLockRepo) Acquire(ctx context.Context, lock *domain.SeatLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *MockSeatLockRepo) Release(
	ctx context.Context,
	lockID, holderID uuid.UUID,
	at time.Time) (*domain.SeatLock, error) {

	args := m.Called(ctx, lockID, holderID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepo) Complete(
	ctx context.Context,
	showtimeID, holderID uuid.UUID,
	codes []string,
	at time.Time) ([]domain.SeatLock, error) {

	args := m.Called(ctx, showtimeID, holderID, codes, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepo) ExpireStale(ctx context.Context, at time.Time) ([]domain.SeatLock, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepo) FindConflicts(
	ctx context.Context,
	showtimeID, holderID uuid.UUID,
	codes []string,
	at time.Time) ([]string, error) {

	args := m.Called(ctx, showtimeID, holderID, codes, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSeatLockRepo) ListActiveByShowtime(
	ctx context.Context,
	showtimeID uuid.UUID,
	at time.Time) ([]domain.SeatLock, error) {

	args := m.Called(ctx, showtimeID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepo) ListByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.SeatLock, error) {
	args := m.Called(ctx, holderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatLock), args.Error(1)
}
