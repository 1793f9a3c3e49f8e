package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockActivityLogger struct {
	mock.Mock
}

func (m *MockActivityLogger) Log(ctx context.Context, activity domain.Activity) {
	m.Called(ctx, activity)
}

type MockSeatChangeNotifier struct {
	mock.Mock
}

func (m *MockSeatChangeNotifier) SeatsChanged(ctx context.Context, showtimeID uuid.UUID) {
	m.Called(ctx, showtimeID)
}
