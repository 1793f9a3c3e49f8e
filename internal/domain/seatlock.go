package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const LockHoldDuration = 7 * time.Minute

type LockStatus string

const (
	LockActive    LockStatus = "active"
	LockCompleted LockStatus = "completed"
	LockReleased  LockStatus = "released"
	LockExpired   LockStatus = "expired"
)

type SeatLock struct {
	ID         uuid.UUID
	ShowtimeID uuid.UUID
	HolderID   uuid.UUID
	SessionID  string
	SeatCodes  []string
	Status     LockStatus
	CreatedAt  time.Time
	ExpiresAt  time.Time
	UpdatedAt  time.Time
}

// IsActiveAt reports whether the lock still holds its seats at t. A lock past
// its expiry is inactive even while its stored status reads active.
func (l SeatLock) IsActiveAt(t time.Time) bool {
	return l.Status == LockActive && t.Before(l.ExpiresAt)
}

type SeatLockRepository interface {
	// Acquire inserts lock atomically for its showtime. It returns a
	// *ConflictError listing the codes held by other holders' live locks.
	Acquire(ctx context.Context, lock *SeatLock) error
	Release(ctx context.Context, lockID, holderID uuid.UUID, at time.Time) (*SeatLock, error)
	Complete(ctx context.Context, showtimeID, holderID uuid.UUID, codes []string, at time.Time) ([]SeatLock, error)
	ExpireStale(ctx context.Context, at time.Time) ([]SeatLock, error)
	FindConflicts(ctx context.Context, showtimeID, holderID uuid.UUID, codes []string, at time.Time) ([]string, error)
	ListActiveByShowtime(ctx context.Context, showtimeID uuid.UUID, at time.Time) ([]SeatLock, error)
	ListByHolder(ctx context.Context, holderID uuid.UUID) ([]SeatLock, error)
}
