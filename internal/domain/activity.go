package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityLockAcquired     ActivityType = "lock_acquired"
	ActivityLockReleased     ActivityType = "lock_released"
	ActivityBookingCreated   ActivityType = "booking"
	ActivityBookingCancelled ActivityType = "booking_cancelled"
	ActivityBookingsSwept    ActivityType = "bookings_swept"
	ActivityPayment          ActivityType = "payment"
	ActivityTicketsIssued    ActivityType = "tickets_issued"
	ActivityCheckin          ActivityType = "checkin"
	ActivitySeatBroken       ActivityType = "seat_broken"
	ActivitySeatRestored     ActivityType = "seat_restored"
)

type Activity struct {
	Type         ActivityType   `json:"activity_type"`
	ActorID      *uuid.UUID     `json:"user_id,omitempty"`
	ActorRole    Role           `json:"user_role,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OccurredAt   time.Time      `json:"timestamp"`
}

// ActivityLogger records activities without blocking or failing the caller.
type ActivityLogger interface {
	Log(ctx context.Context, activity Activity)
}

// SeatChangeNotifier is told, after commit, that the occupancy of a showtime
// changed.
type SeatChangeNotifier interface {
	SeatsChanged(ctx context.Context, showtimeID uuid.UUID)
}

func NewActivity(kind ActivityType, actor Identity, at time.Time, details map[string]any) Activity {
	activity := Activity{
		Type:       kind,
		ActorRole:  actor.Role,
		Details:    details,
		Success:    true,
		OccurredAt: at.UTC(),
	}

	if actor.HolderID != uuid.Nil {
		id := actor.HolderID
		activity.ActorID = &id
	}

	return activity
}

// Failed marks the activity as unsuccessful.
func (a Activity) Failed(err error) Activity {
	a.Success = false
	if err != nil {
		a.ErrorMessage = err.Error()
	}

	return a
}
