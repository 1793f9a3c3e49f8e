package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const StaleBookingAge = 10 * time.Minute

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingPaid      BookingStatus = "paid"
	BookingCancelled BookingStatus = "cancelled"
)

type CancelReason string

const (
	CancelReasonCustomer   CancelReason = "customer_request"
	CancelReasonStale      CancelReason = "stale_pending"
	CancelReasonSeatBroken CancelReason = "seat_broken"
)

type BookingSeat struct {
	SeatID uuid.UUID
	Code   string
	Type   SeatType
	Price  decimal.Decimal
}

type Booking struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	ShowtimeID   uuid.UUID
	Seats        []BookingSeat
	TotalAmount  decimal.Decimal
	Status       BookingStatus
	Payment      *Payment
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CancelledAt  *time.Time
	CancelReason *CancelReason
}

func (b Booking) SeatIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(b.Seats))
	for i, s := range b.Seats {
		ids[i] = s.SeatID
	}

	return ids
}

func (b Booking) SeatCodes() []string {
	codes := make([]string, len(b.Seats))
	for i, s := range b.Seats {
		codes[i] = s.Code
	}

	return codes
}

func (b Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingPaid
}

// StaleFilter selects pending bookings for a sweep. Nil fields and a zero
// CreatedBefore match all.
type StaleFilter struct {
	ShowtimeID    *uuid.UUID
	CustomerID    *uuid.UUID
	CreatedBefore time.Time
}

type BookingRepository interface {
	// Create persists a pending booking. The disjointness check and the insert
	// run as one unit per showtime; overlaps come back as *ConflictError.
	Create(ctx context.Context, booking *Booking) error
	GetById(ctx context.Context, id uuid.UUID) (*Booking, error)
	// MarkPaid moves a pending booking to paid. A booking in any other status
	// yields ErrInvalidState.
	MarkPaid(ctx context.Context, id uuid.UUID, payment Payment) (*Booking, error)
	// Cancel moves the booking to cancelled when its status is one of from and
	// cancels its valid tickets in the same transaction.
	Cancel(ctx context.Context, id uuid.UUID, from []BookingStatus, reason CancelReason, at time.Time) (*Booking, error)
	CancelStale(ctx context.Context, filter StaleFilter, at time.Time) ([]Booking, error)
	ListActiveBySeat(ctx context.Context, showtimeIDs []uuid.UUID, seatID uuid.UUID) ([]Booking, error)
	ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]Booking, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, pagination Pagination) ([]Booking, *Metadata, error)
}
