package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketValid     TicketStatus = "valid"
	TicketCheckedIn TicketStatus = "checked_in"
	TicketCancelled TicketStatus = "cancelled"
)

type Ticket struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	ShowtimeID  uuid.UUID
	SeatID      uuid.UUID
	SeatCode    string
	ScanCode    string
	Status      TicketStatus
	IssuedAt    time.Time
	CheckedInAt *time.Time
	CheckedInBy *uuid.UUID
	CancelledAt *time.Time
}

type TicketRepository interface {
	// CreateBatch inserts tickets, skipping seats of a booking that already
	// have one.
	CreateBatch(ctx context.Context, tickets []Ticket) error
	GetById(ctx context.Context, id uuid.UUID) (*Ticket, error)
	GetByScanCode(ctx context.Context, scanCode string) (*Ticket, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Ticket, error)
	ListByShowtime(ctx context.Context, showtimeID uuid.UUID) ([]Ticket, error)
	// ListByCustomer returns the tickets of every booking of the customer,
	// newest first.
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Ticket, error)
	// CheckIn moves a valid ticket to checked_in. A ticket in any other
	// status yields ErrInvalidState and is left untouched.
	CheckIn(ctx context.Context, id, operatorID uuid.UUID, at time.Time) (*Ticket, error)
}

type CheckinFailureReason string

const (
	CheckinAlreadyCheckedIn CheckinFailureReason = "already checked in"
	CheckinCancelled        CheckinFailureReason = "cancelled"
	CheckinNotFound         CheckinFailureReason = "not found"
)

type CheckinFailure struct {
	TicketID uuid.UUID
	Reason   CheckinFailureReason
}

type CheckinResult struct {
	CheckedIn []Ticket
	Failed    []CheckinFailure
}

// BookingContext is what staff see after scanning a ticket.
type BookingContext struct {
	Ticket   Ticket
	Booking  Booking
	Tickets  []Ticket
	Showtime ShowtimeDetails
	Customer *Customer
}
