package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SeatType string

const (
	SeatTypeNormal SeatType = "NORMAL"
	SeatTypeVIP    SeatType = "VIP"
)

type Seat struct {
	ID     uuid.UUID
	HallID uuid.UUID
	Code   string
	Type   SeatType
	Broken bool
}

type SeatState string

const (
	SeatAvailable SeatState = "available"
	SeatLocked    SeatState = "locked"
	SeatBooked    SeatState = "booked"
	SeatBroken    SeatState = "broken"
)

type SeatMapEntry struct {
	SeatID uuid.UUID `json:"seatId"`
	Code   string    `json:"code"`
	Type   SeatType  `json:"type"`
	State  SeatState `json:"state"`
}

// SeatMap is the occupancy view of a hall for one showtime.
type SeatMap struct {
	ShowtimeID  uuid.UUID      `json:"showtimeId"`
	HallID      uuid.UUID      `json:"hallId"`
	Seats       []SeatMapEntry `json:"seats"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// CatalogRepository is the read side of the catalog plus the single mutation
// the core performs on it, the broken flag of a seat.
type CatalogRepository interface {
	GetShowtime(ctx context.Context, id uuid.UUID) (*Showtime, error)
	GetShowtimeDetails(ctx context.Context, id uuid.UUID) (*ShowtimeDetails, error)
	GetUpcomingShowtimesByHall(ctx context.Context, hallID uuid.UUID, from time.Time) ([]Showtime, error)
	GetSeatsByCodes(ctx context.Context, hallID uuid.UUID, codes []string) ([]Seat, error)
	GetSeatByCode(ctx context.Context, hallID uuid.UUID, code string) (*Seat, error)
	GetSeatsByHall(ctx context.Context, hallID uuid.UUID) ([]Seat, error)
	// GetBrokenSeats lists out of service seats, of one hall when hallID is
	// set.
	GetBrokenSeats(ctx context.Context, hallID *uuid.UUID) ([]Seat, error)
	SetSeatBroken(ctx context.Context, seatID uuid.UUID, broken bool) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
}

// CheckSeats compares the requested codes with the seats the catalog
// resolved. Unknown codes come back as a *NotFoundError, broken seats as a
// *ConflictError.
func CheckSeats(codes []string, seats []Seat) error {
	found := make(map[string]Seat, len(seats))
	for _, seat := range seats {
		found[seat.Code] = seat
	}

	var missing, broken []string

	for _, code := range codes {
		seat, ok := found[code]
		switch {
		case !ok:
			missing = append(missing, code)
		case seat.Broken:
			broken = append(broken, code)
		}
	}

	if len(missing) > 0 {
		return &NotFoundError{Entity: "seat", Keys: missing}
	}

	if len(broken) > 0 {
		return NewConflictError(broken)
	}

	return nil
}
