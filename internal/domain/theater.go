package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cinema struct {
	ID   uuid.UUID
	Name string
}

type Hall struct {
	ID       uuid.UUID
	CinemaID uuid.UUID
	Name     string
}

type ShowtimeStatus string

const (
	ShowtimeActive    ShowtimeStatus = "active"
	ShowtimeCancelled ShowtimeStatus = "cancelled"
)

type Showtime struct {
	ID        uuid.UUID
	MovieID   uuid.UUID
	HallID    uuid.UUID
	StartsAt  time.Time
	BasePrice decimal.Decimal
	Status    ShowtimeStatus
}

func (s Showtime) IsBookable() bool {
	return s.Status == ShowtimeActive
}

// ShowtimeDetails carries the display metadata staff and scan codes need.
type ShowtimeDetails struct {
	Showtime Showtime
	Movie    Movie
	Hall     Hall
	Cinema   Cinema
}
