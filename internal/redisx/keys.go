package redisx

import (
	"fmt"

	"github.com/google/uuid"
)

const ns = "cinema:v1"

func SeatMapKey(showtimeID uuid.UUID) string {
	return fmt.Sprintf("%s:showtime:%s:seatmap", ns, showtimeID)
}

func RateLimitKey(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelSeatsChanged() string {
	return ns + ":seats:changed"
}
