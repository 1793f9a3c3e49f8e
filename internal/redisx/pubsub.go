package redisx

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SeatChangeNotifier drops the cached seat map of a showtime and announces
// the change on a pub/sub channel. Failures are logged, never returned.
// Seat map clients subscribe to ChannelSeatsChanged themselves.
type SeatChangeNotifier struct {
	rdb     redis.UniversalClient
	channel string
	logger  *slog.Logger
	now     func() time.Time
}

func NewSeatChangeNotifier(rdb redis.UniversalClient, logger *slog.Logger) *SeatChangeNotifier {
	return &SeatChangeNotifier{
		rdb:     rdb,
		channel: ChannelSeatsChanged(),
		logger:  logger,
		now:     time.Now,
	}
}

type SeatsChangedMessage struct {
	Type       string    `json:"type"`
	ShowtimeID uuid.UUID `json:"showtime_id"`
	TsUnix     int64     `json:"ts_unix"`
}

func (n *SeatChangeNotifier) SeatsChanged(ctx context.Context, showtimeID uuid.UUID) {
	err := n.rdb.Del(ctx, SeatMapKey(showtimeID)).Err()
	if err != nil {
		n.logger.Warn("failed to invalidate seat map", "showtime_id", showtimeID, "error", err)
	}

	msg := SeatsChangedMessage{
		Type:       "seats_changed",
		ShowtimeID: showtimeID,
		TsUnix:     n.now().Unix(),
	}

	b, _ := json.Marshal(msg)

	err = n.rdb.Publish(ctx, n.channel, string(b)).Err()
	if err != nil {
		n.logger.Warn("failed to publish seat change", "showtime_id", showtimeID, "error", err)
	}
}
