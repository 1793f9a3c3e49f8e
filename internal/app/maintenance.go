package app

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// sweep expires overdue locks and cancels stale pending bookings. Both are
// housekeeping only: availability checks already ignore expired holds.
func (app *application) sweep(ctx context.Context) (SweepResponse, error) {
	resp := SweepResponse{
		FreedSeats:        map[string][]string{},
		CancelledBookings: []uuid.UUID{},
	}

	locks, err := app.seatLocks.SweepExpired(ctx)
	if err != nil {
		return resp, err
	}

	resp.ExpiredLocks = len(locks.Locks)
	for showtimeID, codes := range locks.Freed {
		resp.FreedSeats[showtimeID.String()] = codes
	}

	cancelled, err := app.bookings.SweepAllStale(ctx, app.config.booking.staleAfter)
	if err != nil {
		return resp, err
	}

	for _, b := range cancelled {
		resp.CancelledBookings = append(resp.CancelledBookings, b.ID)
	}

	return resp, nil
}

func (app *application) sweepHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := app.sweep(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("manual sweep finished",
		"expired_locks", resp.ExpiredLocks,
		"cancelled_bookings", len(resp.CancelledBookings))

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// runSweeper sweeps on every tick until ctx is done. A non-positive
// interval disables it.
func (app *application) runSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		app.logger.Info("expiry sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp, err := app.sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					app.logger.Error("sweep failed", "error", err)
				}
				continue
			}

			if resp.ExpiredLocks > 0 || len(resp.CancelledBookings) > 0 {
				app.logger.Info("sweep finished",
					"expired_locks", resp.ExpiredLocks,
					"cancelled_bookings", len(resp.CancelledBookings))
			}
		}
	}
}
