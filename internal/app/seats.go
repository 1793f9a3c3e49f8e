package app

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/redisx"
	"github.com/metinatakli/cinema-ticketing/internal/service/seatops"
)

func (app *application) seatMapHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	seatMap, err := app.loadSeatMap(r, showtimeID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, seatMap, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// loadSeatMap reads the seat map through the cache. Every seat change drops
// the cached entry, so the TTL only bounds staleness after a missed
// notification. An unavailable cache falls back to the database.
func (app *application) loadSeatMap(r *http.Request, showtimeID uuid.UUID) (domain.SeatMap, error) {
	load := func(ctx context.Context) (domain.SeatMap, error) {
		m, err := app.seatOps.SeatMap(ctx, showtimeID)
		if err != nil {
			return domain.SeatMap{}, err
		}
		return *m, nil
	}

	if app.cache == nil {
		return load(r.Context())
	}

	var loadErr error

	seatMap, err := redisx.GetOrSetJSON(r.Context(), app.cache, redisx.SeatMapKey(showtimeID), app.config.booking.seatMapTTL,
		func(ctx context.Context) (domain.SeatMap, error) {
			m, err := load(ctx)
			loadErr = err
			return m, err
		})
	if err == nil || loadErr != nil {
		return seatMap, err
	}

	app.contextGetLogger(r).Warn("seat map cache unavailable", "showtime_id", showtimeID, "error", err)

	return load(r.Context())
}

func (app *application) listBrokenSeatsHandler(w http.ResponseWriter, r *http.Request) {
	var hallID *uuid.UUID

	if raw := r.URL.Query().Get("hallId"); raw != "" {
		id, err := domain.ParseID("hallId", raw)
		if err != nil {
			app.failedValidationResponse(w, r, err)
			return
		}
		hallID = &id
	}

	seats, err := app.seatOps.ListBroken(r.Context(), hallID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	resp := make([]SeatResponse, len(seats))
	for i, seat := range seats {
		resp[i] = toSeatResponse(seat)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) reportBrokenSeatHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input SeatReportRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	hallID, err := domain.ParseID("hallId", input.HallID)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	rem, err := app.seatOps.ReportBroken(r.Context(), seatops.ReportRequest{
		HallID:   hallID,
		SeatCode: input.SeatCode,
		Reporter: app.contextGetIdentity(r),
		Note:     input.Note,
	})
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	logger.Info("broken seat reported",
		"hall_id", hallID,
		"seat", rem.Seat.Code,
		"cancelled", len(rem.Cancelled),
		"failed", len(rem.Failed))

	err = app.writeJSON(w, http.StatusOK, toRemediationResponse(rem), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) restoreSeatHandler(w http.ResponseWriter, r *http.Request) {
	var input SeatReportRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	hallID, err := domain.ParseID("hallId", input.HallID)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	seat, err := app.seatOps.Restore(r.Context(), hallID, input.SeatCode, app.contextGetIdentity(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatResponse(*seat), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
