package app

import (
	"net/http"

	"github.com/metinatakli/cinema-ticketing/internal/service/seatlock"
)

func (app *application) acquireSeatLockHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	var input AcquireLockRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	sessionID := input.SessionID
	if sessionID == "" && app.sessionManager != nil {
		sessionID = app.sessionManager.Token(r.Context())
	}

	lock, err := app.seatLocks.Acquire(r.Context(), seatlock.AcquireRequest{
		ShowtimeID: showtimeID,
		SeatCodes:  input.SeatCodes,
		Holder:     app.contextGetIdentity(r),
		SessionID:  sessionID,
	})
	if err != nil {
		logger.Warn("seat lock rejected", "showtime_id", showtimeID, "error", err)
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toSeatLockResponse(*lock), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) releaseSeatLockHandler(w http.ResponseWriter, r *http.Request) {
	lockID, err := app.readIDParam(r, "lockId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	lock, err := app.seatLocks.Release(r.Context(), lockID, app.contextGetIdentity(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatLockResponse(*lock), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listShowtimeLocksHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	locks, err := app.seatLocks.ListByShowtime(r.Context(), showtimeID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatLockResponses(locks), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listMyLocksHandler(w http.ResponseWriter, r *http.Request) {
	locks, err := app.seatLocks.ListByHolder(r.Context(), app.contextGetIdentity(r).HolderID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatLockResponses(locks), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
