package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/metinatakli/cinema-ticketing/internal/service/checkin"
)

func (app *application) validateTicketHandler(w http.ResponseWriter, r *http.Request) {
	bc, err := app.checkins.Validate(r.Context(), chi.URLParam(r, "scanCode"))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingContextResponse(bc), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) checkinHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input CheckinRequest

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

	req := checkin.Request{Operator: app.contextGetIdentity(r)}

	for _, raw := range input.TicketIDs {
		id, err := domain.ParseID("ticketIds", raw)
		if err != nil {
			app.failedValidationResponse(w, r, err)
			return
		}
		req.TicketIDs = append(req.TicketIDs, id)
	}

	if input.BookingID != "" {
		id, err := domain.ParseID("bookingId", input.BookingID)
		if err != nil {
			app.failedValidationResponse(w, r, err)
			return
		}
		req.BookingID = &id
	}

	res, err := app.checkins.Checkin(r.Context(), req)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	logger.Info("checkin processed", "checked_in", len(res.CheckedIn), "failed", len(res.Failed))

	err = app.writeJSON(w, http.StatusOK, toCheckinResponse(res), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

