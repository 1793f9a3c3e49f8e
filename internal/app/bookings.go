package app

import (
	"net/http"

	"github.com/metinatakli/cinema-ticketing/internal/service/booking"
)

func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	var input CreateBookingRequest

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

	b, err := app.bookings.Create(r.Context(), booking.CreateRequest{
		ShowtimeID: showtimeID,
		SeatCodes:  input.SeatCodes,
		Customer:   app.contextGetIdentity(r),
	})
	if err != nil {
		logger.Warn("booking rejected", "showtime_id", showtimeID, "error", err)
		app.serviceErrorResponse(w, r, err)
		return
	}

	logger.Info("booking created", "booking_id", b.ID, "total", b.TotalAmount.String())

	err = app.writeJSON(w, http.StatusCreated, toBookingResponse(*b), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readIDParam(r, "bookingId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	b, err := app.bookings.Get(r.Context(), bookingID, app.contextGetIdentity(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(*b), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listBookingTicketsHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readIDParam(r, "bookingId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	// ownership check
	_, err = app.bookings.Get(r.Context(), bookingID, app.contextGetIdentity(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	tickets, err := app.tickets.ListByBooking(r.Context(), bookingID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toTicketResponses(tickets), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listMyTicketsHandler(w http.ResponseWriter, r *http.Request) {
	tickets, err := app.tickets.ListByCustomer(r.Context(), app.contextGetIdentity(r).HolderID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toTicketResponses(tickets), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listShowtimeTicketsHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	tickets, err := app.tickets.ListByShowtime(r.Context(), showtimeID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toTicketResponses(tickets), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := app.readIDParam(r, "bookingId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	b, err := app.bookings.Cancel(r.Context(), bookingID, app.contextGetIdentity(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(*b), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// cleanupBookingsHandler cancels every pending booking the caller holds on
// the showtime, whatever its age.
func (app *application) cleanupBookingsHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	cancelled, err := app.bookings.ForceCleanup(r.Context(), showtimeID, app.contextGetIdentity(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponses(cancelled), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listMyBookingsHandler(w http.ResponseWriter, r *http.Request) {
	bookings, metadata, err := app.bookings.ListByCustomer(r.Context(), app.contextGetIdentity(r).HolderID, app.readPagination(r))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	resp := BookingListResponse{
		Bookings: toBookingResponses(bookings),
		Metadata: metadata,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listShowtimeBookingsHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID, err := app.readIDParam(r, "showtimeId")
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	bookings, err := app.bookings.ListByShowtime(r.Context(), showtimeID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponses(bookings), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
