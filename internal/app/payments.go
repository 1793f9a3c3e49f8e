package app

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
)

const ticketsIssuedTemplate = "tickets_issued.tmpl"

// confirmPaymentHandler receives the payment system's assertion that a
// booking was paid. Confirmations may be repeated.
func (app *application) confirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input PaymentConfirmationRequest

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

	bookingID, err := domain.ParseID("bookingId", input.BookingID)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	payment := domain.Payment{
		Reference: input.Reference,
		Method:    input.Method,
		Amount:    input.Amount,
	}
	if input.PaidAt != nil {
		payment.PaidAt = *input.PaidAt
	}

	paid, err := app.bookings.MarkPaid(r.Context(), bookingID, payment)
	if err != nil {
		logger.Warn("payment confirmation rejected", "booking_id", bookingID, "error", err)
		app.serviceErrorResponse(w, r, err)
		return
	}

	if !paid.Replayed {
		app.sendTicketsEmail(r, *paid.Booking, paid.Tickets)
	}

	resp := PaidBookingResponse{
		Booking: toBookingResponse(*paid.Booking),
		Tickets: toTicketResponses(paid.Tickets),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type ticketsEmail struct {
	CustomerName string
	BookingID    uuid.UUID
	MovieTitle   string
	CinemaName   string
	HallName     string
	StartsAt     string
	Tickets      []domain.Ticket
}

func (app *application) sendTicketsEmail(r *http.Request, b domain.Booking, tickets []domain.Ticket) {
	app.background(r, "tickets email", func(r *http.Request) {
		logger := app.contextGetLogger(r)

		customer, err := app.catalog.GetCustomer(r.Context(), b.CustomerID)
		if err != nil {
			logger.Error("failed to load customer for tickets email", "booking_id", b.ID, "error", err)
			return
		}

		details, err := app.catalog.GetShowtimeDetails(r.Context(), b.ShowtimeID)
		if err != nil {
			logger.Error("failed to load showtime for tickets email", "booking_id", b.ID, "error", err)
			return
		}

		data := ticketsEmail{
			CustomerName: customer.Name,
			BookingID:    b.ID,
			MovieTitle:   details.Movie.Title,
			CinemaName:   details.Cinema.Name,
			HallName:     details.Hall.Name,
			StartsAt:     details.Showtime.StartsAt.Format(time.RFC1123),
			Tickets:      tickets,
		}

		err = app.mailer.Send(customer.Email, ticketsIssuedTemplate, data)
		if err != nil {
			logger.Error("failed to send tickets email", "booking_id", b.ID, "error", err)
			return
		}

		logger.Info("tickets email sent", "booking_id", b.ID)
	})
}
