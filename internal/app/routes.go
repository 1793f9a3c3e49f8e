package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/metinatakli/cinema-ticketing/internal/domain"
	"github.com/riandyrn/otelchi"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)
	r.Use(app.sessionManager.LoadAndSave)

	r.Get("/healthcheck", app.healthcheckHandler)
	r.Get("/showtimes/{showtimeId}/seats", app.seatMapHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.requireAuthentication)

		r.Route("/showtimes/{showtimeId}", func(r chi.Router) {
			r.Get("/locks", app.listShowtimeLocksHandler)
			r.With(app.rateLimitLocks).Post("/locks", app.acquireSeatLockHandler)
			r.Post("/bookings", app.createBookingHandler)
			r.Post("/bookings/cleanup", app.cleanupBookingsHandler)
		})

		r.Delete("/locks/{lockId}", app.releaseSeatLockHandler)

		r.Route("/bookings/{bookingId}", func(r chi.Router) {
			r.Get("/", app.getBookingHandler)
			r.Get("/tickets", app.listBookingTicketsHandler)
			r.Post("/cancel", app.cancelBookingHandler)
		})

		r.Get("/users/me/locks", app.listMyLocksHandler)
		r.Get("/users/me/bookings", app.listMyBookingsHandler)
		r.Get("/users/me/tickets", app.listMyTicketsHandler)

		r.Route("/staff", func(r chi.Router) {
			r.Use(app.requireRole(domain.RoleStaff, domain.RoleAdmin))

			r.Get("/tickets/{scanCode}", app.validateTicketHandler)
			r.Post("/checkins", app.checkinHandler)
			r.Get("/seats/broken", app.listBrokenSeatsHandler)
			r.Post("/seats/broken", app.reportBrokenSeatHandler)
			r.Post("/seats/restore", app.restoreSeatHandler)
			r.Post("/maintenance/sweep", app.sweepHandler)
			r.Get("/showtimes/{showtimeId}/bookings", app.listShowtimeBookingsHandler)
			r.Get("/showtimes/{showtimeId}/tickets", app.listShowtimeTicketsHandler)
		})
	})

	r.With(app.authenticateService, app.requireRole(domain.RoleSystem, domain.RoleStaff, domain.RoleAdmin)).
		Post("/payments/confirmations", app.confirmPaymentHandler)

	return r
}
