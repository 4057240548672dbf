package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware("booking-engine", otelchi.WithChiRoutes(r)))
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)

	r.Get("/health", app.GetHealth)

	// Webhook requests authenticate with provider credentials, not sessions.
	r.Post("/webhooks/payment", app.PaymentWebhookHandler)

	r.Get("/combos", app.ListCombosHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(app.ensureGuestSession)

		r.Route("/showtimes/{showtimeID}", func(r chi.Router) {
			r.Get("/seats", app.GetSeatMapByShowtime)
			r.Post("/holds", app.CreateHoldHandler)
			r.Delete("/holds", app.ReleaseHoldHandler)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", app.CreateBookingHandler)
			r.Get("/{bookingCode}", app.GetBookingHandler)
			r.Post("/{bookingCode}/cancellation", app.CancelBookingHandler)
			r.Post("/{bookingCode}/payment", app.CreatePaymentCheckoutHandler)
			r.Get("/{bookingCode}/payment-status", app.GetPaymentStatusHandler)

			r.With(app.requireStaff).Get("/", app.ListBookingsHandler)
			r.With(app.requireStaff).Put("/{bookingCode}/payment-status", app.MarkBookingPaidHandler)
			r.With(app.requireStaff).Put("/{bookingCode}/refund-status", app.MarkBookingRefundedHandler)
		})
	})

	return r
}
