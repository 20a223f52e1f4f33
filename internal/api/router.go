package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes live under /api
	r.Route("/api", func(r chi.Router) {
		r.Use(apiHandler.AuthContextMiddleware)

		// Public routes
		r.Post("/login", apiHandler.LoginHandler)
		r.Post("/refresh", apiHandler.RefreshHandler)
		r.Post("/logout", apiHandler.LogoutHandler)
		r.Post("/seed", apiHandler.SeedHandler)
		r.Get("/health", apiHandler.HealthHandler)

		// Chat accepts anonymous callers; the turn just runs unauthenticated.
		r.Post("/chat", apiHandler.ChatHandler)

		// Booking data routes require a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.RequireAuth)

			r.Post("/bookings", apiHandler.CreateBookingHandler)
			r.Get("/bookings", apiHandler.ListBookingsHandler)
			r.Get("/bookings/latest", apiHandler.LatestBookingHandler)
			r.Get("/bookings/flight/{flightNumber}", apiHandler.BookingByFlightHandler)
			r.Get("/flight-info/{flightNumber}", apiHandler.FlightInfoHandler)
		})
	})

	return r
}
