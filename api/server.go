/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For (rate limit key)
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the front desk UI
  6. RateLimit:  Redis token bucket on /api (no-op when disabled)

ROUTE GROUPS:
  /api/rooms/*          Room board and inventory
  /api/availability     Availability check
  /api/clients/*        Guests
  /api/reservations/*   Booking lifecycle, consumptions, invoice
  /api/checkin/*        Front desk lookups
  /api/consumptions/*   Charge removal
  /api/products/*       Catalog
  /api/scenarios/*      Demo scenarios
  /api/health           Liveness

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - ratelimit.go: Token bucket middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the optional router settings.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimit      func(http.Handler) http.Handler
}

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}

		r.Get("/health", h.Health)

		// Room routes
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Post("/", h.CreateRoom)
			r.Get("/{id}", h.GetRoom)
			r.Put("/{id}", h.UpdateRoom)
			r.Put("/{id}/status", h.SetRoomStatus)
			r.Delete("/{id}", h.DeleteRoom)
		})
		r.Post("/availability", h.CheckAvailability)

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
			r.Put("/{id}", h.UpdateClient)
			r.Delete("/{id}", h.DeleteClient)
		})

		// Reservation routes
		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.ListReservations)
			r.Post("/", h.CreateReservation)
			r.Get("/history", h.History)
			r.Get("/{id}", h.GetReservation)
			r.Delete("/{id}", h.DeleteReservation)
			r.Post("/{id}/checkin", h.CheckIn)
			r.Post("/{id}/checkout", h.Checkout)
			r.Post("/{id}/cancel", h.Cancel)
			r.Put("/{id}/room/{roomID}", h.ReassignRoom)
			r.Get("/{id}/consumptions", h.ListConsumptions)
			r.Post("/{id}/consumptions", h.RegisterConsumption)
			r.Get("/{id}/invoice", h.GetInvoice)
		})

		// Front desk routes
		r.Route("/checkin", func(r chi.Router) {
			r.Get("/arrivals", h.Arrivals)
			r.Get("/search", h.SearchForCheckIn)
			r.Get("/rooms", h.ReassignTargets)
		})

		r.Delete("/consumptions/{id}", h.DeleteConsumption)

		// Product routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
