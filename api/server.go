/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. RateLimit:  Per-IP request throttling (httprate)
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/leases/*       Lease lifecycle, schedule, payments, refunds
  /api/tenants/*      Tenant records
  /api/properties/*   Property records
  /api/maintenance/*  Maintenance tickets
  /healthz            Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterConfig tunes the middleware stack.
type RouterConfig struct {
	AllowedOrigins  []string
	RateLimit       int           // requests per window per IP, 0 disables
	RateLimitWindow time.Duration // defaults to one minute
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.LimitByIP(cfg.RateLimit, window))
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Lease routes
		r.Route("/leases", func(r chi.Router) {
			r.Get("/", h.ListLeases)
			r.Post("/", h.CreateLease)
			r.Get("/{id}", h.GetLease)
			r.Get("/{id}/schedule", h.GetSchedule)
			r.Get("/{id}/payments", h.ListPayments)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Post("/{id}/refunds", h.ProcessRefund)
			r.Post("/{id}/terminate", h.TerminateLease)
		})

		// Tenant routes
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Post("/", h.SaveTenant)
			r.Get("/{id}", h.GetTenant)
			r.Put("/{id}", h.SaveTenant)
			r.Delete("/{id}", h.DeleteTenant)
		})

		// Property routes
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/", h.SaveProperty)
			r.Get("/{id}", h.GetProperty)
			r.Put("/{id}", h.SaveProperty)
			r.Delete("/{id}", h.DeleteProperty)
		})

		// Maintenance routes
		r.Route("/maintenance", func(r chi.Router) {
			r.Get("/", h.ListTickets)
			r.Post("/", h.SaveTicket)
			r.Get("/{id}", h.GetTicket)
			r.Put("/{id}", h.SaveTicket)
		})
	})

	return r
}
