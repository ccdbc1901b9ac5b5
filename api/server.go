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
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/timeclock/*      Punch file import and queries
  /api/rules/*          Rule simulation and introspection
  /api/employees/*      Balance and movement queries
  /api/compensations/*  Compensation request workflow

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.
  Approver identity is taken from the X-Actor header until auth lands.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Time-clock routes
		r.Route("/timeclock", func(r chi.Router) {
			r.Post("/import", h.ImportFile)
			r.Get("/records", h.ListRecords)
		})

		// Rule routes
		r.Route("/rules", func(r chi.Router) {
			r.Post("/simulate", h.Simulate)
			r.Get("/", h.ListRules)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/movements", h.GetMovements)
		})

		// Compensation routes
		r.Route("/compensations", func(r chi.Router) {
			r.Get("/", h.ListCompensations)
			r.Post("/", h.CreateCompensation)
			r.Post("/{id}/approve", h.ApproveCompensation)
			r.Post("/{id}/reject", h.RejectCompensation)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
