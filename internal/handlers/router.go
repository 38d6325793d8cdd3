package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"brokerdash/internal/middleware"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(deps *Dependencies, corsOrigins []string) http.Handler {
	h := NewDashboardHandler(deps)

	r := chi.NewRouter()

	// Chi middleware (aliased as chimw to avoid conflict with our middleware package)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.NewCORS(corsOrigins).Handler)

	r.NotFound(h.NotFound)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LimitAPI)

		r.Get("/balance", h.Balance)
		r.Get("/futures-balance", h.FuturesBalance)
		r.Get("/overseas-balance", h.OverseasBalance)
		r.Get("/orders", h.Orders)
		r.Get("/futures-orders", h.FuturesOrders)
		r.Get("/period-pnl", h.PeriodPnl)
		r.Get("/summary", h.Summary)
		r.Get("/market-status", h.MarketStatus)

		r.Get("/kiwoom/balance", h.KiwoomBalance)
		r.Post("/ls/balance", h.LSBalance)
	})

	return r
}
