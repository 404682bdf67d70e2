/*
server.go - Router assembly for the asset movement API

PURPOSE:
  Wires middleware and routes onto a chi router. Route paths follow the
  browser client verbatim, including the asset/assets split it ships
  with. Everything under /api except the auth endpoints sits behind the
  session middleware.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/asset-ledger/pkg/logger"
	"github.com/warp/asset-ledger/pkg/metrics"
)

// RouterOptions carries the knobs the router needs beyond the handler.
type RouterOptions struct {
	CORSOrigins []string
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
}

// NewRouter builds the full middleware stack and route table.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logging(opts.Logger))
	r.Use(Instrument(opts.Metrics))
	r.Use(chimiddleware.Recoverer)

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(RequireSession(h.Auth, opts.Logger))
				r.Get("/me", h.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(h.Auth, opts.Logger))

			r.Route("/asset", func(r chi.Router) {
				r.Post("/purchase", h.CreatePurchase)
				r.Get("/purchase", h.ListPurchases)
				r.Post("/expend", h.CreateExpenditure)
				r.Get("/getExpenditures", h.ListExpenditures)
				r.Get("/summary", h.GetSummary)
				r.Get("/filters", h.GetFilters)
			})

			r.Route("/assets", func(r chi.Router) {
				r.Post("/transfer", h.CreateTransfer)
				r.Get("/transfer", h.ListTransfers)
				r.Post("/assign", h.CreateAssignment)
				r.Get("/assign", h.ListAssignments)
			})
		})
	})

	return r
}
