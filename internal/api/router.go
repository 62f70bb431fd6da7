// Package api assembles the HTTP router for the dashboard service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/api/handlers"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/api/middleware"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/config"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/push"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/service"
)

// Dependencies are the wired components the router serves.
type Dependencies struct {
	Service    *service.DashboardService
	Dispatcher *push.Dispatcher
	Hub        *push.Hub
	CORS       config.CORSConfig
	Logger     zerolog.Logger
}

// NewRouter builds the chi router with all API routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	system := handlers.NewSystemHandler(deps.Service)
	dashboard := handlers.NewDashboardHandler(deps.Service, deps.Logger)
	ingest := handlers.NewIngestHandler(deps.Dispatcher, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/system/health", system.GetHealth)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/accounts", dashboard.GetAccounts)
			r.Get("/portfolios", dashboard.GetPortfolios)
			r.Get("/portfolios/{uuid}/positions", dashboard.GetPositions)
			r.Post("/portfolios/{uuid}/collapse", dashboard.Collapse)
			if deps.Hub != nil {
				r.Get("/stream", deps.Hub.ServeHTTP)
			}
		})

		r.Post("/ingest/push", ingest.Push)
	})

	return r
}
