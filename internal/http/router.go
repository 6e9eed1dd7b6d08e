package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/tally/internal/http/dashboard"
	"github.com/MrJamesThe3rd/tally/internal/http/estimate"
	"github.com/MrJamesThe3rd/tally/internal/http/importcsv"
	"github.com/MrJamesThe3rd/tally/internal/http/preferences"
	"github.com/MrJamesThe3rd/tally/internal/http/report"
)

func New(
	allowedOrigins []string,
	estimatesV1 *estimate.Handler,
	dashboardV1 *dashboard.Handler,
	importV1 *importcsv.Handler,
	reportV1 *report.Handler,
	preferencesV1 *preferences.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/estimates", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			estimatesV1.Routes(r)
		})

		r.Route("/dashboard", dashboardV1.Routes)

		r.Route("/import", importV1.Routes)

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			reportV1.Routes(r)
		})

		r.Route("/preferences", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			preferencesV1.Routes(r)
		})
	})

	return router
}
