package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/MrJamesThe3rd/privcap/internal/http/auth"
	"github.com/MrJamesThe3rd/privcap/internal/http/investment"
	"github.com/MrJamesThe3rd/privcap/internal/http/portfolio"
	"github.com/MrJamesThe3rd/privcap/internal/http/transfer"
)

type Options struct {
	Log            zerolog.Logger
	Auth           *auth.Authenticator
	AllowedOrigins []string
}

func New(
	opts Options,
	transfersV1 *transfer.Handler,
	investmentsV1 *investment.Handler,
	portfolioV1 *portfolio.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(hlog.NewHandler(opts.Log))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(opts.Auth.Middleware)

		r.Route("/transfers", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			transfersV1.Routes(r)
		})

		r.Route("/investments", investmentsV1.Routes)

		r.Route("/portfolio", portfolioV1.Routes)
	})

	return router
}
