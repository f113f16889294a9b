package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/chudorm/dormbot/internal/auth"
	"github.com/chudorm/dormbot/internal/line"
	"github.com/chudorm/dormbot/internal/logging"
	"github.com/chudorm/dormbot/internal/store"
)

type routes struct {
	webhook    *line.WebhookHandler
	failures   store.Store
	staticDir  string
	adminToken string
	log        zerolog.Logger
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(rt.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/callback", rt.webhook.HandleCallback)

	// Image and thumbnail URLs in scenarios point here.
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(rt.staticDir))))

	if rt.adminToken != "" {
		admin := auth.NewHandler(rt.failures, rt.log)
		r.With(auth.RequireToken(rt.adminToken)).Get("/deliveries/failed", admin.HandleFailedDeliveries)
	}

	return r
}
