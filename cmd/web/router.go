package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/streamsite/internal/auth"
	"github.com/yanizio/streamsite/internal/component"
	"github.com/yanizio/streamsite/internal/middleware"
	"github.com/yanizio/streamsite/internal/requestinfo"
)

// buildRouter assembles the middleware chain and mounts every component.
func buildRouter(env *component.Env, res *requestinfo.Resolver, forceHTTPS bool) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(middleware.Metrics)
	r.Use(middleware.ForceHTTPS(forceHTTPS))
	r.Use(chimw.Recoverer)
	r.Use(res.Enrich)
	r.Use(auth.LoadSession(env.Sessions))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	if err := component.Mount(r, env); err != nil {
		return nil, err
	}
	return r, nil
}
