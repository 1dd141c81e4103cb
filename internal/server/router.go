// Package server assembles the HTTP surface.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cataloghandler "github.com/narwhalmedia/ottcore/internal/catalog/handler"
	profilehandler "github.com/narwhalmedia/ottcore/internal/profile/handler"
	progresshandler "github.com/narwhalmedia/ottcore/internal/progress/handler"
	recohandler "github.com/narwhalmedia/ottcore/internal/recommendation/handler"
	"github.com/narwhalmedia/ottcore/pkg/auth"
	"github.com/narwhalmedia/ottcore/pkg/httputil"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/logger"
	"github.com/narwhalmedia/ottcore/pkg/metrics"
	"github.com/narwhalmedia/ottcore/pkg/middleware"
)

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func() error

// Handlers groups the API handlers mounted under /api/v1.
type Handlers struct {
	Profiles        *profilehandler.Handler
	Catalog         *cataloghandler.Handler
	Recommendations *recohandler.Handler
	Progress        *progresshandler.Handler
}

// Options controls the router.
type Options struct {
	MetricsEnabled bool
	MetricsPath    string
}

// NewRouter builds the chi router with the global middleware stack, the
// probes and the authenticated API.
func NewRouter(h Handlers, verifier auth.Verifier, ready ReadinessCheck, opts Options, log interfaces.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(logger.HTTPMiddleware(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				log.Warn("Readiness check failed", interfaces.Error(err))
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if opts.MetricsEnabled {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.HTTPMiddleware)
		r.Use(middleware.Authenticate(verifier, log))

		h.Profiles.Routes(r)
		h.Catalog.Routes(r)
		h.Recommendations.Routes(r)
		h.Progress.Routes(r)
	})

	return r
}
