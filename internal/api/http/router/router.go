package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hushh-labs/hushhmcp-server/internal/api/http/handler"
	"github.com/hushh-labs/hushhmcp-server/internal/api/http/middleware"
	"github.com/hushh-labs/hushhmcp-server/internal/logger"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New assembles the HTTP routing tree: the versioned API, the metrics
// endpoint and the health check.
func New(
	consents *handler.Consent,
	vaults *handler.Vault,
	db Pinger,
	registry *prometheus.Registry,
	logger *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.NewLogging(logger).Handle)

	r.Route("/api/v1", func(r chi.Router) {
		consents.Register(r)
		vaults.Register(r)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return r
}
