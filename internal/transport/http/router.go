// Package httptransport is the thin HTTP layer. Handlers parse, delegate to
// the pipeline or ledger, and translate domain errors; no decision logic
// lives here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vigil/internal/platform/middleware"
	"vigil/pkg/platform/httputil"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Observations *ObservationHandler
	Ledger       *LedgerHandler
	Schedule     *ScheduleHandler
	JWTKey       []byte
	Logger       *slog.Logger
	Metrics      prometheus.Gatherer
	// Ingest optionally rate-limits the observation surface.
	Ingest func(http.Handler) http.Handler
}

// NewRouter wires all endpoints. Ledger administration sits behind the JWT
// admin guard; ingest and health are open to the sensing collaborators.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.Ingest != nil {
				r.Use(cfg.Ingest)
			}
			cfg.Observations.Register(r)
		})
		cfg.Schedule.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.JWTKey, cfg.Logger))
			cfg.Ledger.Register(r)
		})
	})
	return r
}
