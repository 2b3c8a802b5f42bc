package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Triage/internal/broker"
	"github.com/MikeSquared-Agency/Triage/internal/config"
	"github.com/MikeSquared-Agency/Triage/internal/store"
)

const defaultRateLimit = 120

// NewRouter builds the public API. s may be nil, in which case the run
// history endpoints answer 503.
func NewRouter(b *broker.Broker, s store.Store, cfg config.ServerConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(limit))

	rank := NewRankHandler(b)
	runs := NewRunsHandler(s)
	explain := NewExplainHandler(s)
	weights := NewWeightsHandler(b.Engine().Scorer())
	admin := NewAdminHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(CallerIDMiddleware)

		r.Post("/rank", rank.Rank)
		r.Get("/weights", weights.Get)

		r.Get("/runs", runs.List)
		r.Get("/runs/{run_id}", runs.Get)
		r.Get("/runs/{run_id}/explain/{task_id}", explain.Explain)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminToken))
			r.Get("/stats", admin.Stats)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
