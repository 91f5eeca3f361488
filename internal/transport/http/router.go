// Package httptransport assembles the relayer and admin HTTP API from the per-domain handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"provenance/internal/platform/middleware"
	"provenance/pkg/platform/httputil"
)

// RouteRegistrar mounts a handler's endpoints.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	// Relayer is the address public /v1 calls are submitted from.
	Relayer        common.Address
	AdminValidator middleware.AdminValidator
	// RateLimit, when set, wraps the public routes.
	RateLimit func(http.Handler) http.Handler
	Metrics   http.Handler
	Health    map[string]HealthCheck
	Logger    *slog.Logger
}

// NewRouter wires the public relayer API under /v1 and the admin API under /admin.
func NewRouter(cfg Config, public []RouteRegistrar, admin []RouteRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))

	r.Get("/healthz", healthHandler(cfg.Health))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		r.Use(middleware.Relayer(cfg.Relayer))
		for _, h := range public {
			h.Register(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(cfg.AdminValidator, cfg.Logger))
		for _, h := range admin {
			h.Register(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		for name, check := range checks {
			if resp.Checks == nil {
				resp.Checks = map[string]string{}
			}
			if err := check(r.Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
