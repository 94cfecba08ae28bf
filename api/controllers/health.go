package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/playpalm/playpalm-backend/api/responses"
	"github.com/playpalm/playpalm-backend/pkg/config"
	"github.com/playpalm/playpalm-backend/pkg/logger"
)

// Pinger is the connectivity probe a health check runs against a backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

var startedAt = time.Now()

// Root serves the status banner at /.
func Root(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"service": "playpalm-backend",
			"status":  "ok",
			"env":     cfg.App.Env,
		})
	}
}

// Health reports uptime and per-dependency connectivity. A missing backend
// reports "disabled" rather than failing the check: the API is expected to
// keep serving from the local store without them.
func Health(cfg *config.Config, logg *logger.Logger, db, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{
			"database": probe(ctx, db),
			"redis":    probe(ctx, redis),
		}

		status := "ok"
		for name, result := range checks {
			if result != "ok" && result != "disabled" {
				status = "degraded"
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "dependency", name), "health check failed")
				}
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"status":         status,
			"env":            cfg.App.Env,
			"uptime_seconds": int(time.Since(startedAt).Seconds()),
			"checks":         checks,
		})
	}
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}
