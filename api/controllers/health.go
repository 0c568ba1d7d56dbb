package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mathmindlabs/mathmind-backend/api/responses"
	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MathMind-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the backing stores before reporting ready. Nil
// dependencies are skipped so lighter deployments stay green.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MathMind-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(checks)
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			checks[name] = "up"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

// ReadinessDeps assembles the dependency map wired by cmd/api.
func ReadinessDeps(db, redis, bigquery pinger) map[string]pinger {
	deps := map[string]pinger{}
	if db != nil {
		deps["db"] = db
	}
	if redis != nil {
		deps["redis"] = redis
	}
	if bigquery != nil {
		deps["bigquery"] = bigquery
	}
	return deps
}
