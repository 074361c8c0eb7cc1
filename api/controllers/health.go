package controllers

import (
	"net/http"

	"github.com/multifolks/multifolks-backend/api/responses"
	"github.com/multifolks/multifolks-backend/pkg/config"
	"github.com/multifolks/multifolks-backend/pkg/db"
	"github.com/multifolks/multifolks-backend/pkg/logger"
	"github.com/multifolks/multifolks-backend/pkg/redis"
	"github.com/multifolks/multifolks-backend/pkg/types"
)

// Healthz reports process liveness plus dependency reachability. The database
// is required; redis is optional and only degrades the report.
func Healthz(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Multifolks-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health.database", err)
				}
			} else {
				checks["database"] = "up"
			}
		} else {
			checks["database"] = "unconfigured"
			healthy = false
		}

		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "down"
				if logg != nil {
					logg.Warn(ctx, "health.redis")
				}
			} else {
				checks["redis"] = "up"
			}
		} else {
			checks["redis"] = "disabled"
		}

		status := "ok"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		responses.WriteSuccessStatus(w, code, types.HealthReport{Status: status, Checks: checks})
	}
}
