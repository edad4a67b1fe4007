package controllers

import (
	"context"
	"net/http"

	"github.com/univlive/univlive-backend/api/responses"
	"github.com/univlive/univlive-backend/pkg/config"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

// ReadinessProbe is any dependency that can answer a liveness ping.
type ReadinessProbe interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-UnivLive-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every registered dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, probes map[string]ReadinessProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-UnivLive-Env", cfg.App.Env)
		for name, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
