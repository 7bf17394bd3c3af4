package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/cerevyn/internal/server/respond"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	Store Pinger
	Log   *zap.Logger
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.PingContext(ctx); err != nil {
		h.Log.Warn("health check failed", zap.Error(err))
		respond.JSON(w, http.StatusServiceUnavailable, respond.ErrorBody{
			Status:  respond.StatusError,
			Message: "store unavailable",
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
