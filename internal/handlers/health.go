package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// HealthHandler отвечает на /healthz.
type HealthHandler struct {
	Ping   Pinger
	Logger *zap.SugaredLogger
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			h.Logger.Errorw("Health: storage unavailable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
