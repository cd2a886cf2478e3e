package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Nagraj23/shieldx-back/internal/api/respond"
)

// HealthPinger is implemented by stores that can verify their backing database.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// HealthHandler serves liveness and database health probes.
type HealthHandler struct {
	pinger HealthPinger
}

func NewHealthHandler(pinger HealthPinger) *HealthHandler { return &HealthHandler{pinger: pinger} }

// Live GET /api/health
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Database GET /api/health/db
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	if h.pinger == nil {
		respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.pinger.HealthPing(ctx); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "reachable"})
}
