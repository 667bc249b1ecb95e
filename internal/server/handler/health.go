package handler

import (
	"net/http"
	"time"
)

// HealthHandler sirve el health check.
type HealthHandler struct{}

// NewHealthHandler crea el handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HealthCheck responde que el proceso está vivo.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
