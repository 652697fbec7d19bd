package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/edufinance/internal/usecase"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	blobs   usecase.BlobStore
	backend string
}

// NewHealthHandler creates a new HealthHandler for the named storage backend.
func NewHealthHandler(blobs usecase.BlobStore, backend string) *HealthHandler {
	return &HealthHandler{
		blobs:   blobs,
		backend: backend,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the blob store answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.blobs.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, h.backend+" unhealthy", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"storage": h.backend,
	})
}
