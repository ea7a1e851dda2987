package httpx

import (
	"net/http"

	"github.com/openutm/qualifier-host/internal/core"
)

// HealthHandlers provides readiness/liveness checks backed by the queue store.
type HealthHandlers struct {
	Queue core.JobQueue
}

// Health returns 200 when the queue store is reachable, 503 otherwise.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}

	if h.Queue != nil {
		if err := h.Queue.Health(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]string{"status": "degraded", "queue": err.Error()}
		}
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	WriteJSON(w, status, body)
}
