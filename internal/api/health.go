package api

import (
	"context"
	"net/http"
	"time"

	"github.com/starford/aalifyx/internal/collection"
	"github.com/starford/aalifyx/internal/document"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientCounter reports the number of connected event stream clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler serves liveness, readiness, and diagnostics.
type HealthHandler struct {
	store   Pinger
	docs    *document.Service
	clients ClientCounter
	started time.Time
}

// NewHealthHandler creates a HealthHandler. docs and clients may be nil.
func NewHealthHandler(store Pinger, docs *document.Service, clients ClientCounter) *HealthHandler {
	return &HealthHandler{store: store, docs: docs, clients: clients, started: time.Now()}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. It fails while the session store is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Diagnostics handles GET /api/health.
func (h *HealthHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	storeStatus := "ok"
	if err := h.store.Ping(ctx); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
		storeStatus = err.Error()
	}

	body := map[string]any{
		"status":         status,
		"session_store":  storeStatus,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"collections":    collection.Kinds(),
	}
	if h.docs != nil {
		body["documents"] = h.docs.Capabilities()
	}
	if h.clients != nil {
		body["event_clients"] = h.clients.ClientCount()
	}
	writeJSON(w, code, body)
}
