package handler

import "net/http"

// ReplicationStatus handles GET /admin/replication/status.
func (h *Handlers) ReplicationStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	h.writeJSON(w, http.StatusOK, h.coordinator.Status(ctx))
}

// ForceConsistencyCheck handles POST /admin/consistency/check.
func (h *Handlers) ForceConsistencyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	report, err := h.coordinator.CheckConsistency(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// ClearCache handles POST /admin/cache/clear.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	cleared, err := h.coordinator.ClearCache(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "cleared",
		"entries": cleared,
	})
}
