// Package handler provides HTTP request handlers for vectordbd.
package handler

import (
	"net/http"
	"time"
)

// handleHealthz handles GET /healthz.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
