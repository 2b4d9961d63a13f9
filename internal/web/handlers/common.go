package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthHandler reports liveness and which media index backend is active.
type HealthHandler struct {
	backend func() string
}

// NewHealthHandler creates a health handler. backend may be nil.
func NewHealthHandler(backend func() string) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Get handles the health check endpoint.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	index := "none"
	if h.backend != nil {
		if b := h.backend(); b != "" {
			index = b
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"media_index": index,
	})
}
