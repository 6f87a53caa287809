package api

import (
	"encoding/json"
	"net/http"
)

// HealthResponse reports liveness and a coarse view of engine state
type HealthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Collections int    `json:"collections"`
}

// HandleHealth handles GET requests to the health check endpoint
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:      "healthy",
		Message:     "driftdb is running",
		Collections: h.storage.CollectionCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
