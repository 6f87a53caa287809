package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Collection lifecycle
	router.HandleFunc("/collections/{coll}", h.HandleCreateCollection).Methods("PUT")

	// Document operations
	router.HandleFunc("/collections/{coll}", h.HandleInsert).Methods("POST")
	router.HandleFunc("/collections/{coll}/find", h.HandleFind).Methods("GET")
	router.HandleFunc("/collections/{coll}/delete", h.HandleDelete).Methods("POST")

	// Document operations (by ID)
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleGetById).Methods("GET")
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleUpdateById).Methods("PATCH")
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleDeleteById).Methods("DELETE")

	// Index operations
	router.HandleFunc("/collections/{coll}/indexes/{field}", h.HandleCreateIndex).Methods("POST")

	// Health check
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
}
