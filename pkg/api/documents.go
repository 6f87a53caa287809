package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/driftdb/driftdb/pkg/domain"
)

// HandleGetById handles GET requests to retrieve a specific document by ID
func (h *Handler) HandleGetById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	docID := vars["id"]

	doc, err := h.storage.GetById(collName, docID)
	if err != nil {
		log.Printf("ERROR: Get failed for document '%s' in collection '%s': %v", docID, collName, err)
		WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// HandleUpdateById handles PATCH requests to partially update a document
func (h *Handler) HandleUpdateById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	docID := vars["id"]

	var updates domain.Document
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.storage.UpdateById(collName, docID, updates); err != nil {
		log.Printf("ERROR: Update failed for document '%s' in collection '%s': %v", docID, collName, err)
		WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.storage.SaveCollectionAfterTransaction(collName); err != nil {
		log.Printf("WARN: Failed to save collection '%s' after update: %v", collName, err)
	}

	log.Printf("INFO: Updated document '%s' in collection '%s'", docID, collName)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteById handles DELETE requests to remove a specific document by ID
func (h *Handler) HandleDeleteById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	docID := vars["id"]

	log.Printf("INFO: handleDeleteById called for collection '%s', document '%s'", collName, docID)

	if err := h.storage.DeleteById(collName, docID); err != nil {
		log.Printf("ERROR: Delete failed for document '%s' in collection '%s': %v", docID, collName, err)
		WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.storage.SaveCollectionAfterTransaction(collName); err != nil {
		log.Printf("WARN: Failed to save collection '%s' after delete: %v", collName, err)
		// Don't fail the request if save fails, just log the warning
	}

	log.Printf("INFO: Deleted document '%s' from collection '%s'", docID, collName)
	w.WriteHeader(http.StatusNoContent)
}
