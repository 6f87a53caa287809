package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/driftdb/driftdb/pkg/domain"
)

// HandleInsert handles POST requests to insert documents into collections.
// Inserts into time-partitioned collections go through the bucketing path.
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleInsert called for collection '%s'", collName)

	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		docID string
		err   error
	)
	if snapshot, snapErr := h.storage.Snapshot(collName); snapErr == nil && snapshot.IsTimeseries() {
		docID, err = h.storage.InsertMeasurement(collName, doc)
	} else {
		docID, err = h.storage.Insert(collName, doc)
	}
	if err != nil {
		log.Printf("ERROR: Insert failed for collection '%s': %v", collName, err)
		WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.storage.SaveCollectionAfterTransaction(collName); err != nil {
		log.Printf("WARN: Failed to save collection '%s' after insert: %v", collName, err)
	}

	log.Printf("INFO: Insert successful for collection '%s' (id '%s')", collName, docID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"_id": docID})
}
