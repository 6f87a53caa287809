package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/timeseries"
)

// createCollectionBody configures a new collection. Timeseries options make
// it time-partitioned.
type createCollectionBody struct {
	Timeseries       *timeseries.Options `json:"timeseries,omitempty"`
	DefaultCollation *collation.Spec     `json:"defaultCollation,omitempty"`
}

// HandleCreateCollection handles PUT requests to create a collection
func (h *Handler) HandleCreateCollection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleCreateCollection called for collection '%s'", collName)

	var body createCollectionBody
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			log.Printf("ERROR: Decoding body failed: %v", err)
			WriteJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var err error
	if body.Timeseries != nil {
		err = h.storage.CreateTimeseriesCollection(collName, body.Timeseries, body.DefaultCollation)
	} else {
		err = h.storage.CreateCollection(collName)
	}
	if err != nil {
		log.Printf("ERROR: Create collection '%s' failed: %v", collName, err)
		WriteJSONError(w, http.StatusConflict, err.Error())
		return
	}

	log.Printf("INFO: Created collection '%s'", collName)
	w.WriteHeader(http.StatusCreated)
}

// HandleCreateIndex handles POST requests to create an index on a field
func (h *Handler) HandleCreateIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	field := vars["field"]

	log.Printf("INFO: handleCreateIndex called for collection '%s', field '%s'", collName, field)

	if err := h.storage.CreateIndex(collName, field); err != nil {
		log.Printf("ERROR: Create index failed for field '%s' in collection '%s': %v", field, collName, err)
		WriteJSONError(w, http.StatusConflict, err.Error())
		return
	}

	log.Printf("INFO: Created index on field '%s' in collection '%s'", field, collName)
	w.WriteHeader(http.StatusCreated)
}
