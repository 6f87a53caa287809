package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// HandleFind handles GET requests to find documents with filter criteria
// built from query parameters
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleFind called for collection '%s'", collName)

	// Parse query parameters into an equality filter
	filter := make(map[string]interface{})
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		if num, err := strconv.ParseFloat(value, 64); err == nil {
			filter[key] = num
		} else if b, err := strconv.ParseBool(value); err == nil {
			filter[key] = b
		} else {
			filter[key] = value
		}
	}

	docs, err := h.storage.FindAll(collName, filter)
	if err != nil {
		log.Printf("ERROR: Find failed for collection '%s': %v", collName, err)
		WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	log.Printf("INFO: Found %d documents in collection '%s' with filter %v", len(docs), collName, filter)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}
