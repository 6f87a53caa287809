package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/query"
	"github.com/driftdb/driftdb/pkg/writes"
)

// deleteBody is the JSON shape of a delete command
type deleteBody struct {
	Query         map[string]interface{} `json:"query"`
	Sort          query.SortSpec         `json:"sort,omitempty"`
	Collation     *collation.Spec        `json:"collation,omitempty"`
	Hint          string                 `json:"hint,omitempty"`
	Multi         bool                   `json:"multi,omitempty"`
	ReturnDeleted bool                   `json:"returnDeleted,omitempty"`
	Projection    []string               `json:"projection,omitempty"`
	Let           map[string]interface{} `json:"let,omitempty"`
}

// HandleDelete handles POST requests that delete documents by predicate. The
// request body is compiled into a delete plan and executed; simple _id
// deletes take the point-lookup shortcut inside the engine.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleDelete called for collection '%s'", collName)

	var body deleteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("ERROR: Decoding delete body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The compiler treats these combinations as caller defects, so the
	// command layer rejects them before building a request.
	if body.ReturnDeleted && body.Multi {
		WriteJSONError(w, http.StatusBadRequest, "cannot return the deleted document from a multi delete")
		return
	}
	if len(body.Projection) > 0 && !body.ReturnDeleted {
		WriteJSONError(w, http.StatusBadRequest, "projection requires returnDeleted")
		return
	}

	snapshot, err := h.storage.Snapshot(collName)
	if err != nil {
		log.Printf("ERROR: Collection '%s' not found: %v", collName, err)
		WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	request := &writes.DeleteRequest{
		Namespace:     collName,
		Query:         body.Query,
		Sort:          body.Sort,
		Collation:     body.Collation,
		Hint:          body.Hint,
		Multi:         body.Multi,
		ReturnDeleted: body.ReturnDeleted,
		Projection:    body.Projection,
		Let:           body.Let,
		YieldPolicy:   query.YieldAuto,
	}

	parsedDelete := writes.NewParsedDelete(r.Context(), request, snapshot, snapshot.IsTimeseries())
	if err := parsedDelete.Parse(); err != nil {
		log.Printf("ERROR: Delete compilation failed for collection '%s': %v", collName, err)
		WriteQueryError(w, err)
		return
	}

	result, err := h.storage.ExecuteDelete(parsedDelete)
	if err != nil {
		log.Printf("ERROR: Delete execution failed for collection '%s': %v", collName, err)
		WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.storage.SaveCollectionAfterTransaction(collName); err != nil {
		log.Printf("WARN: Failed to save collection '%s' after delete: %v", collName, err)
		// Don't fail the request if save fails, just log the warning
	}

	log.Printf("INFO: Deleted %d documents from collection '%s'", result.DeletedCount, collName)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
