package writes

import (
	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/query"
)

// DeleteRequest is the caller-supplied specification of a delete operation.
// It is immutable for the lifetime of the ParsedDelete compiled from it.
type DeleteRequest struct {
	// Namespace names the target collection
	Namespace string `json:"namespace"`
	// Query is the match predicate selecting documents to delete
	Query map[string]interface{} `json:"query"`
	// Sort orders candidate documents; only meaningful for non-multi
	// deletes, where it selects which single document dies first
	Sort query.SortSpec `json:"sort,omitempty"`
	// Collation overrides the collection default for string comparisons
	Collation *collation.Spec `json:"collation,omitempty"`
	// Hint names an index the planner should prefer
	Hint string `json:"hint,omitempty"`
	// Multi allows the delete to affect more than one document
	Multi bool `json:"multi,omitempty"`
	// ReturnDeleted requests the deleted document back; incompatible with
	// Multi
	ReturnDeleted bool `json:"returnDeleted,omitempty"`
	// Projection restricts the returned document; requires ReturnDeleted
	Projection []string `json:"projection,omitempty"`
	// Let holds per-operation variable bindings
	Let map[string]interface{} `json:"let,omitempty"`
	// LegacyRuntimeConstants carries driver-supplied runtime constants
	LegacyRuntimeConstants *query.RuntimeConstants `json:"runtimeConstants,omitempty"`
	// Explain compiles the operation without intending to execute it
	Explain bool `json:"explain,omitempty"`
	// YieldPolicy selects the plan's yielding behavior
	YieldPolicy query.YieldPolicy `json:"-"`
	// BypassYielding forces NO_YIELD regardless of YieldPolicy; reserved
	// for privileged administrative operations
	BypassYielding bool `json:"-"`
}

// DeleteResult reports what a delete execution did
type DeleteResult struct {
	DeletedCount    int64           `json:"deletedCount"`
	DeletedDocument domain.Document `json:"deletedDocument,omitempty"`
}

// validateRequest enforces the structural contract on a delete
// specification before any heavier work. Violations are caller defects.
func validateRequest(req *DeleteRequest) {
	// Returning the deleted document is undefined for a multi-document
	// delete.
	invariantContract(!(req.ReturnDeleted && req.Multi),
		"cannot return the deleted document from a multi delete")

	// A projection is only meaningful when the deleted document is
	// returned.
	invariantContract(len(req.Projection) == 0 || req.ReturnDeleted,
		"cannot apply a projection without returning the deleted document")
}
