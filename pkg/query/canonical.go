package query

import (
	"context"

	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/matcher"
)

// SortField is one component of a sort specification
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending,omitempty"`
}

// SortSpec is an ordered list of sort fields. Empty means unsorted.
type SortSpec []SortField

// FindSpec bundles the inputs to canonicalization: filter, sort, collation,
// hint, optional limit, and per-operation bindings
type FindSpec struct {
	Namespace        string
	Filter           map[string]interface{}
	Sort             SortSpec
	Collation        *collation.Spec
	Hint             string
	Limit            *int64
	Variables        map[string]interface{}
	RuntimeConstants *RuntimeConstants
}

// CanonicalQuery is the fully resolved, plan-ready form of a query. It is
// built at most once per compiler instance and handed to the execution layer
// by a single ownership transfer.
type CanonicalQuery struct {
	Namespace string
	Filter    matcher.Expr
	Sort      SortSpec
	Collator  *collation.Collator
	Hint      string
	Limit     *int64
	Explain   bool
	ExpCtx    *ExpressionContext
}

// Canonicalize validates and resolves a FindSpec into a CanonicalQuery.
// Filter parse failures and malformed sort or limit values come back as
// user-facing query errors.
func Canonicalize(ctx context.Context, expCtx *ExpressionContext, spec *FindSpec, explain bool) (*CanonicalQuery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filterExpr, err := matcher.Parse(spec.Filter)
	if err != nil {
		return nil, Errorf(CodeBadValue, "failed to parse filter: %v", err)
	}
	expCtx.CountMatchExprs(matcher.CountNodes(filterExpr))

	for _, sf := range spec.Sort {
		if sf.Field == "" {
			return nil, Errorf(CodeBadValue, "sort fields must be non-empty")
		}
	}
	if spec.Limit != nil && *spec.Limit <= 0 {
		return nil, Errorf(CodeBadValue, "limit must be positive, got %d", *spec.Limit)
	}

	collator := expCtx.Collator
	if collator == nil {
		collator = collation.NewCollator(spec.Collation)
	}

	return &CanonicalQuery{
		Namespace: spec.Namespace,
		Filter:    filterExpr,
		Sort:      spec.Sort,
		Collator:  collator,
		Hint:      spec.Hint,
		Limit:     spec.Limit,
		Explain:   explain,
		ExpCtx:    expCtx,
	}, nil
}
