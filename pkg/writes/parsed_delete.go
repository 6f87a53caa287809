package writes

import (
	"context"

	"github.com/driftdb/driftdb/pkg/catalog"
	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/matcher"
	"github.com/driftdb/driftdb/pkg/query"
	"github.com/driftdb/driftdb/pkg/timeseries"
)

// ParsedDelete compiles a DeleteRequest into a CanonicalQuery ready for the
// execution layer. It is a sequential build-then-consume object: Parse runs
// once, the compiled query is taken once, and the instance is then discarded.
//
// The catalog snapshot is borrowed: the caller must keep it valid for the
// whole lifetime of the ParsedDelete.
type ParsedDelete struct {
	ctx        context.Context
	request    *DeleteRequest
	collection *catalog.Collection

	expCtx         *query.ExpressionContext
	canonicalQuery *query.CanonicalQuery

	// timeseriesExprs is non-nil exactly when this is a delete against a
	// time-partitioned collection; Parse fills it with the split
	// bucket/residual predicate pair.
	timeseriesExprs *timeseries.QueryExprs
}

// NewParsedDelete builds a delete compiler for a request against the given
// collection snapshot. isTimeseriesDelete is the caller's marker that the
// operation targets the measurements of a time-partitioned collection; it
// only takes effect when the snapshot confirms the collection is
// time-partitioned.
func NewParsedDelete(ctx context.Context, request *DeleteRequest, collection *catalog.Collection, isTimeseriesDelete bool) *ParsedDelete {
	pd := &ParsedDelete{
		ctx:        ctx,
		request:    request,
		collection: collection,
	}
	if isTimeseriesDelete && collection.IsTimeseries() {
		pd.timeseriesExprs = &timeseries.QueryExprs{}
	}
	return pd
}

// Parse validates the request and compiles it. On success either a canonical
// query is held, or the fast path applied and none is needed. Errors are
// user-facing query errors; structural misuse of the API panics with a
// ContractViolationError.
func (pd *ParsedDelete) Parse() error {
	invariantInternal(pd.canonicalQuery == nil, "delete request parsed twice")
	validateRequest(pd.request)

	var defaultCollation *collation.Spec
	if pd.collection != nil {
		defaultCollation = pd.collection.DefaultCollation
	}
	collator, matchesDefault, err := collation.Resolve(pd.request.Collation, defaultCollation)
	if err != nil {
		return query.Errorf(query.CodeBadValue, "failed to resolve collation: %v", err)
	}

	pd.expCtx = query.NewExpressionContext(collator, pd.request.Let, pd.request.LegacyRuntimeConstants)
	pd.expCtx.CollationMatchesDefault = matchesDefault

	// Simple _id equality deletes resolve through a cheaper point-lookup
	// path downstream and skip canonicalization entirely. The _id field of
	// a time-partitioned collection is a bucket attribute, so the shortcut
	// does not apply there.
	if matcher.IsSimpleIDQuery(pd.request.Query) && pd.timeseriesExprs == nil {
		return nil
	}

	pd.expCtx.StartExpressionCounters()
	return pd.parseQueryToCQ()
}

// parseQueryToCQ assembles the canonicalizer input and delegates to it
func (pd *ParsedDelete) parseQueryToCQ() error {
	invariantInternal(pd.canonicalQuery == nil, "canonical query built twice")

	spec := &query.FindSpec{
		Namespace: pd.request.Namespace,
		Sort:      pd.request.Sort,
		Collation: pd.request.Collation,
		Hint:      pd.request.Hint,
	}

	if exprs := pd.timeseriesExprs; exprs != nil {
		origExpr, err := matcher.Parse(pd.request.Query)
		if err != nil {
			return query.Errorf(query.CodeFailedToParse, "failed to parse delete filter: %v", err)
		}
		pd.expCtx.CountMatchExprs(matcher.CountNodes(origExpr))

		// Split the user predicate so the bucket-level half can be pushed
		// down into the bucket scan. The collator decides which string
		// bounds the bucket summaries can prove.
		*exprs = *timeseries.Split(origExpr, *pd.collection.TimeseriesOptions(), pd.expCtx.Collator)

		// Everything parsed from here on is internal bucket machinery, not
		// a user-authored predicate, and must not be attributed to user
		// query statistics.
		pd.expCtx.StopExpressionCounters()

		invariantInternal(exprs.BucketExpr != nil,
			"bucket-level filter must not be nil")
		invariantInternal(timeseries.HasClosedBucketGuard(exprs.BucketExpr),
			"bucket-level filter must exclude closed buckets")

		spec.Filter = exprs.BucketExpr.Serialize()
	} else {
		spec.Filter = pd.request.Query
	}

	// A limit only applies when a findAndModify-style delete wants the
	// cheapest-first document under a sort. True multi deletes never carry
	// one: the delete stage must be able to skip documents removed from
	// under the scan without mistaking that for exhaustion.
	if !pd.request.Multi && len(pd.request.Sort) > 0 {
		if pd.timeseriesExprs != nil {
			return query.Errorf(query.CodeInvalidOptions,
				"cannot perform a findAndModify with a query and sort on a time-series collection")
		}
		limit := int64(1)
		spec.Limit = &limit
	}

	if rc := pd.request.LegacyRuntimeConstants; rc != nil {
		spec.RuntimeConstants = rc
	}
	if len(pd.request.Let) > 0 {
		spec.Variables = pd.request.Let
	}

	cq, err := query.Canonicalize(pd.ctx, pd.expCtx, spec, pd.request.Explain)
	if err != nil {
		return err
	}
	pd.canonicalQuery = cq
	return nil
}

// Request returns the delete specification this compiler was built from
func (pd *ParsedDelete) Request() *DeleteRequest {
	return pd.request
}

// HasParsedQuery reports whether a successful Parse stored a canonical query
// that has not yet been released
func (pd *ParsedDelete) HasParsedQuery() bool {
	return pd.canonicalQuery != nil
}

// ReleaseParsedQuery transfers ownership of the canonical query to the
// caller. Calling it when no query is held is a caller defect.
func (pd *ParsedDelete) ReleaseParsedQuery() *query.CanonicalQuery {
	invariantContract(pd.canonicalQuery != nil, "no parsed query to release")
	cq := pd.canonicalQuery
	pd.canonicalQuery = nil
	return cq
}

// YieldPolicy derives the effective yield policy for the plan. Privileged
// requests that bypass yielding always run NO_YIELD.
func (pd *ParsedDelete) YieldPolicy() query.YieldPolicy {
	if pd.request.BypassYielding {
		return query.NoYield
	}
	return pd.request.YieldPolicy
}

// ResidualExpr returns the per-measurement residual predicate of a
// time-partitioned delete, nil when the bucket-level predicate is exact or
// the delete is not time-partitioned
func (pd *ParsedDelete) ResidualExpr() matcher.Expr {
	if pd.timeseriesExprs == nil {
		return nil
	}
	return pd.timeseriesExprs.ResidualExpr
}

// BucketExpr returns the bucket-level predicate of a time-partitioned
// delete, nil otherwise
func (pd *ParsedDelete) BucketExpr() matcher.Expr {
	if pd.timeseriesExprs == nil {
		return nil
	}
	return pd.timeseriesExprs.BucketExpr
}

// IsTimeseriesDelete reports whether this delete runs against the buckets of
// a time-partitioned collection
func (pd *ParsedDelete) IsTimeseriesDelete() bool {
	return pd.timeseriesExprs != nil
}

// IsEligibleForArbitraryTimeseriesDelete reports whether the execution layer
// may delete bucket rows in arbitrary order: either every surviving row is
// still re-checked against a residual predicate, or the delete is non-multi
// and removes at most one measurement, so ordering across buckets cannot
// matter.
func (pd *ParsedDelete) IsEligibleForArbitraryTimeseriesDelete() bool {
	return pd.timeseriesExprs != nil && (pd.timeseriesExprs.ResidualExpr != nil || !pd.request.Multi)
}
