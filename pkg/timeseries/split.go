package timeseries

import (
	"strings"
	"time"

	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/matcher"
)

// QueryExprs holds the two halves of a split delete predicate. BucketExpr is
// evaluated against bucket documents to prune whole buckets at the storage
// layer; it is a necessary condition for any contained measurement to match.
// ResidualExpr is evaluated per measurement after unpacking and is nil only
// when BucketExpr is exact.
type QueryExprs struct {
	BucketExpr   matcher.Expr
	ResidualExpr matcher.Expr
}

// ClosedBucketGuard is the conjunct excluding buckets that have been closed
// and are no longer eligible for deletion. Every bucket-level predicate
// produced by Split carries it.
func ClosedBucketGuard() matcher.Expr {
	return &matcher.CompareExpr{Field: ControlClosedField, Op: matcher.OpNe, Value: true}
}

// HasClosedBucketGuard reports whether the top-level conjuncts of an
// expression include the closed-bucket guard
func HasClosedBucketGuard(expr matcher.Expr) bool {
	for _, conjunct := range flattenConjuncts(expr) {
		if cmp, ok := conjunct.(*matcher.CompareExpr); ok {
			if cmp.Field == ControlClosedField && cmp.Op == matcher.OpNe && cmp.Value == true {
				return true
			}
		}
	}
	return false
}

// Split rewrites a match expression over measurements into a bucket-level
// expression over bucket summary fields plus an optional residual. coll is
// the operation's resolved collator. Each top-level conjunct is mapped
// independently:
//
//   - predicates on the meta field map directly onto the bucket's meta field
//     and are exact, since every measurement in a bucket shares its meta;
//   - equality and range predicates on other fields, the time field included,
//     map onto control.min/control.max bounds and keep a residual, since
//     bucket bounds cannot prove a per-measurement match. Bounds apply only
//     when the summaries can actually prove them: the field must be a
//     top-level path, the operand a comparable scalar, and string operands
//     need the binary collator the summaries were ordered with;
//   - anything else ($or, $not, $exists, $in on non-meta fields, and every
//     conjunct the summaries cannot bound) contributes nothing bucket-level
//     and survives whole in the residual.
//
// The returned bucket expression always includes the closed-bucket guard.
func Split(expr matcher.Expr, opts Options, coll *collation.Collator) *QueryExprs {
	bucketConjuncts := []matcher.Expr{ClosedBucketGuard()}
	var residualConjuncts []matcher.Expr

	for _, conjunct := range flattenConjuncts(expr) {
		mapped, exact := mapConjunct(conjunct, opts, coll)
		if mapped != nil {
			bucketConjuncts = append(bucketConjuncts, mapped)
		}
		if mapped == nil || !exact {
			residualConjuncts = append(residualConjuncts, conjunct)
		}
	}

	out := &QueryExprs{BucketExpr: &matcher.AndExpr{Exprs: bucketConjuncts}}
	switch len(residualConjuncts) {
	case 0:
	case 1:
		out.ResidualExpr = residualConjuncts[0]
	default:
		out.ResidualExpr = &matcher.AndExpr{Exprs: residualConjuncts}
	}
	return out
}

// flattenConjuncts unrolls nested $and nodes into a flat conjunct list
func flattenConjuncts(expr matcher.Expr) []matcher.Expr {
	and, ok := expr.(*matcher.AndExpr)
	if !ok {
		return []matcher.Expr{expr}
	}
	var out []matcher.Expr
	for _, sub := range and.Exprs {
		out = append(out, flattenConjuncts(sub)...)
	}
	return out
}

// mapConjunct derives the strongest bucket-level predicate implied by a
// single conjunct. The second return reports exactness: whether the mapped
// predicate alone proves the original conjunct for every measurement in a
// matching bucket.
func mapConjunct(conjunct matcher.Expr, opts Options, coll *collation.Collator) (matcher.Expr, bool) {
	switch e := conjunct.(type) {
	case *matcher.EqualityExpr:
		if metaField, ok := metaPath(e.Field, opts); ok {
			return &matcher.EqualityExpr{Field: metaField, Value: e.Value}, true
		}
		if !boundable(e.Field, e.Value, coll) {
			return nil, false
		}
		return boundsForValue(e.Field, e.Value), false
	case *matcher.CompareExpr:
		if metaField, ok := metaPath(e.Field, opts); ok {
			return &matcher.CompareExpr{Field: metaField, Op: e.Op, Value: e.Value}, true
		}
		if !boundable(e.Field, e.Value, coll) {
			return nil, false
		}
		switch e.Op {
		case matcher.OpEq:
			return boundsForValue(e.Field, e.Value), false
		case matcher.OpGt, matcher.OpGte:
			// Some measurement exceeds v only if the bucket max does
			return &matcher.CompareExpr{Field: ControlMaxPrefix + e.Field, Op: e.Op, Value: e.Value}, false
		case matcher.OpLt, matcher.OpLte:
			return &matcher.CompareExpr{Field: ControlMinPrefix + e.Field, Op: e.Op, Value: e.Value}, false
		default:
			// $ne excludes a point, which bucket bounds cannot express
			return nil, false
		}
	case *matcher.InExpr:
		if metaField, ok := metaPath(e.Field, opts); ok {
			return &matcher.InExpr{Field: metaField, Values: e.Values}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

// boundable reports whether the bucket's control summaries can prove a bound
// on field against value. The summaries cover only top-level scalar fields
// and are maintained with binary ordering, so dotted paths, non-scalar
// operands, and string operands under a non-binary collator cannot be
// bounded; those conjuncts stay residual-only.
func boundable(field string, value interface{}, coll *collation.Collator) bool {
	if strings.Contains(field, ".") {
		return false
	}
	switch value.(type) {
	case string:
		return coll.Binary()
	case bool, time.Time:
		return true
	}
	_, ok := matcher.ToFloat64(value)
	return ok
}

// boundsForValue is the bucket-level implication of field == value:
// control.min.field <= value <= control.max.field
func boundsForValue(field string, value interface{}) matcher.Expr {
	return &matcher.AndExpr{Exprs: []matcher.Expr{
		&matcher.CompareExpr{Field: ControlMinPrefix + field, Op: matcher.OpLte, Value: value},
		&matcher.CompareExpr{Field: ControlMaxPrefix + field, Op: matcher.OpGte, Value: value},
	}}
}

// metaPath maps a measurement-side field onto the bucket's meta field when
// the field is the meta field or one of its sub-paths
func metaPath(field string, opts Options) (string, bool) {
	if opts.MetaField == "" {
		return "", false
	}
	if field == opts.MetaField {
		return BucketMetaField, true
	}
	if strings.HasPrefix(field, opts.MetaField+".") {
		return BucketMetaField + strings.TrimPrefix(field, opts.MetaField), true
	}
	return "", false
}
