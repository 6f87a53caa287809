package matcher

import (
	"reflect"
	"strings"
	"time"

	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/domain"
)

// CompareOp identifies a field-level comparison operator
type CompareOp string

const (
	OpEq  CompareOp = "$eq"
	OpNe  CompareOp = "$ne"
	OpGt  CompareOp = "$gt"
	OpGte CompareOp = "$gte"
	OpLt  CompareOp = "$lt"
	OpLte CompareOp = "$lte"
)

// Expr is a parsed match expression node. Expressions are immutable once
// built and safe to share between goroutines.
type Expr interface {
	// Matches evaluates the expression against a document. String
	// comparisons go through the collator.
	Matches(doc domain.Document, coll *collation.Collator) bool
	// Serialize round-trips the expression back into a filter document
	Serialize() map[string]interface{}
}

// EqualityExpr matches documents whose field equals a literal value
type EqualityExpr struct {
	Field string
	Value interface{}
}

// CompareExpr matches documents whose field compares against a literal
// value under the given operator
type CompareExpr struct {
	Field string
	Op    CompareOp
	Value interface{}
}

// InExpr matches documents whose field equals any of the listed values
type InExpr struct {
	Field  string
	Values []interface{}
}

// ExistsExpr matches documents on field presence
type ExistsExpr struct {
	Field  string
	Exists bool
}

// AndExpr matches documents satisfying every child. An empty AndExpr
// matches everything, which is how the empty filter parses.
type AndExpr struct {
	Exprs []Expr
}

// OrExpr matches documents satisfying at least one child
type OrExpr struct {
	Exprs []Expr
}

// NotExpr matches documents the inner expression rejects
type NotExpr struct {
	Expr Expr
}

func (e *EqualityExpr) Matches(doc domain.Document, coll *collation.Collator) bool {
	actual, ok := LookupPath(doc, e.Field)
	if !ok {
		return e.Value == nil
	}
	return equalValues(actual, e.Value, coll)
}

func (e *EqualityExpr) Serialize() map[string]interface{} {
	return map[string]interface{}{e.Field: e.Value}
}

func (e *CompareExpr) Matches(doc domain.Document, coll *collation.Collator) bool {
	actual, exists := LookupPath(doc, e.Field)
	if !exists {
		// A missing field only satisfies $ne
		return e.Op == OpNe
	}
	switch e.Op {
	case OpEq:
		return equalValues(actual, e.Value, coll)
	case OpNe:
		return !equalValues(actual, e.Value, coll)
	}
	cmp, ok := CompareValues(actual, e.Value, coll)
	if !ok {
		return false
	}
	switch e.Op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

func (e *CompareExpr) Serialize() map[string]interface{} {
	return map[string]interface{}{e.Field: map[string]interface{}{string(e.Op): e.Value}}
}

func (e *InExpr) Matches(doc domain.Document, coll *collation.Collator) bool {
	actual, exists := LookupPath(doc, e.Field)
	if !exists {
		return false
	}
	for _, v := range e.Values {
		if equalValues(actual, v, coll) {
			return true
		}
	}
	return false
}

func (e *InExpr) Serialize() map[string]interface{} {
	return map[string]interface{}{e.Field: map[string]interface{}{"$in": e.Values}}
}

func (e *ExistsExpr) Matches(doc domain.Document, _ *collation.Collator) bool {
	_, exists := LookupPath(doc, e.Field)
	return exists == e.Exists
}

func (e *ExistsExpr) Serialize() map[string]interface{} {
	return map[string]interface{}{e.Field: map[string]interface{}{"$exists": e.Exists}}
}

func (e *AndExpr) Matches(doc domain.Document, coll *collation.Collator) bool {
	for _, sub := range e.Exprs {
		if !sub.Matches(doc, coll) {
			return false
		}
	}
	return true
}

func (e *AndExpr) Serialize() map[string]interface{} {
	if len(e.Exprs) == 0 {
		return map[string]interface{}{}
	}
	subs := make([]interface{}, 0, len(e.Exprs))
	for _, sub := range e.Exprs {
		subs = append(subs, sub.Serialize())
	}
	return map[string]interface{}{"$and": subs}
}

func (e *OrExpr) Matches(doc domain.Document, coll *collation.Collator) bool {
	for _, sub := range e.Exprs {
		if sub.Matches(doc, coll) {
			return true
		}
	}
	return false
}

func (e *OrExpr) Serialize() map[string]interface{} {
	subs := make([]interface{}, 0, len(e.Exprs))
	for _, sub := range e.Exprs {
		subs = append(subs, sub.Serialize())
	}
	return map[string]interface{}{"$or": subs}
}

func (e *NotExpr) Matches(doc domain.Document, coll *collation.Collator) bool {
	return !e.Expr.Matches(doc, coll)
}

func (e *NotExpr) Serialize() map[string]interface{} {
	return map[string]interface{}{"$nor": []interface{}{e.Expr.Serialize()}}
}

// CountNodes returns the number of expression nodes in the tree, used for
// per-operation expression accounting
func CountNodes(e Expr) int64 {
	switch t := e.(type) {
	case *AndExpr:
		n := int64(1)
		for _, sub := range t.Exprs {
			n += CountNodes(sub)
		}
		return n
	case *OrExpr:
		n := int64(1)
		for _, sub := range t.Exprs {
			n += CountNodes(sub)
		}
		return n
	case *NotExpr:
		return 1 + CountNodes(t.Expr)
	default:
		return 1
	}
}

// LookupPath resolves a dotted field path against nested documents
func LookupPath(doc domain.Document, path string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(doc)
	for {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		dot := strings.IndexByte(path, '.')
		if dot < 0 {
			v, exists := m[path]
			return v, exists
		}
		next, exists := m[path[:dot]]
		if !exists {
			return nil, false
		}
		current = next
		path = path[dot+1:]
	}
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case domain.Document:
		return m, true
	default:
		return nil, false
	}
}

// equalValues compares two values for equality, coercing numeric types and
// honoring the collation for strings
func equalValues(actual, expected interface{}, coll *collation.Collator) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if cmp, ok := CompareValues(actual, expected, coll); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(actual, expected)
}

// CompareValues orders two values when they are of comparable kinds. The
// second return is false for incomparable pairs.
func CompareValues(actual, expected interface{}, coll *collation.Collator) (int, bool) {
	if at, ok := actual.(time.Time); ok {
		if et, ok := asTime(expected); ok {
			return at.Compare(et), true
		}
		return 0, false
	}
	if et, ok := expected.(time.Time); ok {
		if at, ok := asTime(actual); ok {
			return at.Compare(et), true
		}
		return 0, false
	}
	if an, ok := ToFloat64(actual); ok {
		if en, ok := ToFloat64(expected); ok {
			switch {
			case an < en:
				return -1, true
			case an > en:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if as, ok := actual.(string); ok {
		if es, ok := expected.(string); ok {
			if coll == nil {
				return strings.Compare(as, es), true
			}
			return coll.Compare(as, es), true
		}
		return 0, false
	}
	if ab, ok := actual.(bool); ok {
		if eb, ok := expected.(bool); ok {
			switch {
			case ab == eb:
				return 0, true
			case !ab:
				return -1, true
			default:
				return 1, true
			}
		}
		return 0, false
	}
	return 0, false
}

// asTime accepts time values directly or as RFC 3339 strings, which is how
// timestamps arrive from JSON request bodies
func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

// ToFloat64 converts various numeric types to float64 for comparison
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
