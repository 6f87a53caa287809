package matcher

import (
	"fmt"
	"sort"
	"strings"
)

// ParseError reports a malformed filter document
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return e.Msg
}

func parseErrorf(format string, args ...interface{}) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// Parse builds a match expression from a filter document. An empty or nil
// filter parses to an expression that matches every document.
func Parse(filter map[string]interface{}) (Expr, error) {
	exprs, err := parseConjuncts(filter)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &AndExpr{Exprs: exprs}, nil
}

func parseConjuncts(filter map[string]interface{}) ([]Expr, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var exprs []Expr
	for _, key := range keys {
		value := filter[key]
		if strings.HasPrefix(key, "$") {
			expr, err := parseLogical(key, value)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
			continue
		}
		fieldExprs, err := parseField(key, value)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, fieldExprs...)
	}
	return exprs, nil
}

func parseLogical(op string, value interface{}) (Expr, error) {
	clauses, ok := value.([]interface{})
	if !ok || len(clauses) == 0 {
		return nil, parseErrorf("%s requires a non-empty array of filter documents", op)
	}
	subs := make([]Expr, 0, len(clauses))
	for _, clause := range clauses {
		m, ok := clause.(map[string]interface{})
		if !ok {
			return nil, parseErrorf("%s clauses must be filter documents", op)
		}
		sub, err := Parse(m)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	switch op {
	case "$and":
		return &AndExpr{Exprs: subs}, nil
	case "$or":
		return &OrExpr{Exprs: subs}, nil
	case "$nor":
		return &NotExpr{Expr: &OrExpr{Exprs: subs}}, nil
	default:
		return nil, parseErrorf("unknown top-level operator: %s", op)
	}
}

func parseField(field string, value interface{}) ([]Expr, error) {
	ops, ok := value.(map[string]interface{})
	if !ok || !hasOperatorKeys(ops) {
		// A plain literal, or a sub-document with no operators, is an
		// equality match.
		return []Expr{&EqualityExpr{Field: field, Value: value}}, nil
	}

	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var exprs []Expr
	for _, op := range keys {
		operand := ops[op]
		switch CompareOp(op) {
		case OpEq:
			exprs = append(exprs, &EqualityExpr{Field: field, Value: operand})
		case OpNe, OpGt, OpGte, OpLt, OpLte:
			exprs = append(exprs, &CompareExpr{Field: field, Op: CompareOp(op), Value: operand})
		default:
			switch op {
			case "$in":
				values, ok := operand.([]interface{})
				if !ok {
					return nil, parseErrorf("$in requires an array: field %q", field)
				}
				exprs = append(exprs, &InExpr{Field: field, Values: values})
			case "$exists":
				exists, ok := operand.(bool)
				if !ok {
					return nil, parseErrorf("$exists requires a boolean: field %q", field)
				}
				exprs = append(exprs, &ExistsExpr{Field: field, Exists: exists})
			case "$not":
				subOps, ok := operand.(map[string]interface{})
				if !ok {
					return nil, parseErrorf("$not requires an operator document: field %q", field)
				}
				inner, err := parseField(field, subOps)
				if err != nil {
					return nil, err
				}
				exprs = append(exprs, &NotExpr{Expr: &AndExpr{Exprs: inner}})
			default:
				return nil, parseErrorf("unknown operator %s for field %q", op, field)
			}
		}
	}
	return exprs, nil
}

func hasOperatorKeys(m map[string]interface{}) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// IsSimpleIDQuery reports whether a filter is a single top-level equality on
// the _id field against a scalar literal, with no other clauses or
// operators. Such deletes resolve through a point lookup and skip full
// canonicalization.
func IsSimpleIDQuery(filter map[string]interface{}) bool {
	if len(filter) != 1 {
		return false
	}
	value, ok := filter["_id"]
	if !ok {
		return false
	}
	switch value.(type) {
	case map[string]interface{}, []interface{}:
		return false
	}
	return true
}
