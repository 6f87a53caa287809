package query

import (
	"time"

	"github.com/driftdb/driftdb/pkg/collation"
)

// RuntimeConstants are the legacy per-operation constants some drivers still
// attach to write commands
type RuntimeConstants struct {
	LocalNow    time.Time `json:"localNow" msgpack:"localNow"`
	ClusterTime uint64    `json:"clusterTime,omitempty" msgpack:"clusterTime,omitempty"`
}

// ExpressionContext carries everything expression evaluation needs for one
// operation: the resolved collator, per-operation variable bindings, runtime
// constants, and expression-count instrumentation. It is owned by the
// compiler instance that created it and is not safe for concurrent use.
type ExpressionContext struct {
	Collator                *collation.Collator
	CollationMatchesDefault bool
	Variables               map[string]interface{}
	RuntimeConstants        *RuntimeConstants

	countersActive bool
	matchExprCount int64
}

// NewExpressionContext builds an expression context. Counters start stopped.
func NewExpressionContext(collator *collation.Collator, variables map[string]interface{}, constants *RuntimeConstants) *ExpressionContext {
	return &ExpressionContext{
		Collator:         collator,
		Variables:        variables,
		RuntimeConstants: constants,
	}
}

// StartExpressionCounters begins attributing parsed match-expression nodes
// to this operation's statistics
func (ec *ExpressionContext) StartExpressionCounters() {
	ec.countersActive = true
}

// StopExpressionCounters stops attribution. Expressions parsed afterwards
// are internal machinery, not user-authored predicates, and must not show up
// in user query statistics.
func (ec *ExpressionContext) StopExpressionCounters() {
	ec.countersActive = false
}

// CountMatchExprs records n parsed match-expression nodes if counters are
// active
func (ec *ExpressionContext) CountMatchExprs(n int64) {
	if ec.countersActive {
		ec.matchExprCount += n
	}
}

// MatchExprCount returns the number of user-authored match-expression nodes
// recorded so far
func (ec *ExpressionContext) MatchExprCount() int64 {
	return ec.matchExprCount
}
