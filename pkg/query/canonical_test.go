package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/domain"
)

func newTestExpCtx() *ExpressionContext {
	return NewExpressionContext(collation.NewCollator(nil), nil, nil)
}

func TestCanonicalizeBasicFilter(t *testing.T) {
	spec := &FindSpec{
		Namespace: "users",
		Filter:    map[string]interface{}{"age": map[string]interface{}{"$gt": 18}},
	}
	cq, err := Canonicalize(context.Background(), newTestExpCtx(), spec, false)
	require.NoError(t, err)
	assert.Equal(t, "users", cq.Namespace)
	assert.True(t, cq.Filter.Matches(domain.Document{"age": 20}, cq.Collator))
	assert.False(t, cq.Filter.Matches(domain.Document{"age": 10}, cq.Collator))
}

func TestCanonicalizeFilterParseError(t *testing.T) {
	spec := &FindSpec{
		Namespace: "users",
		Filter:    map[string]interface{}{"a": map[string]interface{}{"$regex": "x"}},
	}
	_, err := Canonicalize(context.Background(), newTestExpCtx(), spec, false)
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeBadValue))
}

func TestCanonicalizeRejectsEmptySortField(t *testing.T) {
	spec := &FindSpec{
		Namespace: "users",
		Sort:      SortSpec{{Field: ""}},
	}
	_, err := Canonicalize(context.Background(), newTestExpCtx(), spec, false)
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeBadValue))
}

func TestCanonicalizeRejectsNonPositiveLimit(t *testing.T) {
	zero := int64(0)
	spec := &FindSpec{Namespace: "users", Limit: &zero}
	_, err := Canonicalize(context.Background(), newTestExpCtx(), spec, false)
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeBadValue))
}

func TestCanonicalizeHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Canonicalize(ctx, newTestExpCtx(), &FindSpec{Namespace: "users"}, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCanonicalizeCountsExpressionsWhenActive(t *testing.T) {
	expCtx := newTestExpCtx()
	expCtx.StartExpressionCounters()

	spec := &FindSpec{
		Namespace: "users",
		Filter:    map[string]interface{}{"a": 1, "b": 2},
	}
	_, err := Canonicalize(context.Background(), expCtx, spec, false)
	require.NoError(t, err)
	// Two field conjuncts plus the implicit conjunction node.
	assert.Equal(t, int64(3), expCtx.MatchExprCount())
}

func TestCanonicalizeSkipsCountingWhenStopped(t *testing.T) {
	expCtx := newTestExpCtx()

	spec := &FindSpec{
		Namespace: "users",
		Filter:    map[string]interface{}{"a": 1},
	}
	_, err := Canonicalize(context.Background(), expCtx, spec, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), expCtx.MatchExprCount())
}

func TestCanonicalizeCarriesExplainAndLimit(t *testing.T) {
	limit := int64(1)
	spec := &FindSpec{Namespace: "users", Limit: &limit}
	cq, err := Canonicalize(context.Background(), newTestExpCtx(), spec, true)
	require.NoError(t, err)
	assert.True(t, cq.Explain)
	require.NotNil(t, cq.Limit)
	assert.Equal(t, int64(1), *cq.Limit)
}

func TestErrorCodeRoundTrip(t *testing.T) {
	err := Errorf(CodeInvalidOptions, "bad combination: %s", "sort")
	assert.True(t, HasCode(err, CodeInvalidOptions))
	assert.False(t, HasCode(err, CodeBadValue))
	assert.Contains(t, err.Error(), "bad combination")

	assert.False(t, HasCode(context.Canceled, CodeBadValue))
}

func TestYieldPolicyString(t *testing.T) {
	assert.Equal(t, "YIELD_AUTO", YieldAuto.String())
	assert.Equal(t, "YIELD_MANUAL", YieldManual.String())
	assert.Equal(t, "NO_YIELD", NoYield.String())
}
