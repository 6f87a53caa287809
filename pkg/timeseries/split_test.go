package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/matcher"
)

func testOptions() Options {
	return Options{
		TimeField:   "ts",
		MetaField:   "sensor",
		Granularity: GranularitySeconds,
	}
}

func mustParse(t *testing.T, filter map[string]interface{}) matcher.Expr {
	t.Helper()
	expr, err := matcher.Parse(filter)
	require.NoError(t, err)
	return expr
}

func TestSplitAlwaysGuardsClosedBuckets(t *testing.T) {
	filters := []map[string]interface{}{
		{},
		{"sensor": "a"},
		{"temp": map[string]interface{}{"$gt": 30}},
		{"$or": []interface{}{
			map[string]interface{}{"sensor": "a"},
			map[string]interface{}{"sensor": "b"},
		}},
	}
	for _, f := range filters {
		exprs := Split(mustParse(t, f), testOptions(), nil)
		require.NotNil(t, exprs.BucketExpr)
		assert.True(t, HasClosedBucketGuard(exprs.BucketExpr))
	}
}

func TestSplitMetaPredicateIsExact(t *testing.T) {
	exprs := Split(mustParse(t, map[string]interface{}{"sensor": "a"}), testOptions(), nil)

	// Meta predicates map exactly onto the bucket meta field, so nothing
	// survives to the residual.
	assert.Nil(t, exprs.ResidualExpr)

	openMatching := domain.Document{"meta": "a"}
	openOther := domain.Document{"meta": "b"}
	closed := domain.Document{
		"meta":    "a",
		"control": map[string]interface{}{"closed": true},
	}
	assert.True(t, exprs.BucketExpr.Matches(openMatching, nil))
	assert.False(t, exprs.BucketExpr.Matches(openOther, nil))
	assert.False(t, exprs.BucketExpr.Matches(closed, nil))
}

func TestSplitMetaSubPath(t *testing.T) {
	exprs := Split(mustParse(t, map[string]interface{}{"sensor.site": "lab"}), testOptions(), nil)
	assert.Nil(t, exprs.ResidualExpr)

	bucket := domain.Document{
		"meta": map[string]interface{}{"site": "lab"},
	}
	assert.True(t, exprs.BucketExpr.Matches(bucket, nil))
}

func TestSplitEqualityOnMeasurementField(t *testing.T) {
	exprs := Split(mustParse(t, map[string]interface{}{"temp": 25}), testOptions(), nil)

	// The bucket filter keeps only buckets whose bounds can contain the
	// value; the exact check stays in the residual.
	require.NotNil(t, exprs.ResidualExpr)

	containing := domain.Document{
		"control": map[string]interface{}{
			"min": map[string]interface{}{"temp": 10},
			"max": map[string]interface{}{"temp": 40},
		},
	}
	below := domain.Document{
		"control": map[string]interface{}{
			"min": map[string]interface{}{"temp": 30},
			"max": map[string]interface{}{"temp": 40},
		},
	}
	assert.True(t, exprs.BucketExpr.Matches(containing, nil))
	assert.False(t, exprs.BucketExpr.Matches(below, nil))

	measurement := domain.Document{"temp": 25}
	other := domain.Document{"temp": 26}
	assert.True(t, exprs.ResidualExpr.Matches(measurement, nil))
	assert.False(t, exprs.ResidualExpr.Matches(other, nil))
}

func TestSplitRangeOnTimeField(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	exprs := Split(mustParse(t, map[string]interface{}{
		"ts": map[string]interface{}{"$lt": cutoff},
	}), testOptions(), nil)

	require.NotNil(t, exprs.ResidualExpr)

	// $lt prunes on the bucket's minimum: a bucket whose oldest
	// measurement is past the cutoff cannot contain a match.
	oldBucket := domain.Document{
		"control": map[string]interface{}{
			"min": map[string]interface{}{"ts": time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	newBucket := domain.Document{
		"control": map[string]interface{}{
			"min": map[string]interface{}{"ts": time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	assert.True(t, exprs.BucketExpr.Matches(oldBucket, nil))
	assert.False(t, exprs.BucketExpr.Matches(newBucket, nil))
}

func TestSplitGreaterThanUsesMaxBound(t *testing.T) {
	exprs := Split(mustParse(t, map[string]interface{}{
		"temp": map[string]interface{}{"$gt": 30},
	}), testOptions(), nil)

	require.NotNil(t, exprs.ResidualExpr)

	hot := domain.Document{
		"control": map[string]interface{}{
			"max": map[string]interface{}{"temp": 45},
		},
	}
	cold := domain.Document{
		"control": map[string]interface{}{
			"max": map[string]interface{}{"temp": 20},
		},
	}
	assert.True(t, exprs.BucketExpr.Matches(hot, nil))
	assert.False(t, exprs.BucketExpr.Matches(cold, nil))
}

func TestSplitDisjunctionIsResidualOnly(t *testing.T) {
	filter := map[string]interface{}{"$or": []interface{}{
		map[string]interface{}{"temp": map[string]interface{}{"$gt": 30}},
		map[string]interface{}{"humidity": map[string]interface{}{"$lt": 10}},
	}}
	exprs := Split(mustParse(t, filter), testOptions(), nil)

	// Disjunctions cannot be mapped onto bucket bounds conjunct by
	// conjunct, so the whole predicate lands in the residual and the
	// bucket filter is just the guard.
	require.NotNil(t, exprs.ResidualExpr)
	anyOpen := domain.Document{"meta": "x"}
	assert.True(t, exprs.BucketExpr.Matches(anyOpen, nil))
}

func TestSplitMixedConjunction(t *testing.T) {
	filter := map[string]interface{}{
		"sensor": "a",
		"temp":   map[string]interface{}{"$gte": 30},
	}
	exprs := Split(mustParse(t, filter), testOptions(), nil)

	require.NotNil(t, exprs.ResidualExpr)

	// The residual keeps only the measurement-level conjunct.
	assert.True(t, exprs.ResidualExpr.Matches(domain.Document{"temp": 35}, nil))
	assert.False(t, exprs.ResidualExpr.Matches(domain.Document{"temp": 20}, nil))

	bucket := domain.Document{
		"meta": "a",
		"control": map[string]interface{}{
			"max": map[string]interface{}{"temp": 50},
		},
	}
	wrongMeta := domain.Document{
		"meta": "b",
		"control": map[string]interface{}{
			"max": map[string]interface{}{"temp": 50},
		},
	}
	assert.True(t, exprs.BucketExpr.Matches(bucket, nil))
	assert.False(t, exprs.BucketExpr.Matches(wrongMeta, nil))
}

func TestSplitNeverFiltersBucketsContainingMatches(t *testing.T) {
	// The bucket predicate must be implied by the original one: any
	// measurement matching the original filter must live in a bucket the
	// bucket predicate accepts.
	filter := map[string]interface{}{
		"temp": map[string]interface{}{"$gt": 30, "$lt": 50},
	}
	orig := mustParse(t, filter)
	exprs := Split(orig, testOptions(), nil)

	measurements := []domain.Document{
		{"temp": 31}, {"temp": 49}, {"temp": 40},
	}
	bucket := domain.Document{
		"control": map[string]interface{}{
			"min": map[string]interface{}{"temp": 31},
			"max": map[string]interface{}{"temp": 49},
		},
	}
	for _, m := range measurements {
		require.True(t, orig.Matches(m, nil))
	}
	assert.True(t, exprs.BucketExpr.Matches(bucket, nil))
}

func TestSplitNestedFieldIsResidualOnly(t *testing.T) {
	// Bucket summaries only track top-level fields, so a dotted path on a
	// non-meta field cannot be bounded. The bucket filter must stay
	// guard-only or it would prune buckets that hold matches.
	exprs := Split(mustParse(t, map[string]interface{}{"env.room": "lab"}), testOptions(), nil)

	require.NotNil(t, exprs.ResidualExpr)

	bucket := domain.Document{
		"meta":    "a",
		"control": map[string]interface{}{"min": map[string]interface{}{}, "max": map[string]interface{}{}},
	}
	assert.True(t, exprs.BucketExpr.Matches(bucket, nil))
	assert.True(t, exprs.ResidualExpr.Matches(domain.Document{
		"env": map[string]interface{}{"room": "lab"},
	}, nil))
}

func TestSplitNonScalarLiteralIsResidualOnly(t *testing.T) {
	// Equality against a sub-document has no summary to prove it.
	exprs := Split(mustParse(t, map[string]interface{}{
		"geo": map[string]interface{}{"lat": 1.0},
	}), testOptions(), nil)

	require.NotNil(t, exprs.ResidualExpr)
	anyOpen := domain.Document{"meta": "x"}
	assert.True(t, exprs.BucketExpr.Matches(anyOpen, nil))
}

func TestSplitStringBoundsRequireBinaryCollation(t *testing.T) {
	filter := map[string]interface{}{"level": "A"}

	// Binary comparison matches the ordering the summaries were built
	// with, so the bound is usable.
	binary := Split(mustParse(t, filter), testOptions(), nil)
	pruned := domain.Document{
		"control": map[string]interface{}{
			"min": map[string]interface{}{"level": "B"},
			"max": map[string]interface{}{"level": "C"},
		},
	}
	assert.False(t, binary.BucketExpr.Matches(pruned, nil))

	// Under a case-insensitive collation the binary min/max can exclude a
	// bucket that holds a match ({"B","a"} has binary min "B" > "A"), so
	// the conjunct must stay residual-only.
	insensitive := collation.NewCollator(&collation.Spec{
		Locale: "en", Strength: collation.StrengthSecondary,
	})
	collated := Split(mustParse(t, filter), testOptions(), insensitive)
	require.NotNil(t, collated.ResidualExpr)

	mixedCase := domain.Document{
		"control": map[string]interface{}{
			"min": map[string]interface{}{"level": "B"},
			"max": map[string]interface{}{"level": "a"},
		},
	}
	assert.True(t, collated.BucketExpr.Matches(mixedCase, insensitive))
	assert.True(t, collated.ResidualExpr.Matches(domain.Document{"level": "a"}, insensitive))
	assert.False(t, collated.ResidualExpr.Matches(domain.Document{"level": "B"}, insensitive))
}

func TestGranularityBucketSpan(t *testing.T) {
	assert.Equal(t, time.Hour, GranularitySeconds.BucketSpan())
	assert.Equal(t, 24*time.Hour, GranularityMinutes.BucketSpan())
	assert.Equal(t, 720*time.Hour, GranularityHours.BucketSpan())
}

func TestOptionsValidate(t *testing.T) {
	valid := testOptions()
	assert.NoError(t, valid.Validate())

	missingTime := Options{MetaField: "sensor", Granularity: GranularitySeconds}
	assert.Error(t, missingTime.Validate())

	badGranularity := Options{TimeField: "ts", Granularity: Granularity("weeks")}
	assert.Error(t, badGranularity.Validate())
}
