package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/domain"
)

func parseOK(t *testing.T, filter map[string]interface{}) Expr {
	t.Helper()
	expr, err := Parse(filter)
	require.NoError(t, err)
	return expr
}

func TestParseEmptyFilterMatchesEverything(t *testing.T) {
	for _, filter := range []map[string]interface{}{nil, {}} {
		expr := parseOK(t, filter)
		assert.True(t, expr.Matches(domain.Document{"a": 1}, nil))
		assert.True(t, expr.Matches(domain.Document{}, nil))
	}
}

func TestEqualityMatching(t *testing.T) {
	expr := parseOK(t, map[string]interface{}{"name": "alice"})
	assert.True(t, expr.Matches(domain.Document{"name": "alice"}, nil))
	assert.False(t, expr.Matches(domain.Document{"name": "bob"}, nil))
	assert.False(t, expr.Matches(domain.Document{}, nil))
}

func TestEqualityWithNumericCoercion(t *testing.T) {
	// JSON decodes numbers to float64, msgpack to the narrowest integer
	// type, so cross-type numeric equality must hold.
	expr := parseOK(t, map[string]interface{}{"age": float64(30)})
	assert.True(t, expr.Matches(domain.Document{"age": int(30)}, nil))
	assert.True(t, expr.Matches(domain.Document{"age": int8(30)}, nil))
	assert.True(t, expr.Matches(domain.Document{"age": uint16(30)}, nil))
	assert.False(t, expr.Matches(domain.Document{"age": 31}, nil))
}

func TestComparisonOperators(t *testing.T) {
	doc := domain.Document{"age": 30}

	tests := []struct {
		filter map[string]interface{}
		want   bool
	}{
		{map[string]interface{}{"age": map[string]interface{}{"$gt": 29}}, true},
		{map[string]interface{}{"age": map[string]interface{}{"$gt": 30}}, false},
		{map[string]interface{}{"age": map[string]interface{}{"$gte": 30}}, true},
		{map[string]interface{}{"age": map[string]interface{}{"$lt": 31}}, true},
		{map[string]interface{}{"age": map[string]interface{}{"$lte": 29}}, false},
		{map[string]interface{}{"age": map[string]interface{}{"$ne": 30}}, false},
		{map[string]interface{}{"age": map[string]interface{}{"$ne": 31}}, true},
		{map[string]interface{}{"age": map[string]interface{}{"$eq": 30}}, true},
	}
	for _, tt := range tests {
		expr := parseOK(t, tt.filter)
		assert.Equal(t, tt.want, expr.Matches(doc, nil), "filter %v", tt.filter)
	}
}

func TestMissingFieldSatisfiesOnlyNe(t *testing.T) {
	doc := domain.Document{"other": 1}
	assert.True(t, parseOK(t, map[string]interface{}{
		"age": map[string]interface{}{"$ne": 30},
	}).Matches(doc, nil))
	assert.False(t, parseOK(t, map[string]interface{}{
		"age": map[string]interface{}{"$gt": 0},
	}).Matches(doc, nil))
	assert.False(t, parseOK(t, map[string]interface{}{
		"age": map[string]interface{}{"$lt": 100},
	}).Matches(doc, nil))
}

func TestInAndExists(t *testing.T) {
	doc := domain.Document{"status": "active"}

	in := parseOK(t, map[string]interface{}{
		"status": map[string]interface{}{"$in": []interface{}{"active", "pending"}},
	})
	assert.True(t, in.Matches(doc, nil))
	assert.False(t, in.Matches(domain.Document{"status": "closed"}, nil))
	assert.False(t, in.Matches(domain.Document{}, nil))

	exists := parseOK(t, map[string]interface{}{
		"status": map[string]interface{}{"$exists": true},
	})
	assert.True(t, exists.Matches(doc, nil))
	assert.False(t, exists.Matches(domain.Document{}, nil))

	absent := parseOK(t, map[string]interface{}{
		"status": map[string]interface{}{"$exists": false},
	})
	assert.False(t, absent.Matches(doc, nil))
	assert.True(t, absent.Matches(domain.Document{}, nil))
}

func TestLogicalOperators(t *testing.T) {
	and := parseOK(t, map[string]interface{}{"$and": []interface{}{
		map[string]interface{}{"a": 1},
		map[string]interface{}{"b": 2},
	}})
	assert.True(t, and.Matches(domain.Document{"a": 1, "b": 2}, nil))
	assert.False(t, and.Matches(domain.Document{"a": 1, "b": 3}, nil))

	or := parseOK(t, map[string]interface{}{"$or": []interface{}{
		map[string]interface{}{"a": 1},
		map[string]interface{}{"b": 2},
	}})
	assert.True(t, or.Matches(domain.Document{"a": 1}, nil))
	assert.True(t, or.Matches(domain.Document{"b": 2}, nil))
	assert.False(t, or.Matches(domain.Document{"c": 3}, nil))

	nor := parseOK(t, map[string]interface{}{"$nor": []interface{}{
		map[string]interface{}{"a": 1},
	}})
	assert.False(t, nor.Matches(domain.Document{"a": 1}, nil))
	assert.True(t, nor.Matches(domain.Document{"a": 2}, nil))
}

func TestNotOperator(t *testing.T) {
	expr := parseOK(t, map[string]interface{}{
		"age": map[string]interface{}{"$not": map[string]interface{}{"$gt": 30}},
	})
	assert.True(t, expr.Matches(domain.Document{"age": 25}, nil))
	assert.False(t, expr.Matches(domain.Document{"age": 35}, nil))
}

func TestDottedPathLookup(t *testing.T) {
	doc := domain.Document{
		"address": map[string]interface{}{
			"city": "oslo",
			"geo":  map[string]interface{}{"lat": 59.9},
		},
	}
	assert.True(t, parseOK(t, map[string]interface{}{"address.city": "oslo"}).Matches(doc, nil))
	assert.True(t, parseOK(t, map[string]interface{}{
		"address.geo.lat": map[string]interface{}{"$gt": 59},
	}).Matches(doc, nil))
	assert.False(t, parseOK(t, map[string]interface{}{"address.zip": "1234"}).Matches(doc, nil))
}

func TestTimeComparison(t *testing.T) {
	noon := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	doc := domain.Document{"ts": noon}

	// Timestamps arrive as RFC 3339 strings from JSON bodies.
	expr := parseOK(t, map[string]interface{}{
		"ts": map[string]interface{}{"$lt": "2026-08-02T00:00:00Z"},
	})
	assert.True(t, expr.Matches(doc, nil))

	expr = parseOK(t, map[string]interface{}{
		"ts": map[string]interface{}{"$gt": noon.Add(time.Hour)},
	})
	assert.False(t, expr.Matches(doc, nil))
}

func TestStringComparisonUsesCollator(t *testing.T) {
	expr := parseOK(t, map[string]interface{}{"name": "ALICE"})
	doc := domain.Document{"name": "alice"}

	assert.False(t, expr.Matches(doc, nil))

	insensitive := collation.NewCollator(&collation.Spec{
		Locale: "en", Strength: collation.StrengthSecondary,
	})
	assert.True(t, expr.Matches(doc, insensitive))
}

func TestSubDocumentWithoutOperatorsIsEqualityLiteral(t *testing.T) {
	expr := parseOK(t, map[string]interface{}{
		"geo": map[string]interface{}{"lat": 1.0, "lng": 2.0},
	})
	assert.True(t, expr.Matches(domain.Document{
		"geo": map[string]interface{}{"lat": 1.0, "lng": 2.0},
	}, nil))
	assert.False(t, expr.Matches(domain.Document{
		"geo": map[string]interface{}{"lat": 1.0},
	}, nil))
}

func TestParseErrors(t *testing.T) {
	bad := []map[string]interface{}{
		{"a": map[string]interface{}{"$regex": "x"}},
		{"a": map[string]interface{}{"$in": "not-an-array"}},
		{"a": map[string]interface{}{"$exists": "yes"}},
		{"$or": "not-an-array"},
		{"$or": []interface{}{}},
		{"$foo": []interface{}{map[string]interface{}{"a": 1}}},
	}
	for _, filter := range bad {
		_, err := Parse(filter)
		require.Error(t, err, "filter %v", filter)
		var pe *ParseError
		assert.ErrorAs(t, err, &pe)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	filters := []map[string]interface{}{
		{"name": "alice"},
		{"age": map[string]interface{}{"$gt": 18, "$lt": 65}},
		{"status": map[string]interface{}{"$in": []interface{}{"a", "b"}}},
		{"$or": []interface{}{
			map[string]interface{}{"a": 1},
			map[string]interface{}{"b": 2},
		}},
	}
	docs := []domain.Document{
		{"name": "alice", "age": 30, "status": "a", "a": 1},
		{"name": "bob", "age": 70, "status": "c", "b": 2},
		{"name": "carol", "age": 40, "status": "b", "c": 3},
	}
	for _, filter := range filters {
		orig := parseOK(t, filter)
		reparsed := parseOK(t, orig.Serialize())
		for _, doc := range docs {
			assert.Equal(t, orig.Matches(doc, nil), reparsed.Matches(doc, nil),
				"filter %v doc %v", filter, doc)
		}
	}
}

func TestCountNodes(t *testing.T) {
	assert.Equal(t, int64(1), CountNodes(parseOK(t, map[string]interface{}{"a": 1})))
	assert.Equal(t, int64(1), CountNodes(parseOK(t, map[string]interface{}{})))

	// Two field conjuncts under an implicit $and
	assert.Equal(t, int64(3), CountNodes(parseOK(t, map[string]interface{}{"a": 1, "b": 2})))

	// $or with two equality clauses
	assert.Equal(t, int64(3), CountNodes(parseOK(t, map[string]interface{}{
		"$or": []interface{}{
			map[string]interface{}{"a": 1},
			map[string]interface{}{"b": 2},
		},
	})))
}

func TestIsSimpleIDQuery(t *testing.T) {
	assert.True(t, IsSimpleIDQuery(map[string]interface{}{"_id": "abc"}))
	assert.True(t, IsSimpleIDQuery(map[string]interface{}{"_id": 42}))

	assert.False(t, IsSimpleIDQuery(nil))
	assert.False(t, IsSimpleIDQuery(map[string]interface{}{}))
	assert.False(t, IsSimpleIDQuery(map[string]interface{}{"name": "abc"}))
	assert.False(t, IsSimpleIDQuery(map[string]interface{}{"_id": "abc", "name": "x"}))
	assert.False(t, IsSimpleIDQuery(map[string]interface{}{
		"_id": map[string]interface{}{"$gt": "a"},
	}))
	assert.False(t, IsSimpleIDQuery(map[string]interface{}{
		"_id": []interface{}{"a", "b"},
	}))
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{float64(1.5), 1.5, true},
		{float32(2), 2, true},
		{int(3), 3, true},
		{int8(4), 4, true},
		{int16(5), 5, true},
		{int32(6), 6, true},
		{int64(7), 7, true},
		{uint(8), 8, true},
		{uint8(9), 9, true},
		{uint16(10), 10, true},
		{uint32(11), 11, true},
		{uint64(12), 12, true},
		{"13", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToFloat64(tt.in)
		assert.Equal(t, tt.ok, ok, "input %v", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %v", tt.in)
		}
	}
}
