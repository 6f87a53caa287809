package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/matcher"
)

// maxBucketCount caps how many measurements a bucket accepts before
// spilling into a sibling bucket for the same window
const maxBucketCount = 1000

// InsertMeasurement inserts a measurement into a time-partitioned
// collection, grouping it into a bucket document keyed by meta value and
// time window. Returns the bucket ID the measurement landed in.
func (se *Engine) InsertMeasurement(collName string, measurement domain.Document) (string, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	cat, exists := se.catalogs[collName]
	if !exists || !cat.IsTimeseries() {
		return "", fmt.Errorf("collection %s is not a timeseries collection", collName)
	}
	opts := cat.TimeseriesOptions()

	rawTime, ok := matcher.LookupPath(measurement, opts.TimeField)
	if !ok {
		return "", fmt.Errorf("measurement is missing time field %q", opts.TimeField)
	}
	t, ok := asTime(rawTime)
	if !ok {
		return "", fmt.Errorf("time field %q is not a timestamp: %v", opts.TimeField, rawTime)
	}

	var meta interface{}
	if opts.MetaField != "" {
		meta = measurement[opts.MetaField]
	}

	collection, err := se.getCollectionLocked(collName)
	if err != nil {
		return "", err
	}

	window := t.UTC().Truncate(opts.Granularity.BucketSpan())
	bucket, bucketID := se.openBucketLocked(collection, window, meta)
	appendMeasurement(bucket, measurement)
	se.markDirtyLocked(collName, 0)

	return bucketID, nil
}

// CloseBucket marks a bucket as closed. Closed buckets are immutable and
// ineligible for deletion.
func (se *Engine) CloseBucket(collName, bucketID string) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	collection, err := se.getCollectionLocked(collName)
	if err != nil {
		return err
	}
	bucket, exists := collection.Documents[bucketID]
	if !exists {
		return fmt.Errorf("bucket %s not found in collection %s", bucketID, collName)
	}
	control := bucketControl(bucket)
	control["closed"] = true
	se.markDirtyLocked(collName, 0)
	return nil
}

// openBucketLocked finds or creates an open bucket for the given window and
// meta value; callers hold se.mu
func (se *Engine) openBucketLocked(collection *domain.Collection, window time.Time, meta interface{}) (domain.Document, string) {
	metaKey, _ := json.Marshal(meta)
	base := fmt.Sprintf("%s|%s", window.Format(time.RFC3339), metaKey)

	for i := 0; ; i++ {
		bucketID := base
		if i > 0 {
			bucketID = fmt.Sprintf("%s#%d", base, i)
		}
		bucket, exists := collection.Documents[bucketID]
		if !exists {
			bucket = domain.Document{
				"_id":  bucketID,
				"meta": meta,
				"control": map[string]interface{}{
					"min":    map[string]interface{}{},
					"max":    map[string]interface{}{},
					"closed": false,
					"count":  int64(0),
				},
				"data": []interface{}{},
			}
			collection.Documents[bucketID] = bucket
			return bucket, bucketID
		}
		control := bucketControl(bucket)
		if closed, _ := control["closed"].(bool); closed {
			continue
		}
		if count := bucketCount(control); count >= maxBucketCount {
			continue
		}
		return bucket, bucketID
	}
}

// appendMeasurement adds a measurement to a bucket and maintains the
// control.min/control.max summaries
func appendMeasurement(bucket domain.Document, measurement domain.Document) {
	control := bucketControl(bucket)
	minDoc, _ := control["min"].(map[string]interface{})
	maxDoc, _ := control["max"].(map[string]interface{})

	for field, value := range measurement {
		switch value.(type) {
		case map[string]interface{}, domain.Document, []interface{}:
			// Summaries only cover scalar fields
			continue
		}
		if cur, ok := minDoc[field]; !ok {
			minDoc[field] = value
		} else if cmp, ok2 := matcher.CompareValues(value, cur, nil); ok2 && cmp < 0 {
			minDoc[field] = value
		}
		if cur, ok := maxDoc[field]; !ok {
			maxDoc[field] = value
		} else if cmp, ok2 := matcher.CompareValues(value, cur, nil); ok2 && cmp > 0 {
			maxDoc[field] = value
		}
	}

	data, _ := bucket["data"].([]interface{})
	bucket["data"] = append(data, map[string]interface{}(measurement))
	control["count"] = bucketCount(control) + 1
}

// rebuildBucket recomputes a bucket's summaries after measurements were
// removed. Returns false when the bucket is empty and should be dropped.
func rebuildBucket(bucket domain.Document, remaining []interface{}) bool {
	if len(remaining) == 0 {
		return false
	}
	control := bucketControl(bucket)
	control["min"] = map[string]interface{}{}
	control["max"] = map[string]interface{}{}
	control["count"] = int64(0)
	bucket["data"] = []interface{}{}
	for _, m := range remaining {
		doc, ok := asDocument(m)
		if !ok {
			continue
		}
		appendMeasurement(bucket, doc)
	}
	return true
}

// bucketControl returns the control document of a bucket, tolerating the
// map types produced by deserialization
func bucketControl(bucket domain.Document) map[string]interface{} {
	control, _ := bucket["control"].(map[string]interface{})
	if control == nil {
		control = map[string]interface{}{
			"min":    map[string]interface{}{},
			"max":    map[string]interface{}{},
			"closed": false,
			"count":  int64(0),
		}
		bucket["control"] = control
	}
	if _, ok := control["min"].(map[string]interface{}); !ok {
		control["min"] = map[string]interface{}{}
	}
	if _, ok := control["max"].(map[string]interface{}); !ok {
		control["max"] = map[string]interface{}{}
	}
	return control
}

func bucketCount(control map[string]interface{}) int64 {
	if n, ok := matcher.ToFloat64(control["count"]); ok {
		return int64(n)
	}
	return 0
}

// IsClosedBucket reports whether a bucket document is marked closed
func IsClosedBucket(bucket domain.Document) bool {
	control := bucketControl(bucket)
	closed, _ := control["closed"].(bool)
	return closed
}

func asDocument(v interface{}) (domain.Document, bool) {
	switch m := v.(type) {
	case domain.Document:
		return m, true
	case map[string]interface{}:
		return m, true
	default:
		return nil, false
	}
}

// asTime accepts native time values or RFC 3339 strings
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
