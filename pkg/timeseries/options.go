package timeseries

import (
	"fmt"
	"time"
)

// Bucket document layout. Measurements inserted into a time-partitioned
// collection are grouped into bucket documents of the form
//
//	{_id, meta, control: {min: {...}, max: {...}, closed, count}, data: [...]}
//
// where control.min.f / control.max.f bound field f across every
// measurement held by the bucket.
const (
	BucketMetaField    = "meta"
	BucketDataField    = "data"
	ControlMinPrefix   = "control.min."
	ControlMaxPrefix   = "control.max."
	ControlClosedField = "control.closed"
	ControlCountField  = "control.count"
)

// Granularity selects how wide a time window each bucket covers
type Granularity string

const (
	GranularitySeconds Granularity = "seconds"
	GranularityMinutes Granularity = "minutes"
	GranularityHours   Granularity = "hours"
)

// BucketSpan returns the time window covered by a single bucket
func (g Granularity) BucketSpan() time.Duration {
	switch g {
	case GranularityMinutes:
		return 24 * time.Hour
	case GranularityHours:
		return 30 * 24 * time.Hour
	default:
		return time.Hour
	}
}

// Validate rejects unknown granularities
func (g Granularity) Validate() error {
	switch g {
	case GranularitySeconds, GranularityMinutes, GranularityHours, "":
		return nil
	}
	return fmt.Errorf("unknown timeseries granularity: %q", g)
}

// Options holds the time-partitioning parameters of a collection
type Options struct {
	TimeField   string      `json:"timeField" msgpack:"timeField"`
	MetaField   string      `json:"metaField,omitempty" msgpack:"metaField,omitempty"`
	Granularity Granularity `json:"granularity,omitempty" msgpack:"granularity,omitempty"`
}

// Validate checks the options as supplied at collection-creation time
func (o *Options) Validate() error {
	if o.TimeField == "" {
		return fmt.Errorf("timeseries options require a timeField")
	}
	return o.Granularity.Validate()
}
