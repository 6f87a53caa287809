package catalog

import (
	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/timeseries"
)

// Collection is a snapshot of a collection's schema metadata: its default
// collation and, for time-partitioned collections, its bucketing options.
// Callers hand snapshots to write-path compilers by reference and must keep
// the snapshot alive for the compiler's whole lifetime; the compiler only
// borrows it.
type Collection struct {
	Namespace        string             `json:"namespace" msgpack:"namespace"`
	DefaultCollation *collation.Spec    `json:"defaultCollation,omitempty" msgpack:"defaultCollation,omitempty"`
	Timeseries       *timeseries.Options `json:"timeseries,omitempty" msgpack:"timeseries,omitempty"`
}

// IsTimeseries reports whether the collection is time-partitioned
func (c *Collection) IsTimeseries() bool {
	return c != nil && c.Timeseries != nil
}

// TimeseriesOptions returns the time-partitioning options, nil for regular
// collections
func (c *Collection) TimeseriesOptions() *timeseries.Options {
	if c == nil {
		return nil
	}
	return c.Timeseries
}
