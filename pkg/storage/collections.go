package storage

import (
	"fmt"
	"time"

	"github.com/driftdb/driftdb/pkg/catalog"
	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/timeseries"
)

// CreateCollection creates a regular collection
func (se *Engine) CreateCollection(collName string) error {
	return se.createCollection(collName, nil, nil)
}

// CreateTimeseriesCollection creates a time-partitioned collection whose
// documents are stored as buckets
func (se *Engine) CreateTimeseriesCollection(collName string, opts *timeseries.Options, defaultCollation *collation.Spec) error {
	if opts == nil {
		return fmt.Errorf("timeseries collection %s requires options", collName)
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	return se.createCollection(collName, opts, defaultCollation)
}

func (se *Engine) createCollection(collName string, tsOpts *timeseries.Options, defaultCollation *collation.Spec) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if _, exists := se.collections[collName]; exists {
		return fmt.Errorf("collection %s already exists", collName)
	}

	se.collections[collName] = domain.NewCollection(collName)
	se.infos[collName] = &CollectionInfo{
		Name:         collName,
		State:        CollectionStateDirty,
		LastModified: time.Now(),
	}
	se.catalogs[collName] = &catalog.Collection{
		Namespace:        collName,
		DefaultCollation: defaultCollation,
		Timeseries:       tsOpts,
	}
	return nil
}

// CollectionCount returns the number of collections resident in the engine
func (se *Engine) CollectionCount() int {
	se.mu.RLock()
	defer se.mu.RUnlock()
	return len(se.collections)
}

// GetCollection returns a collection by name
func (se *Engine) GetCollection(collName string) (*domain.Collection, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	return se.getCollectionLocked(collName)
}

// Snapshot returns the catalog snapshot for a collection. The snapshot stays
// valid for as long as the collection exists; callers compiling a write
// against it must not outlive the collection.
func (se *Engine) Snapshot(collName string) (*catalog.Collection, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	cat, exists := se.catalogs[collName]
	if !exists {
		return nil, fmt.Errorf("collection %s not found", collName)
	}
	return cat, nil
}

// getOrCreateCollectionLocked creates the collection on first write, the way
// inserts into unknown collections have always behaved; callers hold se.mu
func (se *Engine) getOrCreateCollectionLocked(collName string) *domain.Collection {
	if collection, exists := se.collections[collName]; exists {
		return collection
	}
	collection := domain.NewCollection(collName)
	se.collections[collName] = collection
	se.infos[collName] = &CollectionInfo{
		Name:         collName,
		State:        CollectionStateDirty,
		LastModified: time.Now(),
	}
	se.catalogs[collName] = &catalog.Collection{Namespace: collName}
	return collection
}
