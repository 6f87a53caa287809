package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/driftdb/driftdb/pkg/catalog"
	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/indexing"
	"github.com/driftdb/driftdb/pkg/matcher"
)

// CollectionState tracks a collection's persistence state
type CollectionState int

const (
	CollectionStateClean CollectionState = iota
	CollectionStateDirty
)

// CollectionInfo is per-collection bookkeeping kept by the engine
type CollectionInfo struct {
	Name          string
	DocumentCount int64
	State         CollectionState
	LastModified  time.Time
}

// Engine is the in-memory storage engine with single-file persistence.
// Collections are resident; parsed filter expressions are cached in an LRU
// keyed by the filter's canonical JSON form.
type Engine struct {
	mu          sync.RWMutex
	collections map[string]*domain.Collection
	infos       map[string]*CollectionInfo
	catalogs    map[string]*catalog.Collection
	indexEngine *indexing.Engine
	filterCache *lru.Cache[string, matcher.Expr]

	// Configuration
	dataDir         string
	dataFile        string
	filterCacheSize int
	backgroundSave  bool
	transactionSave bool
	saveInterval    time.Duration

	// Background workers
	backgroundWg sync.WaitGroup
	stopChan     chan struct{}
}

// NewEngine creates a storage engine with the given options applied
func NewEngine(options ...Option) *Engine {
	engine := &Engine{
		collections:     make(map[string]*domain.Collection),
		infos:           make(map[string]*CollectionInfo),
		catalogs:        make(map[string]*catalog.Collection),
		indexEngine:     indexing.NewEngine(),
		dataDir:         ".",
		filterCacheSize: 512,
		backgroundSave:  false,
		transactionSave: true,
		saveInterval:    5 * time.Minute,
		stopChan:        make(chan struct{}),
	}

	for _, option := range options {
		option(engine)
	}

	// The cache constructor only fails for a non-positive size, which the
	// options guard against.
	cache, err := lru.New[string, matcher.Expr](engine.filterCacheSize)
	if err != nil {
		panic(fmt.Sprintf("storage: bad filter cache size %d: %v", engine.filterCacheSize, err))
	}
	engine.filterCache = cache

	return engine
}

// IndexEngine returns the engine's index engine
func (se *Engine) IndexEngine() *indexing.Engine {
	return se.indexEngine
}

// IsTransactionSaveEnabled returns whether per-write saves are enabled
func (se *Engine) IsTransactionSaveEnabled() bool {
	return se.transactionSave
}

// parseFilter parses a filter document through the LRU cache. Filters repeat
// heavily across requests, so caching the parsed expression skips re-parsing
// the common ones.
func (se *Engine) parseFilter(filter map[string]interface{}) (matcher.Expr, error) {
	key, err := json.Marshal(filter)
	if err != nil {
		// Unmarshalable filters (channels, funcs) cannot come from the API
		// layer; parse without caching.
		return matcher.Parse(filter)
	}
	if expr, ok := se.filterCache.Get(string(key)); ok {
		return expr, nil
	}
	expr, err := matcher.Parse(filter)
	if err != nil {
		return nil, err
	}
	se.filterCache.Add(string(key), expr)
	return expr, nil
}

// getCollectionLocked fetches a collection; callers hold se.mu
func (se *Engine) getCollectionLocked(collName string) (*domain.Collection, error) {
	collection, exists := se.collections[collName]
	if !exists {
		return nil, fmt.Errorf("collection %s not found", collName)
	}
	return collection, nil
}

// markDirtyLocked flags a collection as needing persistence; callers hold
// se.mu
func (se *Engine) markDirtyLocked(collName string, countDelta int64) {
	info, exists := se.infos[collName]
	if !exists {
		return
	}
	info.State = CollectionStateDirty
	info.DocumentCount += countDelta
	info.LastModified = time.Now()
}
