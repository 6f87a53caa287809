package indexing

import (
	"fmt"
	"sync"

	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/matcher"
)

// Index stores a mapping from a field's values to document IDs. Values are
// keyed by a canonical string form so numeric types that compare equal land
// in the same slot and the index survives serialization.
type Index struct {
	Field    string
	Inverted map[string][]string
}

// NewIndex creates an index on a specific field
func NewIndex(field string) *Index {
	return &Index{
		Field:    field,
		Inverted: make(map[string][]string),
	}
}

// indexKey canonicalizes a value for use as an index slot
func indexKey(value interface{}) string {
	if f, ok := matcher.ToFloat64(value); ok {
		return fmt.Sprintf("n:%v", f)
	}
	return fmt.Sprintf("%T:%v", value, value)
}

// Build indexes all documents in a collection by the index's field
func (idx *Index) Build(collection *domain.Collection) {
	for docID, doc := range collection.Documents {
		if val, ok := doc[idx.Field]; ok {
			key := indexKey(val)
			idx.Inverted[key] = append(idx.Inverted[key], docID)
		}
	}
}

// Query returns document IDs whose indexed field equals the given value
func (idx *Index) Query(value interface{}) []string {
	return idx.Inverted[indexKey(value)]
}

// Update maintains the index across an insert, update or delete. oldDoc is
// nil for inserts, newDoc is nil for deletes.
func (idx *Index) Update(docID string, oldDoc, newDoc domain.Document) {
	if oldDoc != nil {
		if oldVal, ok := oldDoc[idx.Field]; ok {
			key := indexKey(oldVal)
			docList := idx.Inverted[key]
			for i, id := range docList {
				if id == docID {
					idx.Inverted[key] = append(docList[:i], docList[i+1:]...)
					break
				}
			}
		}
	}
	if newDoc != nil {
		if newVal, ok := newDoc[idx.Field]; ok {
			key := indexKey(newVal)
			idx.Inverted[key] = append(idx.Inverted[key], docID)
		}
	}
}

// Engine manages the field indexes of every collection
type Engine struct {
	mu      sync.RWMutex
	indexes map[string]map[string]*Index // collection -> field -> index
}

// NewEngine creates an empty index engine
func NewEngine() *Engine {
	return &Engine{
		indexes: make(map[string]map[string]*Index),
	}
}

// CreateIndex creates an index on a field of a collection and builds it from
// the collection's current documents
func (e *Engine) CreateIndex(collName, field string, collection *domain.Collection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexes[collName] == nil {
		e.indexes[collName] = make(map[string]*Index)
	}
	if _, exists := e.indexes[collName][field]; exists {
		return fmt.Errorf("index on field %s already exists in collection %s", field, collName)
	}

	idx := NewIndex(field)
	if collection != nil {
		idx.Build(collection)
	}
	e.indexes[collName][field] = idx
	return nil
}

// DropIndex removes an index from a collection
func (e *Engine) DropIndex(collName, field string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indexes[collName][field]; !exists {
		return fmt.Errorf("index on field %s does not exist in collection %s", field, collName)
	}
	delete(e.indexes[collName], field)
	return nil
}

// Lookup returns document IDs matching value on an indexed field, or false
// when no index covers the field
func (e *Engine) Lookup(collName, field string, value interface{}) ([]string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, exists := e.indexes[collName][field]
	if !exists {
		return nil, false
	}
	return idx.Query(value), true
}

// UpdateAll maintains every index of a collection across a document change
func (e *Engine) UpdateAll(collName, docID string, oldDoc, newDoc domain.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, idx := range e.indexes[collName] {
		idx.Update(docID, oldDoc, newDoc)
	}
}

// ListIndexes returns the indexed field names of a collection
func (e *Engine) ListIndexes(collName string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var fields []string
	for field := range e.indexes[collName] {
		fields = append(fields, field)
	}
	return fields
}

// Export snapshots every index for persistence
func (e *Engine) Export() map[string]map[string]map[string][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]map[string]map[string][]string, len(e.indexes))
	for collName, byField := range e.indexes {
		out[collName] = make(map[string]map[string][]string, len(byField))
		for field, idx := range byField {
			inverted := make(map[string][]string, len(idx.Inverted))
			for key, ids := range idx.Inverted {
				inverted[key] = append([]string(nil), ids...)
			}
			out[collName][field] = inverted
		}
	}
	return out
}

// Import restores indexes from a persisted snapshot
func (e *Engine) Import(snapshot map[string]map[string]map[string][]string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for collName, byField := range snapshot {
		if e.indexes[collName] == nil {
			e.indexes[collName] = make(map[string]*Index)
		}
		for field, inverted := range byField {
			idx := NewIndex(field)
			for key, ids := range inverted {
				idx.Inverted[key] = append([]string(nil), ids...)
			}
			e.indexes[collName][field] = idx
		}
	}
}
