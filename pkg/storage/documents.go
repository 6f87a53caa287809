package storage

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/matcher"
	"github.com/driftdb/driftdb/pkg/query"
)

// Insert inserts a document into a collection, creating the collection on
// first write. The generated document ID is returned; a caller-supplied
// string _id is kept.
func (se *Engine) Insert(collName string, doc domain.Document) (string, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	collection := se.getOrCreateCollectionLocked(collName)

	docID, ok := doc["_id"].(string)
	if !ok || docID == "" {
		docID = uuid.NewString()
		doc["_id"] = docID
	}
	if _, exists := collection.Documents[docID]; exists {
		return "", fmt.Errorf("document with id %s already exists in collection %s", docID, collName)
	}

	se.indexEngine.UpdateAll(collName, docID, nil, doc)
	collection.Documents[docID] = doc
	se.markDirtyLocked(collName, 1)

	return docID, nil
}

// GetById retrieves a specific document by its ID
func (se *Engine) GetById(collName, docID string) (domain.Document, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	collection, err := se.getCollectionLocked(collName)
	if err != nil {
		return nil, err
	}
	doc, exists := collection.Documents[docID]
	if !exists {
		return nil, fmt.Errorf("document with id %s not found in collection %s", docID, collName)
	}
	return doc, nil
}

// UpdateById applies partial updates to a specific document by its ID
func (se *Engine) UpdateById(collName, docID string, updates domain.Document) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	collection, err := se.getCollectionLocked(collName)
	if err != nil {
		return err
	}
	doc, exists := collection.Documents[docID]
	if !exists {
		return fmt.Errorf("document with id %s not found in collection %s", docID, collName)
	}

	oldDoc := doc.Copy()
	for key, value := range updates {
		if key != "_id" { // The document ID is immutable
			doc[key] = value
		}
	}

	se.indexEngine.UpdateAll(collName, docID, oldDoc, doc)
	se.markDirtyLocked(collName, 0)
	return nil
}

// DeleteById removes a specific document by its ID
func (se *Engine) DeleteById(collName, docID string) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	collection, err := se.getCollectionLocked(collName)
	if err != nil {
		return err
	}
	doc, exists := collection.Documents[docID]
	if !exists {
		return fmt.Errorf("document with id %s not found in collection %s", docID, collName)
	}

	se.indexEngine.UpdateAll(collName, docID, doc, nil)
	delete(collection.Documents, docID)
	se.markDirtyLocked(collName, -1)
	return nil
}

// FindAll returns documents matching the given filter. A nil or empty filter
// returns every document.
func (se *Engine) FindAll(collName string, filter map[string]interface{}) ([]domain.Document, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	collection, err := se.getCollectionLocked(collName)
	if err != nil {
		return nil, err
	}

	expr, err := se.parseFilter(filter)
	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	for _, doc := range collection.Documents {
		if expr.Matches(doc, nil) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// sortDocuments orders documents by a sort spec under a collator. Documents
// missing a sort field order before documents carrying it.
func sortDocuments(docs []domain.Document, spec query.SortSpec, cq *query.CanonicalQuery) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, sf := range spec {
			vi, oki := matcher.LookupPath(docs[i], sf.Field)
			vj, okj := matcher.LookupPath(docs[j], sf.Field)
			if !oki || !okj {
				if oki == okj {
					continue
				}
				less := !oki
				if sf.Descending {
					less = !less
				}
				return less
			}
			cmp, ok := matcher.CompareValues(vi, vj, cq.Collator)
			if !ok || cmp == 0 {
				continue
			}
			if sf.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
