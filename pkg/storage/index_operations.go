package storage

// CreateIndex creates an index on a field and builds it from the
// collection's current documents
func (se *Engine) CreateIndex(collName, field string) error {
	se.mu.RLock()
	collection, err := se.getCollectionLocked(collName)
	se.mu.RUnlock()
	if err != nil {
		return err
	}
	return se.indexEngine.CreateIndex(collName, field, collection)
}

// ListIndexes returns the indexed field names of a collection
func (se *Engine) ListIndexes(collName string) []string {
	return se.indexEngine.ListIndexes(collName)
}
