package storage

import (
	"fmt"
	"log"

	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/query"
	"github.com/driftdb/driftdb/pkg/writes"
)

// ExecuteDelete runs a compiled delete against the engine. The ParsedDelete
// must have been parsed successfully; the engine consumes its canonical
// query (when one exists) and performs the deletion.
func (se *Engine) ExecuteDelete(pd *writes.ParsedDelete) (*writes.DeleteResult, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	req := pd.Request()
	collection, err := se.getCollectionLocked(req.Namespace)
	if err != nil {
		return nil, err
	}

	// Simple _id equality deletes never produce a canonical query; they
	// resolve through a point lookup.
	if !pd.HasParsedQuery() {
		return se.deleteByIDLocked(collection, req)
	}

	cq := pd.ReleaseParsedQuery()
	if pd.IsTimeseriesDelete() {
		return se.deleteFromBucketsLocked(collection, pd, cq)
	}

	// Collect matches, order them if the request asked for a sorted
	// single-document delete, and honor the compiled limit.
	var matches []domain.Document
	for _, doc := range collection.Documents {
		if cq.Filter.Matches(doc, cq.Collator) {
			matches = append(matches, doc)
		}
	}
	if len(cq.Sort) > 0 {
		sortDocuments(matches, cq.Sort, cq)
	}
	limit := int64(len(matches))
	if cq.Limit != nil && *cq.Limit < limit {
		limit = *cq.Limit
	} else if !req.Multi && limit > 1 {
		limit = 1
	}

	result := &writes.DeleteResult{}
	for _, doc := range matches[:limit] {
		docID, _ := doc["_id"].(string)
		if docID == "" {
			docID = fmt.Sprint(doc["_id"])
		}
		se.indexEngine.UpdateAll(req.Namespace, docID, doc, nil)
		delete(collection.Documents, docID)
		result.DeletedCount++
		if req.ReturnDeleted && result.DeletedDocument == nil {
			result.DeletedDocument = doc.Project(req.Projection)
		}
	}
	if result.DeletedCount > 0 {
		se.markDirtyLocked(req.Namespace, -result.DeletedCount)
	}
	return result, nil
}

// deleteByIDLocked is the fast path for simple _id equality deletes
func (se *Engine) deleteByIDLocked(collection *domain.Collection, req *writes.DeleteRequest) (*writes.DeleteResult, error) {
	docID, ok := req.Query["_id"].(string)
	if !ok {
		docID = fmt.Sprint(req.Query["_id"])
	}
	doc, exists := collection.Documents[docID]
	if !exists {
		return &writes.DeleteResult{}, nil
	}

	se.indexEngine.UpdateAll(req.Namespace, docID, doc, nil)
	delete(collection.Documents, docID)
	se.markDirtyLocked(req.Namespace, -1)

	result := &writes.DeleteResult{DeletedCount: 1}
	if req.ReturnDeleted {
		result.DeletedDocument = doc.Project(req.Projection)
	}
	return result, nil
}

// deleteFromBucketsLocked deletes measurements from a time-partitioned
// collection. The canonical query's filter is the bucket-level predicate;
// candidate buckets are pruned with it, unpacked, and each measurement is
// re-checked against the residual predicate when one exists. A nil residual
// means the bucket-level predicate is exact and every measurement in a
// matching bucket qualifies.
func (se *Engine) deleteFromBucketsLocked(collection *domain.Collection, pd *writes.ParsedDelete, cq *query.CanonicalQuery) (*writes.DeleteResult, error) {
	req := pd.Request()
	residual := pd.ResidualExpr()
	result := &writes.DeleteResult{}

	if pd.IsEligibleForArbitraryTimeseriesDelete() {
		log.Printf("INFO: Unordered bucket delete on collection '%s'", req.Namespace)
	}

	done := false
	for bucketID, bucket := range collection.Documents {
		if done {
			break
		}
		if !cq.Filter.Matches(bucket, cq.Collator) {
			continue
		}

		data, _ := bucket["data"].([]interface{})
		var remaining []interface{}
		for i, raw := range data {
			measurement, ok := asDocument(raw)
			if !ok {
				remaining = append(remaining, raw)
				continue
			}
			if done || (residual != nil && !residual.Matches(measurement, cq.Collator)) {
				remaining = append(remaining, raw)
				continue
			}
			result.DeletedCount++
			if req.ReturnDeleted && result.DeletedDocument == nil {
				result.DeletedDocument = measurement.Project(req.Projection)
			}
			if !req.Multi {
				done = true
				remaining = append(remaining, data[i+1:]...)
				break
			}
		}

		if int64(len(data))-int64(len(remaining)) == 0 {
			continue
		}
		if !rebuildBucket(bucket, remaining) {
			delete(collection.Documents, bucketID)
		}
	}

	if result.DeletedCount > 0 {
		se.markDirtyLocked(req.Namespace, 0)
	}
	return result, nil
}
