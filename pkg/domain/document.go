package domain

// Document represents a document in the database
type Document map[string]interface{}

// Copy returns a shallow copy of the document
func (d Document) Copy() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Project returns a copy of the document restricted to the given fields.
// The _id field is always kept. An empty field list returns the full document.
func (d Document) Project(fields []string) Document {
	if len(fields) == 0 {
		return d
	}
	out := make(Document, len(fields)+1)
	if id, ok := d["_id"]; ok {
		out["_id"] = id
	}
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Collection represents a collection of documents
type Collection struct {
	Name      string              `json:"name"`
	Documents map[string]Document `json:"documents"`
}

// NewCollection creates a new collection
func NewCollection(name string) *Collection {
	return &Collection{
		Name:      name,
		Documents: make(map[string]Document),
	}
}
