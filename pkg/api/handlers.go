package api

import (
	"github.com/driftdb/driftdb/pkg/catalog"
	"github.com/driftdb/driftdb/pkg/collation"
	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/timeseries"
	"github.com/driftdb/driftdb/pkg/writes"
)

// Engine is what the HTTP handlers need from the storage layer
type Engine interface {
	Insert(collName string, doc domain.Document) (string, error)
	InsertMeasurement(collName string, doc domain.Document) (string, error)
	GetById(collName, docID string) (domain.Document, error)
	UpdateById(collName, docID string, updates domain.Document) error
	DeleteById(collName, docID string) error
	FindAll(collName string, filter map[string]interface{}) ([]domain.Document, error)
	CreateCollection(collName string) error
	CreateTimeseriesCollection(collName string, opts *timeseries.Options, defaultCollation *collation.Spec) error
	Snapshot(collName string) (*catalog.Collection, error)
	ExecuteDelete(pd *writes.ParsedDelete) (*writes.DeleteResult, error)
	CreateIndex(collName, field string) error
	SaveCollectionAfterTransaction(collName string) error
	CollectionCount() int
}

// Handler provides HTTP handlers for the database API
type Handler struct {
	storage Engine
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(storage Engine) *Handler {
	return &Handler{storage: storage}
}
