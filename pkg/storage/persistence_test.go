package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdb/driftdb/pkg/domain"
	"github.com/driftdb/driftdb/pkg/timeseries"
	"github.com/driftdb/driftdb/pkg/writes"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "roundtrip"+FileExtension)

	se := NewEngine()
	_, err := se.Insert("users", domain.Document{"_id": "u1", "name": "alice", "age": 30})
	require.NoError(t, err)
	_, err = se.Insert("users", domain.Document{"_id": "u2", "name": "bob", "age": 20})
	require.NoError(t, err)
	require.NoError(t, se.CreateIndex("users", "name"))
	require.NoError(t, se.SaveToFile(dataFile))

	restored := NewEngine()
	require.NoError(t, restored.LoadFromFile(dataFile))

	doc, err := restored.GetById("users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", doc["name"])

	docs, err := restored.FindAll("users", nil)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	ids, indexed := restored.IndexEngine().Lookup("users", "name", "bob")
	require.True(t, indexed)
	assert.Equal(t, []string{"u2"}, ids)
}

func TestLoadFromMissingFileStartsEmpty(t *testing.T) {
	se := NewEngine()
	err := se.LoadFromFile(filepath.Join(t.TempDir(), "nothing"+FileExtension))
	require.NoError(t, err)

	_, err = se.GetCollection("users")
	assert.Error(t, err)
}

func TestTimeseriesCatalogSurvivesReload(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "ts"+FileExtension)

	se := NewEngine()
	require.NoError(t, se.CreateTimeseriesCollection("readings", &timeseries.Options{
		TimeField:   "ts",
		MetaField:   "sensor",
		Granularity: timeseries.GranularitySeconds,
	}, nil))
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	_, err := se.InsertMeasurement("readings", domain.Document{"ts": base, "sensor": "a", "temp": 10})
	require.NoError(t, err)
	_, err = se.InsertMeasurement("readings", domain.Document{"ts": base.Add(time.Minute), "sensor": "a", "temp": 35})
	require.NoError(t, err)
	require.NoError(t, se.SaveToFile(dataFile))

	restored := NewEngine()
	require.NoError(t, restored.LoadFromFile(dataFile))

	snapshot, err := restored.Snapshot("readings")
	require.NoError(t, err)
	require.True(t, snapshot.IsTimeseries())
	assert.Equal(t, "ts", snapshot.TimeseriesOptions().TimeField)

	// A split delete still works against the reloaded bucket documents.
	pd := writes.NewParsedDelete(context.Background(), &writes.DeleteRequest{
		Namespace: "readings",
		Query:     map[string]interface{}{"temp": map[string]interface{}{"$gt": 30}},
		Multi:     true,
	}, snapshot, true)
	require.NoError(t, pd.Parse())

	result, err := restored.ExecuteDelete(pd)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.DeletedCount)
}

func TestSaveCollectionAfterTransaction(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "txn"+FileExtension)

	se := NewEngine()
	require.NoError(t, se.LoadFromFile(dataFile)) // registers the data file
	_, err := se.Insert("users", domain.Document{"_id": "u1", "name": "alice"})
	require.NoError(t, err)
	require.NoError(t, se.SaveCollectionAfterTransaction("users"))

	restored := NewEngine()
	require.NoError(t, restored.LoadFromFile(dataFile))
	doc, err := restored.GetById("users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", doc["name"])

	// A clean collection does not trigger another save.
	require.NoError(t, se.SaveCollectionAfterTransaction("users"))
}

func TestSaveCollectionAfterTransactionDisabled(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "bg"+FileExtension)

	se := NewEngine(WithBackgroundSave(time.Hour))
	require.NoError(t, se.LoadFromFile(dataFile))
	_, err := se.Insert("users", domain.Document{"_id": "u1"})
	require.NoError(t, err)
	require.NoError(t, se.SaveCollectionAfterTransaction("users"))

	restored := NewEngine()
	require.NoError(t, restored.LoadFromFile(dataFile))
	_, err = restored.GetCollection("users")
	assert.Error(t, err)
}
