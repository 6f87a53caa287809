package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/driftdb/driftdb/pkg/catalog"
	"github.com/driftdb/driftdb/pkg/domain"
)

// SaveToFile saves every collection, catalog entry and index to a single
// compressed file
func (se *Engine) SaveToFile(filename string) error {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.saveToFileLocked(filename)
}

func (se *Engine) saveToFileLocked(filename string) error {
	storageData := NewStorageData()
	for collName, collection := range se.collections {
		docs := make(map[string]domain.Document, len(collection.Documents))
		for docID, doc := range collection.Documents {
			docs[docID] = doc
		}
		storageData.Collections[collName] = docs
	}
	storageData.Catalogs = se.catalogs
	storageData.Indexes = se.indexEngine.Export()

	msgpackData, err := msgpack.Marshal(storageData)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	compressedData := make([]byte, lz4.CompressBlockBound(len(msgpackData)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(msgpackData, compressedData, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	compressedData = compressedData[:n]

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := WriteHeader(file, uint32(len(msgpackData))); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := file.Write(compressedData); err != nil {
		return fmt.Errorf("failed to write compressed data: %w", err)
	}

	for _, info := range se.infos {
		info.State = CollectionStateClean
	}
	return nil
}

// LoadFromFile restores the database from a file written by SaveToFile. A
// missing file is not an error; the engine starts empty.
func (se *Engine) LoadFromFile(filename string) error {
	se.dataFile = filename

	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	header, err := ReadHeader(file)
	if err != nil {
		return fmt.Errorf("invalid file header: %w", err)
	}
	compressedData, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read compressed data: %w", err)
	}

	decompressedData := make([]byte, header.DataLen)
	n, err := lz4.UncompressBlock(compressedData, decompressedData)
	if err != nil {
		return fmt.Errorf("failed to decompress data: %w", err)
	}
	decompressedData = decompressedData[:n]

	var storageData StorageData
	if err := msgpack.Unmarshal(decompressedData, &storageData); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	se.mu.Lock()
	defer se.mu.Unlock()

	for collName, docs := range storageData.Collections {
		collection := domain.NewCollection(collName)
		for docID, doc := range docs {
			collection.Documents[docID] = doc
		}
		se.collections[collName] = collection
		se.infos[collName] = &CollectionInfo{
			Name:          collName,
			DocumentCount: int64(len(docs)),
			State:         CollectionStateClean,
			LastModified:  time.Now(),
		}
	}
	for collName, cat := range storageData.Catalogs {
		se.catalogs[collName] = cat
	}
	for collName := range se.collections {
		if _, ok := se.catalogs[collName]; !ok {
			se.catalogs[collName] = &catalog.Collection{Namespace: collName}
		}
	}
	if len(storageData.Indexes) > 0 {
		se.indexEngine.Import(storageData.Indexes)
	}

	log.Printf("INFO: Loaded %d collections from %s", len(storageData.Collections), filename)
	return nil
}

// SaveCollectionAfterTransaction persists state after a write when
// per-transaction saves are enabled and the collection is dirty
func (se *Engine) SaveCollectionAfterTransaction(collName string) error {
	if !se.transactionSave || se.dataFile == "" {
		return nil
	}

	se.mu.RLock()
	info, exists := se.infos[collName]
	dirty := exists && info.State == CollectionStateDirty
	se.mu.RUnlock()
	if !dirty {
		return nil
	}

	return se.SaveToFile(se.dataFile)
}
