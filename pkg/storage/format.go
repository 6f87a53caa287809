package storage

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/driftdb/driftdb/pkg/catalog"
	"github.com/driftdb/driftdb/pkg/domain"
)

const (
	// Magic bytes identifying the driftdb file format
	MagicBytes = "DRDB"
	// Current format version
	FormatVersion = 1
	// File extension for the on-disk format
	FileExtension = ".drift"
)

// FileHeader is the fixed-size header of a storage file. DataLen records the
// uncompressed payload size so loading can allocate exactly.
type FileHeader struct {
	Magic    [4]byte // "DRDB"
	Version  uint8
	Flags    uint8
	Reserved [2]byte
	DataLen  uint32
}

// WriteHeader writes the file header to the given writer
func WriteHeader(w io.Writer, dataLen uint32) error {
	header := FileHeader{
		Magic:   [4]byte{'D', 'R', 'D', 'B'},
		Version: FormatVersion,
		DataLen: dataLen,
	}
	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}
	return &header, nil
}

// StorageData is the persisted shape of the whole database
type StorageData struct {
	Collections map[string]map[string]domain.Document      `msgpack:"collections"`
	Catalogs    map[string]*catalog.Collection             `msgpack:"catalogs,omitempty"`
	Indexes     map[string]map[string]map[string][]string  `msgpack:"indexes,omitempty"`
	Metadata    map[string]interface{}                     `msgpack:"metadata,omitempty"`
}

// NewStorageData creates an empty storage data structure
func NewStorageData() *StorageData {
	return &StorageData{
		Collections: make(map[string]map[string]domain.Document),
		Catalogs:    make(map[string]*catalog.Collection),
		Indexes:     make(map[string]map[string]map[string][]string),
		Metadata:    make(map[string]interface{}),
	}
}
