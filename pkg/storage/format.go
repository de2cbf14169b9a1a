package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

const (
	// Magic bytes to identify our file format
	MagicBytes = "GODB"
	// Current version
	FormatVersion = 2
	// File extension for our optimized format
	FileExtension = ".godb"
)

// FileHeader represents the header of our storage file
type FileHeader struct {
	Magic    [4]byte // "GODB"
	Version  uint8   // Format version
	Flags    uint8   // Reserved for future use
	Reserved [2]byte // Reserved for future use
}

// WriteHeader writes the file header to the given writer
func WriteHeader(w io.Writer) error {
	header := FileHeader{
		Magic:    [4]byte{'G', 'O', 'D', 'B'},
		Version:  FormatVersion,
		Flags:    0,
		Reserved: [2]byte{0, 0},
	}

	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Validate magic bytes
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}

	// Validate version
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}

	return &header, nil
}

// Codec converts a document to and from its stored bytes
type Codec interface {
	Encode(doc *domain.Document) ([]byte, error)
	Decode(data []byte) (*domain.Document, error)
}

// JSONCodec stores the document as an indented JSON object mapping each
// collection name to its array of records.
type JSONCodec struct{}

func (JSONCodec) Encode(doc *domain.Document) ([]byte, error) {
	collections := doc.Collections
	if collections == nil {
		collections = map[string][]domain.Record{}
	}
	data, err := json.MarshalIndent(collections, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (*domain.Document, error) {
	var collections map[string][]domain.Record
	if err := json.Unmarshal(data, &collections); err != nil {
		return nil, &domain.ValidationError{Message: "failed to decode stored document", Err: err}
	}
	return &domain.Document{Collections: nonNilCollections(collections)}, nil
}

// GodbCodec stores the document in the binary .godb format: the file header
// followed by an lz4 frame of MessagePack-encoded collections.
type GodbCodec struct{}

func (GodbCodec) Encode(doc *domain.Document) ([]byte, error) {
	collections := doc.Collections
	if collections == nil {
		collections = map[string][]domain.Record{}
	}
	msgpackData, err := msgpack.Marshal(collections)
	if err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteHeader(&buf); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(msgpackData); err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	return buf.Bytes(), nil
}

func (GodbCodec) Decode(data []byte) (*domain.Document, error) {
	r := bytes.NewReader(data)
	if _, err := ReadHeader(r); err != nil {
		return nil, &domain.ValidationError{Message: "invalid file header", Err: err}
	}

	decompressedData, err := io.ReadAll(lz4.NewReader(r))
	if err != nil {
		return nil, &domain.ValidationError{Message: "failed to decompress data", Err: err}
	}

	var collections map[string][]domain.Record
	if err := msgpack.Unmarshal(decompressedData, &collections); err != nil {
		return nil, &domain.ValidationError{Message: "failed to decode MessagePack", Err: err}
	}
	return &domain.Document{Collections: nonNilCollections(collections)}, nil
}

func nonNilCollections(collections map[string][]domain.Record) map[string][]domain.Record {
	if collections == nil {
		return make(map[string][]domain.Record)
	}
	for name, records := range collections {
		if records == nil {
			collections[name] = []domain.Record{}
		}
	}
	return collections
}
