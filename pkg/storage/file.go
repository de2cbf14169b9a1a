package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// FileStorage stores the whole document in a single file, JSON by default or
// any other Codec (see GodbCodec). A missing or empty file reads as the
// default document. The file offers no conflict detection, so writes are
// never retried.
type FileStorage struct {
	path string
	opts storageOptions
}

var _ domain.Backend = (*FileStorage)(nil)

// NewFileStorage creates a file backend for path
func NewFileStorage(path string, options ...StorageOption) (*FileStorage, error) {
	if path == "" {
		return nil, domain.NewArgumentError("must provide the path to the file")
	}

	return &FileStorage{
		path: path,
		opts: applyOptions(options),
	}, nil
}

// Path returns the file the document is stored in
func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) Read(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.opts.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.opts.emptyDocument(), nil
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return s.opts.emptyDocument(), nil
	}

	return s.opts.codec.Decode(data)
}

// Write replaces the file. With merge writes enabled, collections present on
// disk but absent from doc are kept.
func (s *FileStorage) Write(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := doc
	if s.opts.mergeWrites {
		original, err := s.Read(ctx)
		if err != nil {
			return err
		}
		for name, records := range doc.Collections {
			original.SetCollection(name, records)
		}
		payload = original
	}

	data, err := s.opts.codec.Encode(payload)
	if err != nil {
		return err
	}
	return s.writeFile(data)
}

// writeFile replaces the file atomically through a temporary file in the
// same directory
func (s *FileStorage) writeFile(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := s.opts.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := afero.TempFile(s.opts.fs, dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.opts.fs.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.opts.fs.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := s.opts.fs.Rename(tmpName, s.path); err != nil {
		s.opts.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	s.opts.logger.Trace("wrote document", "path", s.path, "bytes", len(data))
	return nil
}
