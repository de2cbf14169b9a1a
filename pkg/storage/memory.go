package storage

import (
	"context"
	"strconv"
	"sync"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// MemoryStorage keeps the document in a host-managed slot in memory.
// Every write bumps a version; a write based on an older version than the
// one stored fails with a ConflictError unless the backend was created with
// WithForce. Safe for concurrent use.
type MemoryStorage struct {
	conflictClassifier

	mu      sync.RWMutex
	data    *domain.Document // nil until the first write
	version uint64
	opts    storageOptions
}

var _ domain.Backend = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory slot
func NewMemoryStorage(options ...StorageOption) *MemoryStorage {
	return &MemoryStorage{opts: applyOptions(options)}
}

// Read returns a copy of the stored document tagged with its version
func (m *MemoryStorage) Read(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var doc *domain.Document
	if m.data == nil {
		doc = m.opts.emptyDocument()
	} else {
		doc = m.data.Clone()
	}
	doc.Revision = strconv.FormatUint(m.version, 10)
	return doc, nil
}

// Write stores a copy of doc if it was read at the current version
func (m *MemoryStorage) Write(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := strconv.FormatUint(m.version, 10)
	if !m.opts.force && doc.Revision != current {
		return &domain.ConflictError{
			Message: "document was modified since revision " + doc.Revision + " (now " + current + ")",
		}
	}

	m.data = doc.Clone()
	m.data.Revision = ""
	m.version++
	return nil
}

// Version returns how many writes have been stored
func (m *MemoryStorage) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}
