package records

import (
	"context"
	"errors"
	"sync"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

var errWriteConflict = &domain.ConflictError{Message: "Write conflict!"}

// MockBackend provides an in-memory domain.Backend for testing that counts
// its calls and can be told to fail writes.
type MockBackend struct {
	mu         sync.Mutex
	doc        *domain.Document
	readCalls  int
	writeCalls int

	// failWrites returns an error for the given write call (1-based), or nil
	failWrites func(call int) error
	// beforeWrite runs before a successful write is stored
	beforeWrite func(call int, doc *domain.Document)
}

// NewMockBackend creates a mock backend seeded with collections
func NewMockBackend(collections map[string][]domain.Record) *MockBackend {
	doc := domain.NewDocument()
	for name, records := range collections {
		doc.SetCollection(name, records)
	}
	return &MockBackend{doc: doc}
}

func (m *MockBackend) Read(ctx context.Context) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readCalls++
	return m.doc.Clone(), nil
}

func (m *MockBackend) Write(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	m.writeCalls++
	call := m.writeCalls
	failWrites := m.failWrites
	beforeWrite := m.beforeWrite
	m.mu.Unlock()

	if failWrites != nil {
		if err := failWrites(call); err != nil {
			return err
		}
	}
	if beforeWrite != nil {
		beforeWrite(call, doc)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc.Clone()
	return nil
}

// GetReadCalls returns the number of Read calls
func (m *MockBackend) GetReadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCalls
}

// GetWriteCalls returns the number of Write calls
func (m *MockBackend) GetWriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeCalls
}

// Collection returns a copy of the stored records of a collection
func (m *MockBackend) Collection(name string) []domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Clone().Collection(name)
}

// RetryingMockBackend is a MockBackend whose conflicts are retryable
type RetryingMockBackend struct {
	*MockBackend
}

func (m *RetryingMockBackend) ShouldRetryWrite(err error) bool {
	return errors.Is(err, errWriteConflict) || domain.IsConflict(err)
}

// FailingReadBackend fails every read
type FailingReadBackend struct {
	err error
}

func (f *FailingReadBackend) Read(ctx context.Context) (*domain.Document, error) {
	return nil, f.err
}

func (f *FailingReadBackend) Write(ctx context.Context, doc *domain.Document) error {
	return errors.New("unexpected write")
}

func seedUsers() map[string][]domain.Record {
	return map[string][]domain.Record{
		"applications": {
			{"_id": "a1", "name": "a1"},
		},
		"users": {
			{"_id": float64(1), "name": "John"},
			{"_id": float64(23), "name": "Jane"},
		},
	}
}
