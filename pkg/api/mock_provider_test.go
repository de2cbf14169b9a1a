package api

import (
	"context"
	"sync"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// MockRecordProvider provides a mock implementation of domain.RecordProvider for testing
type MockRecordProvider struct {
	mu          sync.RWMutex
	collections map[string][]domain.Record
	createCalls int
	updateCalls int
	deleteCalls int

	// err, if set, is returned by every operation
	err error
}

// NewMockRecordProvider creates a new mock record provider
func NewMockRecordProvider() *MockRecordProvider {
	return &MockRecordProvider{
		collections: make(map[string][]domain.Record),
	}
}

func (m *MockRecordProvider) GetAll(ctx context.Context, collName string) ([]domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	records := make([]domain.Record, 0, len(m.collections[collName]))
	for _, record := range m.collections[collName] {
		records = append(records, record.Clone())
	}
	return records, nil
}

func (m *MockRecordProvider) Get(ctx context.Context, collName, id string) (domain.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	if index := m.indexOf(collName, id); index > -1 {
		return m.collections[collName][index].Clone(), nil
	}
	return nil, &domain.NotFoundError{Collection: collName, ID: id}
}

func (m *MockRecordProvider) Create(ctx context.Context, collName string, record domain.Record) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.err != nil {
		return nil, m.err
	}

	stored := record.Clone()
	id, ok := domain.IdentifierOf(stored)
	if !ok {
		id = "generated"
		stored[domain.IDField] = id
	}
	if m.indexOf(collName, id) > -1 {
		return nil, domain.NewValidationError("the record %s in %s already exists", id, collName)
	}

	m.collections[collName] = append(m.collections[collName], stored)
	return stored.Clone(), nil
}

func (m *MockRecordProvider) Update(ctx context.Context, collName, id string, patch domain.Record, upsert bool) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	if m.err != nil {
		return nil, m.err
	}

	index := m.indexOf(collName, id)
	if index < 0 && !upsert {
		return nil, &domain.NotFoundError{Collection: collName, ID: id}
	}

	var existing domain.Record
	if index > -1 {
		existing = m.collections[collName][index]
	}
	fields := patch.Clone()
	delete(fields, domain.IDField)
	result := domain.Record{domain.IDField: id}.Merge(existing, fields)

	if index < 0 {
		m.collections[collName] = append(m.collections[collName], result)
	} else {
		m.collections[collName][index] = result
	}
	return result.Clone(), nil
}

func (m *MockRecordProvider) Delete(ctx context.Context, collName, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteCalls++
	if m.err != nil {
		return false, m.err
	}

	index := m.indexOf(collName, id)
	if index < 0 {
		return false, nil
	}
	records := m.collections[collName]
	m.collections[collName] = append(records[:index:index], records[index+1:]...)
	return true, nil
}

func (m *MockRecordProvider) indexOf(collName, id string) int {
	for i, record := range m.collections[collName] {
		if recordID, ok := domain.IdentifierOf(record); ok && recordID == id {
			return i
		}
	}
	return -1
}

// Seed adds records to a collection without counting calls
func (m *MockRecordProvider) Seed(collName string, records ...domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collName] = append(m.collections[collName], records...)
}

// GetCreateCalls returns the number of Create calls
func (m *MockRecordProvider) GetCreateCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.createCalls
}

// GetUpdateCalls returns the number of Update calls
func (m *MockRecordProvider) GetUpdateCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updateCalls
}

// GetDeleteCalls returns the number of Delete calls
func (m *MockRecordProvider) GetDeleteCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deleteCalls
}

// GetCollectionCount returns the number of records in a collection
func (m *MockRecordProvider) GetCollectionCount(collName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collName])
}
