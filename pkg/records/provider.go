// Package records provides collection-scoped CRUD over a whole-document
// storage backend using optimistic concurrency: every mutation reads the
// current document, applies one change and writes the whole document back,
// retrying when the backend reports that another writer won the race.
package records

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

var errSerializerClosed = errors.New("record provider is closed")

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// BlobRecordProvider implements domain.RecordProvider on top of a
// domain.Backend. It keeps no copy of the data between calls.
type BlobRecordProvider struct {
	backend domain.Backend

	// Configuration
	concurrentWrites bool
	retryPolicy      RetryPolicy
	newID            func() string

	serializer *WriteSerializer
	logger     hclog.Logger
	metrics    *ProviderMetrics
}

var _ domain.RecordProvider = (*BlobRecordProvider)(nil)

// NewBlobRecordProvider creates a provider for the given backend
func NewBlobRecordProvider(backend domain.Backend, options ...ProviderOption) (*BlobRecordProvider, error) {
	if backend == nil {
		return nil, domain.NewArgumentError("must provide a storage backend")
	}

	provider := &BlobRecordProvider{
		backend:          backend,
		concurrentWrites: true,
		retryPolicy:      DefaultRetryPolicy(),
		newID:            defaultIDGenerator,
		logger:           hclog.NewNullLogger(),
	}

	// Apply options
	for _, option := range options {
		option(provider)
	}

	if provider.metrics == nil {
		provider.metrics = newProviderMetrics(nil)
	}
	if !provider.concurrentWrites {
		provider.serializer = NewWriteSerializer()
	}

	return provider, nil
}

// Close stops the write serializer, if any
func (p *BlobRecordProvider) Close() {
	if p.serializer != nil {
		p.serializer.Close()
	}
}

// Metrics returns the provider's counters
func (p *BlobRecordProvider) Metrics() *ProviderMetrics {
	return p.metrics
}

// GetAll returns every record of a collection, in insertion order
func (p *BlobRecordProvider) GetAll(ctx context.Context, collName string) ([]domain.Record, error) {
	doc, err := p.readDocument(ctx, collName)
	if err != nil {
		return nil, err
	}

	records := doc.Collection(collName)
	result := make([]domain.Record, len(records))
	for i, record := range records {
		result[i] = record.Clone()
	}
	return result, nil
}

// Get returns a single record by its identifier
func (p *BlobRecordProvider) Get(ctx context.Context, collName, id string) (domain.Record, error) {
	records, err := p.GetAll(ctx, collName)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if recordID, ok := domain.IdentifierOf(record); ok && recordID == id {
			return record, nil
		}
	}

	return nil, &domain.NotFoundError{Collection: collName, ID: id}
}

// Create appends a record to a collection. A record without an identifier
// gets a generated UUID; a record whose identifier already exists is rejected
// with a ValidationError and nothing is written.
func (p *BlobRecordProvider) Create(ctx context.Context, collName string, record domain.Record) (domain.Record, error) {
	stored := record.Clone()
	if stored == nil {
		stored = domain.Record{}
	}
	if _, ok := domain.IdentifierOf(stored); !ok {
		stored[domain.IDField] = p.newID()
	}
	id, _ := domain.IdentifierOf(stored)

	err := p.write(ctx, opCreate, func(ctx context.Context) error {
		doc, err := p.readDocument(ctx, collName)
		if err != nil {
			return err
		}

		if doc.FindIndex(collName, id) > -1 {
			return domain.NewValidationError("the record %s in %s already exists", id, collName)
		}

		doc.SetCollection(collName, append(doc.Collection(collName), stored.Clone()))
		return p.writeDocument(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// Update merges patch over the record with the given identifier, keeping its
// position in the collection. With upsert set, a missing record is created
// from the identifier and the patch; otherwise it is a NotFoundError.
func (p *BlobRecordProvider) Update(ctx context.Context, collName, id string, patch domain.Record, upsert bool) (domain.Record, error) {
	fields := patch.Clone()
	// The identifier of an existing record never changes
	delete(fields, domain.IDField)

	var updated domain.Record
	err := p.write(ctx, opUpdate, func(ctx context.Context) error {
		doc, err := p.readDocument(ctx, collName)
		if err != nil {
			return err
		}

		records := doc.Collection(collName)
		index := doc.FindIndex(collName, id)
		if index < 0 && !upsert {
			return &domain.NotFoundError{Collection: collName, ID: id}
		}

		var existing domain.Record
		if index > -1 {
			existing = records[index]
		}
		result := domain.Record{domain.IDField: id}.Merge(existing, fields)

		if index < 0 {
			records = append(records, result)
		} else {
			records[index] = result
		}
		doc.SetCollection(collName, records)

		if err := p.writeDocument(ctx, doc); err != nil {
			return err
		}
		updated = result.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the record with the given identifier. It reports false,
// without writing, if no such record exists.
func (p *BlobRecordProvider) Delete(ctx context.Context, collName, id string) (bool, error) {
	var deleted bool
	err := p.write(ctx, opDelete, func(ctx context.Context) error {
		deleted = false

		doc, err := p.readDocument(ctx, collName)
		if err != nil {
			return err
		}

		index := doc.FindIndex(collName, id)
		if index < 0 {
			return nil
		}

		records := doc.Collection(collName)
		remaining := make([]domain.Record, 0, len(records)-1)
		remaining = append(remaining, records[:index]...)
		remaining = append(remaining, records[index+1:]...)
		doc.SetCollection(collName, remaining)

		if err := p.writeDocument(ctx, doc); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

// readDocument reads the current document and makes sure the collection exists
func (p *BlobRecordProvider) readDocument(ctx context.Context, collName string) (*domain.Document, error) {
	p.metrics.backendRead()
	doc, err := p.backend.Read(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = domain.NewDocument()
	}
	doc.Collection(collName)
	return doc, nil
}

func (p *BlobRecordProvider) writeDocument(ctx context.Context, doc *domain.Document) error {
	p.metrics.backendWrite()
	return p.backend.Write(ctx, doc)
}

// write runs a read-modify-write cycle under the retry policy, either
// directly or through the serializer depending on configuration.
func (p *BlobRecordProvider) write(ctx context.Context, op string, cycle func(ctx context.Context) error) error {
	run := func(ctx context.Context) error {
		return p.withRetries(ctx, op, cycle)
	}

	if p.concurrentWrites {
		return run(ctx)
	}
	return p.serializer.Do(ctx, run)
}

func (p *BlobRecordProvider) withRetries(ctx context.Context, op string, cycle func(ctx context.Context) error) error {
	start := time.Now()
	attempt := 0

	err := p.retryPolicy.Run(ctx,
		func() error {
			attempt++
			p.metrics.attempt(op)
			p.logger.Trace("running write cycle", "op", op, "attempt", attempt)
			return cycle(ctx)
		},
		func(err error) bool {
			if !domain.ShouldRetryWrite(p.backend, err) {
				return false
			}
			p.metrics.conflict(op)
			return true
		},
		func(err error, wait time.Duration) {
			p.logger.Warn("write conflict, retrying", "op", op, "attempt", attempt, "wait", wait, "error", err)
		},
	)

	p.metrics.cycleDuration(op, time.Since(start).Seconds())
	if err != nil {
		p.metrics.failure(op)
		p.logger.Debug("write cycle failed", "op", op, "attempts", attempt, "error", err)
		return err
	}

	p.logger.Debug("write cycle completed", "op", op, "attempts", attempt)
	return nil
}
