package domain

import "context"

// RecordProvider defines collection-scoped CRUD operations over a Backend.
// This is the core business interface the API layer is written against.
type RecordProvider interface {
	GetAll(ctx context.Context, collName string) ([]Record, error)
	Get(ctx context.Context, collName, id string) (Record, error)
	Create(ctx context.Context, collName string, record Record) (Record, error)
	Update(ctx context.Context, collName, id string, patch Record, upsert bool) (Record, error)
	Delete(ctx context.Context, collName, id string) (bool, error)
}
