package domain

import "context"

// Backend defines the whole-document storage a record provider is built on.
// Read and Write always operate on the entire document.
type Backend interface {
	// Read returns the current document. A missing document is reported
	// as the backend's default document, not as an error.
	Read(ctx context.Context) (*Document, error)

	// Write replaces the stored document.
	Write(ctx context.Context, doc *Document) error
}

// WriteRetryClassifier is implemented by backends that can tell a lost
// optimistic-concurrency race apart from other write failures.
type WriteRetryClassifier interface {
	ShouldRetryWrite(err error) bool
}

// ShouldRetryWrite asks the backend whether a failed write may be retried.
// Backends that do not classify their errors are never retried.
func ShouldRetryWrite(backend Backend, err error) bool {
	classifier, ok := backend.(WriteRetryClassifier)
	if !ok {
		return false
	}
	return classifier.ShouldRetryWrite(err)
}
