package storage

import "github.com/adfharrison1/go-blobdb/pkg/domain"

// conflictClassifier marks a backend's ConflictErrors as retryable
type conflictClassifier struct{}

func (conflictClassifier) ShouldRetryWrite(err error) bool {
	return domain.IsConflict(err)
}
