package records

import (
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

type ProviderOption func(*BlobRecordProvider)

// WithConcurrentWrites chooses between running write cycles independently
// (true, the default) and queueing them on the provider's serializer (false).
func WithConcurrentWrites(enabled bool) ProviderOption {
	return func(provider *BlobRecordProvider) {
		provider.concurrentWrites = enabled
	}
}

func WithRetryPolicy(policy RetryPolicy) ProviderOption {
	return func(provider *BlobRecordProvider) {
		provider.retryPolicy = policy
	}
}

func WithLogger(logger hclog.Logger) ProviderOption {
	return func(provider *BlobRecordProvider) {
		provider.logger = logger
	}
}

// WithMetrics registers the provider's counters on set instead of a private one
func WithMetrics(set *metrics.Set) ProviderOption {
	return func(provider *BlobRecordProvider) {
		provider.metrics = newProviderMetrics(set)
	}
}

// WithIDGenerator overrides how identifiers are generated on create
func WithIDGenerator(generate func() string) ProviderOption {
	return func(provider *BlobRecordProvider) {
		provider.newID = generate
	}
}

func defaultIDGenerator() string {
	return uuid.NewString()
}
