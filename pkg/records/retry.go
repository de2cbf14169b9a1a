package records

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxAttempts = 10
	defaultBaseDelay   = 100 * time.Millisecond
	defaultFactor      = 2.0
)

// RetryPolicy bounds how often a read-modify-write cycle is attempted and how
// long to wait between attempts. Delays grow by Factor from BaseDelay with no
// jitter and no upper bound.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
}

// DefaultRetryPolicy returns 10 attempts, starting at 100ms and doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		Factor:      defaultFactor,
	}
}

// Delays returns the wait before each retry, in order.
func (p RetryPolicy) Delays() []time.Duration {
	b := p.newBackOff()
	b.Reset()
	delays := make([]time.Duration, 0, p.attempts()-1)
	for i := 1; i < p.attempts(); i++ {
		delays = append(delays, b.NextBackOff())
	}
	return delays
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Factor
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	return b
}

// Run calls attempt until it succeeds, returns an error shouldRetry rejects,
// or the policy runs out of attempts. The last error is returned unchanged.
// onRetry, if set, is called before each wait.
func (p RetryPolicy) Run(
	ctx context.Context,
	attempt func() error,
	shouldRetry func(error) bool,
	onRetry func(err error, wait time.Duration),
) error {
	operation := func() error {
		err := attempt()
		if err == nil {
			return nil
		}
		if shouldRetry == nil || !shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(p.newBackOff(), uint64(p.attempts()-1)),
		ctx,
	)
	return backoff.RetryNotify(operation, b, onRetry)
}
