// Package retry holds the small retry policy shared by classification and
// processed-marker writes.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how often an operation is attempted and how long to wait
// between attempts. The delay before attempt n+1 is BaseDelay * 2^(n-1).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Classify is the policy used for model calls: 3 attempts, waiting 1s then 2s.
var Classify = Policy{MaxAttempts: 3, BaseDelay: time.Second}

// Once retries a single time without waiting.
var Once = Policy{MaxAttempts: 2}

// Hook runs before every retry with the error of the previous attempt.
type Hook func(attempt int, err error)

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var b backoff.BackOff
	if p.BaseDelay <= 0 {
		b = &backoff.ZeroBackOff{}
	} else {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = p.BaseDelay
		exp.Multiplier = 2
		exp.RandomizationFactor = 0
		exp.MaxInterval = p.BaseDelay << uint(attempts)
		exp.MaxElapsedTime = 0
		exp.Reset()
		b = exp
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Do runs op until it succeeds or the policy is exhausted and returns the
// last error. Errors wrapped with Permanent stop the loop immediately.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, hooks ...Hook) error {
	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return op(ctx)
	}, p.backOff(ctx), func(err error, _ time.Duration) {
		for _, h := range hooks {
			h(attempt, err)
		}
	})
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

