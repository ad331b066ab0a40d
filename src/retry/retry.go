// Package retry wraps an operation in a fixed-delay, bounded retry policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	model "github.com/cowin-slot-notifier/src/model"
)

const (
	DefaultMaxAttempts = 5
	DefaultDelay       = 2 * time.Second
)

// Policy retries an operation up to MaxAttempts times, waiting Delay between
// attempts, as long as Retryable accepts the returned error.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool

	// Timer drives the waits between attempts. Nil uses a real timer.
	Timer backoff.Timer
}

// ParseFailurePolicy retries malformed responses only: 5 attempts, 2 seconds apart.
func ParseFailurePolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		Retryable:   model.IsMalformed,
	}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = &backoff.StopBackOff{}
	// WithMaxRetries treats zero as unlimited.
	if p.MaxAttempts > 1 {
		b = backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempts
// are exhausted. The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, op func() error) error {
	operation := func() error {
		err := op()
		if err != nil && (p.Retryable == nil || !p.Retryable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("wait", wait).Msg("retrying after failure")
	}

	return backoff.RetryNotifyWithTimer(operation, p.backOff(ctx), notify, p.Timer)
}

// Fetcher decorates a SessionFetcher with a retry policy.
type Fetcher struct {
	next   model.SessionFetcher
	policy Policy
}

func NewFetcher(next model.SessionFetcher, policy Policy) *Fetcher {
	return &Fetcher{next: next, policy: policy}
}

func (f *Fetcher) Fetch(ctx context.Context, key model.QueryKey) ([]model.Center, error) {
	var centers []model.Center
	err := f.policy.Do(ctx, func() error {
		var err error
		centers, err = f.next.Fetch(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return centers, nil
}
