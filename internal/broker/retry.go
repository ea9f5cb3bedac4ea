package broker

import (
	"context"
	"time"
)

// RetryPolicy bounds reconnection and publish retries. Delay receives
// the 1-based attempt number that just failed, so policies can back off.
type RetryPolicy struct {
	MaxAttempts int
	Delay       func(attempt int) time.Duration
}

// DefaultRetryPolicy matches the receiver's historical bootstrap
// behaviour: 5 attempts, 10 seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Delay:       FixedDelay(10 * time.Second),
	}
}

func FixedDelay(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// ExponentialDelay doubles from start up to max.
func ExponentialDelay(start, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := start
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= max {
				return max
			}
		}
		return d
	}
}

// Do runs op up to p.MaxAttempts times, sleeping p.Delay between
// attempts. It stops early on success, on a non-retryable error, or
// when ctx is cancelled. The last error is returned on exhaustion.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		delay := p.Delay(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
