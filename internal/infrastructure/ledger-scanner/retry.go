package ledger_scanner

import (
	"context"
	"time"

	"github.com/armagg/coin-payments/internal/core/domain"
)

// RetryPolicy bounds how reads are retried after a transport disconnection.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       int64
}

// DefaultRetryPolicy makes up to 5 attempts (the first call plus 4 retries)
// with exponential backoff starting at 200ms and capped at 5s.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  5,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Factor:       2,
}

// Retry runs op, re-invoking it after a backoff delay as long as it fails
// with a transport-disconnect error and attempts remain. Any other error, and
// context cancellation, propagate immediately. Only idempotent operations may
// be passed here.
func Retry(ctx context.Context, policy RetryPolicy, op func() error) error {
	delay := policy.InitialDelay
	var err error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= time.Duration(policy.Factor)
			if delay > policy.MaxDelay {
				delay = policy.MaxDelay
			}
		}

		err = op()
		if err == nil {
			return nil
		}
		if !domain.IsTransportDisconnected(err) {
			return err
		}
	}
	return err
}
