package remote

import (
	"context"
	"time"

	"anjo/internal/core"
	"anjo/internal/log"
)

// maxBackoff caps the delay between two attempts.
const maxBackoff = 30 * time.Second

// RetryPolicy retries remote calls with exponential backoff. Attempts
// counts the first call.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Sleep waits d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy returns a policy making retries+1 attempts.
func NewRetryPolicy(retries int, base time.Duration) RetryPolicy {
	if retries < 0 {
		retries = 0
	}
	return RetryPolicy{Attempts: retries + 1, BaseDelay: base, MaxDelay: maxBackoff, Sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff returns the delay before attempt n (1-based, n >= 2):
// base, 2*base, 4*base... capped at MaxDelay.
func (p RetryPolicy) backoff(n int) time.Duration {
	d := p.BaseDelay
	for i := 2; i < n; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn until it succeeds, fails with an error core.Retryable rejects,
// or runs out of attempts. Exhaustion is reported as core.ErrRemote.
func (p RetryPolicy) Do(ctx context.Context, logger *log.Logger, op, collection string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for n := 1; n <= attempts; n++ {
		if n > 1 {
			if serr := sleep(ctx, p.backoff(n)); serr != nil {
				return core.ErrRemote.Wrap(serr)
			}
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !core.Retryable(err) {
			return err
		}
		logger.WarnContext(ctx, "Remote call failed",
			log.FieldOperation, op,
			log.FieldCollection, collection,
			log.FieldAttempt, n,
			log.FieldError, err)
	}
	return core.ErrRemote.WithMessage(op + " " + collection + " failed after retries").Wrap(err)
}
