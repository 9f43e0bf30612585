package llm

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy controls how normalization calls are retried. The delay is
// exponential from BaseDelay, capped at MaxDelay, with up to 40% jitter
// added on top.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func NewRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 8 * time.Second
	}
	return p
}

// Backoff returns the sleep before retry number attempt (0-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.normalized()
	d := p.BaseDelay << uint(attempt)
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)*2/5 + 1))
	return d + jitter
}

// Sleep blocks for the attempt's backoff or until the context ends.
func (p RetryPolicy) Sleep(ctx context.Context, attempt int) error {
	t := time.NewTimer(p.Backoff(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retriable reports whether a failed call is worth another attempt:
// transport errors, rate limiting and server-side failures are; any
// other HTTP status is the caller's problem.
func Retriable(status int, err error) bool {
	if status == 0 && err != nil {
		return true
	}
	return status == 429 || status >= 500
}
