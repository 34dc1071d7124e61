package sales

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a conflicting commit is retried
type RetryPolicy struct {
	// MaxAttempts is the total number of commit attempts, including the first
	MaxAttempts int
	// BaseDelay is the wait after the first conflict; it doubles per attempt
	BaseDelay time.Duration
	// MaxDelay caps the wait between attempts
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the default commit retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   20 * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
	}
}

// Normalize fills zero fields with defaults
func (p RetryPolicy) Normalize() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	return p
}

// Backoff returns the wait after the given failed attempt (1-based):
// BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Prevent overflow - cap at reasonable exponent
	if attempt > 30 {
		return p.MaxDelay
	}
	delay := p.BaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > p.MaxDelay || delay < 0 {
		delay = p.MaxDelay
	}
	return delay
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
