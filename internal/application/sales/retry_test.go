package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 10 * time.Millisecond},
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 50 * time.Millisecond},
		{64, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestRetryPolicy_Normalize(t *testing.T) {
	p := RetryPolicy{}.Normalize()
	def := DefaultRetryPolicy()
	assert.Equal(t, def.MaxAttempts, p.MaxAttempts)
	assert.Equal(t, def.MaxDelay, p.MaxDelay)
	assert.Equal(t, time.Duration(0), p.BaseDelay)
}

func TestSleepContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepContext(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
