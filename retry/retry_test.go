package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402gate/types"
)

func TestDefaultPolicyDelays(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 10, p.MaxAttempts)

	want := []time.Duration{0, 2 * time.Second, 3 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, d := range want {
		assert.Equal(t, d, p.Delay(i+1), "attempt %d", i+1)
	}
	assert.Equal(t, 5*time.Second, p.Delay(10))
}

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	var seen []int
	err := Do(context.Background(), fastPolicy(5), func(_ context.Context, attempt int) error {
		seen = append(seen, attempt)
		if attempt < 3 {
			return errors.New("Transaction not found yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDoExhausts(t *testing.T) {
	calls := 0
	last := errors.New("Insufficient payment amount")
	err := Do(context.Background(), fastPolicy(4), func(context.Context, int) error {
		calls++
		return last
	})
	assert.Equal(t, 4, calls)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.ErrorIs(t, err, last)
}

func TestDoPermanent(t *testing.T) {
	calls := 0
	notFound := errors.New("not found")
	err := Do(context.Background(), fastPolicy(5), func(context.Context, int) error {
		calls++
		return Permanent(notFound)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, notFound, err)
	assert.NotErrorIs(t, err, ErrAttemptsExhausted)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

	calls := 0
	err := Do(ctx, p, func(context.Context, int) error {
		calls++
		cancel()
		return errors.New("pending")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoAtLeastOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{}, func(context.Context, int) error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestFromConfig(t *testing.T) {
	assert.Equal(t, DefaultPolicy(), FromConfig(types.RetryConfig{}))
	assert.Equal(t, DefaultPolicy(), FromConfig(types.DefaultConfig().Retry))

	p := FromConfig(types.RetryConfig{MaxAttempts: 3, MaxDelay: time.Second})
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	assert.Equal(t, time.Second, p.MaxDelay)
}
