package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("transient")
	errFatal     = errors.New("fatal")
)

func classify(err error) Action {
	if errors.Is(err, errTransient) {
		return Retry
	}
	return Stop
}

func TestDo_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	var retried []int
	p := Policy{MaxAttempts: 3, OnRetry: func(attempt int, err error, _ time.Duration) {
		retried = append(retried, attempt)
	}}

	got, err := Do(context.Background(), p, classify, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 5}, classify, func() (int, error) {
		calls++
		return 0, errFatal
	})

	assert.ErrorIs(t, err, errFatal)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 2}, classify, func() (int, error) {
		calls++
		return 0, errTransient
	})

	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, calls)
}

func TestDo_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, Policy{MaxAttempts: 3}, classify, func() (int, error) {
		return 0, errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
}
