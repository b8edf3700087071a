package storage

import (
	"context"
	"testing"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), maxPutAttempts-1)
}

func transientErr(key string) error {
	return &Error{Op: "put", Key: key, Class: ClassNetwork, Err: context.DeadlineExceeded}
}

func TestRetryPutExhaustsAttemptBudget(t *testing.T) {
	attempts := 0
	err := retryPut(context.Background(), testBackOff, func(ctx context.Context) error {
		attempts++
		return transientErr("k")
	})

	require.Error(t, err)
	assert.Equal(t, maxPutAttempts, attempts)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ClassNetwork, se.Class)
}

func TestRetryPutSucceedsOnThirdAttempt(t *testing.T) {
	attempts := 0
	err := retryPut(context.Background(), testBackOff, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return transientErr("k")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPutShortCircuitsNonRetryable(t *testing.T) {
	for _, class := range []ErrorClass{ClassAuth, ClassNotConfigured, ClassQuota} {
		t.Run(class.String(), func(t *testing.T) {
			attempts := 0
			err := retryPut(context.Background(), testBackOff, func(ctx context.Context) error {
				attempts++
				return &Error{Op: "put", Key: "k", Class: class, Err: ErrNotConfigured}
			})

			require.Error(t, err)
			assert.Equal(t, 1, attempts, "non-retryable errors must not consume the retry budget")
		})
	}
}

func TestDefaultBackOffDelaysStrictlyIncrease(t *testing.T) {
	b := defaultBackOff()

	first := b.NextBackOff()
	second := b.NextBackOff()
	third := b.NextBackOff()

	assert.Equal(t, 2*time.Second, first)
	assert.Equal(t, 4*time.Second, second)
	assert.Equal(t, backoff.Stop, third, "only two delays exist between three attempts")
}

func TestRetryPutHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := retryPut(ctx, testBackOff, func(ctx context.Context) error {
		attempts++
		return transientErr("k")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
