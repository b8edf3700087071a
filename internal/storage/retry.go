package storage

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// maxPutAttempts is the total attempt budget for Put, including the first try.
const maxPutAttempts = 3

// defaultBackOff returns the production put backoff: 2s then 4s between the
// three attempts. Jitter is disabled so inter-attempt delays are strictly
// increasing.
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, maxPutAttempts-1)
}

// retryPut drives fn through the attempt budget. A failure whose class is
// non-retryable aborts the loop immediately; otherwise every failure consumes
// one attempt and only the final attempt's error is surfaced.
func retryPut(ctx context.Context, newBackOff func() backoff.BackOff, fn func(context.Context) error) error {
	op := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var se *Error
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(newBackOff(), ctx))
}
