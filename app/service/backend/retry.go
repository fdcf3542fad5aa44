package backend

import (
	"clutha/app/service/dialogue"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxRetries = 3

// Retrying retries transient failures of the wrapped backend with
// exponential backoff. Each attempt gets its own timeout.
type Retrying struct {
	next       Backend
	timeout    time.Duration
	newBackOff func() backoff.BackOff
}

func NewRetrying(next Backend, timeout time.Duration) *Retrying {
	return &Retrying{
		next:    next,
		timeout: timeout,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

func (r *Retrying) Generate(ctx context.Context, prompt []dialogue.Group) (string, error) {
	operation := func() (string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		text, err := r.next.Generate(attemptCtx, prompt)
		if err != nil {
			var backendErr *Error
			if errors.As(err, &backendErr) && !backendErr.retryable() {
				return "", backoff.Permanent(err)
			}
			return "", err
		}

		return text, nil
	}

	notify := func(err error, delay time.Duration) {
		slog.WarnContext(ctx, "Backend request failed, retrying",
			"error", err,
			"delay", delay)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), maxRetries), ctx)

	return backoff.RetryNotifyWithData[string](operation, policy, notify)
}
