package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
)

// retry runs op until it succeeds, fails with an error that is not retryable, or the
// configured number of retries is spent.
func (r *Resolver) retry(ctx context.Context, opts ports.ResolveOptions, what string, op func() error) error {
	if opts.Retries <= 0 {
		return op()
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(opts.RetryDelay), uint64(opts.Retries)),
		ctx,
	)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := op()
		if err != nil && !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		r.logger.Warn(fmt.Sprintf("%s failed (attempt %d of %d), retrying in %s: %v",
			what, attempt, opts.Retries+1, wait, err))
	})
}

// Retryable reports whether err is a fetch failure that may succeed when repeated.
func Retryable(err error) bool {
	var fetchErr *domain.FetchError
	return errors.As(err, &fetchErr) && fetchErr.Retryable()
}
