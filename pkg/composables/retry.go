package composables

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iota-uz/staffledger/pkg/serrors"
)

// InTxRetry runs fn inside a transaction, transparently retrying concurrency
// failures (lock timeouts, serialization failures) with exponential backoff.
// Every attempt runs in a fresh transaction; non-retryable errors surface
// immediately.
func InTxRetry(ctx context.Context, attempts uint64, baseDelay time.Duration, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(baseDelay))
	return retry.Do(ctx, backoff, func(attemptCtx context.Context) error {
		err := InTx(attemptCtx, fn)
		if err != nil && serrors.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
