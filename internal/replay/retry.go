package replay

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

func withRetry(ctx context.Context, logger *zap.Logger, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = baseDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0

	notify := func(err error, next time.Duration) {
		logger.Warn("retrying", zap.Error(err), zap.Duration("backoff", next))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(maxRetries)+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	return err
}
