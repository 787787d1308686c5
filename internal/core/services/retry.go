package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/logger"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WaitUntil calls op until it reports true, sleeping between tries as the
// policy dictates. It returns the number of attempts made. The error wraps
// domain.ErrIndexUnavailable when attempts run out, or is ctx's error.
func WaitUntil(ctx context.Context, policy domain.RetryPolicy, sleep SleepFunc, op func(context.Context) bool) (int, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}
	if sleep == nil {
		sleep = Sleep
	}

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if op(ctx) {
			return attempt, nil
		}
		if attempt == policy.MaxAttempts {
			break
		}
		delay := policy.Delay(attempt)
		logger.Info("Not ready (attempt %d/%d), retrying in %s", attempt, policy.MaxAttempts, delay)
		if err := sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}
	return policy.MaxAttempts, fmt.Errorf("%w: not ready after %d attempts", domain.ErrIndexUnavailable, policy.MaxAttempts)
}
