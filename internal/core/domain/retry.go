package domain

import (
	"fmt"
	"time"
)

// RetryPolicy describes exponential backoff for a single operation.
// The delay before attempt n (1-based, n > 1) is
// BaseDelay * Multiplier^(n-2), capped at MaxDelay.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failure.
	BaseDelay time.Duration

	// Multiplier grows the delay after each further failure.
	Multiplier float64

	// MaxDelay caps any single wait.
	MaxDelay time.Duration
}

// DefaultRetryPolicy waits 5s, 10s, 20s, 40s, then 60s between up to 10 tries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 10,
		BaseDelay:   5 * time.Second,
		Multiplier:  2,
		MaxDelay:    60 * time.Second,
	}
}

// Validate reports whether the policy can be applied.
func (p RetryPolicy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidInput)
	case p.BaseDelay < 0 || p.MaxDelay < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidInput)
	case p.Multiplier < 1:
		return fmt.Errorf("%w: multiplier must be at least 1", ErrInvalidInput)
	}
	return nil
}

// Delay returns how long to wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(failedAttempt int) time.Duration {
	if failedAttempt < 1 {
		return 0
	}
	d := float64(p.BaseDelay)
	for i := 1; i < failedAttempt; i++ {
		d *= p.Multiplier
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}
