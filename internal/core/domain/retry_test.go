package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_Delay(t *testing.T) {
	p := DefaultRetryPolicy()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{4, 40 * time.Second},
		{5, 60 * time.Second},
		{9, 60 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

// TestRetryPolicy_DelayNoCeiling tests an uncapped policy keeps growing
func TestRetryPolicy_DelayNoCeiling(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, Multiplier: 3}

	assert.Equal(t, 9*time.Millisecond, p.Delay(3))
}

func TestRetryPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultRetryPolicy().Validate())
	assert.ErrorIs(t, RetryPolicy{MaxAttempts: 0, Multiplier: 2}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, RetryPolicy{MaxAttempts: 1, Multiplier: 0.5}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, RetryPolicy{MaxAttempts: 1, Multiplier: 1, BaseDelay: -1}.Validate(), ErrInvalidInput)
}
