package tui

import "errors"

// ErrMissingWarmupService is returned when the warm-up service is not provided.
var ErrMissingWarmupService = errors.New("tui: warmup service is required")
