// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/docintel/internal/core/domain"
)

// WarmupProgress carries the counters after a batch.
type WarmupProgress struct {
	Progress domain.WarmupProgress
}

// WarmupDone is sent once when the warm-up run returns.
type WarmupDone struct {
	Report *domain.WarmupReport
	Err    error
}

// StatusLoaded carries the index status fetched after the run.
type StatusLoaded struct {
	Status domain.IndexStatus
}
