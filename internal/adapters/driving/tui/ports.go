// Package tui provides terminal progress views for docintel.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Warmup populates the index.
	Warmup driving.WarmupService

	// Index reports the final document distribution. Optional.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Warmup == nil {
		return ErrMissingWarmupService
	}
	return nil
}
