package mcp

import (
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Classifier classifies text.
	Classifier driving.ClassificationService

	// Pipeline extracts entity fields.
	Pipeline driving.PipelineService

	// Ingest stores observations in the index.
	Ingest driving.IngestionService

	// Index reports index status.
	Index driving.IndexService

	// Types lists the known document types.
	Types driving.TypeService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Classifier == nil {
		return ErrMissingClassifier
	}
	// The remaining ports are optional; their tools report unavailability
	return nil
}
