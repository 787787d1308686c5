package driving

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// ClassificationService classifies text. It never returns an error;
// failures are reflected in the result's Outcome.
type ClassificationService interface {
	Classify(ctx context.Context, text string) domain.Classification
}

// IngestRequest is an observation to store in the index.
type IngestRequest struct {
	// ID is optional. A generated ID is used when empty.
	ID           string
	Text         string
	DocumentType string
	Filename     string
	Metadata     map[string]any
}

// IngestionService stores observations. Failure is non-fatal and is
// reported through the returned Outcome.
type IngestionService interface {
	Ingest(ctx context.Context, req IngestRequest) domain.Outcome
	IngestBatch(ctx context.Context, reqs []IngestRequest) domain.Outcome
}

// IndexService exposes index administration.
type IndexService interface {
	// Status re-checks readiness and returns counts.
	Status(ctx context.Context) domain.IndexStatus

	// Reset destroys the index. Errors are returned, never absorbed.
	Reset(ctx context.Context) error
}

// TypeService lists the known document types.
type TypeService interface {
	Types() []domain.DocumentType
}
