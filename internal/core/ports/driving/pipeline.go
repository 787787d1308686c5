package driving

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// PipelineService runs the full document flow: text extraction,
// classification, field extraction and best-effort storage.
type PipelineService interface {
	// Process runs every stage for one document.
	Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResult, error)

	// ExtractFields runs field extraction alone for a known type.
	ExtractFields(ctx context.Context, text, documentType string) (domain.ExtractionResult, error)
}

// WarmupService populates the index from a labelled corpus.
type WarmupService interface {
	// Run waits for the index, optionally resets it, and ingests the corpus.
	Run(ctx context.Context, opts domain.WarmupOptions) (*domain.WarmupReport, error)

	// Watch ingests documents created under the corpus root until ctx ends.
	Watch(ctx context.Context, dataDir string) error
}
