package driven

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// TextExtractor turns document bytes into plain text (OCR).
type TextExtractor interface {
	// Extract returns the text of the document. The filename's extension
	// selects the strategy.
	Extract(ctx context.Context, content []byte, filename string) (string, error)

	// SupportedExtensions lists handled suffixes including the dot.
	SupportedExtensions() []string
}

// FieldExtractor mines structured fields from text.
type FieldExtractor interface {
	// ExtractFields returns a value (or nil) for every requested field.
	ExtractFields(ctx context.Context, text string, docType domain.DocumentType) (domain.ExtractionResult, error)
}
