package domain

import "time"

// ExtractionResult holds the entity fields mined for a document type.
// A nil value means the field was not found.
type ExtractionResult struct {
	Entities         map[string]*string `json:"entities"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
}

// EmptyExtraction returns a result with no entities.
func EmptyExtraction() ExtractionResult {
	return ExtractionResult{
		Entities:         map[string]*string{},
		ConfidenceScores: map[string]float64{},
	}
}

// ProcessingStats records how long each pipeline stage took.
type ProcessingStats struct {
	TextExtraction time.Duration `json:"text_extraction"`
	Classification time.Duration `json:"classification"`
	Extraction     time.Duration `json:"extraction"`
	Total          time.Duration `json:"total"`
}

// ProcessRequest is a document submitted to the pipeline.
type ProcessRequest struct {
	Filename string
	Content  []byte

	// IncludeRawText returns the extracted text in the result.
	IncludeRawText bool

	// SkipStore disables ingestion of the processed document.
	SkipStore bool
}

// ProcessResult is the full pipeline output for one document.
type ProcessResult struct {
	DocumentType     string             `json:"document_type"`
	Confidence       float64            `json:"confidence"`
	Entities         map[string]*string `json:"entities"`
	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty"`
	SimilarDocuments []Neighbor         `json:"similar_documents"`
	RawText          string             `json:"raw_text,omitempty"`
	Stats            ProcessingStats    `json:"processing_stats"`

	// Classification carries the outcome of the classification step.
	Classification Outcome `json:"classification_outcome"`

	// Storage carries the outcome of the best-effort ingest.
	Storage Outcome `json:"storage_outcome"`
}
