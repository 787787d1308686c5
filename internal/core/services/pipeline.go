package services

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.PipelineService = (*Pipeline)(nil)

// PipelineConfig limits accepted documents.
type PipelineConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

// Pipeline runs text extraction, classification, field extraction and
// best-effort storage for a single document.
type Pipeline struct {
	text       driven.TextExtractor
	classifier driving.ClassificationService
	fields     driven.FieldExtractor
	ingest     driving.IngestionService
	types      *domain.TypeTable
	cfg        PipelineConfig
}

// NewPipeline creates a pipeline. The text and field extractors are
// optional (can be nil).
func NewPipeline(
	text driven.TextExtractor,
	classifier driving.ClassificationService,
	fields driven.FieldExtractor,
	ingest driving.IngestionService,
	types *domain.TypeTable,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = domain.DefaultMaxFileSize
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = domain.DefaultAllowedExtensions()
	}
	return &Pipeline{
		text:       text,
		classifier: classifier,
		fields:     fields,
		ingest:     ingest,
		types:      types,
		cfg:        cfg,
	}
}

// Process runs every stage for one document. Validation and text
// extraction failures are returned; later stages degrade instead.
func (p *Pipeline) Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResult, error) {
	logger.Section("Document Pipeline")
	start := time.Now()

	if err := p.validate(req); err != nil {
		return nil, err
	}

	stageStart := time.Now()
	text, err := p.extractText(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrNoText
	}
	var stats domain.ProcessingStats
	stats.TextExtraction = time.Since(stageStart)
	logger.Debug("Extracted %d characters from %s", len(text), req.Filename)

	stageStart = time.Now()
	classification := p.classifier.Classify(ctx, text)
	stats.Classification = time.Since(stageStart)
	logger.Info("Classified %s as %s (%.3f, %s)", req.Filename,
		classification.DocumentType, classification.Confidence, classification.Outcome)

	stageStart = time.Now()
	extraction := p.extractEntities(ctx, text, classification.DocumentType)
	stats.Extraction = time.Since(stageStart)

	result := &domain.ProcessResult{
		DocumentType:     classification.DocumentType,
		Confidence:       classification.Confidence,
		Entities:         extraction.Entities,
		ConfidenceScores: extraction.ConfidenceScores,
		SimilarDocuments: classification.SimilarDocuments,
		Classification:   classification.Outcome,
		Storage:          domain.Degraded(domain.ReasonEmptyBatch, nil),
	}
	if req.IncludeRawText {
		result.RawText = text
	}

	if !req.SkipStore {
		result.Storage = p.ingest.Ingest(ctx, driving.IngestRequest{
			Text:         text,
			DocumentType: classification.DocumentType,
			Filename:     req.Filename,
			Metadata: map[string]any{
				"confidence": classification.Confidence,
				"entities":   entitiesMetadata(extraction.Entities),
			},
		})
		if !result.Storage.IsOK() {
			logger.Warn("Document %s not stored: %s", req.Filename, result.Storage)
		}
	}

	stats.Total = time.Since(start)
	result.Stats = stats
	return result, nil
}

// ExtractFields runs field extraction alone for a known type.
func (p *Pipeline) ExtractFields(ctx context.Context, text, documentType string) (domain.ExtractionResult, error) {
	dt, ok := p.types.Lookup(documentType)
	if !ok {
		return domain.ExtractionResult{}, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, documentType)
	}
	if p.fields == nil {
		return domain.ExtractionResult{}, domain.ErrExtractionUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return domain.ExtractionResult{}, domain.ErrNoText
	}
	return p.fields.ExtractFields(ctx, text, dt)
}

func (p *Pipeline) validate(req domain.ProcessRequest) error {
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !slices.Contains(p.cfg.AllowedExtensions, ext) {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	if len(req.Content) == 0 {
		return fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}
	if int64(len(req.Content)) > p.cfg.MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, len(req.Content), p.cfg.MaxFileSize)
	}
	return nil
}

func (p *Pipeline) extractText(ctx context.Context, req domain.ProcessRequest) (string, error) {
	if p.text != nil {
		return p.text.Extract(ctx, req.Content, req.Filename)
	}
	if strings.EqualFold(filepath.Ext(req.Filename), ".txt") {
		return string(req.Content), nil
	}
	return "", fmt.Errorf("%w: no text extractor configured", domain.ErrUnsupportedFormat)
}

// extractEntities never fails; a missing extractor or an extraction
// error yields no entities.
func (p *Pipeline) extractEntities(ctx context.Context, text, documentType string) domain.ExtractionResult {
	dt, ok := p.types.Lookup(documentType)
	if !ok || p.fields == nil {
		return domain.EmptyExtraction()
	}
	result, err := p.fields.ExtractFields(ctx, text, dt)
	if err != nil {
		logger.Warn("Field extraction for %s failed: %v", documentType, err)
		return domain.EmptyExtraction()
	}
	if result.Entities == nil {
		result.Entities = map[string]*string{}
	}
	return result
}

func entitiesMetadata(entities map[string]*string) map[string]any {
	out := make(map[string]any, len(entities))
	for k, v := range entities {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = *v
	}
	return out
}
