package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// Defaults applied to incomplete observations.
const (
	DefaultIngestFilename = "unknown_file"
)

// RecordWriter stores index records. SemanticIndex is the production
// implementation.
type RecordWriter interface {
	Add(ctx context.Context, records []domain.IndexRecord) domain.Outcome
}

// IngestionService turns observations into index records.
// Storage failure is always non-fatal.
type IngestionService struct {
	index RecordWriter
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(index RecordWriter) *IngestionService {
	return &IngestionService{index: index}
}

// Ingest stores a single observation.
func (s *IngestionService) Ingest(ctx context.Context, req driving.IngestRequest) domain.Outcome {
	return s.index.Add(ctx, []domain.IndexRecord{toRecord(req)})
}

// IngestBatch stores several observations in one write.
func (s *IngestionService) IngestBatch(ctx context.Context, reqs []driving.IngestRequest) domain.Outcome {
	records := make([]domain.IndexRecord, 0, len(reqs))
	for _, req := range reqs {
		records = append(records, toRecord(req))
	}
	return s.index.Add(ctx, records)
}

func toRecord(req driving.IngestRequest) domain.IndexRecord {
	rec := domain.IndexRecord{
		ID:           strings.TrimSpace(req.ID),
		Content:      req.Text,
		DocumentType: req.DocumentType,
		Filename:     req.Filename,
		Metadata:     req.Metadata,
	}
	if rec.DocumentType == "" {
		rec.DocumentType = domain.UnknownType
	}
	if rec.Filename == "" {
		rec.Filename = DefaultIngestFilename
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	return rec
}
