package mcp

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// mockClassifier is a mock implementation of driving.ClassificationService.
type mockClassifier struct {
	result  domain.Classification
	gotText string
}

func (m *mockClassifier) Classify(_ context.Context, text string) domain.Classification {
	m.gotText = text
	return m.result
}

// mockPipeline is a mock implementation of driving.PipelineService.
type mockPipeline struct {
	extraction domain.ExtractionResult
	err        error
}

func (m *mockPipeline) Process(_ context.Context, _ domain.ProcessRequest) (*domain.ProcessResult, error) {
	return nil, m.err
}

func (m *mockPipeline) ExtractFields(_ context.Context, _, _ string) (domain.ExtractionResult, error) {
	return m.extraction, m.err
}

// mockIngest is a mock implementation of driving.IngestionService.
type mockIngest struct {
	outcome domain.Outcome
	got     []driving.IngestRequest
}

func (m *mockIngest) Ingest(_ context.Context, req driving.IngestRequest) domain.Outcome {
	m.got = append(m.got, req)
	return m.outcome
}

func (m *mockIngest) IngestBatch(_ context.Context, reqs []driving.IngestRequest) domain.Outcome {
	m.got = append(m.got, reqs...)
	return m.outcome
}

// mockIndex is a mock implementation of driving.IndexService.
type mockIndex struct {
	status domain.IndexStatus
	err    error
}

func (m *mockIndex) Status(_ context.Context) domain.IndexStatus {
	return m.status
}

func (m *mockIndex) Reset(_ context.Context) error {
	return m.err
}

// mockTypes is a mock implementation of driving.TypeService.
type mockTypes struct{}

func (mockTypes) Types() []domain.DocumentType {
	return domain.DefaultTypeTable().Types()
}
