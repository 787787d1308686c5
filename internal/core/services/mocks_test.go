package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

var errConnRefused = errors.New("dial tcp 127.0.0.1:8882: connect: connection refused")

// mockBackend implements driven.IndexBackend for testing.
type mockBackend struct {
	mu sync.Mutex

	exists    bool
	existsErr error
	createErr error
	deleteErr error
	addErr    error
	addResult driven.AddResult
	hits      []driven.IndexHit
	searchErr error
	sample    []domain.IndexRecord
	sampleErr error
	panicOn   string

	existsCalls int
	createCalls int
	added       [][]domain.IndexRecord
	lastLimit   int
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) IndexExists(_ context.Context, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	if m.panicOn == "exists" {
		panic("boom")
	}
	return m.exists, m.existsErr
}

func (m *mockBackend) CreateIndex(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	m.exists = true
	return nil
}

func (m *mockBackend) DeleteIndex(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if !m.exists {
		return domain.ErrIndexNotFound
	}
	m.exists = false
	return nil
}

func (m *mockBackend) AddDocuments(_ context.Context, _ string, records []domain.IndexRecord) (driven.AddResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return driven.AddResult{}, m.addErr
	}
	m.added = append(m.added, append([]domain.IndexRecord(nil), records...))
	return m.addResult, nil
}

func (m *mockBackend) Search(_ context.Context, _, _ string, limit int) ([]driven.IndexHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	if m.panicOn == "search" {
		panic("malformed hit")
	}
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.hits) {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

func (m *mockBackend) Sample(_ context.Context, _ string, limit int) ([]domain.IndexRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	return m.sample, m.sampleErr
}

func (m *mockBackend) Close() error { return nil }

func (m *mockBackend) addedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, batch := range m.added {
		n += len(batch)
	}
	return n
}

// mockSearcher implements NeighborSearcher for testing.
type mockSearcher struct {
	result SearchResult
	err    error
	calls  int
}

func (m *mockSearcher) Search(_ context.Context, _ string, _ int, _ float64) (SearchResult, error) {
	m.calls++
	return m.result, m.err
}

// panicSearcher panics on every search.
type panicSearcher struct{}

func (panicSearcher) Search(_ context.Context, _ string, _ int, _ float64) (SearchResult, error) {
	panic("unexpected record shape")
}

// mockWriter implements RecordWriter for testing.
type mockWriter struct {
	outcome domain.Outcome
	records []domain.IndexRecord
}

func (m *mockWriter) Add(_ context.Context, records []domain.IndexRecord) domain.Outcome {
	m.records = append(m.records, records...)
	return m.outcome
}

// mockTextExtractor implements driven.TextExtractor for testing.
type mockTextExtractor struct {
	text  string
	err   error
	texts map[string]string
}

func (m *mockTextExtractor) Extract(_ context.Context, content []byte, filename string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if t, ok := m.texts[filename]; ok {
		return t, nil
	}
	if m.text != "" {
		return m.text, nil
	}
	return string(content), nil
}

func (m *mockTextExtractor) SupportedExtensions() []string {
	return []string{".pdf", ".png", ".txt"}
}

// mockFieldExtractor implements driven.FieldExtractor for testing.
type mockFieldExtractor struct {
	result  domain.ExtractionResult
	err     error
	gotType string
}

func (m *mockFieldExtractor) ExtractFields(_ context.Context, _ string, dt domain.DocumentType) (domain.ExtractionResult, error) {
	m.gotType = dt.Name
	return m.result, m.err
}

// mockClassifier implements driving.ClassificationService for testing.
type mockClassifier struct {
	result domain.Classification
}

func (m *mockClassifier) Classify(_ context.Context, _ string) domain.Classification {
	return m.result
}

// mockCorpus implements driven.Corpus for testing.
type mockCorpus struct {
	docs    []domain.CorpusDocument
	content map[string]string
	scanErr error
	readErr map[string]error
	watch   chan domain.CorpusDocument
}

func (m *mockCorpus) Scan(_ context.Context, _ string) ([]domain.CorpusDocument, error) {
	return m.docs, m.scanErr
}

func (m *mockCorpus) Read(_ context.Context, doc domain.CorpusDocument) ([]byte, error) {
	if err := m.readErr[doc.Path]; err != nil {
		return nil, err
	}
	return []byte(m.content[doc.Path]), nil
}

func (m *mockCorpus) Watch(_ context.Context, _ string) (<-chan domain.CorpusDocument, error) {
	return m.watch, nil
}

func strPtr(s string) *string { return &s }
