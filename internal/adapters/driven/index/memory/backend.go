// Package memory provides an in-process driven.IndexBackend.
// Records are lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docintel/internal/adapters/driven/index/vectorutil"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure IndexBackend implements the interface.
var _ driven.IndexBackend = (*IndexBackend)(nil)

type entry struct {
	record domain.IndexRecord
	vector []float32
}

// IndexBackend keeps indexes in maps and searches by brute-force cosine.
type IndexBackend struct {
	mu       sync.RWMutex
	embedder driven.EmbeddingService
	indexes  map[string]map[string]entry
}

// NewIndexBackend creates an empty in-memory backend.
func NewIndexBackend(embedder driven.EmbeddingService) *IndexBackend {
	return &IndexBackend{
		embedder: embedder,
		indexes:  make(map[string]map[string]entry),
	}
}

// Name returns the backend name.
func (b *IndexBackend) Name() string {
	return string(domain.IndexBackendMemory)
}

// IndexExists reports whether the index has been created.
func (b *IndexBackend) IndexExists(_ context.Context, index string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.indexes[index]
	return ok, nil
}

// CreateIndex creates the index if it does not exist.
func (b *IndexBackend) CreateIndex(_ context.Context, index string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.indexes[index]; !ok {
		b.indexes[index] = make(map[string]entry)
	}
	return nil
}

// DeleteIndex removes the index and its records.
func (b *IndexBackend) DeleteIndex(_ context.Context, index string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.indexes[index]; !ok {
		return domain.ErrIndexNotFound
	}
	delete(b.indexes, index)
	return nil
}

// AddDocuments embeds and upserts records. Records with blank content are
// rejected individually.
func (b *IndexBackend) AddDocuments(ctx context.Context, index string, records []domain.IndexRecord) (driven.AddResult, error) {
	var result driven.AddResult
	accepted := make([]domain.IndexRecord, 0, len(records))
	texts := make([]string, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.Content) == "" {
			result.Errors = append(result.Errors, driven.RecordError{ID: rec.ID, Message: "empty content"})
			continue
		}
		accepted = append(accepted, rec)
		texts = append(texts, rec.Content)
	}
	if len(accepted) == 0 {
		return result, nil
	}

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return result, fmt.Errorf("embed records: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	entries, ok := b.indexes[index]
	if !ok {
		return result, domain.ErrIndexNotFound
	}
	for i, rec := range accepted {
		entries[rec.ID] = entry{record: rec, vector: vectors[i]}
	}
	return result, nil
}

// Search embeds the query and ranks every record by cosine similarity.
func (b *IndexBackend) Search(ctx context.Context, index, query string, limit int) ([]driven.IndexHit, error) {
	vector, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	entries, ok := b.indexes[index]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}

	scored := make([]vectorutil.Scored, 0, len(entries))
	for id, e := range entries {
		s, err := vectorutil.Cosine(vector, e.vector)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		scored = append(scored, vectorutil.Scored{Key: id, Score: s})
	}

	top := vectorutil.TopK(scored, limit)
	hits := make([]driven.IndexHit, len(top))
	for i, s := range top {
		hits[i] = driven.IndexHit{Record: entries[s.Key].record, Score: s.Score}
	}
	return hits, nil
}

// Sample returns up to limit records ordered by ID.
func (b *IndexBackend) Sample(_ context.Context, index string, limit int) ([]domain.IndexRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries, ok := b.indexes[index]
	if !ok {
		return nil, domain.ErrIndexNotFound
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	records := make([]domain.IndexRecord, len(ids))
	for i, id := range ids {
		records[i] = entries[id].record
	}
	return records, nil
}

// Close releases resources.
func (b *IndexBackend) Close() error {
	return nil
}
