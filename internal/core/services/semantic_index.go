package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure SemanticIndex implements the interface.
var _ driving.IndexService = (*SemanticIndex)(nil)

// DefaultCallTimeout bounds a single backend call on the request path.
const DefaultCallTimeout = 10 * time.Second

// SemanticIndexConfig configures a SemanticIndex.
type SemanticIndexConfig struct {
	// Name is the index name inside the backend.
	Name string

	// CallTimeout bounds each backend call. Zero uses DefaultCallTimeout.
	CallTimeout time.Duration

	// Types lists the supported types reported by Status.
	Types *domain.TypeTable
}

// SearchResult is the outcome of a neighbour search.
type SearchResult struct {
	// Neighbors are ordered by descending score and all clear the threshold.
	Neighbors []domain.Neighbor

	// Outcome is degraded when the index was unavailable or the search failed.
	Outcome domain.Outcome
}

// SemanticIndex wraps an IndexBackend with lazy, idempotent readiness.
//
// Readiness is cached in an atomic and never treated as permanent:
// a backend failure invalidates it and the next call re-probes.
// Concurrent callers may both try to create the index; backends treat
// an existing index as success, so no lock is held.
type SemanticIndex struct {
	backend driven.IndexBackend
	name    string
	timeout time.Duration
	types   *domain.TypeTable
	state   atomic.Int32
	newID   func() string
}

// NewSemanticIndex creates an index wrapper. It does not contact the backend;
// call Probe for a non-blocking first check.
func NewSemanticIndex(backend driven.IndexBackend, cfg SemanticIndexConfig) *SemanticIndex {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &SemanticIndex{
		backend: backend,
		name:    cfg.Name,
		timeout: timeout,
		types:   cfg.Types,
		newID: func() string {
			return "doc_" + uuid.NewString()
		},
	}
}

// Name returns the index name.
func (s *SemanticIndex) Name() string {
	return s.name
}

// Readiness returns the cached state without contacting the backend.
func (s *SemanticIndex) Readiness() domain.Readiness {
	return domain.Readiness(s.state.Load())
}

func (s *SemanticIndex) setReadiness(r domain.Readiness) {
	s.state.Store(int32(r))
}

// invalidate drops a cached ready state after a backend failure.
func (s *SemanticIndex) invalidate() {
	s.state.CompareAndSwap(int32(domain.ReadinessReady), int32(domain.ReadinessUnknown))
}

// Probe checks readiness in the background and returns immediately.
func (s *SemanticIndex) Probe(ctx context.Context) {
	go func() {
		if s.EnsureReady(ctx) {
			logger.Debug("Semantic index %q ready on %s", s.name, s.backend.Name())
			return
		}
		logger.Warn("Semantic index %q not ready on %s, classification will fall back to keywords",
			s.name, s.backend.Name())
	}()
}

// EnsureReady reports whether the index is queryable, creating it if it
// does not exist. It never panics and each backend call is bounded by
// the configured timeout. There is no retry here.
func (s *SemanticIndex) EnsureReady(ctx context.Context) bool {
	if s.Readiness() == domain.ReadinessReady {
		return true
	}

	err := s.call(ctx, func(ctx context.Context) error {
		exists, err := s.backend.IndexExists(ctx, s.name)
		if err != nil {
			return fmt.Errorf("check index: %w", err)
		}
		if exists {
			return nil
		}
		logger.Info("Creating index %q on %s", s.name, s.backend.Name())
		if err := s.backend.CreateIndex(ctx, s.name); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Debug("Index %q unavailable: %v", s.name, err)
		s.setReadiness(domain.ReadinessUnavailable)
		return false
	}

	s.setReadiness(domain.ReadinessReady)
	return true
}

// Add upserts records. Records without an ID get a generated one.
// Failure is reported as a degraded outcome, never as an error.
func (s *SemanticIndex) Add(ctx context.Context, records []domain.IndexRecord) domain.Outcome {
	if len(records) == 0 {
		return domain.Degraded(domain.ReasonEmptyBatch, nil)
	}
	if !s.EnsureReady(ctx) {
		return domain.Degraded(domain.ReasonIndexUnavailable, domain.ErrIndexUnavailable)
	}

	prepared := make([]domain.IndexRecord, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			rec.ID = s.newID()
		}
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		}
		prepared[i] = rec
	}

	var result driven.AddResult
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.backend.AddDocuments(ctx, s.name, prepared)
		return err
	})
	if err != nil {
		logger.Warn("Add %d records to %q failed: %v", len(prepared), s.name, err)
		s.invalidate()
		return domain.Degraded(domain.ReasonWriteFailed, err)
	}
	if result.HasErrors() {
		first := result.Errors[0]
		logger.Warn("Backend rejected %d of %d records (first %s: %s)",
			len(result.Errors), len(prepared), first.ID, first.Message)
		return domain.Degraded(domain.ReasonWriteRejected,
			fmt.Errorf("%d of %d records rejected", len(result.Errors), len(prepared)))
	}

	logger.Debug("Added %d records to %q", len(prepared), s.name)
	return domain.Ok()
}

// Search returns neighbours of query scoring at least threshold, best first.
// Backend failures yield an empty, degraded result. The error is non-nil
// only when ctx itself is done.
func (s *SemanticIndex) Search(ctx context.Context, query string, limit int, threshold float64) (SearchResult, error) {
	empty := []domain.Neighbor{}
	if err := ctx.Err(); err != nil {
		return SearchResult{Neighbors: empty, Outcome: domain.Fatal(err)}, err
	}
	if !s.EnsureReady(ctx) {
		return SearchResult{
			Neighbors: empty,
			Outcome:   domain.Degraded(domain.ReasonIndexUnavailable, domain.ErrIndexUnavailable),
		}, nil
	}

	var hits []driven.IndexHit
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		hits, err = s.backend.Search(ctx, s.name, query, limit)
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return SearchResult{Neighbors: empty, Outcome: domain.Fatal(ctxErr)}, ctxErr
		}
		logger.Warn("Search on %q failed: %v", s.name, err)
		s.invalidate()
		return SearchResult{Neighbors: empty, Outcome: domain.Degraded(domain.ReasonSearchFailed, err)}, nil
	}

	neighbors := make([]domain.Neighbor, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < threshold {
			continue
		}
		neighbors = append(neighbors, domain.Neighbor{
			ID:             hit.Record.ID,
			DocumentType:   hit.Record.DocumentType,
			Score:          hit.Score,
			Filename:       hit.Record.Filename,
			ContentPreview: domain.Preview(hit.Record.Content),
			Metadata:       hit.Record.Metadata,
		})
	}
	logger.Debug("Search on %q: %d hits, %d above threshold %.2f", s.name, len(hits), len(neighbors), threshold)

	if len(neighbors) == 0 {
		return SearchResult{Neighbors: neighbors, Outcome: domain.Degraded(domain.ReasonNoNeighbors, nil)}, nil
	}
	return SearchResult{Neighbors: neighbors, Outcome: domain.Ok()}, nil
}

// TypeDistribution tallies a bounded sample of records by document type.
func (s *SemanticIndex) TypeDistribution(ctx context.Context) (map[string]int, domain.Outcome) {
	dist := map[string]int{}
	if !s.EnsureReady(ctx) {
		return dist, domain.Degraded(domain.ReasonIndexUnavailable, domain.ErrIndexUnavailable)
	}

	var records []domain.IndexRecord
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.backend.Sample(ctx, s.name, domain.DistributionSampleLimit)
		return err
	})
	if err != nil {
		logger.Warn("Sample %q failed: %v", s.name, err)
		s.invalidate()
		return dist, domain.Degraded(domain.ReasonSearchFailed, err)
	}

	for _, rec := range records {
		docType := rec.DocumentType
		if docType == "" {
			docType = domain.UnknownType
		}
		dist[docType]++
	}
	return dist, domain.Ok()
}

// Status re-checks readiness and reports counts.
func (s *SemanticIndex) Status(ctx context.Context) domain.IndexStatus {
	status := domain.IndexStatus{
		Backend:        s.backend.Name(),
		IndexName:      s.name,
		Distribution:   map[string]int{},
		SupportedTypes: s.types.Names(),
	}
	if status.SupportedTypes == nil {
		status.SupportedTypes = []string{}
	}

	if !s.EnsureReady(ctx) {
		status.State = s.Readiness()
		return status
	}

	dist, _ := s.TypeDistribution(ctx)
	for _, n := range dist {
		status.TotalDocuments += n
	}
	status.Distribution = dist
	status.State = s.Readiness()
	return status
}

// Reset deletes the index. Unlike every other operation, failure is
// returned to the caller. Readiness returns to unknown either way.
func (s *SemanticIndex) Reset(ctx context.Context) error {
	logger.Info("Deleting index %q on %s", s.name, s.backend.Name())
	err := s.call(ctx, func(ctx context.Context) error {
		return s.backend.DeleteIndex(ctx, s.name)
	})
	s.setReadiness(domain.ReadinessUnknown)
	if err != nil {
		return fmt.Errorf("reset index %q: %w", s.name, err)
	}
	return nil
}

// call runs fn with the per-call timeout and converts panics into errors.
func (s *SemanticIndex) call(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: backend panic: %v", errBackendPanic, r)
		}
	}()
	return fn(ctx)
}

var errBackendPanic = errors.New("index backend failure")
