package services

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure Classifier implements the interface.
var _ driving.ClassificationService = (*Classifier)(nil)

// NeighborSearcher finds labelled neighbours of a query.
// SemanticIndex is the production implementation.
type NeighborSearcher interface {
	Search(ctx context.Context, query string, limit int, threshold float64) (SearchResult, error)
}

// ClassifierConfig tunes the hybrid classifier.
type ClassifierConfig struct {
	// Limit is the number of neighbours requested.
	Limit int

	// ScoreThreshold drops weaker neighbours.
	ScoreThreshold float64

	// PreviewCount is how many neighbours are returned as evidence.
	PreviewCount int
}

// DefaultClassifierConfig returns the standard tuning.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Limit:          domain.DefaultSearchLimit,
		ScoreThreshold: domain.DefaultScoreThreshold,
		PreviewCount:   domain.DefaultPreviewCount,
	}
}

// Classifier combines semantic neighbour voting with keyword fallback.
// Classify always returns an answer; it holds no per-call state.
type Classifier struct {
	index   NeighborSearcher
	lexical *LexicalClassifier
	types   *domain.TypeTable
	cfg     ClassifierConfig
}

// NewClassifier creates a hybrid classifier. Zero config fields take defaults.
func NewClassifier(index NeighborSearcher, types *domain.TypeTable, cfg ClassifierConfig) *Classifier {
	def := DefaultClassifierConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.ScoreThreshold < 0 {
		cfg.ScoreThreshold = def.ScoreThreshold
	}
	if cfg.PreviewCount <= 0 {
		cfg.PreviewCount = def.PreviewCount
	}
	return &Classifier{
		index:   index,
		lexical: NewLexicalClassifier(types),
		types:   types,
		cfg:     cfg,
	}
}

// Classify returns the document type for text.
//
// Neighbours found: their scores are summed per known type, normalised,
// and the arg-max wins. No neighbours: the keyword classifier decides.
// Any failure while searching or scoring yields the unknown sentinel.
func (c *Classifier) Classify(ctx context.Context, text string) (result domain.Classification) {
	logger.Section("Classification")
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Classification failed: %v", r)
			result = domain.UnknownClassification(fmt.Errorf("classify: %v", r))
		}
	}()

	found, err := c.index.Search(ctx, text, c.cfg.Limit, c.cfg.ScoreThreshold)
	if err != nil {
		logger.Warn("Neighbour search failed: %v", err)
		return domain.UnknownClassification(err)
	}

	if len(found.Neighbors) == 0 {
		lex := c.lexical.Classify(text)
		outcome := found.Outcome
		if outcome.IsOK() {
			outcome = domain.Degraded(domain.ReasonNoNeighbors, nil)
		}
		logger.Debug("No neighbours (%s), keyword result %s %.3f", outcome, lex.DocumentType, lex.Confidence)
		return domain.Classification{
			DocumentType:     lex.DocumentType,
			Confidence:       lex.Confidence,
			SimilarDocuments: []domain.Neighbor{},
			Method:           domain.MethodLexical,
			Outcome:          outcome,
		}
	}

	scores, err := AggregateScores(c.types, found.Neighbors)
	if err != nil {
		logger.Warn("Score aggregation failed: %v", err)
		return domain.UnknownClassification(err)
	}
	normalized := NormalizeScores(scores)

	similar := found.Neighbors
	if len(similar) > c.cfg.PreviewCount {
		similar = similar[:c.cfg.PreviewCount]
	}
	similar = append([]domain.Neighbor(nil), similar...)

	best, confidence := argMax(c.types, normalized)
	if best == "" {
		logger.Debug("%d neighbours, none with a known type", len(found.Neighbors))
		return domain.Classification{
			DocumentType:     domain.UnknownType,
			Confidence:       0,
			SimilarDocuments: similar,
			Method:           domain.MethodSemantic,
			Outcome:          domain.Degraded(domain.ReasonNoKnownTypes, nil),
		}
	}

	logger.Debug("%d neighbours, semantic result %s %.3f", len(found.Neighbors), best, confidence)
	return domain.Classification{
		DocumentType:     best,
		Confidence:       confidence,
		SimilarDocuments: similar,
		Method:           domain.MethodSemantic,
		Outcome:          domain.Ok(),
	}
}

// AggregateScores sums neighbour scores into per-type buckets. Every known
// type is present in the result. Neighbours with unknown types are ignored.
// A non-finite score is reported as malformed.
func AggregateScores(types *domain.TypeTable, neighbors []domain.Neighbor) (domain.TypeScores, error) {
	scores := make(domain.TypeScores, types.Len())
	for _, name := range types.Names() {
		scores[name] = 0
	}
	for i, n := range neighbors {
		if math.IsNaN(n.Score) || math.IsInf(n.Score, 0) {
			return nil, fmt.Errorf("%w: neighbour %d has score %v", domain.ErrInvalidInput, i, n.Score)
		}
		if !types.Has(n.DocumentType) || n.Score <= 0 {
			continue
		}
		scores[n.DocumentType] += n.Score
	}
	return scores, nil
}

// NormalizeScores scales scores to sum to 1. An all-zero vector is returned
// unchanged.
func NormalizeScores(scores domain.TypeScores) domain.TypeScores {
	out := make(domain.TypeScores, len(scores))
	total := scores.Total()
	for name, v := range scores {
		if total > 0 {
			out[name] = v / total
		} else {
			out[name] = 0
		}
	}
	return out
}

// argMax returns the highest-scoring type, first declared on ties.
// It returns "" when every score is zero.
func argMax(types *domain.TypeTable, scores domain.TypeScores) (string, float64) {
	best, bestScore := "", 0.0
	for _, name := range types.Names() {
		if s := scores[name]; s > bestScore {
			best, bestScore = name, s
		}
	}
	return best, bestScore
}
