// Package cached decorates an embedding service with an in-memory TTL cache.
// Warm-up and repeated classification of the same text skip the model call.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultTTL is used when a non-positive TTL is given.
const DefaultTTL = 10 * time.Minute

// EmbeddingService caches vectors keyed by model and text.
type EmbeddingService struct {
	next  driven.EmbeddingService
	cache *gocache.Cache
}

// NewEmbeddingService wraps next with a cache whose entries expire after ttl.
func NewEmbeddingService(next driven.EmbeddingService, ttl time.Duration) *EmbeddingService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EmbeddingService{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Embed returns the cached vector or delegates and stores the result.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)
	if v, ok := s.cache.Get(key); ok {
		return v.([]float32), nil
	}

	vec, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, vec)
	return vec, nil
}

// EmbedBatch only forwards the texts that are not cached.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if v, ok := s.cache.Get(s.key(text)); ok {
			out[i] = v.([]float32)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := s.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		out[missingIdx[j]] = vec
		s.cache.SetDefault(s.key(missing[j]), vec)
	}
	return out, nil
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping delegates to the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close flushes the cache and closes the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Flush()
	return s.next.Close()
}

// Len reports the number of cached vectors.
func (s *EmbeddingService) Len() int {
	return s.cache.ItemCount()
}

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return s.next.ModelName() + ":" + hex.EncodeToString(sum[:])
}
