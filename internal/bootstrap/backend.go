package bootstrap

import (
	"fmt"

	"github.com/custodia-labs/docintel/internal/adapters/driven/index/marqo"
	"github.com/custodia-labs/docintel/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/docintel/internal/adapters/driven/index/pgvector"
	"github.com/custodia-labs/docintel/internal/adapters/driven/index/qdrant"
	"github.com/custodia-labs/docintel/internal/adapters/driven/index/sqlite"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// NewIndexBackend creates the backend selected by settings. Backends that
// store vectors need a non-nil embedder.
func NewIndexBackend(settings domain.IndexSettings, embedder driven.EmbeddingService) (driven.IndexBackend, error) {
	if settings.Backend.RequiresEmbedding() && embedder == nil {
		return nil, fmt.Errorf("%w: backend %s needs an embedding provider",
			domain.ErrEmbeddingUnavailable, settings.Backend)
	}

	switch settings.Backend {
	case domain.IndexBackendMarqo:
		return marqo.NewIndexBackend(marqo.Config{
			URL:     settings.MarqoURL,
			Model:   settings.MarqoModel,
			Timeout: settings.CallTimeout,
		}), nil
	case domain.IndexBackendQdrant:
		b, err := qdrant.Dial(settings.QdrantHost, settings.QdrantPort, embedder)
		if err != nil {
			return nil, err
		}
		return b, nil
	case domain.IndexBackendSQLite:
		b, err := sqlite.NewIndexBackend(settings.DataDir, embedder)
		if err != nil {
			return nil, err
		}
		return b, nil
	case domain.IndexBackendPGVector:
		if settings.PostgresDSN == "" {
			return nil, fmt.Errorf("%w: pgvector backend needs a DSN", domain.ErrInvalidInput)
		}
		b, err := pgvector.Open(settings.PostgresDSN, embedder)
		if err != nil {
			return nil, err
		}
		return b, nil
	case domain.IndexBackendMemory:
		return memory.NewIndexBackend(embedder), nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}
