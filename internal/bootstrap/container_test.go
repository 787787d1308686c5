package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

func memorySettings() domain.Settings {
	settings := domain.DefaultSettings()
	settings.Index.Backend = domain.IndexBackendMemory
	settings.Embedding.Provider = domain.AIProviderHashing
	return settings
}

func TestNew_MemoryBackendEndToEnd(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, memorySettings(), Options{SkipProbe: true})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "memory", c.Backend.Name())
	assert.NotNil(t, c.Embedder)
	assert.Nil(t, c.LLM)

	// Empty index: the keyword classifier decides
	text := "INVOICE\nInvoice #: INV-2024-001\nTotal Amount: $1,250.00\nVendor: ABC Company"
	first := c.Classifier.Classify(ctx, text)
	assert.Equal(t, "invoice", first.DocumentType)
	assert.InDelta(t, 0.2, first.Confidence, 1e-9)
	assert.Equal(t, domain.MethodLexical, first.Method)

	outcome := c.Ingest.Ingest(ctx, driving.IngestRequest{
		ID: "r-1", Text: "store receipt cashier thank you", DocumentType: "receipt",
	})
	require.True(t, outcome.IsOK(), outcome.String())

	second := c.Classifier.Classify(ctx, "store receipt cashier thank you")
	assert.Equal(t, "receipt", second.DocumentType)
	assert.Equal(t, domain.MethodSemantic, second.Method)
	assert.InDelta(t, 1.0, second.Confidence, 1e-9)

	status := c.Index.Status(ctx)
	assert.Equal(t, domain.ReadinessReady, status.State)
	assert.Equal(t, 1, status.Distribution["receipt"])
}

func TestNew_LoadsTypesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
types:
  - name: memo
    fields: [author]
    keywords: [memo]
`), 0600))
	settings := memorySettings()
	settings.TypesFile = path

	c, err := New(context.Background(), settings, Options{SkipProbe: true})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"memo"}, c.Types.Names())
	assert.Len(t, c.Catalog.Types(), 1)
}

func TestNew_BadTypesFile(t *testing.T) {
	settings := memorySettings()
	settings.TypesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(context.Background(), settings, Options{SkipProbe: true})

	assert.Error(t, err)
}

func TestNew_VectorBackendWithoutEmbedder(t *testing.T) {
	settings := memorySettings()
	settings.Embedding.Provider = domain.AIProviderNone

	_, err := New(context.Background(), settings, Options{SkipProbe: true})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNew_SQLiteBackend(t *testing.T) {
	settings := memorySettings()
	settings.Index.Backend = domain.IndexBackendSQLite
	settings.Index.DataDir = t.TempDir()

	c, err := New(context.Background(), settings, Options{SkipProbe: true})
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.Backend.Name())
	assert.NoError(t, c.Close())
}

func TestNewIndexBackend_Marqo(t *testing.T) {
	backend, err := NewIndexBackend(domain.IndexSettings{
		Backend:  domain.IndexBackendMarqo,
		MarqoURL: "http://localhost:8882",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "marqo", backend.Name())
}

func TestNewIndexBackend_Errors(t *testing.T) {
	c, err := New(context.Background(), memorySettings(), Options{SkipProbe: true})
	require.NoError(t, err)
	defer c.Close()

	_, err = NewIndexBackend(domain.IndexSettings{Backend: domain.IndexBackendPGVector}, c.Embedder)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewIndexBackend(domain.IndexSettings{Backend: "redis"}, c.Embedder)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewIndexBackend(domain.IndexSettings{Backend: domain.IndexBackendQdrant}, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNew_PGVectorUnreachable(t *testing.T) {
	settings := memorySettings()
	settings.Index.Backend = domain.IndexBackendPGVector
	settings.Index.PostgresDSN = "host=127.0.0.1 port=1 user=docintel dbname=docintel sslmode=disable connect_timeout=2"

	ctx := context.Background()
	c, err := New(ctx, settings, Options{SkipProbe: true})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "pgvector", c.Backend.Name())

	result := c.Classifier.Classify(ctx, "INVOICE\nInvoice #: INV-2024-001\nTotal Amount: $1,250.00")
	assert.Equal(t, "invoice", result.DocumentType)
	assert.Equal(t, domain.MethodLexical, result.Method)
	assert.Equal(t, domain.ReasonIndexUnavailable, result.Outcome.Reason)

	assert.Equal(t, domain.ReadinessUnavailable, c.Index.Status(ctx).State)
}
