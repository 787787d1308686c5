package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/docintel/internal/core/domain"
)

// setupTestBackend creates a SQLite backend in a temporary directory.
func setupTestBackend(t *testing.T) *IndexBackend {
	t.Helper()

	b, err := NewIndexBackend(t.TempDir(), hashing.NewEmbeddingService(64))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, b.Close()) })
	return b
}

func TestNewIndexBackend_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := NewIndexBackend(dir, hashing.NewEmbeddingService(8))
	require.NoError(t, err)
	require.NoError(t, b.CreateIndex(ctx, "idx"))
	require.NoError(t, b.Close())

	b, err = NewIndexBackend(dir, hashing.NewEmbeddingService(8))
	require.NoError(t, err)
	defer b.Close()

	ok, err := b.IndexExists(ctx, "idx")
	require.NoError(t, err)
	assert.True(t, ok, "migrations must not re-run and index must persist")

	var version int
	require.NoError(t, b.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestIndexLifecycle(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()

	ok, err := b.IndexExists(ctx, "idx")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.CreateIndex(ctx, "idx"))
	require.NoError(t, b.CreateIndex(ctx, "idx"), "create is idempotent")

	ok, err = b.IndexExists(ctx, "idx")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.DeleteIndex(ctx, "idx"))
	assert.ErrorIs(t, b.DeleteIndex(ctx, "idx"), domain.ErrIndexNotFound)
}

func TestAddAndSearch(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()
	require.NoError(t, b.CreateIndex(ctx, "idx"))

	result, err := b.AddDocuments(ctx, "idx", []domain.IndexRecord{
		{ID: "inv", Content: "invoice total amount due", DocumentType: "invoice", Filename: "inv.pdf",
			Metadata: map[string]any{"source": "warmup"}},
		{ID: "cv", Content: "resume experience education skills", DocumentType: "resume"},
		{ID: "blank", Content: "   ", DocumentType: "resume"},
	})

	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "blank", result.Errors[0].ID)

	hits, err := b.Search(ctx, "idx", "invoice amount due", 1)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "inv", hits[0].Record.ID)
	assert.Equal(t, "invoice", hits[0].Record.DocumentType)
	assert.Equal(t, map[string]any{"source": "warmup"}, hits[0].Record.Metadata)
	assert.Greater(t, hits[0].Score, 0.3)
}

func TestAddDocuments_Upserts(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()
	require.NoError(t, b.CreateIndex(ctx, "idx"))

	_, err := b.AddDocuments(ctx, "idx", []domain.IndexRecord{{ID: "a", Content: "one", DocumentType: "invoice"}})
	require.NoError(t, err)
	_, err = b.AddDocuments(ctx, "idx", []domain.IndexRecord{{ID: "a", Content: "two", DocumentType: "contract"}})
	require.NoError(t, err)

	records, err := b.Sample(ctx, "idx", 10)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "contract", records[0].DocumentType)
	assert.Equal(t, "two", records[0].Content)
}

func TestAddDocuments_MissingIndex(t *testing.T) {
	b := setupTestBackend(t)

	_, err := b.AddDocuments(context.Background(), "idx", []domain.IndexRecord{{ID: "a", Content: "x"}})

	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestDeleteIndex_CascadesRecords(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()
	require.NoError(t, b.CreateIndex(ctx, "idx"))
	_, err := b.AddDocuments(ctx, "idx", []domain.IndexRecord{{ID: "a", Content: "x", DocumentType: "invoice"}})
	require.NoError(t, err)

	require.NoError(t, b.DeleteIndex(ctx, "idx"))
	require.NoError(t, b.CreateIndex(ctx, "idx"))

	records, err := b.Sample(ctx, "idx", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSample_Limit(t *testing.T) {
	b := setupTestBackend(t)
	ctx := context.Background()
	require.NoError(t, b.CreateIndex(ctx, "idx"))
	_, err := b.AddDocuments(ctx, "idx", []domain.IndexRecord{
		{ID: "c", Content: "x", DocumentType: "invoice"},
		{ID: "a", Content: "y", DocumentType: "invoice"},
		{ID: "b", Content: "z", DocumentType: "resume"},
	})
	require.NoError(t, err)

	records, err := b.Sample(ctx, "idx", 2)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)

	_, err = b.Sample(ctx, "missing", 2)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}
