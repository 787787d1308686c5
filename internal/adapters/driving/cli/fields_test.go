package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func TestFieldsCmd_RequiresType(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("fields")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestFieldsCmd_ExtractsForType(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.pipeline.extraction = domain.ExtractionResult{
		Entities: map[string]*string{"store_name": strPtr("Corner Shop"), "date": nil},
	}

	out, err := executeCommand("fields", "receipt", "Corner", "Shop", "receipt")

	require.NoError(t, err)
	assert.Equal(t, "receipt", ts.pipeline.fieldType)
	assert.Equal(t, "Corner Shop receipt", ts.pipeline.fieldText)
	assert.Contains(t, out, "Fields for receipt:")
	assert.Contains(t, out, "Corner Shop")
}

func TestFieldsCmd_PropagatesError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.pipeline.err = domain.ErrExtractionUnavailable

	_, err := executeCommand("fields", "invoice", "text")

	assert.ErrorIs(t, err, domain.ErrExtractionUnavailable)
}

func TestFieldsCmd_NoEntities(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.pipeline.extraction = domain.EmptyExtraction()

	out, err := executeCommand("fields", "invoice", "text")

	require.NoError(t, err)
	assert.Contains(t, out, "(no entities)")
}
