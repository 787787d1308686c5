package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func TestClassifyCmd_Use(t *testing.T) {
	assert.Equal(t, "classify [text]", classifyCmd.Use)
	flag := classifyCmd.Flags().Lookup("file")
	require.NotNil(t, flag)
	assert.Equal(t, "f", flag.Shorthand)
}

func TestClassifyCmd_JoinsArgs(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("classify", "invoice", "total", "due")

	require.NoError(t, err)
	assert.Equal(t, []string{"invoice total due"}, ts.classifier.texts)
	assert.Contains(t, out, "Type:       invoice")
	assert.Contains(t, out, "Method:     semantic")
	assert.Contains(t, out, "a.pdf (invoice, 0.900)")
	assert.NotContains(t, out, "Outcome:")
}

func TestClassifyCmd_ShowsDegradedOutcome(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.classifier.result = domain.Classification{
		DocumentType:     "receipt",
		Confidence:       0.4,
		Method:           domain.MethodLexical,
		Outcome:          domain.Degraded(domain.ReasonIndexUnavailable, nil),
		SimilarDocuments: []domain.Neighbor{},
	}

	out, err := executeCommand("classify", "thanks for shopping")

	require.NoError(t, err)
	assert.Contains(t, out, "Method:     lexical")
	assert.Contains(t, out, "Outcome:    degraded (index_unavailable)")
	assert.NotContains(t, out, "Similar documents")
}

func TestClassifyCmd_ReadsFile(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("from a file"), 0o600))

	_, err := executeCommand("classify", "--file", path)

	require.NoError(t, err)
	assert.Equal(t, []string{"from a file"}, ts.classifier.texts)
}

func TestClassifyCmd_ReadsStdin(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("piped text"))

	_, err := executeCommand("classify", "-f", "-")

	require.NoError(t, err)
	assert.Equal(t, []string{"piped text"}, ts.classifier.texts)
}

func TestClassifyCmd_RequiresText(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("classify", "   ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, ts.classifier.texts)
}

func TestClassifyCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("classify", "--json", "invoice")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "invoice", got["document_type"])
	assert.Equal(t, "semantic", got["method"])
	assert.Equal(t, "ok", got["outcome"].(map[string]any)["status"])
}
