package cli

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Short key", input: "abc123", expected: "****"},
		{name: "Exactly 8 chars", input: "12345678", expected: "****"},
		{name: "Long key", input: "sk-1234567890abcdef", expected: "sk-1...cdef"},
		{name: "Empty key", input: "", expected: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{name: "Empty input returns default", input: "", maxVal: 5, defaultVal: 1, expected: 1},
		{name: "Valid choice within range", input: "3", maxVal: 5, defaultVal: 1, expected: 3},
		{name: "Choice below minimum returns default", input: "0", maxVal: 5, defaultVal: 1, expected: 1},
		{name: "Choice above maximum returns default", input: "6", maxVal: 5, defaultVal: 2, expected: 2},
		{name: "Non-numeric returns default", input: "abc", maxVal: 5, defaultVal: 1, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, tt.maxVal, tt.defaultVal))
		})
	}
}

func TestPrompt_UsesDefaultOnEmptyInput(t *testing.T) {
	var out strings.Builder
	reader := bufio.NewReader(strings.NewReader("\nvalue\n"))

	assert.Equal(t, "def", prompt(&out, reader, "Label", "def"))
	assert.Equal(t, "value", prompt(&out, reader, "Label", "def"))
	assert.Contains(t, out.String(), "Label [def]: ")
}

func TestConfigShowCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.store.settings.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-1234567890abcdef",
	}

	out, err := executeCommand("config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Backend: SQLite (embedded)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "Status: not configured")
}

func TestConfigShowCmd_JSONMasksSecrets(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.store.settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk-secretsecretsecret"}
	ts.store.settings.Index.PostgresDSN = "postgres://user:pw@db/docs"

	out, err := executeCommand("config", "--json")

	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secretsecretsecret")
	assert.NotContains(t, out, "user:pw")
}

func TestConfigShowCmd_LoadError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.store.loadErr = domain.ErrInvalidInput

	_, err := executeCommand("config", "show")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigPathCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("config", "path")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/docintel/config.toml\n", out)
}

func TestConfigInitCmd_Qdrant(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	input := strings.Join([]string{
		"2",            // qdrant
		"qdrant.local", // host
		"7334",         // port
		"2",            // ollama embeddings
		"",             // default model
		"",             // default URL
		"3",            // openai LLM
		"",             // default model
		"sk-llmkey-0123456789",
		"/srv/corpus",
	}, "\n") + "\n"
	rootCmd.SetIn(strings.NewReader(input))

	out, err := executeCommand("config", "init")

	require.NoError(t, err)
	require.NotNil(t, ts.store.saved)
	saved := ts.store.saved
	assert.Equal(t, domain.IndexBackendQdrant, saved.Index.Backend)
	assert.Equal(t, "qdrant.local", saved.Index.QdrantHost)
	assert.Equal(t, 7334, saved.Index.QdrantPort)
	assert.Equal(t, domain.AIProviderOllama, saved.Embedding.Provider)
	assert.Equal(t, "all-minilm", saved.Embedding.Model)
	assert.Equal(t, 384, saved.Embedding.Dimensions)
	assert.Equal(t, "http://localhost:11434", saved.Embedding.BaseURL)
	assert.Equal(t, domain.AIProviderOpenAI, saved.LLM.Provider)
	assert.Equal(t, "gpt-3.5-turbo", saved.LLM.Model)
	assert.Equal(t, "sk-llmkey-0123456789", saved.LLM.APIKey)
	assert.Equal(t, "/srv/corpus", saved.Warmup.DataDir)
	assert.Contains(t, out, "Settings saved to /tmp/docintel/config.toml")
}

func TestConfigInitCmd_MarqoSkipsEmbedding(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("4\n\n\n\n"))

	out, err := executeCommand("config", "init")

	require.NoError(t, err)
	saved := ts.store.saved
	require.NotNil(t, saved)
	assert.Equal(t, domain.IndexBackendMarqo, saved.Index.Backend)
	assert.Equal(t, "http://localhost:8882", saved.Index.MarqoURL)
	assert.Equal(t, domain.AIProviderNone, saved.LLM.Provider)
	assert.Equal(t, "data/samples", saved.Warmup.DataDir)
	assert.Contains(t, out, "Embedding Provider (skipped)")
}
