package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// newTestStore isolates the store from the process environment.
func newTestStore(t *testing.T, env map[string]string) *SettingsStore {
	t.Helper()
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)
	store.envFiles = []string{filepath.Join(store.Dir(), ".env")}
	store.lookup = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return store
}

func writeConfig(t *testing.T, store *SettingsStore, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))
}

func TestNewSettingsStore_Path(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewSettingsStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewSettingsStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	store, err := NewSettingsStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docintel", "config.toml"), store.Path())
}

func TestSettingsStore_LoadMissingFileGivesDefaults(t *testing.T) {
	store := newTestStore(t, nil)

	settings, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestSettingsStore_LoadOverlaysFile(t *testing.T) {
	store := newTestStore(t, nil)
	writeConfig(t, store, `
[index]
backend = "qdrant"
name = "docs"
call_timeout = "3s"

[index.qdrant]
host = "qdrant.local"
port = 7000

[classifier]
limit = 5
score_threshold = 0.5

[warmup.retry]
max_attempts = 3
base_delay = "1s"
`)

	settings, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, domain.IndexBackendQdrant, settings.Index.Backend)
	assert.Equal(t, "docs", settings.Index.Name)
	assert.Equal(t, 3*time.Second, settings.Index.CallTimeout)
	assert.Equal(t, "qdrant.local", settings.Index.QdrantHost)
	assert.Equal(t, 7000, settings.Index.QdrantPort)
	assert.Equal(t, 5, settings.Classifier.Limit)
	assert.InDelta(t, 0.5, settings.Classifier.ScoreThreshold, 1e-9)
	// Untouched keys keep their defaults
	assert.Equal(t, domain.DefaultPreviewCount, settings.Classifier.PreviewCount)
	assert.Equal(t, 3, settings.Warmup.Retry.MaxAttempts)
	assert.Equal(t, time.Second, settings.Warmup.Retry.BaseDelay)
	assert.Equal(t, 60*time.Second, settings.Warmup.Retry.MaxDelay)
}

func TestSettingsStore_EnvironmentOverridesFile(t *testing.T) {
	store := newTestStore(t, map[string]string{
		EnvIndexBackend: "pgvector",
		EnvDatabaseURL:  "postgres://localhost/docintel",
		EnvOpenAIKey:    "sk-env",
		EnvQdrantPort:   "6400",
	})
	writeConfig(t, store, `
[index]
backend = "marqo"
name = "document-types"
`)

	settings, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, domain.IndexBackendPGVector, settings.Index.Backend)
	assert.Equal(t, "postgres://localhost/docintel", settings.Index.PostgresDSN)
	assert.Equal(t, 6400, settings.Index.QdrantPort)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "sk-env", settings.LLM.APIKey)
}

func TestSettingsStore_DotEnvFillsUnsetVariables(t *testing.T) {
	store := newTestStore(t, map[string]string{EnvIndexName: "from-process"})
	envFile := filepath.Join(store.Dir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MARQO_URL=http://marqo:8882\nDOCINTEL_INDEX_NAME=from-dotenv\n"), 0600))

	settings, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, "http://marqo:8882", settings.Index.MarqoURL)
	assert.Equal(t, "from-process", settings.Index.Name)
}

func TestSettingsStore_OllamaHostAppliesToOllamaProviders(t *testing.T) {
	store := newTestStore(t, map[string]string{EnvOllamaHost: "http://gpu-box:11434"})
	writeConfig(t, store, `
[embedding]
provider = "ollama"

[llm]
provider = "none"
`)

	settings, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", settings.Embedding.BaseURL)
	assert.Empty(t, settings.LLM.BaseURL)
}

func TestSettingsStore_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "unknown backend", content: "[index]\nbackend = \"redis\"\n"},
		{name: "threshold above one", content: "[classifier]\nscore_threshold = 1.5\n"},
		{name: "zero batch size", content: "[warmup]\nbatch_size = 0\n"},
		{name: "bad duration", content: "[index]\ncall_timeout = \"soon\"\n"},
		{name: "negative duration", content: "[embedding]\ncache_ttl = \"-1m\"\n"},
		{name: "multiplier below one", content: "[warmup.retry]\nmultiplier = 0.5\n"},
		{name: "extension without dot", content: "[pipeline]\nallowed_extensions = [\"pdf\"]\n"},
		{name: "bad port env", env: map[string]string{EnvQdrantPort: "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, tt.env)
			if tt.content != "" {
				writeConfig(t, store, tt.content)
			}

			_, err := store.Load()

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsStore_MalformedTOML(t *testing.T) {
	store := newTestStore(t, nil)
	writeConfig(t, store, "[index\nbackend = ")

	_, err := store.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestSettingsStore_SaveThenLoad(t *testing.T) {
	store := newTestStore(t, nil)
	settings := domain.DefaultSettings()
	settings.Index.Backend = domain.IndexBackendMarqo
	settings.Embedding.CacheTTL = 0
	settings.Warmup.RateLimit = 2.5
	settings.Warmup.Retry.MaxDelay = 90 * time.Second

	require.NoError(t, store.Save(settings))
	loaded, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, settings, loaded)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSettingsStore_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	store := NewSettingsStoreAt(path)

	require.NoError(t, store.Save(domain.DefaultSettings()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	assert.Equal(t, filepath.Join(home, "x"), expandHome("~/x"))
	assert.Equal(t, "/abs", expandHome("/abs"))
	assert.Equal(t, "", expandHome(""))
}
