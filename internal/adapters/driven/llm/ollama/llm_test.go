package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

func TestLLMService_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req["model"])
		assert.Equal(t, false, req["stream"])
		assert.Equal(t, "json", req["format"])
		opts, _ := req["options"].(map[string]any)
		assert.EqualValues(t, 200, opts["num_predict"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":" {\"x\":1} ","done":true}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{BaseURL: server.URL})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "prompt", driven.GenerateOptions{MaxTokens: 200})

	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, out)
}

func TestLLMService_GenerateError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	assert.Error(t, err)
}

func TestGenerateOptions(t *testing.T) {
	opts := generateOptions(driven.GenerateOptions{Temperature: 0.1, StopWords: []string{"\n\n"}})

	assert.InDelta(t, 0.1, opts["temperature"], 1e-9)
	assert.NotContains(t, opts, "num_predict")
	assert.Equal(t, []string{"\n\n"}, opts["stop"])
}
