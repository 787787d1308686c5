package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/adapters/driven/openaiapi"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

func TestLLMService_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "extract please", req.Messages[1].Content)
		assert.InDelta(t, 0.1, req.Temperature, 1e-9)
		assert.Equal(t, 500, req.MaxTokens)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  {\"a\":1}\n"}}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{Config: openaiapi.Config{APIKey: "sk", BaseURL: server.URL}})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "extract please", driven.GenerateOptions{
		MaxTokens: 500, Temperature: 0.1,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestLLMService_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{Config: openaiapi.Config{APIKey: "sk", BaseURL: server.URL}})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "x", driven.GenerateOptions{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.ErrorIs(t, err, openaiapi.ErrMissingAPIKey)
}
