// Package ollamaapi builds Ollama API clients shared by the embedding and
// LLM adapters.
package ollamaapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultBaseURL is the local Ollama server.
const DefaultBaseURL = "http://localhost:11434"

// NewClient creates an Ollama client for baseURL. An empty baseURL uses the
// local default; a bare host:port gets an http scheme.
func NewClient(baseURL string, timeout time.Duration) (*api.Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL %q: %w", baseURL, err)
	}

	return api.NewClient(u, &http.Client{Timeout: timeout}), nil
}
