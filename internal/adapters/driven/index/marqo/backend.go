// Package marqo provides a driven.IndexBackend for a Marqo server.
// Marqo embeds document content server-side, so no embedding service is
// needed.
package marqo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure IndexBackend implements the interface.
var _ driven.IndexBackend = (*IndexBackend)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:8882"
	DefaultModel   = "hf/all_datasets_v4_MiniLM-L6"
	DefaultTimeout = 30 * time.Second
)

// matchAll is the query used to enumerate an index.
const matchAll = "*"

// Config holds configuration for the Marqo backend.
type Config struct {
	// URL is the Marqo server address (default: http://localhost:8882).
	URL string

	// Model is the embedding model used when creating indexes.
	Model string

	// Timeout is the HTTP client timeout (default: 30s).
	Timeout time.Duration
}

// IndexBackend talks to Marqo's REST API.
type IndexBackend struct {
	client  *http.Client
	baseURL string
	model   string
}

// statusError is a non-2xx response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("marqo: status %d: %s", e.status, e.body)
}

type document struct {
	ID           string `json:"_id"`
	Content      string `json:"content"`
	DocumentType string `json:"document_type"`
	Filename     string `json:"filename"`
	Metadata     string `json:"metadata"`
}

type hit struct {
	document
	Score float64 `json:"_score"`
}

type addResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  string `json:"error"`
	} `json:"items"`
}

// NewIndexBackend creates a Marqo backend.
func NewIndexBackend(cfg Config) *IndexBackend {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &IndexBackend{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		model:   cfg.Model,
	}
}

// Name returns the backend name.
func (b *IndexBackend) Name() string {
	return string(domain.IndexBackendMarqo)
}

// IndexExists lists indexes and looks for the name.
func (b *IndexBackend) IndexExists(ctx context.Context, index string) (bool, error) {
	var resp struct {
		Results []struct {
			IndexName string `json:"indexName"`
		} `json:"results"`
	}
	if err := b.do(ctx, http.MethodGet, "/indexes", nil, &resp); err != nil {
		return false, err
	}
	for _, r := range resp.Results {
		if r.IndexName == index {
			return true, nil
		}
	}
	return false, nil
}

// CreateIndex creates the index. A conflict means another caller won the race.
func (b *IndexBackend) CreateIndex(ctx context.Context, index string) error {
	err := b.do(ctx, http.MethodPost, indexPath(index), map[string]string{"model": b.model}, nil)
	if status(err) == http.StatusConflict {
		return nil
	}
	return err
}

// DeleteIndex deletes the index.
func (b *IndexBackend) DeleteIndex(ctx context.Context, index string) error {
	err := b.do(ctx, http.MethodDelete, indexPath(index), nil, nil)
	if status(err) == http.StatusNotFound {
		return domain.ErrIndexNotFound
	}
	return err
}

// AddDocuments posts records with content as the tensor field.
func (b *IndexBackend) AddDocuments(ctx context.Context, index string, records []domain.IndexRecord) (driven.AddResult, error) {
	docs := make([]document, len(records))
	for i, rec := range records {
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return driven.AddResult{}, fmt.Errorf("encode metadata for %s: %w", rec.ID, err)
		}
		docs[i] = document{
			ID:           rec.ID,
			Content:      rec.Content,
			DocumentType: rec.DocumentType,
			Filename:     rec.Filename,
			Metadata:     string(meta),
		}
	}

	body := map[string]any{
		"documents":    docs,
		"tensorFields": []string{"content"},
	}
	var resp addResponse
	if err := b.do(ctx, http.MethodPost, indexPath(index)+"/documents", body, &resp); err != nil {
		return driven.AddResult{}, err
	}

	var result driven.AddResult
	if !resp.Errors {
		return result, nil
	}
	for _, item := range resp.Items {
		if item.Status >= http.StatusBadRequest || item.Error != "" {
			result.Errors = append(result.Errors, driven.RecordError{ID: item.ID, Message: item.Error})
		}
	}
	if len(result.Errors) == 0 {
		result.Errors = append(result.Errors, driven.RecordError{Message: "marqo reported errors"})
	}
	return result, nil
}

// Search runs a tensor search over content.
func (b *IndexBackend) Search(ctx context.Context, index, query string, limit int) ([]driven.IndexHit, error) {
	hits, err := b.search(ctx, index, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]driven.IndexHit, len(hits))
	for i, h := range hits {
		out[i] = driven.IndexHit{Record: h.record(), Score: h.Score}
	}
	return out, nil
}

// Sample enumerates records with a match-all query.
func (b *IndexBackend) Sample(ctx context.Context, index string, limit int) ([]domain.IndexRecord, error) {
	hits, err := b.search(ctx, index, matchAll, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.IndexRecord, len(hits))
	for i, h := range hits {
		out[i] = h.record()
	}
	return out, nil
}

// Close releases idle connections.
func (b *IndexBackend) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

func (b *IndexBackend) search(ctx context.Context, index, query string, limit int) ([]hit, error) {
	body := map[string]any{
		"q":                    query,
		"limit":                limit,
		"searchableAttributes": []string{"content"},
	}
	var resp struct {
		Hits []hit `json:"hits"`
	}
	err := b.do(ctx, http.MethodPost, indexPath(index)+"/search", body, &resp)
	if status(err) == http.StatusNotFound {
		return nil, domain.ErrIndexNotFound
	}
	if err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

func (b *IndexBackend) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marqo: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("marqo: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("marqo: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("marqo: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("marqo: decode response: %w", err)
	}
	return nil
}

func (h hit) record() domain.IndexRecord {
	rec := domain.IndexRecord{
		ID:           h.ID,
		Content:      h.Content,
		DocumentType: h.DocumentType,
		Filename:     h.Filename,
	}
	if h.Metadata != "" {
		if err := json.Unmarshal([]byte(h.Metadata), &rec.Metadata); err != nil {
			logger.Debug("marqo: record %s has malformed metadata: %v", h.ID, err)
		}
	}
	if rec.DocumentType == "" {
		rec.DocumentType = domain.UnknownType
	}
	return rec
}

func indexPath(index string) string {
	return "/indexes/" + url.PathEscape(index)
}

func status(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}
