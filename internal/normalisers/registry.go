package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/logger"
	"github.com/custodia-labs/docintel/internal/normalisers/docx"
	"github.com/custodia-labs/docintel/internal/normalisers/eml"
	"github.com/custodia-labs/docintel/internal/normalisers/html"
	"github.com/custodia-labs/docintel/internal/normalisers/markdown"
	"github.com/custodia-labs/docintel/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry dispatches text extraction by file extension.
type Registry struct {
	byExt    map[string]driven.TextExtractor
	fallback driven.TextExtractor
}

// NewRegistry creates a registry. Extensions claimed by an earlier
// extractor are not overridden by later ones. fallback handles every
// other extension and may be nil.
func NewRegistry(fallback driven.TextExtractor, extractors ...driven.TextExtractor) *Registry {
	r := &Registry{
		byExt:    make(map[string]driven.TextExtractor),
		fallback: fallback,
	}
	for _, e := range extractors {
		for _, ext := range e.SupportedExtensions() {
			ext = strings.ToLower(ext)
			if _, taken := r.byExt[ext]; !taken {
				r.byExt[ext] = e
			}
		}
	}
	return r
}

// Defaults returns the built-in born-digital normalisers.
func Defaults() []driven.TextExtractor {
	return []driven.TextExtractor{
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		eml.New(),
	}
}

// Extract returns the text of content using the extractor for its extension.
func (r *Registry) Extract(ctx context.Context, content []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if e, ok := r.byExt[ext]; ok {
		logger.Debug("Normalising %s as %s", filename, ext)
		return e.Extract(ctx, content, filename)
	}
	if r.fallback == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	return r.fallback.Extract(ctx, content, filename)
}

// SupportedExtensions lists every handled suffix, sorted.
func (r *Registry) SupportedExtensions() []string {
	seen := make(map[string]bool, len(r.byExt))
	for ext := range r.byExt {
		seen[ext] = true
	}
	if r.fallback != nil {
		for _, ext := range r.fallback.SupportedExtensions() {
			seen[strings.ToLower(ext)] = true
		}
	}
	exts := make([]string, 0, len(seen))
	for ext := range seen {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
