// Package bootstrap is the composition root. It turns Settings into the
// adapters and services the driving side uses.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docintel/internal/adapters/driven/ai"
	"github.com/custodia-labs/docintel/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docintel/internal/adapters/driven/corpus/filesystem"
	llmextract "github.com/custodia-labs/docintel/internal/adapters/driven/extract/llm"
	"github.com/custodia-labs/docintel/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/services"
	"github.com/custodia-labs/docintel/internal/logger"
	"github.com/custodia-labs/docintel/internal/normalisers"
)

// Container holds the wired services. Close releases every adapter.
type Container struct {
	Settings domain.Settings
	Types    *domain.TypeTable

	Embedder driven.EmbeddingService
	LLM      driven.LLMService
	Backend  driven.IndexBackend

	Index      *services.SemanticIndex
	Classifier *services.Classifier
	Ingest     *services.IngestionService
	Pipeline   *services.Pipeline
	Warmup     *services.WarmupService
	Catalog    *services.TypeCatalog

	closers []func() error
}

// Options adjust construction.
type Options struct {
	// Types overrides the table named by Settings.TypesFile.
	Types *domain.TypeTable

	// Backend overrides the backend selected by Settings.Index.Backend.
	Backend driven.IndexBackend

	// TextExtractor overrides the normaliser registry and OCR.
	TextExtractor driven.TextExtractor

	// SkipProbe disables the background readiness check.
	SkipProbe bool
}

// New builds the container. Backends are not contacted here; readiness is
// probed in the background and an unreachable index only degrades
// classification.
func New(ctx context.Context, settings domain.Settings, opts Options) (*Container, error) {
	c := &Container{Settings: settings}

	types := opts.Types
	if types == nil {
		var err error
		types, err = file.NewTypeTableSource(settings.TypesFile).LoadTypes()
		if err != nil {
			return nil, fmt.Errorf("load document types: %w", err)
		}
	}
	c.Types = types

	backend := opts.Backend
	if backend == nil {
		if settings.Index.Backend.RequiresEmbedding() {
			embedder, err := ai.CreateEmbeddingService(settings.Embedding)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
			}
			if embedder == nil {
				return nil, fmt.Errorf("%w: backend %s needs an embedding provider",
					domain.ErrEmbeddingUnavailable, settings.Index.Backend)
			}
			c.Embedder = embedder
			c.closers = append(c.closers, embedder.Close)
		}

		var err error
		backend, err = NewIndexBackend(settings.Index, c.Embedder)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	c.Backend = backend
	c.closers = append(c.closers, backend.Close)

	llm, err := ai.CreateLLMService(settings.LLM)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	var fields driven.FieldExtractor
	if llm != nil {
		c.LLM = llm
		c.closers = append(c.closers, llm.Close)
		fields = llmextract.New(llm)
	} else {
		logger.Debug("No LLM configured, entity extraction disabled")
	}

	text := opts.TextExtractor
	if text == nil {
		ocr := tesseract.New(tesseract.Config{
			TesseractCmd:  settings.OCR.TesseractCmd,
			PdftoppmCmd:   settings.OCR.PdftoppmCmd,
			TesseractArgs: settings.OCR.TesseractArgs,
			MaxPDFPages:   settings.OCR.MaxPDFPages,
			DPI:           settings.OCR.DPI,
		})
		if !ocr.Available() {
			logger.Warn("%s not found, only born-digital documents can be read", settings.OCR.TesseractCmd)
		}
		text = normalisers.NewRegistry(ocr, normalisers.Defaults()...)
	}

	c.Index = services.NewSemanticIndex(backend, services.SemanticIndexConfig{
		Name:        settings.Index.Name,
		CallTimeout: settings.Index.CallTimeout,
		Types:       types,
	})
	c.Classifier = services.NewClassifier(c.Index, types, services.ClassifierConfig{
		Limit:          settings.Classifier.Limit,
		ScoreThreshold: settings.Classifier.ScoreThreshold,
		PreviewCount:   settings.Classifier.PreviewCount,
	})
	c.Ingest = services.NewIngestionService(c.Index)
	c.Pipeline = services.NewPipeline(text, c.Classifier, fields, c.Ingest, types, services.PipelineConfig{
		MaxFileSize:       settings.Pipeline.MaxFileSize,
		AllowedExtensions: settings.Pipeline.AllowedExtensions,
	})
	c.Warmup = services.NewWarmupService(c.Index, filesystem.New(settings.Pipeline.AllowedExtensions), text,
		services.WarmupConfig{
			DataDir:     settings.Warmup.DataDir,
			BatchSize:   settings.Warmup.BatchSize,
			Concurrency: settings.Warmup.Concurrency,
			RateLimit:   settings.Warmup.RateLimit,
			ResetIndex:  settings.Warmup.ResetIndex,
			Retry:       settings.Warmup.Retry,
		})
	c.Catalog = services.NewTypeCatalog(types)

	if !opts.SkipProbe {
		c.Index.Probe(ctx)
	}
	return c, nil
}

// Close releases adapters in reverse order of creation.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
