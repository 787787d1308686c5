package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure WarmupService implements the interface.
var _ driving.WarmupService = (*WarmupService)(nil)

// WarmupIndex is the part of SemanticIndex the warm-up job needs.
type WarmupIndex interface {
	EnsureReady(ctx context.Context) bool
	Reset(ctx context.Context) error
	Add(ctx context.Context, records []domain.IndexRecord) domain.Outcome
}

// WarmupConfig configures bulk population.
type WarmupConfig struct {
	DataDir     string
	BatchSize   int
	Concurrency int
	RateLimit   float64
	ResetIndex  bool
	Retry       domain.RetryPolicy
}

// WarmupService populates the index from a labelled corpus.
type WarmupService struct {
	index  WarmupIndex
	corpus driven.Corpus
	text   driven.TextExtractor
	cfg    WarmupConfig
	sleep  SleepFunc
}

// NewWarmupService creates a warm-up service. The text extractor is
// optional; without it only .txt files can be read.
func NewWarmupService(index WarmupIndex, corpus driven.Corpus, text driven.TextExtractor, cfg WarmupConfig) *WarmupService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = domain.DefaultRetryPolicy()
	}
	return &WarmupService{
		index:  index,
		corpus: corpus,
		text:   text,
		cfg:    cfg,
		sleep:  Sleep,
	}
}

// SetSleep replaces the backoff sleeper. Used by tests.
func (s *WarmupService) SetSleep(sleep SleepFunc) {
	s.sleep = sleep
}

// extracted is the result of reading one corpus document.
type extracted struct {
	doc  domain.CorpusDocument
	text string
	err  error
}

// Run waits for the index, optionally resets it, and ingests the corpus in
// batches. A batch that fails is counted and skipped. If ctx is cancelled the
// partial report is returned together with ctx's error; flushed batches stay.
func (s *WarmupService) Run(ctx context.Context, opts domain.WarmupOptions) (*domain.WarmupReport, error) {
	logger.Section("Index Warm-up")
	start := time.Now()
	report := &domain.WarmupReport{}
	defer func() { report.Duration = time.Since(start) }()

	attempts, err := WaitUntil(ctx, s.cfg.Retry, s.sleep, s.index.EnsureReady)
	report.Attempts = attempts
	if err != nil {
		return report, fmt.Errorf("wait for index: %w", err)
	}
	logger.Info("Index ready after %d attempt(s)", attempts)

	if opts.ResetIndex || s.cfg.ResetIndex {
		if err := s.index.Reset(ctx); err != nil {
			logger.Warn("Could not reset index, continuing: %v", err)
		} else {
			logger.Info("Index reset")
		}
	}

	root := opts.DataDir
	if root == "" {
		root = s.cfg.DataDir
	}
	docs, err := s.corpus.Scan(ctx, root)
	if err != nil {
		return report, fmt.Errorf("scan corpus: %w", err)
	}
	report.Discovered = len(docs)
	logger.Info("Found %d documents under %s", len(docs), root)

	progress := domain.WarmupProgress{Discovered: len(docs)}
	notify := func() {
		if opts.OnProgress != nil {
			opts.OnProgress(progress)
		}
	}

	results := s.extractAll(ctx, docs)
	batch := make([]domain.IndexRecord, 0, s.cfg.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		outcome := s.index.Add(ctx, batch)
		if outcome.IsOK() {
			report.Indexed += len(batch)
			report.BatchesFlushed++
			logger.Info("Indexed batch of %d (%d total)", len(batch), report.Indexed)
		} else {
			report.Failed += len(batch)
			report.BatchesFailed++
			logger.Warn("Batch of %d skipped: %s", len(batch), outcome)
		}
		progress.Indexed, progress.Failed = report.Indexed, report.Failed
		batch = batch[:0]
		notify()
	}

	for r := range results {
		progress.Processed++
		if r.err != nil {
			logger.Warn("Skipping %s: %v", r.doc.Path, r.err)
			report.Failed++
			progress.Failed = report.Failed
			continue
		}
		batch = append(batch, corpusRecord(r.doc, r.text))
		if len(batch) >= s.cfg.BatchSize && ctx.Err() == nil {
			flush()
		}
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("Warm-up interrupted, discarding %d unflushed documents", len(batch))
		report.Interrupted = true
		return report, err
	}
	flush()

	logger.Info("Warm-up complete: %d indexed, %d failed", report.Indexed, report.Failed)
	return report, nil
}

// extractAll reads and preprocesses documents on a bounded, rate-limited
// worker pool. The returned channel closes when all work is done or ctx ends.
func (s *WarmupService) extractAll(ctx context.Context, docs []domain.CorpusDocument) <-chan extracted {
	limit := rate.Inf
	if s.cfg.RateLimit > 0 {
		limit = rate.Limit(s.cfg.RateLimit)
	}
	limiter := rate.NewLimiter(limit, s.cfg.Concurrency)

	jobs := make(chan domain.CorpusDocument)
	out := make(chan extracted)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				var text string
				err := limiter.Wait(ctx)
				if err != nil {
					err = fmt.Errorf("rate limit: %w", err)
				} else {
					text, err = s.readText(ctx, doc)
				}
				select {
				case out <- extracted{doc: doc, text: text, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, doc := range docs {
			select {
			case jobs <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

var errEmptyText = errors.New("no text after preprocessing")

func (s *WarmupService) readText(ctx context.Context, doc domain.CorpusDocument) (string, error) {
	content, err := s.corpus.Read(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}

	var raw string
	switch {
	case s.text != nil:
		raw, err = s.text.Extract(ctx, content, doc.Filename)
		if err != nil {
			return "", fmt.Errorf("extract text: %w", err)
		}
	case strings.EqualFold(filepath.Ext(doc.Filename), ".txt"):
		raw = string(content)
	default:
		return "", fmt.Errorf("%w: no text extractor configured", domain.ErrUnsupportedFormat)
	}

	text := PreprocessText(raw)
	if text == "" {
		return "", errEmptyText
	}
	return text, nil
}

// Watch ingests documents created under dataDir until ctx is cancelled.
func (s *WarmupService) Watch(ctx context.Context, dataDir string) error {
	if dataDir == "" {
		dataDir = s.cfg.DataDir
	}
	events, err := s.corpus.Watch(ctx, dataDir)
	if err != nil {
		return fmt.Errorf("watch corpus: %w", err)
	}
	logger.Info("Watching %s for new documents", dataDir)

	for doc := range events {
		text, err := s.readText(ctx, doc)
		if err != nil {
			logger.Warn("Skipping %s: %v", doc.Path, err)
			continue
		}
		outcome := s.index.Add(ctx, []domain.IndexRecord{corpusRecord(doc, text)})
		if outcome.IsOK() {
			logger.Info("Indexed %s as %s", doc.Filename, doc.DocumentType)
		} else {
			logger.Warn("Could not index %s: %s", doc.Filename, outcome)
		}
	}
	return nil
}

// PreprocessText trims every line and drops lines of two characters or fewer.
func PreprocessText(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len([]rune(line)) > 2 {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// CorpusRecordID derives a stable record ID so re-running warm-up upserts
// instead of duplicating.
func CorpusRecordID(doc domain.CorpusDocument) string {
	id := doc.DocumentType + "_" + doc.Filename
	return strings.NewReplacer(" ", "_", "/", "_").Replace(id)
}

func corpusRecord(doc domain.CorpusDocument, text string) domain.IndexRecord {
	return domain.IndexRecord{
		ID:           CorpusRecordID(doc),
		Content:      text,
		DocumentType: doc.DocumentType,
		Filename:     doc.Filename,
		Metadata: map[string]any{
			"source_path": doc.Path,
		},
	}
}
