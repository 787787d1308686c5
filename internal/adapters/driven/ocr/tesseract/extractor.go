// Package tesseract extracts text from scanned documents by shelling out to
// the tesseract OCR engine. PDFs are first rasterised with poppler's
// pdftoppm. Plain text files are passed through.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultTesseractCmd  = "tesseract"
	DefaultPdftoppmCmd   = "pdftoppm"
	DefaultTesseractArgs = "--oem 3 --psm 6"
	DefaultMaxPDFPages   = 5
	DefaultDPI           = 300
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".tiff", ".bmp"}

// CommandRunner runs an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. Stderr is folded into the error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Config holds the OCR tool settings.
type Config struct {
	TesseractCmd  string
	PdftoppmCmd   string
	TesseractArgs string
	MaxPDFPages   int
	DPI           int
}

// Extractor implements driven.TextExtractor with tesseract.
type Extractor struct {
	cfg    Config
	runner CommandRunner
}

// New creates an extractor that runs the real binaries.
func New(cfg Config) *Extractor {
	return NewWithRunner(cfg, ExecRunner{})
}

// NewWithRunner creates an extractor with a custom command runner.
func NewWithRunner(cfg Config, runner CommandRunner) *Extractor {
	if cfg.TesseractCmd == "" {
		cfg.TesseractCmd = DefaultTesseractCmd
	}
	if cfg.PdftoppmCmd == "" {
		cfg.PdftoppmCmd = DefaultPdftoppmCmd
	}
	if cfg.TesseractArgs == "" {
		cfg.TesseractArgs = DefaultTesseractArgs
	}
	if cfg.MaxPDFPages <= 0 {
		cfg.MaxPDFPages = DefaultMaxPDFPages
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	return &Extractor{cfg: cfg, runner: runner}
}

// SupportedExtensions lists handled suffixes.
func (e *Extractor) SupportedExtensions() []string {
	exts := append([]string{".pdf", ".txt"}, imageExtensions...)
	sort.Strings(exts)
	return exts
}

// Extract returns the text of content. The extension of filename selects
// the strategy.
func (e *Extractor) Extract(ctx context.Context, content []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".txt":
		return string(content), nil
	case ext == ".pdf":
		return e.extractPDF(ctx, content)
	case isImage(ext):
		return e.extractImage(ctx, content, ext)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
}

// Available reports whether the tesseract binary can be found.
func (e *Extractor) Available() bool {
	_, err := exec.LookPath(e.cfg.TesseractCmd)
	return err == nil
}

func (e *Extractor) extractImage(ctx context.Context, content []byte, ext string) (string, error) {
	dir, err := os.MkdirTemp("", "docintel-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "image"+ext)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}

	text, err := e.ocr(ctx, path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (e *Extractor) extractPDF(ctx context.Context, content []byte) (string, error) {
	dir, err := os.MkdirTemp("", "docintel-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	pdfPath := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(pdfPath, content, 0600); err != nil {
		return "", fmt.Errorf("writing pdf: %w", err)
	}

	prefix := filepath.Join(dir, "page")
	_, err = e.runner.Run(ctx, e.cfg.PdftoppmCmd,
		"-r", strconv.Itoa(e.cfg.DPI),
		"-f", "1",
		"-l", strconv.Itoa(e.cfg.MaxPDFPages),
		"-png", pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("rasterising pdf: %w", err)
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", fmt.Errorf("listing pages: %w", err)
	}
	if len(pages) == 0 {
		return "", errors.New("rasterising pdf produced no pages")
	}
	sort.Strings(pages)

	var texts []string
	for _, page := range pages {
		text, err := e.ocr(ctx, page)
		if err != nil {
			return "", fmt.Errorf("page %s: %w", filepath.Base(page), err)
		}
		if strings.TrimSpace(text) != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

func (e *Extractor) ocr(ctx context.Context, path string) (string, error) {
	args := append([]string{path, "stdout"}, strings.Fields(e.cfg.TesseractArgs)...)
	out, err := e.runner.Run(ctx, e.cfg.TesseractCmd, args...)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return string(out), nil
}

func isImage(ext string) bool {
	for _, e := range imageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
