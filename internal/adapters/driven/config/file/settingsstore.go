package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// Environment variables that override the file.
const (
	EnvIndexBackend = "DOCINTEL_INDEX_BACKEND"
	EnvIndexName    = "DOCINTEL_INDEX_NAME"
	EnvMarqoURL     = "MARQO_URL"
	EnvQdrantHost   = "QDRANT_HOST"
	EnvQdrantPort   = "QDRANT_PORT"
	EnvDatabaseURL  = "DATABASE_URL"
	EnvOllamaHost   = "OLLAMA_HOST"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvLogFile      = "DOCINTEL_LOG_FILE"
)

// DefaultDirName is the config directory created under the user's home.
const DefaultDirName = ".docintel"

// SettingsStore is a file-based implementation of driven.SettingsStore.
// Settings are stored in config.toml within the config directory. A .env
// file next to it, or in the working directory, supplies environment
// values that are not already set in the process.
type SettingsStore struct {
	mu       sync.Mutex
	dir      string
	filePath string
	envFiles []string
	lookup   func(string) (string, bool)
	validate *validator.Validate
}

// NewSettingsStore creates a TOML settings store.
// If configDir is empty, defaults to ~/.docintel.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, DefaultDirName)
	}

	return &SettingsStore{
		dir:      configDir,
		filePath: filepath.Join(configDir, "config.toml"),
		envFiles: []string{filepath.Join(configDir, ".env"), ".env"},
		lookup:   os.LookupEnv,
		validate: validator.New(),
	}, nil
}

// NewSettingsStoreAt creates a store for an explicit config file path.
func NewSettingsStoreAt(path string) *SettingsStore {
	dir := filepath.Dir(path)
	return &SettingsStore{
		dir:      dir,
		filePath: path,
		envFiles: []string{filepath.Join(dir, ".env"), ".env"},
		lookup:   os.LookupEnv,
		validate: validator.New(),
	}
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// Dir returns the configuration directory.
func (s *SettingsStore) Dir() string {
	return s.dir
}

// Load returns defaults overlaid with the file, then the environment.
// A missing file is not an error.
func (s *SettingsStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := domain.DefaultSettings()
	fs := toFile(defaults)

	data, err := os.ReadFile(s.filePath)
	switch {
	case err == nil:
		// Arrays in the file replace the default list
		fs.Pipeline.AllowedExtensions = nil
		if err := toml.Unmarshal(data, &fs); err != nil {
			return domain.Settings{}, fmt.Errorf("parse %s: %w", s.filePath, err)
		}
		if fs.Pipeline.AllowedExtensions == nil {
			fs.Pipeline.AllowedExtensions = defaults.Pipeline.AllowedExtensions
		}
	case errors.Is(err, os.ErrNotExist):
		// No config file yet - defaults apply
	default:
		return domain.Settings{}, err
	}

	env, err := s.readEnvFiles()
	if err != nil {
		return domain.Settings{}, err
	}
	if err := applyEnv(&fs, env); err != nil {
		return domain.Settings{}, err
	}

	if err := s.validate.Struct(fs); err != nil {
		return domain.Settings{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	settings, err := fs.toDomain()
	if err != nil {
		return domain.Settings{}, err
	}
	if err := settings.Warmup.Retry.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("warmup retry: %w", err)
	}
	return settings, nil
}

// Save persists the given settings. Values that came from the environment
// are written like any other.
func (s *SettingsStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(toFile(settings))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// readEnvFiles merges the .env files, earlier files winning.
func (s *SettingsStore) readEnvFiles() (func(string) (string, bool), error) {
	merged := map[string]string{}
	for _, path := range s.envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for k, v := range values {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := s.lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := merged[key]
		return v, ok && v != ""
	}, nil
}

func applyEnv(fs *fileSettings, env func(string) (string, bool)) error {
	if v, ok := env(EnvIndexBackend); ok {
		fs.Index.Backend = v
	}
	if v, ok := env(EnvIndexName); ok {
		fs.Index.Name = v
	}
	if v, ok := env(EnvMarqoURL); ok {
		fs.Index.Marqo.URL = v
	}
	if v, ok := env(EnvQdrantHost); ok {
		fs.Index.Qdrant.Host = v
	}
	if v, ok := env(EnvQdrantPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", domain.ErrInvalidInput, EnvQdrantPort, v)
		}
		fs.Index.Qdrant.Port = port
	}
	if v, ok := env(EnvDatabaseURL); ok {
		fs.Index.PGVector.DSN = v
	}
	if v, ok := env(EnvOllamaHost); ok {
		if fs.Embedding.Provider == string(domain.AIProviderOllama) {
			fs.Embedding.BaseURL = v
		}
		if fs.LLM.Provider == string(domain.AIProviderOllama) {
			fs.LLM.BaseURL = v
		}
	}
	if v, ok := env(EnvOpenAIKey); ok {
		fs.Embedding.APIKey = v
		fs.LLM.APIKey = v
	}
	if v, ok := env(EnvLogFile); ok {
		fs.Log.File = v
	}
	return nil
}

// fileSettings is the on-disk shape of domain.Settings.
type fileSettings struct {
	TypesFile  string            `toml:"types_file,omitempty"`
	Index      indexSection      `toml:"index"`
	Embedding  embeddingSection  `toml:"embedding"`
	LLM        llmSection        `toml:"llm"`
	OCR        ocrSection        `toml:"ocr"`
	Classifier classifierSection `toml:"classifier"`
	Pipeline   pipelineSection   `toml:"pipeline"`
	Warmup     warmupSection     `toml:"warmup"`
	Log        logSection        `toml:"log"`
}

type indexSection struct {
	Backend     string          `toml:"backend" validate:"required,oneof=marqo qdrant sqlite pgvector memory"`
	Name        string          `toml:"name" validate:"required"`
	CallTimeout string          `toml:"call_timeout"`
	Marqo       marqoSection    `toml:"marqo"`
	Qdrant      qdrantSection   `toml:"qdrant"`
	SQLite      sqliteSection   `toml:"sqlite"`
	PGVector    pgvectorSection `toml:"pgvector"`
}

type marqoSection struct {
	URL   string `toml:"url"`
	Model string `toml:"model"`
}

type qdrantSection struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
}

type sqliteSection struct {
	DataDir string `toml:"data_dir,omitempty"`
}

type pgvectorSection struct {
	DSN string `toml:"dsn,omitempty"`
}

type embeddingSection struct {
	Provider   string `toml:"provider" validate:"omitempty,oneof=ollama openai hashing none"`
	Model      string `toml:"model,omitempty"`
	BaseURL    string `toml:"base_url,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	Dimensions int    `toml:"dimensions" validate:"gte=0"`
	CacheTTL   string `toml:"cache_ttl"`
}

type llmSection struct {
	Provider string `toml:"provider" validate:"omitempty,oneof=ollama openai none"`
	Model    string `toml:"model,omitempty"`
	BaseURL  string `toml:"base_url,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

type ocrSection struct {
	TesseractCmd  string `toml:"tesseract_cmd"`
	PdftoppmCmd   string `toml:"pdftoppm_cmd"`
	TesseractArgs string `toml:"tesseract_args"`
	MaxPDFPages   int    `toml:"max_pdf_pages" validate:"gte=0"`
	DPI           int    `toml:"dpi" validate:"gte=0"`
}

type classifierSection struct {
	Limit          int     `toml:"limit" validate:"gte=1"`
	ScoreThreshold float64 `toml:"score_threshold" validate:"gte=0,lte=1"`
	PreviewCount   int     `toml:"preview_count" validate:"gte=0"`
}

type pipelineSection struct {
	MaxFileSize       int64    `toml:"max_file_size" validate:"gte=0"`
	AllowedExtensions []string `toml:"allowed_extensions" validate:"dive,startswith=."`
}

type warmupSection struct {
	DataDir     string       `toml:"data_dir"`
	BatchSize   int          `toml:"batch_size" validate:"gte=1"`
	Concurrency int          `toml:"concurrency" validate:"gte=1"`
	RateLimit   float64      `toml:"rate_limit" validate:"gte=0"`
	ResetIndex  bool         `toml:"reset_index"`
	Retry       retrySection `toml:"retry"`
}

type retrySection struct {
	MaxAttempts int     `toml:"max_attempts" validate:"gte=1"`
	BaseDelay   string  `toml:"base_delay"`
	Multiplier  float64 `toml:"multiplier" validate:"gte=1"`
	MaxDelay    string  `toml:"max_delay"`
}

type logSection struct {
	File string `toml:"file,omitempty"`
}

func toFile(s domain.Settings) fileSettings {
	return fileSettings{
		TypesFile: s.TypesFile,
		Index: indexSection{
			Backend:     s.Index.Backend.String(),
			Name:        s.Index.Name,
			CallTimeout: formatDuration(s.Index.CallTimeout),
			Marqo:       marqoSection{URL: s.Index.MarqoURL, Model: s.Index.MarqoModel},
			Qdrant:      qdrantSection{Host: s.Index.QdrantHost, Port: s.Index.QdrantPort},
			SQLite:      sqliteSection{DataDir: s.Index.DataDir},
			PGVector:    pgvectorSection{DSN: s.Index.PostgresDSN},
		},
		Embedding: embeddingSection{
			Provider:   s.Embedding.Provider.String(),
			Model:      s.Embedding.Model,
			BaseURL:    s.Embedding.BaseURL,
			APIKey:     s.Embedding.APIKey,
			Dimensions: s.Embedding.Dimensions,
			CacheTTL:   formatDuration(s.Embedding.CacheTTL),
		},
		LLM: llmSection{
			Provider: s.LLM.Provider.String(),
			Model:    s.LLM.Model,
			BaseURL:  s.LLM.BaseURL,
			APIKey:   s.LLM.APIKey,
		},
		OCR: ocrSection{
			TesseractCmd:  s.OCR.TesseractCmd,
			PdftoppmCmd:   s.OCR.PdftoppmCmd,
			TesseractArgs: s.OCR.TesseractArgs,
			MaxPDFPages:   s.OCR.MaxPDFPages,
			DPI:           s.OCR.DPI,
		},
		Classifier: classifierSection{
			Limit:          s.Classifier.Limit,
			ScoreThreshold: s.Classifier.ScoreThreshold,
			PreviewCount:   s.Classifier.PreviewCount,
		},
		Pipeline: pipelineSection{
			MaxFileSize:       s.Pipeline.MaxFileSize,
			AllowedExtensions: append([]string(nil), s.Pipeline.AllowedExtensions...),
		},
		Warmup: warmupSection{
			DataDir:     s.Warmup.DataDir,
			BatchSize:   s.Warmup.BatchSize,
			Concurrency: s.Warmup.Concurrency,
			RateLimit:   s.Warmup.RateLimit,
			ResetIndex:  s.Warmup.ResetIndex,
			Retry: retrySection{
				MaxAttempts: s.Warmup.Retry.MaxAttempts,
				BaseDelay:   formatDuration(s.Warmup.Retry.BaseDelay),
				Multiplier:  s.Warmup.Retry.Multiplier,
				MaxDelay:    formatDuration(s.Warmup.Retry.MaxDelay),
			},
		},
		Log: logSection{File: s.Log.File},
	}
}

func (fs fileSettings) toDomain() (domain.Settings, error) {
	var p durationParser
	s := domain.Settings{
		TypesFile: expandHome(fs.TypesFile),
		Index: domain.IndexSettings{
			Backend:     domain.IndexBackendKind(fs.Index.Backend),
			Name:        fs.Index.Name,
			CallTimeout: p.parse("index.call_timeout", fs.Index.CallTimeout),
			MarqoURL:    fs.Index.Marqo.URL,
			MarqoModel:  fs.Index.Marqo.Model,
			QdrantHost:  fs.Index.Qdrant.Host,
			QdrantPort:  fs.Index.Qdrant.Port,
			DataDir:     expandHome(fs.Index.SQLite.DataDir),
			PostgresDSN: fs.Index.PGVector.DSN,
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProvider(fs.Embedding.Provider),
			Model:      fs.Embedding.Model,
			BaseURL:    fs.Embedding.BaseURL,
			APIKey:     fs.Embedding.APIKey,
			Dimensions: fs.Embedding.Dimensions,
			CacheTTL:   p.parse("embedding.cache_ttl", fs.Embedding.CacheTTL),
		},
		LLM: domain.LLMSettings{
			Provider: domain.AIProvider(fs.LLM.Provider),
			Model:    fs.LLM.Model,
			BaseURL:  fs.LLM.BaseURL,
			APIKey:   fs.LLM.APIKey,
		},
		OCR: domain.OCRSettings{
			TesseractCmd:  fs.OCR.TesseractCmd,
			PdftoppmCmd:   fs.OCR.PdftoppmCmd,
			TesseractArgs: fs.OCR.TesseractArgs,
			MaxPDFPages:   fs.OCR.MaxPDFPages,
			DPI:           fs.OCR.DPI,
		},
		Classifier: domain.ClassifierSettings{
			Limit:          fs.Classifier.Limit,
			ScoreThreshold: fs.Classifier.ScoreThreshold,
			PreviewCount:   fs.Classifier.PreviewCount,
		},
		Pipeline: domain.PipelineSettings{
			MaxFileSize:       fs.Pipeline.MaxFileSize,
			AllowedExtensions: normaliseExtensions(fs.Pipeline.AllowedExtensions),
		},
		Warmup: domain.WarmupSettings{
			DataDir:     expandHome(fs.Warmup.DataDir),
			BatchSize:   fs.Warmup.BatchSize,
			Concurrency: fs.Warmup.Concurrency,
			RateLimit:   fs.Warmup.RateLimit,
			ResetIndex:  fs.Warmup.ResetIndex,
			Retry: domain.RetryPolicy{
				MaxAttempts: fs.Warmup.Retry.MaxAttempts,
				BaseDelay:   p.parse("warmup.retry.base_delay", fs.Warmup.Retry.BaseDelay),
				Multiplier:  fs.Warmup.Retry.Multiplier,
				MaxDelay:    p.parse("warmup.retry.max_delay", fs.Warmup.Retry.MaxDelay),
			},
		},
		Log: domain.LogSettings{File: expandHome(fs.Log.File)},
	}
	if p.err != nil {
		return domain.Settings{}, p.err
	}
	return s, nil
}

// durationParser keeps the first parse failure.
type durationParser struct {
	err error
}

func (p *durationParser) parse(key, value string) time.Duration {
	if value == "" || p.err != nil {
		return 0
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.err = fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		return 0
	}
	if d < 0 {
		p.err = fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, key)
		return 0
	}
	return d
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	return d.String()
}

func normaliseExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		out = append(out, strings.ToLower(ext))
	}
	return out
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
