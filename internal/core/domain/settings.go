package domain

import "time"

const unknownDescription = "Unknown"

// IndexBackendKind identifies the service backing the semantic index.
type IndexBackendKind string

// Available index backends.
const (
	// IndexBackendMarqo is a Marqo server reached over its REST API.
	// Marqo embeds documents itself.
	IndexBackendMarqo IndexBackendKind = "marqo"

	// IndexBackendQdrant is a Qdrant server reached over gRPC.
	IndexBackendQdrant IndexBackendKind = "qdrant"

	// IndexBackendSQLite is an embedded SQLite database on local disk.
	IndexBackendSQLite IndexBackendKind = "sqlite"

	// IndexBackendPGVector is PostgreSQL with the pgvector extension.
	IndexBackendPGVector IndexBackendKind = "pgvector"

	// IndexBackendMemory keeps records in process memory.
	IndexBackendMemory IndexBackendKind = "memory"
)

// IsValid returns true if the backend is recognised.
func (k IndexBackendKind) IsValid() bool {
	switch k {
	case IndexBackendMarqo, IndexBackendQdrant, IndexBackendSQLite,
		IndexBackendPGVector, IndexBackendMemory:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if the backend stores caller-supplied vectors.
func (k IndexBackendKind) RequiresEmbedding() bool {
	return k != IndexBackendMarqo
}

// String returns the string representation.
func (k IndexBackendKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the backend.
func (k IndexBackendKind) Description() string {
	switch k {
	case IndexBackendMarqo:
		return "Marqo (REST, server-side embedding)"
	case IndexBackendQdrant:
		return "Qdrant (gRPC)"
	case IndexBackendSQLite:
		return "SQLite (embedded)"
	case IndexBackendPGVector:
		return "PostgreSQL + pgvector"
	case IndexBackendMemory:
		return "In-memory (not persisted)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderHashing is the offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderNone disables the service.
	AIProviderNone AIProvider = "none"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderHashing, AIProviderNone:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// IndexSettings configures the semantic index.
type IndexSettings struct {
	// Backend selects the backing service.
	Backend IndexBackendKind

	// Name is the index (collection, table) name.
	Name string

	// CallTimeout bounds each backend call made on the request path.
	CallTimeout time.Duration

	// MarqoURL is the Marqo server address.
	MarqoURL string

	// MarqoModel is the model Marqo embeds with when creating the index.
	MarqoModel string

	// QdrantHost and QdrantPort address the Qdrant gRPC endpoint.
	QdrantHost string
	QdrantPort int

	// DataDir holds the SQLite database.
	DataDir string

	// PostgresDSN is the pgvector connection string.
	PostgresDSN string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size. Zero means derive from the model.
	Dimensions int

	// CacheTTL caches embeddings of identical text. Zero disables the cache.
	CacheTTL time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderNone {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration for field extraction.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	switch l.Provider {
	case AIProviderOllama:
		return true
	case AIProviderOpenAI:
		return l.APIKey != ""
	default:
		return false
	}
}

// OCRSettings configures the external text extraction tools.
type OCRSettings struct {
	// TesseractCmd is the tesseract binary.
	TesseractCmd string

	// PdftoppmCmd is the poppler rasteriser binary.
	PdftoppmCmd string

	// TesseractArgs are extra engine flags, e.g. "--oem 3 --psm 6".
	TesseractArgs string

	// MaxPDFPages limits how many PDF pages are OCR'd.
	MaxPDFPages int

	// DPI is the PDF rasterisation resolution.
	DPI int
}

// ClassifierSettings tunes the hybrid classifier.
type ClassifierSettings struct {
	// Limit is the number of neighbours requested per query.
	Limit int

	// ScoreThreshold drops neighbours scoring below it.
	ScoreThreshold float64

	// PreviewCount is how many neighbours are returned as evidence.
	PreviewCount int
}

// PipelineSettings limits accepted uploads.
type PipelineSettings struct {
	// MaxFileSize is the largest accepted document in bytes.
	MaxFileSize int64

	// AllowedExtensions are accepted file suffixes including the dot.
	AllowedExtensions []string
}

// WarmupSettings configures bulk population of the index.
type WarmupSettings struct {
	// DataDir is the corpus root. Each sub-directory name is a document type.
	DataDir string

	// BatchSize is the number of records per add call.
	BatchSize int

	// Concurrency is the number of parallel text extractions.
	Concurrency int

	// RateLimit caps extractions per second. Zero means unlimited.
	RateLimit float64

	// ResetIndex deletes the index before populating it.
	ResetIndex bool

	// Retry governs waiting for the index to become ready.
	Retry RetryPolicy
}

// LogSettings configures the process logger.
type LogSettings struct {
	// File enables a rotated JSON log file in addition to the console.
	File string
}

// Settings holds all application settings.
type Settings struct {
	// TypesFile optionally overrides the built-in document types.
	TypesFile string

	Index      IndexSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	OCR        OCRSettings
	Classifier ClassifierSettings
	Pipeline   PipelineSettings
	Warmup     WarmupSettings
	Log        LogSettings
}

// Classifier defaults.
const (
	DefaultSearchLimit    = 10
	DefaultScoreThreshold = 0.3
	DefaultPreviewCount   = 3
)

// DefaultMaxFileSize is 50 MiB.
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// DefaultBatchSize is the warm-up chunk size.
const DefaultBatchSize = 32

// DefaultAllowedExtensions returns the accepted upload suffixes.
func DefaultAllowedExtensions() []string {
	return []string{".pdf", ".png", ".jpg", ".jpeg", ".tiff", ".bmp", ".txt"}
}

// DefaultSettings returns settings with sensible defaults.
// The LLM is left unconfigured; the embedding provider defaults to the
// offline hashing embedder so the embedded backends work out of the box.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			Backend:     IndexBackendSQLite,
			Name:        "document-types",
			CallTimeout: 10 * time.Second,
			MarqoURL:    "http://localhost:8882",
			MarqoModel:  "hf/all_datasets_v4_MiniLM-L6",
			QdrantHost:  "localhost",
			QdrantPort:  6334,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Dimensions: 384,
			CacheTTL:   10 * time.Minute,
		},
		LLM: LLMSettings{
			Provider: AIProviderNone,
		},
		OCR: OCRSettings{
			TesseractCmd:  "tesseract",
			PdftoppmCmd:   "pdftoppm",
			TesseractArgs: "--oem 3 --psm 6",
			MaxPDFPages:   5,
			DPI:           300,
		},
		Classifier: ClassifierSettings{
			Limit:          DefaultSearchLimit,
			ScoreThreshold: DefaultScoreThreshold,
			PreviewCount:   DefaultPreviewCount,
		},
		Pipeline: PipelineSettings{
			MaxFileSize:       DefaultMaxFileSize,
			AllowedExtensions: DefaultAllowedExtensions(),
		},
		Warmup: WarmupSettings{
			DataDir:     "data/samples",
			BatchSize:   DefaultBatchSize,
			Concurrency: 4,
			Retry:       DefaultRetryPolicy(),
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  "all-minilm",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderHashing: "fnv-hashing",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-3.5-turbo",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
