// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - IndexBackend: The service storing and searching index records
//   - SettingsStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings for backends that need them.
//   - TextExtractor: OCR. Without it, only pre-extracted text can be processed.
//   - FieldExtractor: Entity extraction. Without it, entities are always empty.
//   - LLMService: Language model used by the field extractor.
//   - Corpus: Labelled documents for warm-up.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
