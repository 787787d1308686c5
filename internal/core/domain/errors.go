package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTypeTable indicates the document type table failed validation.
	ErrInvalidTypeTable = errors.New("invalid document type table")

	// Index Errors.

	// ErrIndexUnavailable indicates the semantic index backend could not be
	// reached or the index could not be created.
	ErrIndexUnavailable = errors.New("semantic index unavailable")

	// ErrIndexNotFound indicates the index does not exist in the backend.
	// Returned by reset when there is nothing to delete.
	ErrIndexNotFound = errors.New("index not found")

	// Pipeline Errors.

	// ErrUnsupportedFormat indicates the file extension is not accepted.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge indicates the upload exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoText indicates text extraction produced nothing to classify.
	ErrNoText = errors.New("no text extracted from document")

	// ErrExtractionUnavailable indicates no field extractor is configured.
	// Classification still works, entity extraction is skipped.
	ErrExtractionUnavailable = errors.New("field extraction unavailable")

	// AI Errors.

	// ErrEmbeddingUnavailable indicates the embedding provider could not be
	// created or reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM provider could not be created or reached.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
