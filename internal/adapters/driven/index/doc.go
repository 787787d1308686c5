// Package index groups the driven.IndexBackend implementations.
//
// Backends:
//   - marqo: Marqo REST API, embeds server-side
//   - qdrant: Qdrant gRPC, vectors from an EmbeddingService
//   - sqlite: embedded SQLite with brute-force cosine search
//   - pgvector: PostgreSQL with the pgvector extension via GORM
//   - memory: process memory, for tests and one-shot runs
package index
