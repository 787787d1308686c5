// Package sqlite provides a driven.IndexBackend stored in an embedded
// SQLite database. Vectors are kept as little-endian float32 blobs and
// searched by brute-force cosine similarity, which suits corpora of a few
// thousand reference documents.
package sqlite
