// Package domain defines the core business entities for docintel.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - TypeTable: The fixed set of document types, their fields and keywords
//   - IndexRecord: A persisted unit in the semantic index
//   - Classification: The outcome of classifying a piece of text
//   - Outcome: Whether a request-path operation succeeded, degraded or failed
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
