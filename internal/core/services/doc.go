// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The classification core lives here:
//
//   - LexicalClassifier: keyword scoring, no dependencies
//   - SemanticIndex: readiness-aware wrapper over an IndexBackend
//   - Classifier: hybrid classification with lexical fallback
//   - IngestionService: best-effort storage of observations
//
// Services are pure Go with no CGO or external dependencies.
package services
