package driven

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// Corpus is a labelled collection of documents used to warm up the index.
type Corpus interface {
	// Scan lists every document under root.
	Scan(ctx context.Context, root string) ([]domain.CorpusDocument, error)

	// Read returns the raw bytes of a document.
	Read(ctx context.Context, doc domain.CorpusDocument) ([]byte, error)

	// Watch emits documents created under root until ctx is cancelled.
	// The channel is closed when watching stops.
	Watch(ctx context.Context, root string) (<-chan domain.CorpusDocument, error)
}
