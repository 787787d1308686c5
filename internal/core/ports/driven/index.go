package driven

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// IndexBackend is the external service holding index records.
// Implementations translate between domain records and the service's
// wire format. They report failures as errors; absorbing them is the
// caller's concern.
type IndexBackend interface {
	// Name identifies the backend in logs and status output.
	Name() string

	// IndexExists reports whether the named index exists.
	IndexExists(ctx context.Context, index string) (bool, error)

	// CreateIndex creates the named index. An index that already exists
	// is not an error, so concurrent callers may race safely.
	CreateIndex(ctx context.Context, index string) error

	// DeleteIndex destroys the named index and all its records.
	// Returns domain.ErrIndexNotFound if there is nothing to delete.
	DeleteIndex(ctx context.Context, index string) error

	// AddDocuments upserts records by ID. Every record has an ID.
	// A returned error means the call failed as a whole; per-record
	// rejections are reported in the result.
	AddDocuments(ctx context.Context, index string, records []domain.IndexRecord) (AddResult, error)

	// Search returns up to limit records most similar to query,
	// ordered by descending score.
	Search(ctx context.Context, index, query string, limit int) ([]IndexHit, error)

	// Sample returns up to limit stored records in no particular order.
	Sample(ctx context.Context, index string, limit int) ([]domain.IndexRecord, error)

	// Close releases resources.
	Close() error
}

// AddResult reports per-record outcomes of a bulk write.
type AddResult struct {
	// Errors lists records the backend rejected. Empty means all succeeded.
	Errors []RecordError
}

// HasErrors reports whether any record was rejected.
func (r AddResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// RecordError describes one rejected record.
type RecordError struct {
	ID      string
	Message string
}

// IndexHit is a raw search result.
type IndexHit struct {
	Record domain.IndexRecord

	// Score is the similarity, higher is closer.
	Score float64
}
