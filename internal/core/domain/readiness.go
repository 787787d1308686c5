package domain

// Readiness is the cached state of the semantic index.
type Readiness int32

// Readiness states.
const (
	// ReadinessUnknown means the index has not been checked yet, or the
	// last known state was invalidated.
	ReadinessUnknown Readiness = iota

	// ReadinessReady means the index exists and is queryable.
	ReadinessReady

	// ReadinessUnavailable means the last check could not reach the
	// backend or create the index.
	ReadinessUnavailable
)

// String returns the string representation.
func (r Readiness) String() string {
	switch r {
	case ReadinessReady:
		return "ready"
	case ReadinessUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// MarshalText lets Readiness render as a string in JSON.
func (r Readiness) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// IndexStatus summarises the semantic index for operators.
type IndexStatus struct {
	// State is the readiness after a fresh check.
	State Readiness `json:"state"`

	// Backend names the backing service.
	Backend string `json:"backend"`

	// IndexName is the index being used.
	IndexName string `json:"index_name"`

	// TotalDocuments is the sum of the sampled distribution.
	TotalDocuments int `json:"total_documents"`

	// Distribution counts sampled records by document type.
	Distribution map[string]int `json:"document_types"`

	// SupportedTypes lists the known types in declared order.
	SupportedTypes []string `json:"supported_types"`
}

// DistributionSampleLimit caps how many records are tallied for statistics.
const DistributionSampleLimit = 1000
