package domain

import "fmt"

// OutcomeStatus classifies how a request-path operation finished.
type OutcomeStatus string

// Outcome statuses.
const (
	// OutcomeOK means the operation did what was asked.
	OutcomeOK OutcomeStatus = "ok"

	// OutcomeDegraded means a fallback was used or the work was skipped.
	// The caller still receives a usable result.
	OutcomeDegraded OutcomeStatus = "degraded"

	// OutcomeFatal means an unexpected failure was absorbed into a sentinel.
	OutcomeFatal OutcomeStatus = "fatal"
)

// DegradeReason explains a degraded outcome.
type DegradeReason string

// Degrade reasons.
const (
	// ReasonIndexUnavailable means the index was not ready.
	ReasonIndexUnavailable DegradeReason = "index_unavailable"

	// ReasonSearchFailed means the backend rejected or failed a search.
	ReasonSearchFailed DegradeReason = "search_failed"

	// ReasonNoNeighbors means no neighbour cleared the score threshold.
	ReasonNoNeighbors DegradeReason = "no_neighbors"

	// ReasonNoKnownTypes means neighbours were found but none had a known type.
	ReasonNoKnownTypes DegradeReason = "no_known_types"

	// ReasonWriteFailed means the backend write call failed.
	ReasonWriteFailed DegradeReason = "write_failed"

	// ReasonWriteRejected means the backend reported per-record errors.
	ReasonWriteRejected DegradeReason = "write_rejected"

	// ReasonEmptyBatch means there was nothing to write.
	ReasonEmptyBatch DegradeReason = "empty_batch"
)

// Outcome is attached to request-path results so degraded paths are
// observable instead of looking identical to success.
type Outcome struct {
	Status OutcomeStatus `json:"status"`
	Reason DegradeReason `json:"reason,omitempty"`
	Err    error         `json:"-"`
}

// Ok returns a successful outcome.
func Ok() Outcome {
	return Outcome{Status: OutcomeOK}
}

// Degraded returns a degraded outcome with the given reason and optional cause.
func Degraded(reason DegradeReason, cause error) Outcome {
	return Outcome{Status: OutcomeDegraded, Reason: reason, Err: cause}
}

// Fatal returns an outcome for an absorbed unexpected failure.
func Fatal(err error) Outcome {
	return Outcome{Status: OutcomeFatal, Err: err}
}

// IsOK reports whether the operation fully succeeded.
func (o Outcome) IsOK() bool {
	return o.Status == OutcomeOK
}

// String renders the outcome for logs and CLI output.
func (o Outcome) String() string {
	switch o.Status {
	case OutcomeOK, "":
		return string(OutcomeOK)
	case OutcomeDegraded:
		if o.Err != nil {
			return fmt.Sprintf("degraded (%s: %v)", o.Reason, o.Err)
		}
		return fmt.Sprintf("degraded (%s)", o.Reason)
	default:
		return fmt.Sprintf("fatal (%v)", o.Err)
	}
}
