package domain

// ClassificationMethod records which path produced a classification.
type ClassificationMethod string

// Classification methods.
const (
	// MethodSemantic means neighbour scores were aggregated.
	MethodSemantic ClassificationMethod = "semantic"

	// MethodLexical means the keyword classifier was used.
	MethodLexical ClassificationMethod = "lexical"

	// MethodNone means the unknown sentinel was returned after a failure.
	MethodNone ClassificationMethod = "none"
)

// Classification is the decision for a piece of text.
type Classification struct {
	// DocumentType is a known type name or UnknownType.
	DocumentType string `json:"document_type"`

	// Confidence is in [0, 1]. It is not a calibrated probability.
	Confidence float64 `json:"confidence"`

	// SimilarDocuments are up to three supporting neighbours, best first.
	SimilarDocuments []Neighbor `json:"similar_documents"`

	// Method is the path that produced this decision.
	Method ClassificationMethod `json:"method"`

	// Outcome tells whether a fallback was involved.
	Outcome Outcome `json:"outcome"`
}

// UnknownClassification is the sentinel returned when classification fails.
func UnknownClassification(err error) Classification {
	return Classification{
		DocumentType:     UnknownType,
		Confidence:       0,
		SimilarDocuments: []Neighbor{},
		Method:           MethodNone,
		Outcome:          Fatal(err),
	}
}

// LexicalResult is the keyword classifier's decision.
type LexicalResult struct {
	DocumentType string
	Confidence   float64
}

// TypeScores maps every known type to a non-negative score.
type TypeScores map[string]float64

// Total returns the sum of all scores.
func (s TypeScores) Total() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}
