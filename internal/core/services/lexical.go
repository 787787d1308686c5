package services

import (
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// Lexical scoring constants.
const (
	// LexicalDamping scales the winning keyword score to reflect lower
	// trust in lexical evidence than in semantic evidence.
	LexicalDamping = 0.6

	// LexicalAcceptance is the damped score a label must exceed.
	LexicalAcceptance = 0.1
)

// LexicalClassifier scores text against each type's keyword vocabulary.
// It is deterministic and safe for concurrent use.
type LexicalClassifier struct {
	types *domain.TypeTable
}

// NewLexicalClassifier creates a keyword classifier over the given table.
func NewLexicalClassifier(types *domain.TypeTable) *LexicalClassifier {
	return &LexicalClassifier{types: types}
}

// Scores returns the fraction of each type's keywords found in text as
// case-insensitive substrings.
func (c *LexicalClassifier) Scores(text string) domain.TypeScores {
	lowered := strings.ToLower(text)
	scores := make(domain.TypeScores, c.types.Len())
	for _, dt := range c.types.Types() {
		matched := 0
		for _, kw := range dt.Keywords {
			if strings.Contains(lowered, kw) {
				matched++
			}
		}
		scores[dt.Name] = float64(matched) / float64(len(dt.Keywords))
	}
	return scores
}

// Classify returns the best-matching type and a damped confidence.
// Ties go to the type declared first. When the damped score does not
// exceed LexicalAcceptance the label is UnknownType but the confidence
// is kept.
func (c *LexicalClassifier) Classify(text string) domain.LexicalResult {
	scores := c.Scores(text)

	best, bestScore := "", 0.0
	for _, name := range c.types.Names() {
		if s := scores[name]; s > bestScore {
			best, bestScore = name, s
		}
	}

	if best == "" {
		return domain.LexicalResult{DocumentType: domain.UnknownType, Confidence: 0}
	}

	confidence := bestScore * LexicalDamping
	if confidence <= LexicalAcceptance {
		return domain.LexicalResult{DocumentType: domain.UnknownType, Confidence: confidence}
	}
	return domain.LexicalResult{DocumentType: best, Confidence: confidence}
}
