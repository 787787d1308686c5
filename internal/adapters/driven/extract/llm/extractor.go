// Package llm implements field extraction by prompting a language model for
// a JSON object holding the fields of the classified document type.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.FieldExtractor = (*Extractor)(nil)

// MaxPromptText caps how much document text is sent to the model.
const MaxPromptText = 4000

// Generation settings for extraction requests.
const (
	temperature = 0.1
	maxTokens   = 1000
)

// Confidence heuristic.
const (
	baseConfidence      = 0.8
	shortValuePenalty   = 0.2
	longValuePenalty    = 0.1
	shortValueThreshold = 3
	longValueThreshold  = 50
)

var promptTemplate = template.Must(template.New("extract").Parse(`
You are an expert document analyzer. Extract specific information from the given document text.

Document Type: {{.Type}}
Required Fields: {{.Fields}}

Instructions:
1. Extract ONLY the requested fields from the document
2. Return the information as a valid JSON object
3. Use null for fields that cannot be found or determined
4. Be precise and accurate with the extracted values
5. For dates, use YYYY-MM-DD format
6. For monetary amounts, include currency symbol

Document Text:
{{.Text}}

Return only the JSON object with no additional text:
`))

var (
	jsonObject   = regexp.MustCompile(`(?s)\{.*\}`)
	datePrefix   = regexp.MustCompile(`(?i)^(date:?|on:?)\s*`)
	amountPrefix = regexp.MustCompile(`(?i)^(total:?|amount:?|sum:?)\s*`)
	phoneJunk    = regexp.MustCompile(`[^\d+\-()\s]`)
)

// nullish values are treated as missing.
var nullish = map[string]bool{"null": true, "none": true, "n/a": true}

// Extractor asks an LLM for the fields of a document type.
type Extractor struct {
	llm driven.LLMService
}

// New creates an extractor backed by llm.
func New(llm driven.LLMService) *Extractor {
	return &Extractor{llm: llm}
}

// ExtractFields returns a value or nil for every field of docType, with a
// heuristic confidence per field. Unparseable model output yields all-nil
// fields rather than an error; only a failed model call is an error.
func (e *Extractor) ExtractFields(ctx context.Context, text string, docType domain.DocumentType) (domain.ExtractionResult, error) {
	if len(docType.Fields) == 0 {
		return domain.EmptyExtraction(), nil
	}

	prompt, err := BuildPrompt(text, docType)
	if err != nil {
		return domain.EmptyExtraction(), err
	}

	response, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return domain.EmptyExtraction(), fmt.Errorf("llm extraction: %w", err)
	}

	entities := ValidateEntities(ParseResponse(response), docType.Fields)
	return domain.ExtractionResult{
		Entities:         entities,
		ConfidenceScores: ConfidenceScores(entities),
	}, nil
}

// BuildPrompt renders the extraction prompt for docType.
func BuildPrompt(text string, docType domain.DocumentType) (string, error) {
	runes := []rune(text)
	if len(runes) > MaxPromptText {
		text = string(runes[:MaxPromptText])
	}

	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, struct {
		Type, Fields, Text string
	}{
		Type:   title(docType.Name),
		Fields: strings.Join(docType.Fields, ", "),
		Text:   text,
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// ParseResponse finds the JSON object in a model response. Anything that
// does not parse yields an empty map.
func ParseResponse(response string) map[string]any {
	candidate := response
	if m := jsonObject.FindString(response); m != "" {
		candidate = m
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return map[string]any{}
	}
	return out
}

// ValidateEntities keeps exactly the expected fields, stringifies values,
// maps null-like values to nil and cleans the rest by field kind.
func ValidateEntities(raw map[string]any, fields []string) map[string]*string {
	out := make(map[string]*string, len(fields))
	for _, field := range fields {
		value, ok := raw[field]
		if !ok || value == nil {
			out[field] = nil
			continue
		}
		s := strings.TrimSpace(stringify(value))
		if s == "" || nullish[strings.ToLower(s)] {
			out[field] = nil
			continue
		}
		cleaned := CleanValue(field, s)
		out[field] = &cleaned
	}
	return out
}

// CleanValue strips prefixes from dates and amounts and junk from phones.
func CleanValue(field, value string) string {
	name := strings.ToLower(field)
	switch {
	case strings.Contains(name, "date"):
		return strings.TrimSpace(datePrefix.ReplaceAllString(value, ""))
	case containsAny(name, "amount", "total", "balance", "value"):
		return strings.TrimSpace(amountPrefix.ReplaceAllString(value, ""))
	case strings.Contains(name, "phone"):
		return phoneJunk.ReplaceAllString(value, "")
	default:
		return value
	}
}

// ConfidenceScores rates each field: 0 when missing, otherwise 0.8 adjusted
// down for very short or very long values.
func ConfidenceScores(entities map[string]*string) map[string]float64 {
	scores := make(map[string]float64, len(entities))
	for field, value := range entities {
		if value == nil {
			scores[field] = 0
			continue
		}
		c := baseConfidence
		switch n := len([]rune(*value)); {
		case n < shortValueThreshold:
			c -= shortValuePenalty
		case n > longValueThreshold:
			c -= longValuePenalty
		}
		scores[field] = min(1, max(0, c))
	}
	return scores
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// title upper-cases the first letter of each underscore or space separated word.
func title(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
