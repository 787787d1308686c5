package domain

// PreviewLength is the number of characters kept in a content preview.
const PreviewLength = 200

// IndexRecord is the persisted unit in the semantic index.
// Records are never mutated; adding a record with an existing ID replaces it.
type IndexRecord struct {
	// ID is stable and unique. Empty means the index assigns one.
	ID string `json:"id"`

	// Content is the full extracted text, the field similarity is computed over.
	Content string `json:"content"`

	// DocumentType is the label given at ingestion time.
	DocumentType string `json:"document_type"`

	// Filename is the original file name, if any.
	Filename string `json:"filename"`

	// Metadata holds free-form attributes not used in scoring.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Neighbor is a record returned by similarity search, summarised for display.
type Neighbor struct {
	ID             string         `json:"id,omitempty"`
	DocumentType   string         `json:"document_type"`
	Score          float64        `json:"score"`
	Filename       string         `json:"filename"`
	ContentPreview string         `json:"content_preview"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Preview truncates content to PreviewLength characters and appends an
// ellipsis. The ellipsis is always appended, even for short content.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) > PreviewLength {
		runes = runes[:PreviewLength]
	}
	return string(runes) + "..."
}
