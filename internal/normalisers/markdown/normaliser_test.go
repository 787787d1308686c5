package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliser_SupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".md", ".markdown"}, New().SupportedExtensions())
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "heading", input: "# Invoice 42", expected: "Invoice 42"},
		{name: "emphasis", input: "Total **120.00** due *now*", expected: "Total 120.00 due now"},
		{name: "keeps identifiers", input: "invoice_number and due_date", expected: "invoice_number and due_date"},
		{name: "link", input: "Pay at [portal](https://example.com)", expected: "Pay at portal"},
		{name: "image alt", input: "![logo](logo.png) Acme", expected: "logo Acme"},
		{name: "inline code", input: "Ref `INV-7`", expected: "Ref INV-7"},
		{name: "list", input: "- one\n* two\n1. three", expected: "one\ntwo\nthree"},
		{name: "blockquote", input: "> quoted", expected: "quoted"},
		{name: "table", input: "| Item | Price |\n|---|---|\n| Tea | 2.00 |", expected: "Item Price\n\nTea 2.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Strip(tt.input))
		})
	}
}

func TestNormaliser_Extract(t *testing.T) {
	text, err := New().Extract(context.Background(), []byte("# Receipt\n\nThank you"), "r.md")

	require.NoError(t, err)
	assert.Equal(t, "Receipt\n\nThank you", text)
}
