package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// ClassifyInput is the input schema for the classify tool.
type ClassifyInput struct {
	Text string `json:"text" jsonschema:"the document text to classify"`
}

// ClassifyOutput is the output schema for the classify tool.
type ClassifyOutput struct {
	DocumentType     string           `json:"document_type"`
	Confidence       float64          `json:"confidence"`
	Method           string           `json:"method"`
	Outcome          string           `json:"outcome"`
	SimilarDocuments []NeighborOutput `json:"similar_documents"`
}

// NeighborOutput is one supporting neighbour.
type NeighborOutput struct {
	DocumentType   string  `json:"document_type"`
	Score          float64 `json:"score"`
	Filename       string  `json:"filename"`
	ContentPreview string  `json:"content_preview"`
}

// ExtractFieldsInput is the input schema for the extract_fields tool.
type ExtractFieldsInput struct {
	Text         string `json:"text" jsonschema:"the document text"`
	DocumentType string `json:"document_type" jsonschema:"a known document type, see list_types"`
}

// ExtractFieldsOutput is the output schema for the extract_fields tool.
type ExtractFieldsOutput struct {
	DocumentType     string             `json:"document_type"`
	Entities         map[string]*string `json:"entities"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Text         string `json:"text" jsonschema:"the document text to store"`
	DocumentType string `json:"document_type" jsonschema:"the label to store the text under"`
	ID           string `json:"id,omitempty" jsonschema:"optional stable id; re-using an id replaces the record"`
	Filename     string `json:"filename,omitempty" jsonschema:"optional original file name"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Stored  bool   `json:"stored"`
	Outcome string `json:"outcome"`
}

// IndexStatusInput is the empty input schema for the index_status tool.
type IndexStatusInput struct{}

// IndexStatusOutput is the output schema for the index_status tool.
type IndexStatusOutput struct {
	State          string         `json:"state"`
	Backend        string         `json:"backend"`
	IndexName      string         `json:"index_name"`
	TotalDocuments int            `json:"total_documents"`
	Distribution   map[string]int `json:"document_types"`
	SupportedTypes []string       `json:"supported_types"`
}

// ListTypesInput is the empty input schema for the list_types tool.
type ListTypesInput struct{}

// ListTypesOutput is the output schema for the list_types tool.
type ListTypesOutput struct {
	Types []TypeOutput `json:"types"`
}

// TypeOutput describes one document type.
type TypeOutput struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify",
		Description: "Classify document text into a known document type",
	}, s.handleClassify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_fields",
		Description: "Extract the entity fields of a document type from text",
	}, s.handleExtractFields)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Store labelled document text in the semantic index",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report semantic index readiness and document counts",
	}, s.handleIndexStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_types",
		Description: "List the known document types and their fields",
	}, s.handleListTypes)
}

// handleClassify never fails on service errors; they show in the outcome.
func (s *Server) handleClassify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ClassifyOutput{}, errors.New("text is required")
	}

	c := s.ports.Classifier.Classify(ctx, input.Text)

	output := ClassifyOutput{
		DocumentType:     c.DocumentType,
		Confidence:       c.Confidence,
		Method:           string(c.Method),
		Outcome:          c.Outcome.String(),
		SimilarDocuments: make([]NeighborOutput, len(c.SimilarDocuments)),
	}
	for i, n := range c.SimilarDocuments {
		output.SimilarDocuments[i] = NeighborOutput{
			DocumentType:   n.DocumentType,
			Score:          n.Score,
			Filename:       n.Filename,
			ContentPreview: n.ContentPreview,
		}
	}

	return nil, output, nil
}

func (s *Server) handleExtractFields(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractFieldsInput,
) (*mcp.CallToolResult, ExtractFieldsOutput, error) {
	if s.ports.Pipeline == nil {
		return nil, ExtractFieldsOutput{}, fmt.Errorf("extract_fields: %w", ErrServiceUnavailable)
	}

	result, err := s.ports.Pipeline.ExtractFields(ctx, input.Text, input.DocumentType)
	if err != nil {
		return nil, ExtractFieldsOutput{}, err
	}

	return nil, ExtractFieldsOutput{
		DocumentType:     input.DocumentType,
		Entities:         result.Entities,
		ConfidenceScores: result.ConfidenceScores,
	}, nil
}

// handleIngest reports a skipped write in the output, not as an error.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, fmt.Errorf("ingest: %w", ErrServiceUnavailable)
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, IngestOutput{}, errors.New("text is required")
	}
	if s.ports.Types != nil && input.DocumentType != domain.UnknownType && !knownType(s.ports.Types, input.DocumentType) {
		return nil, IngestOutput{}, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, input.DocumentType)
	}

	outcome := s.ports.Ingest.Ingest(ctx, driving.IngestRequest{
		ID:           input.ID,
		Text:         input.Text,
		DocumentType: input.DocumentType,
		Filename:     input.Filename,
		Metadata:     map[string]any{"source": "mcp"},
	})

	return nil, IngestOutput{Stored: outcome.IsOK(), Outcome: outcome.String()}, nil
}

func (s *Server) handleIndexStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	if s.ports.Index == nil {
		return nil, IndexStatusOutput{}, fmt.Errorf("index_status: %w", ErrServiceUnavailable)
	}

	st := s.ports.Index.Status(ctx)
	return nil, IndexStatusOutput{
		State:          st.State.String(),
		Backend:        st.Backend,
		IndexName:      st.IndexName,
		TotalDocuments: st.TotalDocuments,
		Distribution:   st.Distribution,
		SupportedTypes: st.SupportedTypes,
	}, nil
}

func (s *Server) handleListTypes(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListTypesInput,
) (*mcp.CallToolResult, ListTypesOutput, error) {
	if s.ports.Types == nil {
		return nil, ListTypesOutput{}, fmt.Errorf("list_types: %w", ErrServiceUnavailable)
	}

	types := s.ports.Types.Types()
	output := ListTypesOutput{Types: make([]TypeOutput, len(types))}
	for i, dt := range types {
		output.Types[i] = TypeOutput{Name: dt.Name, Fields: dt.Fields}
	}
	return nil, output, nil
}

func knownType(types driving.TypeService, name string) bool {
	for _, dt := range types.Types() {
		if dt.Name == name {
			return true
		}
	}
	return false
}
