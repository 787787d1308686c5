package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for docintel resources.
	uriScheme = "docintel://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "types",
		Name:        "document-types",
		Description: "Known document types with their fields",
		MIMEType:    "application/json",
	}, s.handleTypesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "types/{name}",
		Name:        "document-type",
		Description: "Fields and keywords of a single document type",
		MIMEType:    "application/json",
	}, s.handleTypeResource)
}

// handleTypesResource returns every known type.
func (s *Server) handleTypesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Types == nil {
		return jsonResource(req.Params.URI, "[]"), nil
	}

	data, err := json.MarshalIndent(s.ports.Types.Types(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling types: %w", err)
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

// handleTypeResource returns one type by name.
func (s *Server) handleTypeResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Types == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract name from URI: docintel://types/{name}
	name := extractTypeName(req.Params.URI)
	for _, dt := range s.ports.Types.Types() {
		if dt.Name != name {
			continue
		}
		data, err := json.MarshalIndent(dt, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshalling type: %w", err)
		}
		return jsonResource(req.Params.URI, string(data)), nil
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func jsonResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractTypeName extracts the type name from a URI like docintel://types/{name}.
func extractTypeName(uri string) string {
	const prefix = uriScheme + "types/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
