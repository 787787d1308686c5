// Package mcp provides an MCP (Model Context Protocol) server adapter for docintel.
// It lets AI assistants classify documents, extract fields and feed the
// semantic index.
package mcp

import "errors"

// ErrMissingClassifier is returned when the classification service is not provided.
var ErrMissingClassifier = errors.New("mcp: classification service is required")

// ErrServiceUnavailable is returned by a tool whose backing service is not configured.
var ErrServiceUnavailable = errors.New("mcp: service not configured")
