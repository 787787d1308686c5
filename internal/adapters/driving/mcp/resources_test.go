package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleTypesResource(t *testing.T) {
	server := newTestServer(t, &Ports{Types: mockTypes{}})

	result, err := server.handleTypesResource(context.Background(), readRequest("docintel://types"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, `"invoice"`)
}

func TestServer_handleTypesResource_NoTypes(t *testing.T) {
	server := newTestServer(t, &Ports{})

	result, err := server.handleTypesResource(context.Background(), readRequest("docintel://types"))

	require.NoError(t, err)
	assert.Equal(t, "[]", result.Contents[0].Text)
}

func TestServer_handleTypeResource(t *testing.T) {
	server := newTestServer(t, &Ports{Types: mockTypes{}})

	result, err := server.handleTypeResource(context.Background(), readRequest("docintel://types/receipt"))
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, "store_name")

	_, err = server.handleTypeResource(context.Background(), readRequest("docintel://types/spaceship"))
	assert.Error(t, err)
}

func TestExtractTypeName(t *testing.T) {
	assert.Equal(t, "invoice", extractTypeName("docintel://types/invoice"))
	assert.Equal(t, "", extractTypeName("other://types/invoice"))
}
