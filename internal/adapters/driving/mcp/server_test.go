package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil classifier returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingClassifier)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Classifier: &mockClassifier{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("classifier only is valid", func(t *testing.T) {
		ports := &Ports{Classifier: &mockClassifier{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Classifier: &mockClassifier{},
			Pipeline:   &mockPipeline{},
			Ingest:     &mockIngest{},
			Index:      &mockIndex{},
			Types:      mockTypes{},
		}
		assert.NoError(t, ports.Validate())
	})
}
