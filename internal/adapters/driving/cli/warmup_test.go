package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func TestWarmupCmd_Flags(t *testing.T) {
	for _, name := range []string{"dir", "reset", "watch", "plain"} {
		assert.NotNil(t, warmupCmd.Flags().Lookup(name), name)
	}
}

func TestWarmupCmd_PrintsProgressAndReport(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.warmup.progress = []domain.WarmupProgress{
		{Discovered: 2, Processed: 1, Indexed: 1},
		{Discovered: 2, Processed: 2, Indexed: 2},
	}

	out, err := executeCommand("warmup", "--dir", "/corpus", "--reset")

	require.NoError(t, err)
	assert.Equal(t, "/corpus", ts.warmup.opts.DataDir)
	assert.True(t, ts.warmup.opts.ResetIndex)
	assert.Contains(t, out, "1/2 processed, 1 indexed, 0 failed")
	assert.Contains(t, out, "2/2 processed, 2 indexed, 0 failed")
	assert.Contains(t, out, "Warm-up complete")
	assert.Contains(t, out, "Indexed:    2")
	assert.False(t, ts.warmup.watched)
}

func TestWarmupCmd_Interrupted(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.warmup.report = &domain.WarmupReport{Discovered: 5, Indexed: 2, Interrupted: true}

	out, err := executeCommand("warmup", "--watch")

	require.NoError(t, err)
	assert.Contains(t, out, "Warm-up interrupted")
	assert.False(t, ts.warmup.watched)
}

func TestWarmupCmd_Watch(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("warmup", "--watch", "-d", "/corpus")

	require.NoError(t, err)
	assert.True(t, ts.warmup.watched)
	assert.Equal(t, "/corpus", ts.warmup.watchRoot)
	assert.Contains(t, out, "Watching for new documents")
}

func TestWarmupCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.warmup.err = errors.New("wait for index: semantic index unavailable")

	_, err := executeCommand("warmup")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "semantic index unavailable")
}

func TestWarmupCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("warmup", "--json")
	require.NoError(t, err)

	var got domain.WarmupReport
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Indexed)
	assert.Equal(t, 1, got.BatchesFlushed)
}
