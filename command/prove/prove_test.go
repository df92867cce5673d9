package prove

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the tests share the package params, so they do not run in parallel
func TestProve_DemoBlock(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	tracePath := filepath.Join(dir, "trace.json")

	require.NoError(t, os.WriteFile(configPath, []byte("degree: 11\nnum_chunks: 2\ncheck_rw_lookups: true\n"), 0600))

	*params = proveParams{configPath: configPath, writeTracePath: tracePath}

	result, err := prove()
	require.NoError(t, err)

	require.Len(t, result.Chunks, 2)

	for _, c := range result.Chunks {
		assert.True(t, c.Verified, c.Error)
		assert.Empty(t, c.Mismatches)
	}

	assert.Contains(t, result.GetOutput(), "[CHUNKS]")

	// the written trace proves the same way
	*params = proveParams{configPath: configPath, tracePath: tracePath}

	replayed, err := prove()
	require.NoError(t, err)
	assert.Equal(t, result.Chunks, replayed.Chunks)
}

func TestProve_ChunkDoesNotFit(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"degree": 11, "max_evm_rows": 16}`), 0600))

	*params = proveParams{configPath: configPath}

	result, err := prove()
	require.NoError(t, err)

	require.Len(t, result.Chunks, 1)
	assert.False(t, result.Chunks[0].Verified)
	assert.NotEmpty(t, result.Chunks[0].Error)
}

func TestProveParams_Validate(t *testing.T) {
	p := &proveParams{tracePath: "a", specPath: "b"}
	assert.ErrorIs(t, p.validateFlags(), errTraceAndSpec)
}
