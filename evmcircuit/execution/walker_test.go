package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
)

func TestAssignBlock_RwLookupsMatchEvents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    []byte
		txs     int
		padding int
	}{
		{"mixed", mixedCode, 2, 0},
		{"reverting", revertingCode, 1, 0},
		{"empty block", nil, 0, 1},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			h := configure(t, Options{CheckRwLookups: true})
			block := buildBlock(t, c.code, c.txs)

			res, err := h.assign(t, 1024, block, singleChunk(t, block, 0))
			require.NoError(t, err)

			assert.Empty(t, res.Mismatches)
			assert.Equal(t, c.padding, res.Padding)
		})
	}
}

func TestAssignBlock_TamperedEvent(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{CheckRwLookups: true})
	block := buildBlock(t, mixedCode, 1)

	// the first stack write belongs to the first PUSH1
	block.Rws[table.RwStack][0].RwCounter += 1000

	res, err := h.assign(t, 1024, block, singleChunk(t, block, 0))
	require.NoError(t, err)

	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, "value differs", res.Mismatches[0].Reason)
	assert.Contains(t, res.Mismatches[0].Step, step.StatePUSH.String())
}

func TestAssignBlock_CheckDisabled(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{})
	block := buildBlock(t, mixedCode, 1)
	block.Rws[table.RwStack][0].RwCounter += 1000

	res, err := h.assign(t, 1024, block, singleChunk(t, block, 0))
	require.NoError(t, err)
	assert.Empty(t, res.Mismatches)
}

func TestAssignBlock_Padding(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{})
	block := buildBlock(t, mixedCode, 1)

	unpadded, err := h.assign(t, 1024, block, singleChunk(t, block, 0))
	require.NoError(t, err)

	const evmRows = 400

	padded, err := h.assign(t, 1024, block, singleChunk(t, block, evmRows))
	require.NoError(t, err)

	// the unpadded region ends with the closing step
	used := unpadded.Rows - 1

	assert.Equal(t, evmRows, padded.Rows)
	assert.Equal(t, evmRows-1-used, padded.Padding)
	assert.Equal(t, unpadded.Steps-1+padded.Padding+1, padded.Steps)
}

func TestAssignBlock_Errors(t *testing.T) {
	t.Parallel()

	block := buildBlock(t, mixedCode, 1)
	empty := buildBlock(t, nil, 0)

	cases := []struct {
		name    string
		block   *witness.Block
		rows    int
		evmRows int
		err     error
	}{
		{"grid too small", block, 16, 0, ErrNotEnoughRows},
		{"execution rows above grid", block, 64, 128, ErrNotEnoughRows},
		{"steps overflow execution rows", block, 1024, 16, ErrNotEnoughRows},
		{"no room for padding", empty, 64, 1, ErrEmptyPaddingRange},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			h := configure(t, Options{})

			_, err := h.assign(t, c.rows, c.block, singleChunk(t, c.block, c.evmRows))
			assert.ErrorIs(t, err, c.err)
		})
	}
}

func TestAssignBlock_Chunks(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{CheckRwLookups: true})
	block := buildBlock(t, mixedCode, 2)

	chunks, err := witness.SplitChunks(block, 2, witness.FixedParams{})
	require.NoError(t, err)

	cases := []struct {
		first step.ExecutionState
		last  step.ExecutionState
	}{
		{step.BeginTx, step.EndChunk},
		{step.BeginChunk, step.EndBlock},
	}

	for i, chunk := range chunks {
		res, grid, err := h.assignGrid(t, 1024, block, chunk)
		require.NoError(t, err)
		assert.Empty(t, res.Mismatches)

		assert.Equal(t, cases[i].first, h.stateAt(t, grid, 0), "chunk %d", i)
		assert.Equal(t, cases[i].last, h.stateAt(t, grid, res.Rows-1), "chunk %d", i)

		// nothing is selected after the closing step
		_, ok := h.config.StateAt(grid, res.Rows)
		assert.False(t, ok, "chunk %d", i)
	}
}

func TestAssignBlock_EmptyBlockStartsWithPadding(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{})
	block := buildBlock(t, nil, 0)

	res, grid, err := h.assignGrid(t, 64, block, singleChunk(t, block, 0))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, step.Padding, h.stateAt(t, grid, 0))
	assert.Equal(t, step.EndBlock, h.stateAt(t, grid, 1))

	assert.NotContains(t, FirstStepStates(Features{InvalidTx: true}), step.EndBlock)
}

func TestAssignBlock_UnknownState(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{})
	block := buildBlock(t, mixedCode, 1)
	block.Txs[0].Steps[1].ExecutionState = step.InvalidTx

	_, err := h.assign(t, 1024, block, singleChunk(t, block, 0))
	assert.ErrorIs(t, err, ErrUnknownGadget)
}
