package witness

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
)

func twoTxBlock(t *testing.T) *Block {
	t.Helper()

	code := program(
		step.PUSH1, 2,
		step.PUSH1, 3,
		step.ADD,
		step.PUSH1, 0,
		step.SSTORE,
		step.STOP,
	)

	return buildBlock(t, code,
		TxSpec{Caller: addr1, Callee: addr2, Gas: 100000},
		TxSpec{Caller: addr1, Callee: addr2, Gas: 100000},
	)
}

func TestSplitChunks_Single(t *testing.T) {
	t.Parallel()

	block := twoTxBlock(t)

	chunks, err := SplitChunks(block, 1, FixedParams{MaxEvmRows: 100})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.True(t, c.Context.IsFirstChunk())
	assert.True(t, c.Context.IsLastChunk())
	assert.Nil(t, c.BeginChunk)
	assert.Nil(t, c.EndChunk)
	require.NotNil(t, c.EndBlock)
	assert.Equal(t, block.EndRwCounter, c.EndBlock.RwCounter)
	assert.Equal(t, step.Padding, c.Padding.ExecutionState)
	assert.Equal(t, c.EndBlock.RwCounter, c.Padding.RwCounter)
	assert.Equal(t, uint64(1), c.Context.InitialRWC)
	assert.Equal(t, block.EndRwCounter, c.Context.EndRWC)
	assert.Len(t, c.Steps(block), 16)
	assert.Len(t, c.Rws(block), block.Rws.Len())
	assert.Same(t, block.Txs[1].Calls[0], c.LastCall)
}

func TestSplitChunks_Two(t *testing.T) {
	t.Parallel()

	block := twoTxBlock(t)

	chunks, err := SplitChunks(block, 2, FixedParams{})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	first, second := chunks[0], chunks[1]

	assert.Equal(t, first.Context.EndRWC, second.Context.InitialRWC)
	assert.Equal(t, uint64(1), second.Context.Index)

	require.NotNil(t, first.EndChunk)
	require.NotNil(t, second.BeginChunk)
	assert.Nil(t, first.EndBlock)
	assert.NotNil(t, second.EndBlock)

	// the boundary steps continue from the first step of the second chunk
	opening := second.Steps(block)[0]
	assert.False(t, opening.ExecutionState.IsInternal())
	assert.Equal(t, opening.RwCounter, first.EndChunk.RwCounter)
	assert.Equal(t, opening.RwCounter, second.BeginChunk.RwCounter)
	assert.Equal(t, opening.ProgramCounter, second.BeginChunk.ProgramCounter)
	assert.Equal(t, opening.StackPointer, second.BeginChunk.StackPointer)
	assert.Same(t, first.LastCall, second.PrevLastCall)

	// every step lands in exactly one chunk
	total := 0
	for _, c := range chunks {
		total += len(c.Steps(block))
	}

	assert.Equal(t, 16, total)

	for _, rw := range first.Rws(block) {
		assert.Less(t, rw.RwCounter, first.Context.EndRWC)
	}
}

func TestSplitChunks_Invalid(t *testing.T) {
	t.Parallel()

	block := twoTxBlock(t)

	_, err := SplitChunks(block, 0, FixedParams{})
	assert.ErrorIs(t, err, errInvalidChunkCount)

	_, err = SplitChunks(block, 64, FixedParams{})
	assert.ErrorIs(t, err, errNotEnoughCuts)
}

func TestChunkContext_TableRows(t *testing.T) {
	t.Parallel()

	ctx := ChunkContext{Index: 1, Total: 3, InitialRWC: 10, EndRWC: 20}
	rows := ctx.TableRows()

	require.Len(t, rows, 5)

	for _, row := range rows {
		assert.Len(t, row, 2)
	}

	assert.False(t, ctx.IsFirstChunk())
	assert.False(t, ctx.IsLastChunk())
}

func TestRwTagCounts(t *testing.T) {
	t.Parallel()

	block := twoTxBlock(t)
	counts := RwTagCounts(block.Rws.Sorted())

	assert.Equal(t, 2, counts[table.RwTxReceipt])
	assert.Equal(t, 2, counts[table.RwAccountStorage])
	assert.Equal(t, []table.RwTag{
		table.RwStack,
		table.RwAccountStorage,
		table.RwCallContext,
		table.RwTxReceipt,
	}, SortedTags(counts))
}

func TestTrace_RoundTrip(t *testing.T) {
	t.Parallel()

	block := twoTxBlock(t)

	var buf bytes.Buffer
	require.NoError(t, WriteTrace(&buf, block))

	decoded, err := ReadTrace(&buf)
	require.NoError(t, err)

	assert.Equal(t, block.EndRwCounter, decoded.EndRwCounter)
	assert.Equal(t, block.Rws.Sorted(), decoded.Rws.Sorted())
	require.Len(t, decoded.Txs, 2)
	assert.Equal(t, states(block.Txs[1]), states(decoded.Txs[1]))
}

func TestBlockSpec_Builder(t *testing.T) {
	t.Parallel()

	input := `{
		"context": {"number": 5, "chainId": 7},
		"accounts": {
			"0x2000000000000000000000000000000000000002": {"code": "0x600160005500"}
		},
		"txs": [
			{"caller": "0x1000000000000000000000000000000000000001", "callee": "0x2000000000000000000000000000000000000002", "gas": 100000}
		]
	}`

	spec, err := ReadBlockSpec(bytes.NewBufferString(input))
	require.NoError(t, err)

	block, err := spec.Builder(nil).Build()
	require.NoError(t, err)

	assert.Equal(t, []step.ExecutionState{
		step.BeginTx,
		step.StatePUSH, step.StatePUSH,
		step.StateSSTORE,
		step.StateSTOP,
		step.EndTx,
	}, states(block.Txs[0]))
	assert.Equal(t, uint64(7), block.Context.ChainID)
}

func TestBytecode_IsCode(t *testing.T) {
	t.Parallel()

	bc := NewBytecode(program(step.PUSH1+1, 0x5b, 0x5b, step.JUMPDEST, step.PUSH1))

	assert.Equal(t, []bool{true, false, false, true, true}, bc.IsCode())

	rows := bc.TableRows()
	require.Len(t, rows, 6)
	assert.Equal(t, field.FromUint64(5), rows[0][5])
}
