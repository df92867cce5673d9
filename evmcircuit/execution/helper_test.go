package execution

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
	"github.com/0xPolygon/evm-circuit/plonk"
	"github.com/0xPolygon/evm-circuit/types"
)

var (
	caller = types.StringToAddress("0x1000000000000000000000000000000000000001")
	callee = types.StringToAddress("0x2000000000000000000000000000000000000002")
)

func program(ops ...interface{}) []byte {
	var code []byte

	for _, op := range ops {
		switch v := op.(type) {
		case step.OpCode:
			code = append(code, byte(v))
		case int:
			code = append(code, byte(v))
		}
	}

	return code
}

// mixedCode touches the stack, storage, memory, keccak and the context
var mixedCode = program(
	step.PUSH1, 2,
	step.PUSH1, 3,
	step.ADD,
	step.PUSH1, 0,
	step.SSTORE,
	step.PUSH1, 0,
	step.SLOAD,
	step.PUSH1, 0,
	step.MSTORE,
	step.PUSH1, 32,
	step.PUSH1, 0,
	step.SHA3,
	step.DUP1,
	step.SWAP1,
	step.POP,
	step.POP,
	step.CALLER,
	step.POP,
	step.NUMBER,
	step.POP,
	step.STOP,
)

// revertingCode writes a slot and reverts, so the write is undone
var revertingCode = program(
	step.PUSH1, 7,
	step.PUSH1, 1,
	step.SSTORE,
	step.PUSH1, 0,
	step.PUSH1, 0,
	step.REVERT,
)

func buildBlock(t *testing.T, code []byte, txs int) *witness.Block {
	t.Helper()

	b := witness.NewBlockBuilder(witness.BlockContext{Number: 10, ChainID: 100}, nil)
	b.SetAccount(callee, witness.Account{Code: code})

	for i := 0; i < txs; i++ {
		b.AddTx(witness.TxSpec{Caller: caller, Callee: callee, Gas: 100000})
	}

	block, err := b.Build()
	require.NoError(t, err)

	return block
}

type harness struct {
	cs     *plonk.ConstraintSystem
	config *Config
}

func configure(t *testing.T, opts Options) *harness {
	t.Helper()

	cs := plonk.NewConstraintSystem()
	challenges := challenge.Configure(cs)
	tables := table.New(cs)

	config, err := Configure(cs, tables, challenges, opts)
	require.NoError(t, err)

	return &harness{cs: cs, config: config}
}

func (h *harness) assign(t *testing.T, rows int, block *witness.Block, chunk *witness.Chunk) (*AssignResult, error) {
	t.Helper()

	res, _, err := h.assignGrid(t, rows, block, chunk)

	return res, err
}

func (h *harness) assignGrid(
	t *testing.T,
	rows int,
	block *witness.Block,
	chunk *witness.Chunk,
) (*AssignResult, *plonk.Assignment, error) {
	t.Helper()

	assignment := plonk.NewAssignment(h.cs, rows)
	layouter := plonk.NewLayouter(h.cs, assignment)

	res, err := h.config.AssignBlock(layouter, block, chunk, challenge.DefaultValues())

	return res, assignment, err
}

// stateAt fails the test when row holds no configured state
func (h *harness) stateAt(t *testing.T, a *plonk.Assignment, row int) step.ExecutionState {
	t.Helper()

	state, ok := h.config.StateAt(a, row)
	require.True(t, ok, "no state at row %d", row)

	return state
}

func singleChunk(t *testing.T, block *witness.Block, evmRows int) *witness.Chunk {
	t.Helper()

	chunks, err := witness.SplitChunks(block, 1, witness.FixedParams{MaxEvmRows: evmRows})
	require.NoError(t, err)

	return chunks[0]
}
