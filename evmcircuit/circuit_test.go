package evmcircuit

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/execution"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

const testDegree = 11

func newCircuit(t *testing.T) *Circuit {
	t.Helper()

	c, err := New(Params{Degree: testDegree, CheckRwLookups: true}, nil)
	require.NoError(t, err)

	return c
}

func demoBlock(t *testing.T) *witness.Block {
	t.Helper()

	block, err := witness.DemoBlockSpec().Builder(nil).Build()
	require.NoError(t, err)

	return block
}

func split(t *testing.T, block *witness.Block, total, evmRows int) []*witness.Chunk {
	t.Helper()

	chunks, err := witness.SplitChunks(block, total, witness.FixedParams{MaxEvmRows: evmRows})
	require.NoError(t, err)

	return chunks
}

func failures(err error) []*plonk.VerifyFailure {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return nil
	}

	var out []*plonk.VerifyFailure

	for _, e := range merr.Errors {
		var f *plonk.VerifyFailure
		if errors.As(e, &f) {
			out = append(out, f)
		}
	}

	return out
}

func TestNew_DegreeTooSmall(t *testing.T) {
	t.Parallel()

	_, err := New(Params{Degree: minDegree - 1}, nil)
	assert.ErrorIs(t, err, errDegreeTooSmall)
}

func TestCircuit_Verify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		chunks  int
		evmRows int
	}{
		{"single chunk", 1, 0},
		{"single chunk with padding", 1, 512},
		{"two chunks", 2, 0},
		{"three chunks with padding", 3, 256},
	}

	block := demoBlock(t)

	for _, test := range cases {
		test := test

		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			// synthesis names columns of the constraint system, so every
			// parallel run gets its own circuit
			c := newCircuit(t)

			for _, chunk := range split(t, block, test.chunks, test.evmRows) {
				w, err := c.Synthesize(block, chunk, challenge.DefaultValues())
				require.NoError(t, err)

				assert.Empty(t, w.Result.Mismatches)
				assert.NoError(t, c.Verify(w))

				if test.evmRows > 0 {
					assert.Equal(t, test.evmRows, w.Result.Rows)
					assert.Positive(t, w.Result.Padding)
				}
			}
		})
	}
}

func TestCircuit_EmptyBlock(t *testing.T) {
	t.Parallel()

	c := newCircuit(t)

	block, err := witness.NewBlockBuilder(witness.BlockContext{Number: 1}, nil).Build()
	require.NoError(t, err)

	w, err := c.Synthesize(block, split(t, block, 1, 0)[0], challenge.DefaultValues())
	require.NoError(t, err)

	assert.Equal(t, 2, w.Result.Rows)
	assert.NoError(t, c.Verify(w))

	first, ok := c.StateAt(w, 0)
	require.True(t, ok)
	assert.Equal(t, step.Padding, first)
}

func TestCircuit_ChunkBoundaries(t *testing.T) {
	t.Parallel()

	c := newCircuit(t)
	block := demoBlock(t)
	chunks := split(t, block, 3, 0)

	for i, chunk := range chunks {
		w, err := c.Synthesize(block, chunk, challenge.DefaultValues())
		require.NoError(t, err)

		first, ok := c.StateAt(w, 0)
		require.True(t, ok)

		last, ok := c.StateAt(w, w.Result.Rows-1)
		require.True(t, ok)

		wantFirst, wantLast := step.BeginChunk, step.EndChunk
		if i == 0 {
			wantFirst = step.BeginTx
		}

		if i == len(chunks)-1 {
			wantLast = step.EndBlock
		}

		assert.Equal(t, wantFirst, first, "chunk %d", i)
		assert.Equal(t, wantLast, last, "chunk %d", i)
	}
}

func TestCircuit_ForbiddenTransition(t *testing.T) {
	t.Parallel()

	c := newCircuit(t)
	block := demoBlock(t)

	// drop the EndTx of the first transaction so that its STOP is followed
	// by the BeginTx of the second one
	steps := block.Txs[0].Steps
	require.Equal(t, step.EndTx, steps[len(steps)-1].ExecutionState)
	block.Txs[0].Steps = steps[:len(steps)-1]

	w, err := c.Synthesize(block, split(t, block, 1, 0)[0], challenge.DefaultValues())
	require.NoError(t, err)

	err = c.Verify(w)
	require.Error(t, err)

	found := false

	for _, f := range failures(err) {
		if f.Kind == plonk.ConstraintNotSatisfied && f.Gate == "transition from "+step.StateSTOP.String() {
			found = true
		}
	}

	assert.True(t, found, err.Error())
}

func TestCircuit_ForbiddenOutgoingTransition(t *testing.T) {
	t.Parallel()

	for _, state := range []step.ExecutionState{step.EndBlock, step.Padding} {
		state := state

		t.Run(state.String(), func(t *testing.T) {
			t.Parallel()

			c := newCircuit(t)
			block := demoBlock(t)

			// the first transaction closes with state, so the BeginTx of the
			// second one follows it
			steps := block.Txs[0].Steps
			require.Equal(t, step.EndTx, steps[len(steps)-1].ExecutionState)
			steps[len(steps)-1].ExecutionState = state

			w, err := c.Synthesize(block, split(t, block, 1, 0)[0], challenge.DefaultValues())
			require.NoError(t, err)

			err = c.Verify(w)
			require.Error(t, err)

			found := false

			for _, f := range failures(err) {
				if f.Kind == plonk.ConstraintNotSatisfied && f.Gate == "transition from "+state.String() {
					found = true
				}
			}

			assert.True(t, found, err.Error())
		})
	}
}

func TestCircuit_TamperedRwTable(t *testing.T) {
	t.Parallel()

	c := newCircuit(t)
	block := demoBlock(t)

	w, err := c.Synthesize(block, split(t, block, 1, 0)[0], challenge.DefaultValues())
	require.NoError(t, err)

	counter := c.tables.Rw.Columns()[0]
	require.NoError(t, w.Assignment.Set(counter, 0, field.FromUint64(1<<20)))

	err = c.Verify(w)
	require.Error(t, err)

	fs := failures(err)
	require.NotEmpty(t, fs)

	for _, f := range fs {
		assert.Equal(t, plonk.LookupNotSatisfied, f.Kind)
	}
}

func TestCircuit_Idempotent(t *testing.T) {
	t.Parallel()

	c := newCircuit(t)
	block := demoBlock(t)
	chunk := split(t, block, 2, 0)[1]

	first, err := c.Synthesize(block, chunk, challenge.DefaultValues())
	require.NoError(t, err)

	second, err := c.Synthesize(block, chunk, challenge.DefaultValues())
	require.NoError(t, err)

	if diff := cmp.Diff(first.Assignment.Snapshot(), second.Assignment.Snapshot()); diff != "" {
		t.Fatalf("re-assignment differs (-first +second):\n%s", diff)
	}

	assert.Equal(t, first.Result, second.Result)
}

func TestCircuit_NotEnoughRows(t *testing.T) {
	t.Parallel()

	c := newCircuit(t)
	block := demoBlock(t)

	_, err := c.Synthesize(block, split(t, block, 1, c.Rows())[0], challenge.DefaultValues())
	require.Error(t, err)

	assert.ErrorIs(t, err, execution.ErrNotEnoughRows)
	assert.False(t, execution.IsFatal(err))
}

func TestCircuit_Stats(t *testing.T) {
	t.Parallel()

	c := newCircuit(t)
	stats := c.Stats()

	assert.Len(t, stats.Gadgets, len(c.Execution().Registry().States()))
	assert.Positive(t, stats.MaxHeight)
	assert.NotEmpty(t, c.ConstraintSystem().Gates())
}
