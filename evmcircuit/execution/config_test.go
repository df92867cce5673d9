package execution

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/constraint"
	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
	"github.com/0xPolygon/evm-circuit/plonk"
)

func TestConfigure_DefaultGadgets(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{})
	registry := h.config.Registry()

	for _, state := range step.AllExecutionStates() {
		if state == step.InvalidTx {
			assert.False(t, registry.Has(state))

			continue
		}

		require.True(t, registry.Has(state), state.String())

		height := registry.Height(state)
		assert.GreaterOrEqual(t, height, 1, state.String())
		assert.LessOrEqual(t, height, param.MaxStepHeight, state.String())
	}

	for _, state := range []step.ExecutionState{step.Padding, step.EndChunk, step.EndBlock} {
		assert.Equal(t, 1, registry.Height(state), state.String())
	}

	heights := registry.HeightMap()
	assert.Len(t, heights, len(registry.States()))
}

func TestConfigure_EachGadget(t *testing.T) {
	t.Parallel()

	for _, factory := range DefaultGadgets() {
		factory := factory

		t.Run(factory().Name(), func(t *testing.T) {
			t.Parallel()

			cs := plonk.NewConstraintSystem()
			challenges := challenge.Configure(cs)

			var err error

			require.NotPanics(t, func() {
				_, err = Configure(cs, table.New(cs), challenges, Options{
					Features: Features{InvalidTx: true},
					Gadgets:  []Factory{factory},
				})
			})

			// the gadget configures, the registry misses the other states
			assert.ErrorIs(t, err, ErrMissingGadget)
		})
	}
}

func TestConfigure_InvalidTxFeature(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{Features: Features{InvalidTx: true}})

	assert.True(t, h.config.Registry().Has(step.InvalidTx))
	assert.True(t, h.config.Features().InvalidTx)
}

// tallPadding allocates more cells than a single row holds
type tallPadding struct {
	boundaryGadget
}

func (g *tallPadding) Configure(cb *constraint.Builder) {
	cb.QueryCells(2 * param.NPhase1Columns)
}

func newTallPadding() Gadget {
	return &tallPadding{boundaryGadget{state: step.Padding}}
}

func withoutPadding() []Factory {
	gadgets := DefaultGadgets()

	return append(gadgets[:2:2], gadgets[3:]...)
}

func TestConfigure_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		gadgets []Factory
		err     error
	}{
		{"duplicate state", append(DefaultGadgets(), newPadding), ErrDuplicateGadget},
		{"missing state", DefaultGadgets()[1:], ErrMissingGadget},
		{"missing padding", withoutPadding(), ErrMissingGadget},
		{"padding taller than a row", append(withoutPadding(), newTallPadding), ErrStepHeightExceeded},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			cs := plonk.NewConstraintSystem()
			challenges := challenge.Configure(cs)

			_, err := Configure(cs, table.New(cs), challenges, Options{Gadgets: c.gadgets})
			require.Error(t, err)
			assert.ErrorIs(t, err, c.err)
			assert.True(t, IsFatal(err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(fmt.Errorf("region: %w", ErrNotEnoughRows)))
	assert.True(t, IsFatal(ErrEmptyPaddingRange))
	assert.True(t, IsFatal(errors.New("boom")))
}

func TestRegistry_UnknownState(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{})
	registry := h.config.Registry()

	_, err := registry.Gadget(step.InvalidTx)
	assert.ErrorIs(t, err, ErrUnknownGadget)

	_, err = registry.Gadget(step.ExecutionState(step.NumExecutionStates + 3))
	assert.ErrorIs(t, err, ErrUnknownGadget)

	assert.Equal(t, 0, registry.Height(step.InvalidTx))
	assert.Nil(t, registry.StoredExpressions(step.InvalidTx))
	assert.True(t, plonk.IsConstantZero(registry.RwCounterOffset(step.InvalidTx)))
}

func TestRegistry_StoredLookupsFollowRwOrder(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{})

	var names []string
	for _, se := range h.config.Registry().StoredExpressions(step.StateSSTORE) {
		names = append(names, se.Name)
	}

	want := []string{
		"bytecode lookup",
		"rw lookup " + table.RwStack.String(),
		"rw lookup " + table.RwStack.String(),
		"rw lookup " + table.RwCallContext.String(),
		"rw lookup " + table.RwCallContext.String(),
		"rw lookup " + table.RwCallContext.String(),
		"rw lookup " + table.RwAccountStorage.String(),
		"rw lookup " + table.RwAccountStorage.String() + " with reversion",
	}

	assert.Equal(t, want, names[len(names)-len(want):])
}

func TestInstrument(t *testing.T) {
	t.Parallel()

	h := configure(t, Options{})
	in := h.config.Instrument()

	assert.Len(t, in.Gadgets, len(h.config.Registry().States()))
	assert.LessOrEqual(t, in.MaxHeight, param.MaxStepHeight)
	assert.Positive(t, in.LookupsByTable[table.Rw.String()])
	assert.Positive(t, in.CellsByType[cell.Phase1.String()])

	for _, g := range in.Gadgets {
		if g.State == step.StateSHA3 {
			assert.Equal(t, 1, g.LookupCount(table.Keccak))
			assert.Equal(t, 1, g.LookupCount(table.Copy))
		}
	}

	in.Publish()
}

func TestChunkEntries(t *testing.T) {
	t.Parallel()

	block := buildBlock(t, mixedCode, 2)

	chunks, err := witness.SplitChunks(block, 2, witness.FixedParams{})
	require.NoError(t, err)

	total := 0

	for i, chunk := range chunks {
		entries := chunkEntries(block, chunk)
		require.NotEmpty(t, entries)

		if i == 0 {
			assert.Equal(t, step.BeginTx, entries[0].step.ExecutionState)
			total += len(entries)
		} else {
			assert.Equal(t, step.BeginChunk, entries[0].step.ExecutionState)
			assert.Same(t, chunk.PrevLastCall, entries[0].call)
			total += len(entries) - 1
		}
	}

	assert.Equal(t, len(block.Txs[0].Steps)+len(block.Txs[1].Steps), total)
}
