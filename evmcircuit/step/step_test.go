package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

type nopRegion struct{}

func (nopRegion) AssignAdvice(string, plonk.Column, int, field.Element) error { return nil }
func (nopRegion) AssignFixed(string, plonk.Column, int, field.Element) error  { return nil }
func (nopRegion) EnableSelector(string, plonk.Column, int) error              { return nil }
func (nopRegion) NameColumn(string, plonk.Column)                             {}

func TestExecutionState_Names(t *testing.T) {
	t.Parallel()

	for _, s := range AllExecutionStates() {
		parsed, ok := ParseExecutionState(s.String())
		require.True(t, ok, s.String())
		assert.Equal(t, s, parsed)
	}

	_, ok := ParseExecutionState("NOPE")
	assert.False(t, ok)

	assert.Panics(t, func() {
		_ = ExecutionState(NumExecutionStates).String()
	})
}

func TestExecutionState_Text(t *testing.T) {
	t.Parallel()

	text, err := StateSSTORE.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "SSTORE", string(text))

	var s ExecutionState
	require.NoError(t, s.UnmarshalText([]byte("EndChunk")))
	assert.Equal(t, EndChunk, s)

	assert.Error(t, s.UnmarshalText([]byte("Unknown")))

	_, err = ExecutionState(-1).MarshalText()
	assert.Error(t, err)
}

func TestExecutionState_Classes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		state      ExecutionState
		internal   bool
		isError    bool
		precompile bool
		halts      bool
	}{
		{BeginTx, true, false, false, false},
		{InvalidTx, true, false, false, false},
		{StateADD_SUB, false, false, false, false},
		{StateSTOP, false, false, false, true},
		{StateRETURN_REVERT, false, false, false, true},
		{StateCALL_OP, false, false, false, false},
		{ErrorInvalidJump, false, true, false, true},
		{ErrorContractAddressCollision, false, true, false, true},
		{PrecompileIdentity, false, false, true, true},
	}

	for _, c := range cases {
		c := c

		t.Run(c.state.String(), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, c.internal, c.state.IsInternal())
			assert.Equal(t, c.isError, c.state.IsError())
			assert.Equal(t, c.precompile, c.state.IsPrecompile())
			assert.Equal(t, c.halts, c.state.Halts())
		})
	}

	for _, s := range HaltingStates() {
		assert.True(t, s.Halts())

		reads := s.Layout().ContextReads
		require.NotEmpty(t, reads, s.String())
		assert.Equal(t, table.CallContextIsSuccess, reads[len(reads)-1], s.String())
	}
}

func TestStateForOpcode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		op    OpCode
		state ExecutionState
	}{
		{ADD, StateADD_SUB},
		{SUB, StateADD_SUB},
		{PUSH0, StatePUSH},
		{PUSH32, StatePUSH},
		{DUP16, StateDUP},
		{MSTORE8, StateMEMORY},
		{NUMBER, StateBLOCKCTX},
		{STATICCALL, StateCALL_OP},
		{REVERT, StateRETURN_REVERT},
	}

	for _, c := range cases {
		s, ok := StateForOpcode(c.op)
		require.True(t, ok, c.op.String())
		assert.Equal(t, c.state, s, c.op.String())
	}

	// every opcode maps back to a state that claims it
	for _, s := range AllExecutionStates() {
		for _, op := range s.ResponsibleOpcodes() {
			got, ok := StateForOpcode(op)
			require.True(t, ok)
			assert.Equal(t, s, got)
		}
	}

	for _, s := range AllExecutionStates() {
		if s.IsInternal() || s.IsError() || s.IsPrecompile() {
			assert.Empty(t, s.ResponsibleOpcodes(), s.String())
		}
	}
}

func TestStackEffect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		state        ExecutionState
		op           OpCode
		pops, pushes int
	}{
		{StateADD_SUB, ADD, 2, 1},
		{StateMEMORY, MLOAD, 1, 1},
		{StateMEMORY, MSTORE, 2, 0},
		{StateLOG, LOG0, 2, 0},
		{StateLOG, LOG4, 6, 0},
		{StateCALL_OP, CALL, 7, 1},
		{StateCALL_OP, DELEGATECALL, 6, 1},
	}

	for _, c := range cases {
		pops, pushes := c.state.StackEffect(c.op)
		assert.Equal(t, c.pops, pops, c.op.String())
		assert.Equal(t, c.pushes, pushes, c.op.String())

		l := c.state.Layout()
		assert.LessOrEqual(t, l.MinPops, pops)
		assert.LessOrEqual(t, pops, l.Pops)
		assert.LessOrEqual(t, l.MinPushes, pushes)
		assert.LessOrEqual(t, pushes, l.Pushes)
	}
}

func TestLayout_Invariants(t *testing.T) {
	t.Parallel()

	for _, s := range AllExecutionStates() {
		l := s.Layout()

		assert.LessOrEqual(t, l.MinPops, l.Pops, s.String())
		assert.LessOrEqual(t, l.MinPushes, l.Pushes, s.String())
		assert.Equal(t, s.Halts(), l.Halts, s.String())

		if l.Copy != nil {
			assert.Less(t, l.Copy.LengthPop, l.Pops, s.String())
		}

		// the account address comes from a pop or a context read
		if l.Account != 0 {
			assert.True(t, l.Pops > 0 || len(l.ContextReads) > 0, s.String())
		}
	}

	assert.True(t, StateSSTORE.Layout().Reversible())
	assert.False(t, StateSLOAD.Layout().Reversible())
}

func TestStep_StateFitsOneRow(t *testing.T) {
	t.Parallel()

	cs := plonk.NewConstraintSystem()
	advices := AllocateColumns(cs)

	assert.Len(t, advices, param.StepWidth())

	s := New(advices, 0)
	assert.Equal(t, param.StepStateHeight, s.Height())
	require.NoError(t, s.CellManager.Err())

	// the clone allocates independently of the original
	clone := s.Clone()
	clone.CellManager.QueryCells(cell.Phase1, 2*param.NPhase1Columns)
	assert.Equal(t, param.StepStateHeight, s.Height())
	assert.Equal(t, 3, clone.Height())
}

func TestDynamicSelectorHalf_OneHot(t *testing.T) {
	t.Parallel()

	cs := plonk.NewConstraintSystem()
	advices := AllocateColumns(cs)
	s := New(advices, 0)

	rapid.Check(t, func(t *rapid.T) {
		target := ExecutionState(rapid.IntRange(0, NumExecutionStates-1).Draw(t, "state"))

		region := cell.NewCachedRegion(nopRegion{}, challenge.DefaultValues(), advices, param.MaxStepHeight, 0)
		require.NoError(t, s.Assign(region, 0, StateValues{ExecutionState: target}))

		for _, c := range s.State.ExecutionState.Constraints() {
			assert.True(t, field.IsZero(c.Poly.Evaluate(region.At(0))), c.Name)
		}

		for _, other := range AllExecutionStates() {
			got := s.ExecutionStateSelector(other).Evaluate(region.At(0))
			assert.Equal(t, field.FromBool(other == target), got, other.String())
		}

		assert.Equal(t, field.One, s.ExecutionStateSelector(target, otherState(target)).Evaluate(region.At(0)))
	})
}

func otherState(s ExecutionState) ExecutionState {
	return ExecutionState((int(s) + 1) % NumExecutionStates)
}
