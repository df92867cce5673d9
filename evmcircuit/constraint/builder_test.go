package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

type nopRegion struct{}

func (nopRegion) AssignAdvice(string, plonk.Column, int, field.Element) error { return nil }
func (nopRegion) AssignFixed(string, plonk.Column, int, field.Element) error  { return nil }
func (nopRegion) EnableSelector(string, plonk.Column, int) error              { return nil }
func (nopRegion) NameColumn(string, plonk.Column)                             {}

type fixture struct {
	advices []plonk.Column
	cb      *Builder
	region  *cell.CachedRegion
}

func newFixture(t *testing.T, state step.ExecutionState) *fixture {
	t.Helper()

	cs := plonk.NewConstraintSystem()
	challenges := challenge.Configure(cs)
	advices := step.AllocateColumns(cs)

	curr := step.New(advices, 0)
	next := step.New(advices, param.MaxStepHeight)

	return &fixture{
		advices: advices,
		cb:      NewBuilder(curr, next, challenges, state),
		region:  cell.NewCachedRegion(nopRegion{}, challenge.DefaultValues(), advices, 2*param.MaxStepHeight, 0),
	}
}

func TestRLC_MatchesField(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Uint64(), 0, 12).Draw(t, "values")
		r := rapid.Uint64().Draw(t, "r")

		exprs := make([]plonk.Expression, len(raw))
		values := make([]field.Element, len(raw))

		for i, v := range raw {
			exprs[i] = plonk.Const(v)
			values[i] = field.FromUint64(v)
		}

		got := RLC(exprs, plonk.Const(r)).Evaluate(nil)
		assert.Equal(t, field.RLC(values, field.FromUint64(r)), got)
	})
}

func TestBuilder_ConditionGatesConstraints(t *testing.T) {
	t.Parallel()

	f := newFixture(t, step.StateADD_SUB)
	cb := f.cb

	flag := cb.QueryBool()
	a := cb.QueryCell()

	cb.Condition(flag.Expr(), func() {
		cb.RequireEqual("a is 5", a.Expr(), plonk.Const(5))
	})

	result, err := cb.Build()
	require.NoError(t, err)
	require.Len(t, result.Constraints.Step, 2)

	gated := result.Constraints.Step[1]
	assert.Equal(t, "a is 5", gated.Name)

	// flag off: the constraint holds whatever a is
	require.NoError(t, flag.AssignBool(f.region, 0, false))
	require.NoError(t, a.AssignUint64(f.region, 0, 7))
	assert.True(t, field.IsZero(gated.Poly.Evaluate(f.region.At(0))))

	require.NoError(t, flag.AssignBool(f.region, 0, true))
	assert.False(t, field.IsZero(gated.Poly.Evaluate(f.region.At(0))))

	require.NoError(t, a.AssignUint64(f.region, 0, 5))
	assert.True(t, field.IsZero(gated.Poly.Evaluate(f.region.At(0))))
}

func TestBuilder_StackOffsets(t *testing.T) {
	t.Parallel()

	f := newFixture(t, step.StateADD_SUB)
	cb := f.cb

	a, b, c := cb.QueryWord(), cb.QueryWord(), cb.QueryWord()
	cb.StackPop(a)
	cb.StackPop(b)
	cb.StackPush(c)

	result, err := cb.Build()
	require.NoError(t, err)

	assert.Equal(t, field.FromUint64(3), cb.RwCounterOffset().Evaluate(f.region.At(0)))
	assert.Equal(t, field.FromUint64(1), cb.StackPointerOffset().Evaluate(f.region.At(0)))
	assert.Equal(t, map[table.Table]int{table.Rw: 3}, result.Lookups)
	require.Len(t, result.StoredExpressions, 3)

	for _, stored := range result.StoredExpressions {
		assert.Equal(t, "rw lookup Stack", stored.Name)
		assert.Equal(t, cell.LookupOf(table.Rw), stored.Cell.Type())
	}
}

func TestBuilder_StoredExpressionAssign(t *testing.T) {
	t.Parallel()

	f := newFixture(t, step.StatePOP)
	cb := f.cb

	word := cb.QueryWord()
	cb.StackPop(word)

	result, err := cb.Build()
	require.NoError(t, err)

	state := cb.Curr().State
	require.NoError(t, state.RwCounter.AssignUint64(f.region, 0, 10))
	require.NoError(t, state.CallID.AssignUint64(f.region, 0, 4))
	require.NoError(t, state.StackPointer.AssignUint64(f.region, 0, 1023))
	require.NoError(t, word.Lo.AssignUint64(f.region, 0, 9))

	stored := result.StoredExpressions[0]
	value, err := stored.Assign(f.region, 0)
	require.NoError(t, err)

	values := []field.Element{
		field.FromUint64(10), field.Zero, field.FromUint64(uint64(table.RwStack)),
		field.FromUint64(4), field.FromUint64(1023), field.Zero,
		field.Zero, field.Zero,
		field.FromUint64(9), field.Zero,
		field.Zero, field.Zero,
	}

	assert.Equal(t, field.RLC(values, challenge.DefaultValues().LookupInput), value)
	assert.Equal(t, value, f.region.GetAdvice(stored.Cell.Column(), stored.Cell.Rotation()))

	// the stored expression constraint holds once the cell is assigned
	for _, c := range result.Constraints.Step {
		if c.Name == "stored expression "+stored.Name {
			assert.True(t, field.IsZero(c.Poly.Evaluate(f.region.At(0))))
		}
	}
}

func TestBuilder_StorageWriteReversion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, step.StateSSTORE)
	cb := f.cb

	key, value, prev := cb.QueryWord(), cb.QueryWord(), cb.QueryWord()
	persistent := cb.QueryBool()
	end := cb.QueryCell()

	cb.StorageWrite(table.RwAccountStorage, plonk.Zero(), key, value, prev, &ReversionInfo{
		RwCounterEndOfReversion: end.Expr(),
		IsPersistent:            persistent.Expr(),
		ReversibleWriteCounter:  cb.Curr().State.ReversibleWriteCounter.Expr(),
	})

	result, err := cb.Build()
	require.NoError(t, err)
	require.Len(t, result.StoredExpressions, 2)

	undo := result.StoredExpressions[1]
	assert.Equal(t, "rw lookup AccountStorage with reversion", undo.Name)

	// only the write moves the rw counter
	assert.Equal(t, field.One, cb.RwCounterOffset().Evaluate(f.region.At(0)))

	require.NoError(t, persistent.AssignBool(f.region, 0, true))
	v, err := undo.Assign(f.region, 0)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	require.NoError(t, persistent.AssignBool(f.region, 0, false))
	v, err = undo.Assign(f.region, 0)
	require.NoError(t, err)
	assert.False(t, v.IsZero())
}

func TestBuilder_IsZero(t *testing.T) {
	t.Parallel()

	f := newFixture(t, step.StateISZERO)
	cb := f.cb

	value := cb.QueryCell()
	isZero := cb.IsZero(value.Expr())

	result, err := cb.Build()
	require.NoError(t, err)

	cases := []struct {
		value  uint64
		isZero bool
	}{
		{0, true},
		{1, false},
		{12345, false},
	}

	for _, c := range cases {
		require.NoError(t, value.AssignUint64(f.region, 0, c.value))

		zero, err := isZero.Assign(f.region, 0, field.FromUint64(c.value))
		require.NoError(t, err)
		assert.Equal(t, c.isZero, zero)
		assert.Equal(t, field.FromBool(c.isZero), isZero.Expr().Evaluate(f.region.At(0)))

		for _, constraint := range result.Constraints.Step {
			assert.True(t, field.IsZero(constraint.Poly.Evaluate(f.region.At(0))), constraint.Name)
		}
	}
}

func TestBuilder_StepStateTransition(t *testing.T) {
	t.Parallel()

	f := newFixture(t, step.StatePOP)
	cb := f.cb

	cb.StackPop(cb.QueryWord())
	cb.RequireStepStateTransition(cb.SameContext())

	result, err := cb.Build()
	require.NoError(t, err)

	assert.Empty(t, result.Constraints.StepFirst)
	assert.Empty(t, result.Constraints.StepLast)
	// every state cell but the gas is constrained, code hash counts twice
	assert.Len(t, result.Constraints.NotStepLast, 12)

	curr, next := cb.Curr().State, cb.Next().State
	require.NoError(t, curr.StackPointer.AssignUint64(f.region, 0, 1020))
	require.NoError(t, next.StackPointer.AssignUint64(f.region, 0, 1021))
	require.NoError(t, curr.ProgramCounter.AssignUint64(f.region, 0, 7))
	require.NoError(t, next.ProgramCounter.AssignUint64(f.region, 0, 8))

	for _, c := range result.Constraints.NotStepLast {
		switch c.Name {
		case "state transition stack_pointer delta", "state transition program_counter delta":
			assert.True(t, field.IsZero(c.Poly.Evaluate(f.region.At(0))), c.Name)
		}
	}
}

func TestBuilder_OutOfCells(t *testing.T) {
	t.Parallel()

	f := newFixture(t, step.StateADD_SUB)
	cb := f.cb

	for i := 0; i < param.MaxStepHeight*param.NLookupColumns(); i++ {
		cb.FixedLookup(table.FixedResponsibleOpcode, plonk.Zero(), plonk.Zero(), plonk.Zero())
	}

	_, err := cb.Build()
	assert.ErrorIs(t, err, cell.ErrNotEnoughCells)
}
