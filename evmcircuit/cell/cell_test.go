package cell

import (
	"testing"

	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func advices(cs *plonk.ConstraintSystem, n int) []plonk.Column {
	cols := make([]plonk.Column, n)
	for i := range cols {
		cols[i] = cs.AdviceColumn()
	}

	return cols
}

func TestManager_QueryCell(t *testing.T) {
	t.Parallel()

	cs := plonk.NewConstraintSystem()
	layout := []ColumnGroup{
		{Type: LookupOf(table.Rw), Count: 1},
		{Type: Phase1, Count: 2},
	}
	m := NewManager(advices(cs, 3), layout, 3, 4)

	first := m.QueryCell(Phase1)
	second := m.QueryCell(Phase1)
	third := m.QueryCell(Phase1)

	// columns are filled breadth first
	assert.Equal(t, 1, first.Column().Index)
	assert.Equal(t, 2, second.Column().Index)
	assert.Equal(t, 1, third.Column().Index)
	assert.Equal(t, 4, first.Rotation())
	assert.Equal(t, 5, third.Rotation())
	assert.Equal(t, 2, m.Height())

	rw := m.QueryCell(LookupOf(table.Rw))
	assert.Equal(t, 0, rw.Column().Index)
	assert.Equal(t, map[Type]int{Phase1: 3, LookupOf(table.Rw): 1}, m.Usage())
	assert.NoError(t, m.Err())
}

func TestManager_Exhausted(t *testing.T) {
	t.Parallel()

	cs := plonk.NewConstraintSystem()
	m := NewManager(advices(cs, 1), []ColumnGroup{{Type: Phase1, Count: 1}}, 2, 0)

	m.QueryCells(Phase1, 2)
	require.NoError(t, m.Err())

	m.QueryCell(Phase1)
	assert.ErrorIs(t, m.Err(), ErrNotEnoughCells)

	m = NewManager(advices(cs, 1), []ColumnGroup{{Type: Phase1, Count: 1}}, 2, 0)
	m.QueryCell(U8)
	assert.ErrorIs(t, m.Err(), ErrNotEnoughCells)
}

func TestManager_Clone(t *testing.T) {
	t.Parallel()

	cs := plonk.NewConstraintSystem()
	m := NewManager(advices(cs, 1), []ColumnGroup{{Type: Phase1, Count: 1}}, 4, 0)
	m.QueryCell(Phase1)

	c := m.Clone()
	c.QueryCells(Phase1, 2)

	assert.Equal(t, 1, m.Height())
	assert.Equal(t, 3, c.Height())
}

func TestDefaultLayout_Width(t *testing.T) {
	t.Parallel()

	total := 0
	for _, group := range DefaultLayout() {
		total += group.Count
	}

	assert.Greater(t, total, 0)
	assert.Equal(t, Phase1, DefaultLayout()[len(DefaultLayout())-1].Type)
}

type recordingRegion struct {
	writes map[[2]int]field.Element
}

func (r *recordingRegion) AssignAdvice(_ string, col plonk.Column, offset int, value field.Element) error {
	r.writes[[2]int{col.Index, offset}] = value

	return nil
}

func (r *recordingRegion) AssignFixed(string, plonk.Column, int, field.Element) error { return nil }
func (r *recordingRegion) EnableSelector(string, plonk.Column, int) error             { return nil }
func (r *recordingRegion) NameColumn(string, plonk.Column)                            {}

func TestCachedRegion(t *testing.T) {
	t.Parallel()

	cs := plonk.NewConstraintSystem()
	cols := advices(cs, 2)
	inner := &recordingRegion{writes: make(map[[2]int]field.Element)}
	region := NewCachedRegion(inner, challenge.DefaultValues(), cols, 2, 10)

	require.NoError(t, region.AssignAdvice(cols[0], 10, field.FromUint64(3)))
	require.NoError(t, region.AssignAdvice(cols[1], 11, field.FromUint64(4)))
	require.NoError(t, region.AssignAdvice(cols[1], 12, field.FromUint64(5)))

	assert.Equal(t, field.FromUint64(3), region.GetAdvice(cols[0], 10))
	assert.Equal(t, field.FromUint64(4), region.At(10).QueryValue(cols[1], 1))
	// outside the window the write reaches the region only
	assert.True(t, field.IsZero(region.GetAdvice(cols[1], 12)))
	assert.Equal(t, field.FromUint64(5), inner.writes[[2]int{cols[1].Index, 12}])

	require.NoError(t, region.ReplicateAssignmentForRange("repeat", 11, 13))
	assert.Equal(t, field.FromUint64(3), inner.writes[[2]int{cols[0].Index, 12}])
	assert.True(t, field.IsZero(inner.writes[[2]int{cols[1].Index, 12}]))
}
