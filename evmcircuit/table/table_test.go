package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

func TestTables_Get(t *testing.T) {
	t.Parallel()

	cs := plonk.NewConstraintSystem()
	tables := New(cs)

	seen := make(map[plonk.Column]Table)

	for _, id := range All {
		tbl := tables.Get(id)
		require.NotNil(t, tbl, id.String())

		assert.Len(t, tbl.Annotations(), len(tbl.Columns()))
		assert.Len(t, tbl.TableExprs(), len(tbl.Columns()))

		for _, col := range tbl.Columns() {
			prev, dup := seen[col]
			assert.False(t, dup, "column of %s reused by %s", prev, id)

			seen[col] = id
		}
	}

	assert.Len(t, tables.Rw.Columns(), len(RwColumnNames))
	assert.Panics(t, func() { tables.Get(Table(len(All))) })
	assert.Panics(t, func() { _ = Table(-1).String() })
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cs := plonk.NewConstraintSystem()
	tables := New(cs)
	assignment := plonk.NewAssignment(cs, 8)
	layouter := plonk.NewLayouter(cs, assignment)

	rows := [][]field.Element{
		{field.FromUint64(1), field.FromUint64(2)},
		{field.FromUint64(3), field.FromUint64(4)},
	}

	require.NoError(t, layouter.AssignRegion("chunk ctx", func(region plonk.Region) error {
		return tables.ChunkCtx.Load(region, rows)
	}))

	cols := tables.ChunkCtx.Columns()
	assert.Equal(t, field.FromUint64(3), assignment.Value(cols[0], 1))
	assert.Equal(t, field.FromUint64(4), assignment.Value(cols[1], 1))
	assert.Equal(t, "chunk_ctx_tag", cs.Annotation(cols[0]))

	err := layouter.AssignRegion("bad", func(region plonk.Region) error {
		return tables.ChunkCtx.Load(region, [][]field.Element{{field.One}})
	})
	assert.Error(t, err)

	err = layouter.AssignRegion("too long", func(region plonk.Region) error {
		return tables.U8.Load(region, RangeRows(16))
	})
	assert.ErrorIs(t, err, plonk.ErrRowOutOfRange)
}

func TestRangeRows(t *testing.T) {
	t.Parallel()

	rows := RangeRows(4)
	require.Len(t, rows, 4)

	for i, row := range rows {
		assert.Equal(t, []field.Element{field.FromUint64(uint64(i))}, row)
	}
}
