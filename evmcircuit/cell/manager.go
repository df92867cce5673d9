package cell

import (
	"errors"
	"fmt"

	"github.com/0xPolygon/evm-circuit/plonk"
)

var ErrNotEnoughCells = errors.New("not enough cells")

// Column is an advice column managed by the cell manager
type Column struct {
	Column plonk.Column
	Type   Type
	Index  int

	height int
}

// Height is the number of rows allocated in the column
func (c Column) Height() int {
	return c.height
}

// Manager hands out cells column by column, always picking the least used
// column of the requested type, so the step grows as little as possible
type Manager struct {
	maxHeight int
	offset    int
	columns   []Column

	err error
}

// NewManager lays out advices according to layout. Cells are addressed
// from rotation offset.
func NewManager(advices []plonk.Column, layout []ColumnGroup, maxHeight, offset int) *Manager {
	m := &Manager{
		maxHeight: maxHeight,
		offset:    offset,
	}

	idx := 0

	for _, group := range layout {
		for i := 0; i < group.Count; i++ {
			if idx >= len(advices) {
				m.err = fmt.Errorf("%w: layout needs more than %d columns", ErrNotEnoughCells, len(advices))

				return m
			}

			m.columns = append(m.columns, Column{Column: advices[idx], Type: group.Type, Index: idx})
			idx++
		}
	}

	return m
}

// QueryCell allocates one cell of type t. When no column has room left the
// error is recorded, see Err, and a cell of the first column is returned.
func (m *Manager) QueryCell(t Type) *Cell {
	best := -1

	for i, col := range m.columns {
		if col.Type != t {
			continue
		}

		if best == -1 || col.height < m.columns[best].height {
			best = i
		}
	}

	if best == -1 || m.columns[best].height >= m.maxHeight {
		if m.err == nil {
			m.err = fmt.Errorf("%w: type %s exhausted at height %d", ErrNotEnoughCells, t, m.maxHeight)
		}

		if len(m.columns) == 0 {
			return newCell(plonk.Column{Kind: plonk.Advice}, m.offset, t)
		}

		best = 0
	}

	col := &m.columns[best]
	c := newCell(col.Column, m.offset+col.height, t)
	col.height++

	return c
}

// QueryCells allocates n cells of type t
func (m *Manager) QueryCells(t Type, n int) []*Cell {
	cells := make([]*Cell, n)
	for i := range cells {
		cells[i] = m.QueryCell(t)
	}

	return cells
}

// Height is the number of rows used by the tallest column
func (m *Manager) Height() int {
	height := 0

	for _, col := range m.columns {
		if col.height > height {
			height = col.height
		}
	}

	return height
}

// Columns returns the managed columns with their current heights
func (m *Manager) Columns() []Column {
	return m.columns
}

// Usage returns the number of allocated cells per type
func (m *Manager) Usage() map[Type]int {
	usage := make(map[Type]int)
	for _, col := range m.columns {
		usage[col.Type] += col.height
	}

	return usage
}

// Err returns the first allocation failure
func (m *Manager) Err() error {
	return m.err
}

// Clone copies the manager so allocation can continue independently
func (m *Manager) Clone() *Manager {
	c := &Manager{
		maxHeight: m.maxHeight,
		offset:    m.offset,
		columns:   make([]Column, len(m.columns)),
		err:       m.err,
	}
	copy(c.columns, m.columns)

	return c
}
