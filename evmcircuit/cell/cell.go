// Package cell allocates the witness cells of an execution step over a fixed
// set of advice columns
package cell

import (
	"fmt"

	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// Kind is the storage class of a cell column
type Kind int

const (
	StoragePhase1 Kind = iota
	StoragePhase2
	LookupU8
	LookupU16
	Lookup
)

// Type is the class of a cell column. Lookup columns also name their table.
type Type struct {
	Kind  Kind
	Table table.Table
}

var (
	Phase1 = Type{Kind: StoragePhase1}
	Phase2 = Type{Kind: StoragePhase2}
	U8     = Type{Kind: LookupU8, Table: table.U8}
	U16    = Type{Kind: LookupU16, Table: table.U16}
)

// LookupOf returns the lookup cell type bound to table t
func LookupOf(t table.Table) Type {
	return Type{Kind: Lookup, Table: t}
}

// LookupTable returns the table a column of this type is bound to
func (t Type) LookupTable() (table.Table, bool) {
	switch t.Kind {
	case Lookup, LookupU8, LookupU16:
		return t.Table, true
	default:
		return 0, false
	}
}

func (t Type) String() string {
	switch t.Kind {
	case StoragePhase1:
		return "phase1"
	case StoragePhase2:
		return "phase2"
	case LookupU8:
		return "u8"
	case LookupU16:
		return "u16"
	case Lookup:
		return fmt.Sprintf("lookup(%s)", t.Table)
	default:
		panic(fmt.Sprintf("BUG: cell kind not found: %d", int(t.Kind)))
	}
}

// ColumnGroup is a run of consecutive advice columns of the same type
type ColumnGroup struct {
	Type  Type
	Count int
}

// DefaultLayout is the column layout of an execution step: lookup columns
// first, then second phase, range checked and first phase storage
func DefaultLayout() []ColumnGroup {
	layout := make([]ColumnGroup, 0, len(param.LookupColumns)+4)

	for _, l := range param.LookupColumns {
		layout = append(layout, ColumnGroup{Type: LookupOf(l.Table), Count: l.Count})
	}

	return append(layout,
		ColumnGroup{Type: Phase2, Count: param.NPhase2Columns},
		ColumnGroup{Type: U8, Count: param.NU8LookupColumns},
		ColumnGroup{Type: U16, Count: param.NU16LookupColumns},
		ColumnGroup{Type: Phase1, Count: param.NPhase1Columns},
	)
}

// Phase returns the proving phase of columns of this type
func (t Type) Phase() plonk.Phase {
	switch t.Kind {
	case StoragePhase2, Lookup:
		return plonk.SecondPhase
	default:
		return plonk.FirstPhase
	}
}

// Cell is a single advice cell addressed relative to a step start row
type Cell struct {
	column   plonk.Column
	rotation int
	cellType Type
	expr     plonk.Expression
}

func newCell(column plonk.Column, rotation int, cellType Type) *Cell {
	return &Cell{
		column:   column,
		rotation: rotation,
		cellType: cellType,
		expr:     column.Query(rotation),
	}
}

// Expr is the query of the cell relative to the step start row
func (c *Cell) Expr() plonk.Expression {
	return c.expr
}

func (c *Cell) Column() plonk.Column {
	return c.column
}

func (c *Cell) Rotation() int {
	return c.rotation
}

func (c *Cell) Type() Type {
	return c.cellType
}

// Assign writes value into the cell of the step starting at offset
func (c *Cell) Assign(region *CachedRegion, offset int, value field.Element) error {
	return region.AssignAdvice(c.column, offset+c.rotation, value)
}

// AssignUint64 is a shorthand for assigning small integers
func (c *Cell) AssignUint64(region *CachedRegion, offset int, value uint64) error {
	return c.Assign(region, offset, field.FromUint64(value))
}

// AssignBool assigns 1 or 0
func (c *Cell) AssignBool(region *CachedRegion, offset int, value bool) error {
	return c.Assign(region, offset, field.FromBool(value))
}
