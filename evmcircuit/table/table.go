// Package table declares the lookup tables the execution steps look into
package table

import (
	"fmt"

	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// Table identifies a lookup table
type Table int

const (
	Fixed Table = iota
	U8
	U16
	Tx
	Rw
	Bytecode
	Block
	Copy
	Keccak
	Exp
	Sig
	ChunkCtx
)

// All lists every table in declaration order
var All = []Table{Fixed, U8, U16, Tx, Rw, Bytecode, Block, Copy, Keccak, Exp, Sig, ChunkCtx}

func (t Table) String() string {
	switch t {
	case Fixed:
		return "fixed"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case Tx:
		return "tx"
	case Rw:
		return "rw"
	case Bytecode:
		return "bytecode"
	case Block:
		return "block"
	case Copy:
		return "copy"
	case Keccak:
		return "keccak"
	case Exp:
		return "exp"
	case Sig:
		return "sig"
	case ChunkCtx:
		return "chunk_ctx"
	default:
		panic(fmt.Sprintf("BUG: table not found: %d", int(t)))
	}
}

// LookupTable is a set of columns whose rows form the lookup table
type LookupTable interface {
	// Columns returns the table columns in lookup order
	Columns() []plonk.Column

	// Annotations returns one name per column
	Annotations() []string

	// TableExprs returns the current row query of every column
	TableExprs() []plonk.Expression
}

type columns struct {
	id    Table
	cols  []plonk.Column
	names []string
}

func (c *columns) Columns() []plonk.Column {
	return c.cols
}

func (c *columns) Annotations() []string {
	return c.names
}

func (c *columns) TableExprs() []plonk.Expression {
	exprs := make([]plonk.Expression, len(c.cols))
	for i, col := range c.cols {
		exprs[i] = col.Cur()
	}

	return exprs
}

// Load writes rows starting at offset 0. Every row must have one value per
// column.
func (c *columns) Load(region plonk.Region, rows [][]field.Element) error {
	for i, col := range c.cols {
		region.NameColumn(fmt.Sprintf("%s_%s", c.id, c.names[i]), col)
	}

	for offset, row := range rows {
		if len(row) != len(c.cols) {
			return fmt.Errorf("%s table row %d has %d values, expected %d", c.id, offset, len(row), len(c.cols))
		}

		for i, col := range c.cols {
			var err error

			if col.Kind == plonk.Fixed {
				err = region.AssignFixed(c.names[i], col, offset, row[i])
			} else {
				err = region.AssignAdvice(c.names[i], col, offset, row[i])
			}

			if err != nil {
				return fmt.Errorf("%s table: %w", c.id, err)
			}
		}
	}

	return nil
}

// AdviceTable is a table whose rows come from the witness
type AdviceTable struct {
	columns
}

// FixedTable is a table whose rows are known at setup
type FixedTable struct {
	columns
}

func newAdviceTable(cs *plonk.ConstraintSystem, id Table, names ...string) *AdviceTable {
	t := &AdviceTable{columns{id: id, names: names}}
	for range names {
		t.cols = append(t.cols, cs.AdviceColumn())
	}

	return t
}

func newFixedTable(cs *plonk.ConstraintSystem, id Table, names ...string) *FixedTable {
	t := &FixedTable{columns{id: id, names: names}}
	for range names {
		t.cols = append(t.cols, cs.FixedColumn())
	}

	return t
}

// Tables holds one instance of every lookup table
type Tables struct {
	Fixed    *FixedTable
	U8       *FixedTable
	U16      *FixedTable
	Tx       *AdviceTable
	Rw       *AdviceTable
	Bytecode *AdviceTable
	Block    *AdviceTable
	Copy     *AdviceTable
	Keccak   *AdviceTable
	Exp      *AdviceTable
	Sig      *AdviceTable
	ChunkCtx *AdviceTable
}

// New allocates the columns of every table
func New(cs *plonk.ConstraintSystem) *Tables {
	return &Tables{
		Fixed:    newFixedTable(cs, Fixed, "tag", "value1", "value2", "value3"),
		U8:       newFixedTable(cs, U8, "value"),
		U16:      newFixedTable(cs, U16, "value"),
		Tx:       newAdviceTable(cs, Tx, "tx_id", "tag", "index", "value"),
		Rw:       newAdviceTable(cs, Rw, RwColumnNames...),
		Bytecode: newAdviceTable(cs, Bytecode, "code_hash_lo", "code_hash_hi", "tag", "index", "is_code", "value"),
		Block:    newAdviceTable(cs, Block, "tag", "index", "value_lo", "value_hi"),
		Copy: newAdviceTable(cs, Copy,
			"src_id", "src_type", "dst_id", "dst_type", "src_addr", "dst_addr", "length", "rw_counter", "rwc_inc"),
		Keccak: newAdviceTable(cs, Keccak, "input_rlc", "input_len", "output_lo", "output_hi"),
		Exp:    newAdviceTable(cs, Exp, "base_lo", "base_hi", "exponent_lo", "exponent_hi", "result_lo", "result_hi"),
		Sig: newAdviceTable(cs, Sig,
			"msg_hash_lo", "msg_hash_hi", "sig_v", "sig_r_lo", "sig_r_hi", "sig_s_lo", "sig_s_hi", "recovered_addr", "is_valid"),
		ChunkCtx: newAdviceTable(cs, ChunkCtx, "tag", "value"),
	}
}

// RwColumnNames are the rw table columns in lookup order
var RwColumnNames = []string{
	"rw_counter", "is_write", "tag", "id", "address", "field_tag",
	"storage_key_lo", "storage_key_hi", "value_lo", "value_hi", "value_prev_lo", "value_prev_hi",
}

// Get returns the table identified by id
func (t *Tables) Get(id Table) LookupTable {
	switch id {
	case Fixed:
		return t.Fixed
	case U8:
		return t.U8
	case U16:
		return t.U16
	case Tx:
		return t.Tx
	case Rw:
		return t.Rw
	case Bytecode:
		return t.Bytecode
	case Block:
		return t.Block
	case Copy:
		return t.Copy
	case Keccak:
		return t.Keccak
	case Exp:
		return t.Exp
	case Sig:
		return t.Sig
	case ChunkCtx:
		return t.ChunkCtx
	default:
		panic(fmt.Sprintf("BUG: table not found: %d", int(id)))
	}
}

// RangeRows returns the rows 0..size-1 of a range table
func RangeRows(size int) [][]field.Element {
	rows := make([][]field.Element, size)
	for i := range rows {
		rows[i] = []field.Element{field.FromUint64(uint64(i))}
	}

	return rows
}
