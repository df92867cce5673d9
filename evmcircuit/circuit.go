// Package evmcircuit wires the lookup tables and the execution layer into a
// circuit that can be assigned from a block and checked with the mock prover
package evmcircuit

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/execution"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// minDegree leaves room for the stack range table: a stack pointer check
// looks up values up to the stack capacity
const minDegree = 11

var errDegreeTooSmall = errors.New("degree too small")

// Params configure a circuit
type Params struct {
	// Degree sets the grid size to 2^Degree rows
	Degree int

	Features       execution.Features
	CheckRwLookups bool
}

// Circuit is a configured constraint system
type Circuit struct {
	logger hclog.Logger
	params Params

	cs         *plonk.ConstraintSystem
	challenges challenge.Challenges
	tables     *table.Tables
	execution  *execution.Config
}

// Witness is one assigned chunk
type Witness struct {
	Chunk      *witness.Chunk
	Assignment *plonk.Assignment
	Challenges challenge.Values
	Result     *execution.AssignResult
}

// New configures the circuit
func New(params Params, logger hclog.Logger) (*Circuit, error) {
	if params.Degree < minDegree {
		return nil, fmt.Errorf("%w: %d, minimum is %d", errDegreeTooSmall, params.Degree, minDegree)
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	c := &Circuit{
		logger: logger.Named("evm_circuit"),
		params: params,
		cs:     plonk.NewConstraintSystem(),
	}

	c.challenges = challenge.Configure(c.cs)
	c.tables = table.New(c.cs)

	exec, err := execution.Configure(c.cs, c.tables, c.challenges, execution.Options{
		Features:       params.Features,
		Logger:         c.logger,
		CheckRwLookups: params.CheckRwLookups,
	})
	if err != nil {
		return nil, err
	}

	c.execution = exec

	c.logger.Debug("configured circuit",
		"rows", c.Rows(),
		"advice", c.cs.NumAdviceColumns(),
		"fixed", c.cs.NumFixedColumns(),
		"gates", len(c.cs.Gates()),
		"lookups", len(c.cs.Lookups()),
		"degree", c.cs.Degree(),
	)

	return c, nil
}

// Rows is the number of rows of the grid
func (c *Circuit) Rows() int {
	return 1 << c.params.Degree
}

func (c *Circuit) ConstraintSystem() *plonk.ConstraintSystem {
	return c.cs
}

func (c *Circuit) Execution() *execution.Config {
	return c.execution
}

// Stats returns the footprint of the configured gadgets
func (c *Circuit) Stats() *execution.Instrument {
	return c.execution.Instrument()
}

// Synthesize assigns the tables and the execution region of chunk on a
// fresh grid
func (c *Circuit) Synthesize(block *witness.Block, chunk *witness.Chunk, values challenge.Values) (*Witness, error) {
	assignment := plonk.NewAssignment(c.cs, c.Rows())
	layouter := plonk.NewLayouter(c.cs, assignment)

	if err := c.loadTables(layouter, block, chunk, values); err != nil {
		return nil, err
	}

	result, err := c.execution.AssignBlock(layouter, block, chunk, values)
	if err != nil {
		return nil, err
	}

	return &Witness{
		Chunk:      chunk,
		Assignment: assignment,
		Challenges: values,
		Result:     result,
	}, nil
}

type tableRows struct {
	table interface {
		Load(region plonk.Region, rows [][]field.Element) error
	}
	id   table.Table
	rows [][]field.Element
}

func (c *Circuit) loadTables(
	layouter *plonk.Layouter,
	block *witness.Block,
	chunk *witness.Chunk,
	values challenge.Values,
) error {
	steps := chunk.Steps(block)

	rangeSize := 1 << 16
	if rangeSize > c.Rows() {
		rangeSize = c.Rows()
	}

	loads := []tableRows{
		{c.tables.Fixed, table.Fixed, witness.FixedTableRows()},
		{c.tables.U8, table.U8, table.RangeRows(1 << 8)},
		{c.tables.U16, table.U16, table.RangeRows(rangeSize)},
		{c.tables.Tx, table.Tx, block.TxRows()},
		{c.tables.Rw, table.Rw, witness.RwRows(chunk.Rws(block))},
		{c.tables.Bytecode, table.Bytecode, block.BytecodeRows()},
		{c.tables.Block, table.Block, block.BlockRows()},
		{c.tables.Copy, table.Copy, witness.CopyRows(steps)},
		{c.tables.Keccak, table.Keccak, block.KeccakRows(values)},
		{c.tables.Exp, table.Exp, witness.ExpRows(steps)},
		{c.tables.Sig, table.Sig, witness.SigRows(steps)},
		{c.tables.ChunkCtx, table.ChunkCtx, chunk.Context.TableRows()},
	}

	for _, l := range loads {
		l := l

		if len(l.rows) > c.Rows() {
			return fmt.Errorf("%w: %s table has %d rows, grid has %d",
				execution.ErrNotEnoughRows, l.id, len(l.rows), c.Rows())
		}

		if err := layouter.AssignRegion(l.id.String()+" table", func(region plonk.Region) error {
			return l.table.Load(region, l.rows)
		}); err != nil {
			return err
		}

		c.logger.Trace("loaded table", "table", l.id, "rows", len(l.rows))
	}

	return nil
}

// StateAt returns the execution state of the step starting at row of w
func (c *Circuit) StateAt(w *Witness, row int) (step.ExecutionState, bool) {
	return c.execution.StateAt(w.Assignment, row)
}

// Verify runs the mock prover over an assigned chunk
func (c *Circuit) Verify(w *Witness) error {
	prover, err := plonk.NewMockProver(c.cs, w.Assignment, w.Challenges.Slice())
	if err != nil {
		return err
	}

	if err := prover.Verify(); err != nil {
		c.logger.Error("verification failed", "chunk", w.Chunk.Context.Index, "err", err)

		return err
	}

	return nil
}
