// Package constraint is the builder execution gadgets configure their
// constraints with
package constraint

import (
	"fmt"

	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// Group selects the rows a constraint is enforced on
type Group int

const (
	// GroupStep applies on every block start of the gadget
	GroupStep Group = iota

	// GroupStepFirst applies on the first block of the grid
	GroupStepFirst

	// GroupStepLast applies on the last block of the grid
	GroupStepLast

	// GroupNotStepLast applies on every block start but the last block
	GroupNotStepLast
)

func (g Group) String() string {
	switch g {
	case GroupStep:
		return "step"
	case GroupStepFirst:
		return "step_first"
	case GroupStepLast:
		return "step_last"
	case GroupNotStepLast:
		return "not_step_last"
	default:
		panic(fmt.Sprintf("BUG: constraint group not found: %d", int(g)))
	}
}

// Constraints are the polynomials of a gadget, one list per group
type Constraints struct {
	Step        []plonk.Constraint
	StepFirst   []plonk.Constraint
	StepLast    []plonk.Constraint
	NotStepLast []plonk.Constraint
}

// Len is the number of constraints over every group
func (c *Constraints) Len() int {
	return len(c.Step) + len(c.StepFirst) + len(c.StepLast) + len(c.NotStepLast)
}

// StoredExpression is an expression materialized into a cell of the step.
// The cell is constrained to the expression and assigned by evaluating it.
type StoredExpression struct {
	Name string
	Cell *cell.Cell
	Expr plonk.Expression
}

// Assign evaluates the expression over the cached step and writes the cell
func (s *StoredExpression) Assign(region *cell.CachedRegion, offset int) (field.Element, error) {
	value := s.Expr.Evaluate(region.At(offset))

	if err := s.Cell.Assign(region, offset, value); err != nil {
		return field.Zero, fmt.Errorf("stored expression %q: %w", s.Name, err)
	}

	return value, nil
}

// DebugExpression is evaluated and logged on assignment
type DebugExpression struct {
	Name string
	Expr plonk.Expression
}

// Builder collects the constraints, cells and lookups of one gadget. It
// sees the current step and the first rows of the next one.
type Builder struct {
	curr       *step.Step
	next       *step.Step
	challenges challenge.Challenges
	state      step.ExecutionState

	constraints Constraints
	conditions  []plonk.Expression

	rwCounterOffset    plonk.Expression
	stackPointerOffset plonk.Expression

	storedExpressions []*StoredExpression
	debugExpressions  []DebugExpression
	lookups           map[table.Table]int

	err error
}

// NewBuilder creates a builder for the gadget of state
func NewBuilder(curr, next *step.Step, challenges challenge.Challenges, state step.ExecutionState) *Builder {
	return &Builder{
		curr:               curr,
		next:               next,
		challenges:         challenges,
		state:              state,
		rwCounterOffset:    plonk.Zero(),
		stackPointerOffset: plonk.Zero(),
		lookups:            make(map[table.Table]int),
	}
}

// ExecutionState is the state the gadget is configured for
func (cb *Builder) ExecutionState() step.ExecutionState {
	return cb.state
}

// Curr returns the current step
func (cb *Builder) Curr() *step.Step {
	return cb.curr
}

// Next returns the next step. Only its state cells may be queried.
func (cb *Builder) Next() *step.Step {
	return cb.next
}

// Challenges returns the challenge identifiers
func (cb *Builder) Challenges() challenge.Challenges {
	return cb.challenges
}

// QueryCell allocates a first phase cell in the current step
func (cb *Builder) QueryCell() *cell.Cell {
	return cb.QueryCellWithType(cell.Phase1)
}

// QueryCellPhase2 allocates a cell whose value may depend on challenges
func (cb *Builder) QueryCellPhase2() *cell.Cell {
	return cb.QueryCellWithType(cell.Phase2)
}

// QueryCellWithType allocates a cell of type t in the current step
func (cb *Builder) QueryCellWithType(t cell.Type) *cell.Cell {
	c := cb.curr.CellManager.QueryCell(t)
	cb.setErr(cb.curr.CellManager.Err())

	return c
}

// QueryCells allocates n first phase cells
func (cb *Builder) QueryCells(n int) []*cell.Cell {
	cells := make([]*cell.Cell, n)
	for i := range cells {
		cells[i] = cb.QueryCell()
	}

	return cells
}

// QueryWord allocates the lo and hi cells of a word
func (cb *Builder) QueryWord() cell.Word {
	return cell.Word{Lo: cb.QueryCell(), Hi: cb.QueryCell()}
}

// QueryBool allocates a cell constrained to be 0 or 1
func (cb *Builder) QueryBool() *cell.Cell {
	c := cb.QueryCell()
	cb.RequireBoolean("cell is boolean", c.Expr())

	return c
}

// QueryByte allocates a cell range checked to 8 bits
func (cb *Builder) QueryByte() *cell.Cell {
	return cb.QueryCellWithType(cell.U8)
}

// Height is the number of rows used by the current step so far
func (cb *Builder) Height() int {
	return cb.curr.Height()
}

// Err returns the first configuration failure, such as running out of cells
func (cb *Builder) Err() error {
	return cb.err
}

func (cb *Builder) setErr(err error) {
	if cb.err == nil && err != nil {
		cb.err = err
	}
}

// RwCounterOffset is the number of rw lookups performed so far
func (cb *Builder) RwCounterOffset() plonk.Expression {
	return cb.rwCounterOffset
}

// StackPointerOffset is the stack pointer delta of the step so far
func (cb *Builder) StackPointerOffset() plonk.Expression {
	return cb.stackPointerOffset
}

// Condition enables every constraint and lookup added by fn only when
// condition is 1. Conditions nest.
func (cb *Builder) Condition(condition plonk.Expression, fn func()) {
	cb.conditions = append(cb.conditions, condition)
	defer func() {
		cb.conditions = cb.conditions[:len(cb.conditions)-1]
	}()

	fn()
}

// conditionExpr is the product of the active conditions, 1 when there are none
func (cb *Builder) conditionExpr() plonk.Expression {
	return plonk.Product(cb.conditions...)
}

// Require adds a constraint to the step group
func (cb *Builder) Require(name string, poly plonk.Expression) {
	cb.add(GroupStep, name, poly)
}

// RequireEqual constrains a to equal b
func (cb *Builder) RequireEqual(name string, a, b plonk.Expression) {
	cb.Require(name, plonk.Sub(a, b))
}

// RequireZero constrains a to be zero
func (cb *Builder) RequireZero(name string, a plonk.Expression) {
	cb.Require(name, a)
}

// RequireBoolean constrains a to be 0 or 1
func (cb *Builder) RequireBoolean(name string, a plonk.Expression) {
	cb.Require(name, plonk.Mul(a, plonk.Not(a)))
}

// RequireIn constrains a to be one of values
func (cb *Builder) RequireIn(name string, a plonk.Expression, values ...uint64) {
	poly := plonk.One()
	for _, v := range values {
		poly = plonk.Mul(poly, plonk.Sub(a, plonk.Const(v)))
	}

	cb.Require(name, poly)
}

// RequireInGroup adds a constraint to group g
func (cb *Builder) RequireInGroup(g Group, name string, poly plonk.Expression) {
	cb.add(g, name, poly)
}

// RequireNext adds a constraint that only holds when a next step exists
func (cb *Builder) RequireNext(name string, a, b plonk.Expression) {
	cb.add(GroupNotStepLast, name, plonk.Sub(a, b))
}

func (cb *Builder) add(g Group, name string, poly plonk.Expression) {
	if plonk.IsConstantZero(poly) {
		return
	}

	c := plonk.Constraint{
		Name: name,
		Poly: plonk.Mul(cb.conditionExpr(), poly),
	}

	switch g {
	case GroupStep:
		cb.constraints.Step = append(cb.constraints.Step, c)
	case GroupStepFirst:
		cb.constraints.StepFirst = append(cb.constraints.StepFirst, c)
	case GroupStepLast:
		cb.constraints.StepLast = append(cb.constraints.StepLast, c)
	case GroupNotStepLast:
		cb.constraints.NotStepLast = append(cb.constraints.NotStepLast, c)
	}
}

// StoreExpression materializes expr into a new cell of type t
func (cb *Builder) StoreExpression(name string, expr plonk.Expression, t cell.Type) *cell.Cell {
	c := cb.QueryCellWithType(t)

	cb.storedExpressions = append(cb.storedExpressions, &StoredExpression{
		Name: name,
		Cell: c,
		Expr: expr,
	})

	// stored expressions hold on every block of the gadget, whatever the
	// active conditions
	cb.constraints.Step = append(cb.constraints.Step, plonk.Constraint{
		Name: "stored expression " + name,
		Poly: plonk.Sub(c.Expr(), expr),
	})

	return c
}

// Debug registers an expression to be logged when the gadget is assigned
func (cb *Builder) Debug(name string, expr plonk.Expression) {
	cb.debugExpressions = append(cb.debugExpressions, DebugExpression{Name: name, Expr: expr})
}

// Result is what a configured gadget leaves behind
type Result struct {
	Constraints       Constraints
	StoredExpressions []*StoredExpression
	DebugExpressions  []DebugExpression
	RwCounterOffset   plonk.Expression
	Height            int
	Cells             map[cell.Type]int
	Lookups           map[table.Table]int
}

// Build returns the configured constraints. Stored expressions are returned
// in creation order, which is the order they have to be assigned in.
func (cb *Builder) Build() (*Result, error) {
	if cb.err != nil {
		return nil, fmt.Errorf("configure %s: %w", cb.state, cb.err)
	}

	if len(cb.conditions) != 0 {
		panic("BUG: constraint builder built inside a condition")
	}

	return &Result{
		Constraints:       cb.constraints,
		StoredExpressions: cb.storedExpressions,
		DebugExpressions:  cb.debugExpressions,
		RwCounterOffset:   cb.rwCounterOffset,
		Height:            cb.curr.Height(),
		Cells:             cb.curr.CellManager.Usage(),
		Lookups:           cb.lookups,
	}, nil
}
