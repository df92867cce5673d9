package plonk

import (
	"errors"
	"fmt"

	"github.com/0xPolygon/evm-circuit/field"
)

var ErrRowOutOfRange = errors.New("row out of range")

// Assignment is the grid of values for every column of a constraint system
type Assignment struct {
	n         int
	advice    [][]field.Element
	fixed     [][]field.Element
	selectors [][]bool
}

// NewAssignment allocates an all-zero grid of n rows
func NewAssignment(cs *ConstraintSystem, n int) *Assignment {
	a := &Assignment{
		n:         n,
		advice:    make([][]field.Element, cs.NumAdviceColumns()),
		fixed:     make([][]field.Element, cs.NumFixedColumns()),
		selectors: make([][]bool, cs.NumSelectors()),
	}

	for i := range a.advice {
		a.advice[i] = make([]field.Element, n)
	}

	for i := range a.fixed {
		a.fixed[i] = make([]field.Element, n)
	}

	for i := range a.selectors {
		a.selectors[i] = make([]bool, n)
	}

	return a
}

// Rows returns the number of rows of the grid
func (a *Assignment) Rows() int {
	return a.n
}

// Value returns the value of a column at an absolute row
func (a *Assignment) Value(col Column, row int) field.Element {
	if row < 0 || row >= a.n {
		return field.Zero
	}

	switch col.Kind {
	case Advice:
		return a.advice[col.Index][row]
	case Fixed:
		return a.fixed[col.Index][row]
	default:
		return field.FromBool(a.selectors[col.Index][row])
	}
}

// At returns an evaluator of expressions at row. Rotations wrap around the
// grid; challenges without a value evaluate to zero.
func (a *Assignment) At(row int, challenges []field.Element) Evaluator {
	return rowEvaluator{assignment: a, challenges: challenges, row: row}
}

type rowEvaluator struct {
	assignment *Assignment
	challenges []field.Element
	row        int
}

func (e rowEvaluator) QueryValue(col Column, rotation int) field.Element {
	n := e.assignment.n
	row := ((e.row+rotation)%n + n) % n

	return e.assignment.Value(col, row)
}

func (e rowEvaluator) ChallengeValue(c Challenge) field.Element {
	if c.Index >= len(e.challenges) {
		return field.Zero
	}

	return e.challenges[c.Index]
}

// Set overwrites a single cell
func (a *Assignment) Set(col Column, row int, value field.Element) error {
	if row < 0 || row >= a.n {
		return fmt.Errorf("%w: %s at row %d of %d", ErrRowOutOfRange, col, row, a.n)
	}

	switch col.Kind {
	case Advice:
		a.advice[col.Index][row] = value
	case Fixed:
		a.fixed[col.Index][row] = value
	default:
		a.selectors[col.Index][row] = !value.IsZero()
	}

	return nil
}

// Grid is an exported copy of the assignment, used to compare assignments
type Grid struct {
	Advice    [][]field.Element
	Fixed     [][]field.Element
	Selectors [][]bool
}

// Snapshot deep copies the grid
func (a *Assignment) Snapshot() Grid {
	g := Grid{
		Advice:    make([][]field.Element, len(a.advice)),
		Fixed:     make([][]field.Element, len(a.fixed)),
		Selectors: make([][]bool, len(a.selectors)),
	}

	for i, col := range a.advice {
		g.Advice[i] = append([]field.Element(nil), col...)
	}

	for i, col := range a.fixed {
		g.Fixed[i] = append([]field.Element(nil), col...)
	}

	for i, col := range a.selectors {
		g.Selectors[i] = append([]bool(nil), col...)
	}

	return g
}
