package plonk

import (
	"fmt"

	"github.com/0xPolygon/evm-circuit/field"
)

// Region is the assignment interface handed to region closures. Offsets are
// absolute rows: regions share rows and are kept apart by their columns.
type Region interface {
	AssignAdvice(annotation string, col Column, offset int, value field.Element) error
	AssignFixed(annotation string, col Column, offset int, value field.Element) error
	EnableSelector(annotation string, col Column, offset int) error
	NameColumn(name string, col Column)
}

// Layouter drives region closures over an assignment
type Layouter struct {
	cs         *ConstraintSystem
	assignment *Assignment
}

func NewLayouter(cs *ConstraintSystem, assignment *Assignment) *Layouter {
	return &Layouter{
		cs:         cs,
		assignment: assignment,
	}
}

// Rows is the number of rows of the grid
func (l *Layouter) Rows() int {
	return l.assignment.Rows()
}

// AssignRegion runs assign twice: a shape pass whose writes are discarded,
// then the pass that fills the grid. Closures must produce the same layout
// in both passes.
func (l *Layouter) AssignRegion(name string, assign func(region Region) error) error {
	if err := assign(shapeRegion{}); err != nil {
		return fmt.Errorf("region %s: %w", name, err)
	}

	if err := assign(&gridRegion{cs: l.cs, assignment: l.assignment}); err != nil {
		return fmt.Errorf("region %s: %w", name, err)
	}

	return nil
}

type shapeRegion struct{}

func (shapeRegion) AssignAdvice(string, Column, int, field.Element) error { return nil }
func (shapeRegion) AssignFixed(string, Column, int, field.Element) error  { return nil }
func (shapeRegion) EnableSelector(string, Column, int) error              { return nil }
func (shapeRegion) NameColumn(string, Column)                             {}

type gridRegion struct {
	cs         *ConstraintSystem
	assignment *Assignment
}

func (r *gridRegion) AssignAdvice(_ string, col Column, offset int, value field.Element) error {
	return r.assignment.Set(col, offset, value)
}

func (r *gridRegion) AssignFixed(_ string, col Column, offset int, value field.Element) error {
	return r.assignment.Set(col, offset, value)
}

func (r *gridRegion) EnableSelector(_ string, col Column, offset int) error {
	return r.assignment.Set(col, offset, field.One)
}

func (r *gridRegion) NameColumn(name string, col Column) {
	r.cs.AnnotateColumn(col, name)
}
