package constraint

import (
	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

type transitionKind int

const (
	transitionAny transitionKind = iota
	transitionSame
	transitionDelta
	transitionTo
)

// Transition constrains how a step state cell changes into the next step.
// The zero value leaves the cell unconstrained.
type Transition struct {
	kind transitionKind
	expr plonk.Expression
}

// Same keeps the value
func Same() Transition {
	return Transition{kind: transitionSame}
}

// Delta adds d to the value
func Delta(d plonk.Expression) Transition {
	return Transition{kind: transitionDelta, expr: d}
}

// To sets the next value to v
func To(v plonk.Expression) Transition {
	return Transition{kind: transitionTo, expr: v}
}

// Any leaves the next value free
func Any() Transition {
	return Transition{}
}

// StepStateTransition describes the next step state
type StepStateTransition struct {
	RwCounter              Transition
	CallID                 Transition
	IsRoot                 Transition
	IsCreate               Transition
	CodeHash               Transition
	ProgramCounter         Transition
	StackPointer           Transition
	GasLeft                Transition
	MemoryWordSize         Transition
	ReversibleWriteCounter Transition
	LogID                  Transition
	InnerRwCounter         Transition
}

// SameContext keeps the call of the step and moves the counters by the
// lookups of the step
func (cb *Builder) SameContext() StepStateTransition {
	return StepStateTransition{
		RwCounter:              Delta(cb.rwCounterOffset),
		CallID:                 Same(),
		IsRoot:                 Same(),
		IsCreate:               Same(),
		CodeHash:               Same(),
		ProgramCounter:         Delta(plonk.One()),
		StackPointer:           Delta(cb.stackPointerOffset),
		MemoryWordSize:         Same(),
		ReversibleWriteCounter: Same(),
		LogID:                  Same(),
		InnerRwCounter:         Delta(cb.rwCounterOffset),
	}
}

func (cb *Builder) requireTransition(name string, t Transition, curr, next plonk.Expression) {
	switch t.kind {
	case transitionSame:
		cb.RequireNext(name+" same", next, curr)
	case transitionDelta:
		cb.RequireNext(name+" delta", next, plonk.Add(curr, t.expr))
	case transitionTo:
		cb.RequireNext(name+" to", next, t.expr)
	}
}

// RequireStepStateTransition constrains the state of the next step
func (cb *Builder) RequireStepStateTransition(t StepStateTransition) {
	curr, next := cb.curr.State, cb.next.State

	for _, c := range []struct {
		name       string
		transition Transition
		curr, next *cell.Cell
	}{
		{"state transition rw_counter", t.RwCounter, curr.RwCounter, next.RwCounter},
		{"state transition call_id", t.CallID, curr.CallID, next.CallID},
		{"state transition is_root", t.IsRoot, curr.IsRoot, next.IsRoot},
		{"state transition is_create", t.IsCreate, curr.IsCreate, next.IsCreate},
		{"state transition code_hash lo", t.CodeHash, curr.CodeHash.Lo, next.CodeHash.Lo},
		{"state transition code_hash hi", t.CodeHash, curr.CodeHash.Hi, next.CodeHash.Hi},
		{"state transition program_counter", t.ProgramCounter, curr.ProgramCounter, next.ProgramCounter},
		{"state transition stack_pointer", t.StackPointer, curr.StackPointer, next.StackPointer},
		{"state transition gas_left", t.GasLeft, curr.GasLeft, next.GasLeft},
		{"state transition memory_word_size", t.MemoryWordSize, curr.MemoryWordSize, next.MemoryWordSize},
		{"state transition reversible_write_counter", t.ReversibleWriteCounter,
			curr.ReversibleWriteCounter, next.ReversibleWriteCounter},
		{"state transition log_id", t.LogID, curr.LogID, next.LogID},
		{"state transition inner_rw_counter", t.InnerRwCounter, curr.InnerRwCounter, next.InnerRwCounter},
	} {
		cb.requireTransition(c.name, c.transition, c.curr.Expr(), c.next.Expr())
	}
}

// IsZero exposes whether an expression is zero, using an inverse witness
type IsZero struct {
	value   plonk.Expression
	inverse *cell.Cell
	isZero  plonk.Expression
}

// IsZero allocates the inverse cell of value
func (cb *Builder) IsZero(value plonk.Expression) *IsZero {
	inverse := cb.QueryCell()
	isZero := plonk.Not(plonk.Mul(value, inverse.Expr()))

	cb.Require("is zero: value is zero or has an inverse", plonk.Mul(value, isZero))

	return &IsZero{value: value, inverse: inverse, isZero: isZero}
}

// Expr is 1 when the value is zero and 0 otherwise
func (z *IsZero) Expr() plonk.Expression {
	return z.isZero
}

// Assign writes the inverse of value and reports whether value is zero
func (z *IsZero) Assign(region *cell.CachedRegion, offset int, value field.Element) (bool, error) {
	if err := z.inverse.Assign(region, offset, field.InvertOrZero(value)); err != nil {
		return false, err
	}

	return value.IsZero(), nil
}
