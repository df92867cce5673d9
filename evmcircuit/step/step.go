// Package step declares the execution states and the per-step cells shared
// by every execution gadget
package step

import (
	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
	"github.com/0xPolygon/evm-circuit/plonk"
	"github.com/holiman/uint256"
)

// State holds the cells carried from one step to the next
type State struct {
	ExecutionState         *DynamicSelectorHalf
	RwCounter              *cell.Cell
	CallID                 *cell.Cell
	IsRoot                 *cell.Cell
	IsCreate               *cell.Cell
	CodeHash               cell.Word
	ProgramCounter         *cell.Cell
	StackPointer           *cell.Cell
	GasLeft                *cell.Cell
	MemoryWordSize         *cell.Cell
	ReversibleWriteCounter *cell.Cell
	LogID                  *cell.Cell
	InnerRwCounter         *cell.Cell
}

// Step is the cell layout of one execution step. The state cells come first;
// gadgets allocate the rest from the cell manager.
type Step struct {
	State       State
	CellManager *cell.Manager
}

// AllocateColumns allocates the advice columns of the step layout, each in
// the phase of its cell type
func AllocateColumns(cs *plonk.ConstraintSystem) []plonk.Column {
	var advices []plonk.Column

	for _, group := range cell.DefaultLayout() {
		for i := 0; i < group.Count; i++ {
			advices = append(advices, cs.AdviceColumnInPhase(group.Type.Phase()))
		}
	}

	return advices
}

// New lays out a step starting at rotation offset
func New(advices []plonk.Column, offset int) *Step {
	m := cell.NewManager(advices, cell.DefaultLayout(), param.MaxStepHeight, offset)

	return &Step{
		State: State{
			ExecutionState:         NewDynamicSelectorHalf(m, NumExecutionStates),
			RwCounter:              m.QueryCell(cell.Phase1),
			CallID:                 m.QueryCell(cell.Phase1),
			IsRoot:                 m.QueryCell(cell.Phase1),
			IsCreate:               m.QueryCell(cell.Phase1),
			CodeHash:               m.QueryWord(cell.Phase1),
			ProgramCounter:         m.QueryCell(cell.Phase1),
			StackPointer:           m.QueryCell(cell.Phase1),
			GasLeft:                m.QueryCell(cell.Phase1),
			MemoryWordSize:         m.QueryCell(cell.Phase1),
			ReversibleWriteCounter: m.QueryCell(cell.Phase1),
			LogID:                  m.QueryCell(cell.Phase1),
			InnerRwCounter:         m.QueryCell(cell.Phase1),
		},
		CellManager: m,
	}
}

// Clone returns a step sharing the state cells with an independent cell
// manager
func (s *Step) Clone() *Step {
	return &Step{
		State:       s.State,
		CellManager: s.CellManager.Clone(),
	}
}

// ExecutionStateSelector is 1 when the step is in one of states
func (s *Step) ExecutionStateSelector(states ...ExecutionState) plonk.Expression {
	targets := make([]int, len(states))
	for i, state := range states {
		targets[i] = int(state)
	}

	return s.State.ExecutionState.Selector(targets...)
}

// Height is the number of rows used so far
func (s *Step) Height() int {
	return s.CellManager.Height()
}

// StateValues are the values assigned to the state cells
type StateValues struct {
	ExecutionState         ExecutionState
	RwCounter              uint64
	CallID                 uint64
	IsRoot                 bool
	IsCreate               bool
	CodeHash               uint256.Int
	ProgramCounter         uint64
	StackPointer           uint64
	GasLeft                uint64
	MemoryWordSize         uint64
	ReversibleWriteCounter uint64
	LogID                  uint64
	InnerRwCounter         uint64
}

// Assign writes the state of the step starting at offset
func (s *Step) Assign(region *cell.CachedRegion, offset int, v StateValues) error {
	if err := s.State.ExecutionState.Assign(region, offset, int(v.ExecutionState)); err != nil {
		return err
	}

	if err := s.State.CodeHash.Assign(region, offset, &v.CodeHash); err != nil {
		return err
	}

	for _, a := range []struct {
		cell  *cell.Cell
		value uint64
	}{
		{s.State.RwCounter, v.RwCounter},
		{s.State.CallID, v.CallID},
		{s.State.IsRoot, boolToUint64(v.IsRoot)},
		{s.State.IsCreate, boolToUint64(v.IsCreate)},
		{s.State.ProgramCounter, v.ProgramCounter},
		{s.State.StackPointer, v.StackPointer},
		{s.State.GasLeft, v.GasLeft},
		{s.State.MemoryWordSize, v.MemoryWordSize},
		{s.State.ReversibleWriteCounter, v.ReversibleWriteCounter},
		{s.State.LogID, v.LogID},
		{s.State.InnerRwCounter, v.InnerRwCounter},
	} {
		if err := a.cell.AssignUint64(region, offset, a.value); err != nil {
			return err
		}
	}

	return nil
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}

	return 0
}
