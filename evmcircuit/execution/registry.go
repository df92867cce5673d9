package execution

import (
	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/constraint"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// GadgetStats is the footprint of a configured gadget
type GadgetStats struct {
	State       step.ExecutionState `json:"state"`
	Name        string              `json:"name"`
	Height      int                 `json:"height"`
	Constraints int                 `json:"constraints"`
	Cells       map[cell.Type]int   `json:"-"`
	Lookups     map[table.Table]int `json:"lookups"`
}

// registration is what configuration leaves behind for one state
type registration struct {
	gadget Gadget
	result *constraint.Result
	stats  GadgetStats
}

// Registry indexes the configured gadgets by execution state. It is filled
// during configuration and read-only afterwards.
type Registry struct {
	entries [step.NumExecutionStates]*registration
}

func (r *Registry) register(g Gadget, result *constraint.Result) error {
	state := g.ExecutionState()
	if r.entries[state] != nil {
		return duplicateError(state, r.entries[state].gadget.Name(), g.Name())
	}

	r.entries[state] = &registration{
		gadget: g,
		result: result,
		stats: GadgetStats{
			State:       state,
			Name:        g.Name(),
			Height:      result.Height,
			Constraints: result.Constraints.Len(),
			Cells:       result.Cells,
			Lookups:     result.Lookups,
		},
	}

	return nil
}

func (r *Registry) entry(state step.ExecutionState) (*registration, error) {
	if state < 0 || int(state) >= len(r.entries) || r.entries[state] == nil {
		return nil, unknownError(state)
	}

	return r.entries[state], nil
}

// Has reports whether state has a gadget
func (r *Registry) Has(state step.ExecutionState) bool {
	_, err := r.entry(state)

	return err == nil
}

// Gadget returns the gadget of state
func (r *Registry) Gadget(state step.ExecutionState) (Gadget, error) {
	e, err := r.entry(state)
	if err != nil {
		return nil, err
	}

	return e.gadget, nil
}

// Height returns the number of rows a step of state occupies, 0 if the
// state has no gadget
func (r *Registry) Height(state step.ExecutionState) int {
	e, err := r.entry(state)
	if err != nil {
		return 0
	}

	return e.result.Height
}

// HeightMap returns the height of every configured state
func (r *Registry) HeightMap() map[step.ExecutionState]int {
	heights := make(map[step.ExecutionState]int)

	for _, e := range r.entries {
		if e != nil {
			heights[e.stats.State] = e.result.Height
		}
	}

	return heights
}

// StoredExpressions returns the stored expressions of state in assignment
// order
func (r *Registry) StoredExpressions(state step.ExecutionState) []*constraint.StoredExpression {
	e, err := r.entry(state)
	if err != nil {
		return nil
	}

	return e.result.StoredExpressions
}

// DebugExpressions returns the expressions logged when a step of state is
// assigned
func (r *Registry) DebugExpressions(state step.ExecutionState) []constraint.DebugExpression {
	e, err := r.entry(state)
	if err != nil {
		return nil
	}

	return e.result.DebugExpressions
}

// RwCounterOffset is the rw counter increment of a step of state
func (r *Registry) RwCounterOffset(state step.ExecutionState) plonk.Expression {
	e, err := r.entry(state)
	if err != nil {
		return plonk.Zero()
	}

	return e.result.RwCounterOffset
}

// Stats returns the footprint of every configured gadget in execution
// state order
func (r *Registry) Stats() []GadgetStats {
	var stats []GadgetStats

	for _, e := range r.entries {
		if e != nil {
			stats = append(stats, e.stats)
		}
	}

	return stats
}

// States returns the configured states in order
func (r *Registry) States() []step.ExecutionState {
	var states []step.ExecutionState

	for _, e := range r.entries {
		if e != nil {
			states = append(states, e.stats.State)
		}
	}

	return states
}
