// Package execution lays the execution trace of a block out on the grid.
// Every execution state has a gadget; the layer allocates variable height
// row blocks for the steps, constrains the transitions between them and
// binds their lookups to the shared tables.
package execution

import (
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/constraint"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
)

var (
	// ErrNotEnoughRows is returned when the trace needs more rows than the
	// grid provides. Assigning again on a larger grid may succeed.
	ErrNotEnoughRows = errors.New("not enough rows for the execution trace")

	ErrDuplicateGadget    = errors.New("execution state configured twice")
	ErrMissingGadget      = errors.New("execution state has no gadget")
	ErrStepHeightExceeded = errors.New("gadget height exceeds the maximum step height")
	ErrEmptyPaddingRange  = errors.New("padding range is empty")
	ErrUnknownGadget      = errors.New("no gadget configured for execution state")
)

// IsFatal reports whether err is a configuration or programming defect
// rather than a trace that does not fit the grid
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrNotEnoughRows)
}

// Gadget constrains and assigns the steps of one execution state
type Gadget interface {
	Name() string
	ExecutionState() step.ExecutionState

	// Configure allocates the cells of the gadget and adds its constraints.
	// It is called twice per gadget instance of a Factory, once to measure
	// the height and once to emit the gates.
	Configure(cb *constraint.Builder)

	// Assign writes the cells of the gadget for step s at offset
	Assign(
		region *cell.CachedRegion,
		offset int,
		block *witness.Block,
		chunk *witness.Chunk,
		tx *witness.Transaction,
		call *witness.Call,
		s *witness.ExecStep,
	) error
}

// Factory creates a fresh gadget instance
type Factory func() Gadget

// Features toggles the optional execution states
type Features struct {
	InvalidTx bool `json:"invalid_tx" yaml:"invalid_tx"`
}

// Enabled reports whether state is part of the circuit
func (f Features) Enabled(state step.ExecutionState) bool {
	if state == step.InvalidTx {
		return f.InvalidTx
	}

	return true
}

// Options configure the execution layer
type Options struct {
	Features Features
	Logger   hclog.Logger

	// CheckRwLookups cross-checks the rw lookups of every assigned step
	// against its recorded events. It also runs when the logger is at debug
	// level.
	CheckRwLookups bool

	// Gadgets replaces DefaultGadgets when set
	Gadgets []Factory
}
