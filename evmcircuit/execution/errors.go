package execution

import (
	"fmt"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
)

func duplicateError(state step.ExecutionState, first, second string) error {
	return fmt.Errorf("%w: %s by %s and %s", ErrDuplicateGadget, state, first, second)
}

func unknownError(state step.ExecutionState) error {
	if state < 0 || int(state) >= step.NumExecutionStates {
		return fmt.Errorf("%w: %d", ErrUnknownGadget, int(state))
	}

	return fmt.Errorf("%w: %s", ErrUnknownGadget, state)
}

func heightError(state step.ExecutionState, height, limit int) error {
	return fmt.Errorf("%w: %s needs %d rows, limit is %d", ErrStepHeightExceeded, state, height, limit)
}

func missingError(states []step.ExecutionState) error {
	return fmt.Errorf("%w: %v", ErrMissingGadget, states)
}

func rowsError(offset, height, limit int) error {
	return fmt.Errorf("%w: step at row %d of height %d reaches row limit %d", ErrNotEnoughRows, offset, height, limit)
}
