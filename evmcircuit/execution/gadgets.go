package execution

import "github.com/0xPolygon/evm-circuit/evmcircuit/step"

// DefaultGadgets returns one factory per execution state
func DefaultGadgets() []Factory {
	factories := []Factory{
		func() Gadget { return &beginTxGadget{} },
		func() Gadget { return &endTxGadget{} },
		newPadding,
		newEndBlock,
		newBeginChunk,
		newEndChunk,
		func() Gadget { return &invalidTxGadget{} },
	}

	for _, state := range step.AllExecutionStates() {
		if state.IsInternal() {
			continue
		}

		factories = append(factories, newOpcodeGadget(state))
	}

	return factories
}
