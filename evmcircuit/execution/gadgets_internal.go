package execution

import (
	"github.com/holiman/uint256"

	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/constraint"
	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// sameState keeps every field of the step state
func sameState() constraint.StepStateTransition {
	same := constraint.Same()

	return constraint.StepStateTransition{
		RwCounter:              same,
		CallID:                 same,
		IsRoot:                 same,
		IsCreate:               same,
		CodeHash:               same,
		ProgramCounter:         same,
		StackPointer:           same,
		GasLeft:                same,
		MemoryWordSize:         same,
		ReversibleWriteCounter: same,
		LogID:                  same,
		InnerRwCounter:         same,
	}
}

// onlyRwCounters moves the rw counters by the lookups of the step
func onlyRwCounters(cb *constraint.Builder) constraint.StepStateTransition {
	delta := constraint.Delta(cb.RwCounterOffset())

	return constraint.StepStateTransition{RwCounter: delta, InnerRwCounter: delta}
}

// BeginTx opens the root call of a transaction
type beginTxGadget struct {
	txID   cell.Word
	caller cell.Word
	callee cell.Word
}

func (*beginTxGadget) Name() string { return "BeginTx" }

func (*beginTxGadget) ExecutionState() step.ExecutionState { return step.BeginTx }

func (g *beginTxGadget) Configure(cb *constraint.Builder) {
	state := cb.Curr().State

	g.txID = cb.QueryWord()
	g.caller = cb.QueryWord()
	g.callee = cb.QueryWord()

	cb.RequireEqual("call id is the rw counter", state.CallID.Expr(), state.RwCounter.Expr())

	cb.CallContextLookup(true, table.CallContextTxID, g.txID)
	cb.CallContextLookup(true, table.CallContextCallerAddress, g.caller)
	cb.CallContextLookup(true, table.CallContextCalleeAddress, g.callee)

	txID := g.txID.Lo.Expr()
	cb.TxContextLookup(txID, table.TxCallerAddress, nil, g.caller.FieldExpr())
	cb.TxContextLookup(txID, table.TxCalleeAddress, nil, g.callee.FieldExpr())
	cb.TxContextLookup(txID, table.TxGas, nil, state.GasLeft.Expr())

	delta := constraint.Delta(cb.RwCounterOffset())

	cb.RequireStepStateTransition(constraint.StepStateTransition{
		RwCounter:              delta,
		CallID:                 constraint.Same(),
		IsRoot:                 constraint.To(plonk.One()),
		IsCreate:               constraint.To(plonk.Zero()),
		CodeHash:               constraint.Same(),
		ProgramCounter:         constraint.To(plonk.Zero()),
		StackPointer:           constraint.To(plonk.Const(param.StackCapacity)),
		GasLeft:                constraint.Same(),
		MemoryWordSize:         constraint.To(plonk.Zero()),
		ReversibleWriteCounter: constraint.To(plonk.Zero()),
		LogID:                  constraint.To(plonk.Zero()),
		InnerRwCounter:         delta,
	})
}

func (g *beginTxGadget) Assign(
	region *cell.CachedRegion,
	offset int,
	_ *witness.Block,
	_ *witness.Chunk,
	tx *witness.Transaction,
	_ *witness.Call,
	_ *witness.ExecStep,
) error {
	caller := witness.AddressWord(tx.Caller)
	callee := witness.AddressWord(tx.Callee)

	for _, w := range []struct {
		word  cell.Word
		value *uint256.Int
	}{
		{g.txID, uint256.NewInt(tx.ID)},
		{g.caller, &caller},
		{g.callee, &callee},
	} {
		if err := w.word.Assign(region, offset, w.value); err != nil {
			return err
		}
	}

	return nil
}

// EndTx writes the receipt status of a transaction
type endTxGadget struct {
	txID   cell.Word
	status *cell.Cell
}

func (*endTxGadget) Name() string { return "EndTx" }

func (*endTxGadget) ExecutionState() step.ExecutionState { return step.EndTx }

func (g *endTxGadget) Configure(cb *constraint.Builder) {
	g.txID = cb.QueryWord()
	g.status = cb.QueryBool()

	cb.CallContextLookup(false, table.CallContextTxID, g.txID)
	cb.TxReceiptLookup(true, g.txID.Lo.Expr(), table.TxReceiptPostStateOrStatus, g.status.Expr())

	cb.RequireStepStateTransition(onlyRwCounters(cb))
}

func (g *endTxGadget) Assign(
	region *cell.CachedRegion,
	offset int,
	_ *witness.Block,
	_ *witness.Chunk,
	tx *witness.Transaction,
	call *witness.Call,
	_ *witness.ExecStep,
) error {
	if err := g.txID.Assign(region, offset, uint256.NewInt(tx.ID)); err != nil {
		return err
	}

	return g.status.AssignBool(region, offset, call.IsSuccess)
}

// InvalidTx records a failed receipt for a transaction that could not run
type invalidTxGadget struct {
	txID *cell.Cell
}

func (*invalidTxGadget) Name() string { return "InvalidTx" }

func (*invalidTxGadget) ExecutionState() step.ExecutionState { return step.InvalidTx }

func (g *invalidTxGadget) Configure(cb *constraint.Builder) {
	g.txID = cb.QueryCell()

	cb.TxContextLookup(g.txID.Expr(), table.TxGas, nil, cb.Curr().State.GasLeft.Expr())
	cb.TxReceiptLookup(true, g.txID.Expr(), table.TxReceiptPostStateOrStatus, plonk.Zero())

	cb.RequireStepStateTransition(onlyRwCounters(cb))
}

func (g *invalidTxGadget) Assign(
	region *cell.CachedRegion,
	offset int,
	_ *witness.Block,
	_ *witness.Chunk,
	tx *witness.Transaction,
	_ *witness.Call,
	_ *witness.ExecStep,
) error {
	return g.txID.AssignUint64(region, offset, tx.ID)
}

// boundaryGadget covers the states that only carry the step state forward:
// padding, the start of a chunk and the states closing a chunk
type boundaryGadget struct {
	state      step.ExecutionState
	transition func(cb *constraint.Builder) *constraint.StepStateTransition
}

func (g *boundaryGadget) Name() string { return g.state.String() }

func (g *boundaryGadget) ExecutionState() step.ExecutionState { return g.state }

func (g *boundaryGadget) Configure(cb *constraint.Builder) {
	if g.transition == nil {
		return
	}

	if t := g.transition(cb); t != nil {
		cb.RequireStepStateTransition(*t)
	}
}

func (*boundaryGadget) Assign(
	*cell.CachedRegion, int, *witness.Block, *witness.Chunk, *witness.Transaction, *witness.Call, *witness.ExecStep,
) error {
	return nil
}

func newPadding() Gadget {
	return &boundaryGadget{
		state: step.Padding,
		transition: func(*constraint.Builder) *constraint.StepStateTransition {
			return &constraint.StepStateTransition{
				RwCounter:      constraint.Same(),
				InnerRwCounter: constraint.Same(),
			}
		},
	}
}

func newBeginChunk() Gadget {
	return &boundaryGadget{
		state: step.BeginChunk,
		transition: func(*constraint.Builder) *constraint.StepStateTransition {
			t := sameState()

			return &t
		},
	}
}

func newEndChunk() Gadget {
	return &boundaryGadget{state: step.EndChunk}
}

func newEndBlock() Gadget {
	return &boundaryGadget{state: step.EndBlock}
}
