package execution

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/constraint"
	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

var blockFieldTags = map[step.OpCode]table.BlockContextFieldTag{
	step.COINBASE:   table.BlockCoinbase,
	step.TIMESTAMP:  table.BlockTimestamp,
	step.NUMBER:     table.BlockNumber,
	step.DIFFICULTY: table.BlockDifficulty,
	step.GASLIMIT:   table.BlockGasLimit,
	step.BASEFEE:    table.BlockBaseFee,
	step.CHAINID:    table.BlockChainID,
}

// opcodeGadget checks the footprint of an opcode, error or precompile
// state: it looks up every rw event in the order the interpreter records
// them, binds the side tables the state touches and moves the step state.
// The arithmetic of the opcode itself is not checked.
type opcodeGadget struct {
	state  step.ExecutionState
	layout step.Layout

	opcode  *cell.Cell
	gasCost *cell.Cell

	pops       []cell.Word
	popPresent []*cell.Cell
	peek       cell.Word
	ctx        []cell.Word
	account    cell.Word

	storageValue cell.Word
	storagePrev  cell.Word
	memory       cell.Word

	hasCopy    *cell.Cell
	copySrc    *cell.Cell
	copyDst    *cell.Cell
	copyLength *cell.Cell
	copyRws    *cell.Cell

	keccakRLC *cell.Cell
	blockTag  *cell.Cell
	byteValue *cell.Cell

	hasSig       *cell.Cell
	sigHash      cell.Word
	sigV         *cell.Cell
	sigR, sigS   cell.Word
	sigRecovered *cell.Cell
	sigIsValid   *cell.Cell

	pushes      []cell.Word
	pushPresent []*cell.Cell

	stackRange *cell.Cell
}

func newOpcodeGadget(state step.ExecutionState) Factory {
	return func() Gadget {
		return &opcodeGadget{state: state, layout: state.Layout()}
	}
}

func (g *opcodeGadget) Name() string {
	return g.state.String()
}

func (g *opcodeGadget) ExecutionState() step.ExecutionState {
	return g.state
}

func (g *opcodeGadget) hasOpcode() bool {
	return !g.state.IsPrecompile()
}

func (g *opcodeGadget) Configure(cb *constraint.Builder) {
	l := g.layout
	state := cb.Curr().State

	if g.hasOpcode() {
		g.opcode = cb.QueryCell()
		if len(g.state.ResponsibleOpcodes()) > 0 {
			cb.FixedLookup(table.FixedResponsibleOpcode, plonk.Const(uint64(g.state)), g.opcode.Expr(), nil)
		}

		cb.OpcodeLookup(g.opcode.Expr())
	}

	g.gasCost = cb.QueryCell()

	g.configurePops(cb)

	g.ctx = make([]cell.Word, len(l.ContextReads))
	for i, tag := range l.ContextReads {
		g.ctx[i] = cb.QueryWord()
		cb.CallContextLookup(false, tag, g.ctx[i])
	}

	if l.Account != 0 {
		g.account = cb.QueryWord()

		var address plonk.Expression
		if l.Pops > 0 {
			address = g.pops[0].FieldExpr()
		} else {
			address = g.ctxExpr(0)
		}

		cb.AccountRead(address, l.Account, g.account)
	}

	g.configureStorage(cb)

	if l.Memory {
		g.memory = cb.QueryWord()
		cb.MemoryLookup(g.popPresent[1].Expr(), g.pops[0].FieldExpr(), g.memory)
	}

	g.configureCopy(cb)

	g.pushes = make([]cell.Word, l.Pushes)
	g.pushPresent = make([]*cell.Cell, l.Pushes)

	for j := range g.pushes {
		switch {
		case l.Peek:
			g.pushes[j] = g.peek
		case l.Swap:
			g.pushes[j] = g.pops[j]
		default:
			g.pushes[j] = cb.QueryWord()
		}

		if j >= l.MinPushes {
			g.pushPresent[j] = cb.QueryBool()
		}
	}

	g.configureSideTables(cb)
	g.configurePushes(cb)

	g.stackRange = cb.QueryCellWithType(cell.U16)
	cb.RequireEqual("stack pointer is in range", g.stackRange.Expr(),
		plonk.Sub(plonk.Const(param.StackCapacity), plonk.Add(state.StackPointer.Expr(), cb.StackPointerOffset())))

	g.configureTransition(cb)
}

func (g *opcodeGadget) ctxExpr(i int) plonk.Expression {
	return g.ctx[i].FieldExpr()
}

// swapDepth is opcode - SWAP1 + 1
func (g *opcodeGadget) swapDepth() plonk.Expression {
	return plonk.Add(plonk.Sub(g.opcode.Expr(), plonk.Const(uint64(step.SWAP1))), plonk.One())
}

func (g *opcodeGadget) configurePops(cb *constraint.Builder) {
	l := g.layout

	g.pops = make([]cell.Word, l.Pops)
	g.popPresent = make([]*cell.Cell, l.Pops)

	for i := range g.pops {
		g.pops[i] = cb.QueryWord()
	}

	if l.Swap {
		cb.StackLookup(false, plonk.Zero(), g.pops[0])
		cb.StackLookup(false, g.swapDepth(), g.pops[1])

		return
	}

	for i := range g.pops {
		if i < l.MinPops {
			cb.StackPop(g.pops[i])

			continue
		}

		present := cb.QueryBool()
		g.popPresent[i] = present

		if i > l.MinPops {
			cb.Require("optional pops are contiguous",
				plonk.Mul(present.Expr(), plonk.Not(g.popPresent[i-1].Expr())))
		}

		cb.Condition(present.Expr(), func() {
			cb.StackPop(g.pops[i])
		})
	}

	if l.Peek {
		g.peek = cb.QueryWord()
		cb.StackLookup(false, plonk.Sub(g.opcode.Expr(), plonk.Const(uint64(step.DUP1))), g.peek)
	}
}

func (g *opcodeGadget) configureStorage(cb *constraint.Builder) {
	l := g.layout
	if l.Storage == step.NoStorage {
		return
	}

	tag := table.RwAccountStorage
	if l.Transient {
		tag = table.RwTransientStorage
	}

	address := g.ctxExpr(0)

	if l.Storage == step.StorageRead {
		g.storageValue = cb.QueryWord()
		cb.StorageRead(tag, address, g.pops[0], g.storageValue)

		return
	}

	g.storagePrev = cb.QueryWord()
	cb.StorageWrite(tag, address, g.pops[0], g.pops[1], g.storagePrev, &constraint.ReversionInfo{
		RwCounterEndOfReversion: g.ctx[2].Lo.Expr(),
		IsPersistent:            g.ctx[1].Lo.Expr(),
		ReversibleWriteCounter:  cb.Curr().State.ReversibleWriteCounter.Expr(),
	})
}

func (g *opcodeGadget) copyID(id step.CopyID, cb *constraint.Builder) plonk.Expression {
	state := cb.Curr().State

	switch id {
	case step.CopyIDCallID:
		return state.CallID.Expr()
	case step.CopyIDTxID, step.CopyIDLastCallee:
		return g.ctx[0].Lo.Expr()
	case step.CopyIDCodeHash:
		return state.CodeHash.FieldExpr()
	case step.CopyIDAccount:
		return g.account.FieldExpr()
	}

	return nil
}

func (g *opcodeGadget) configureCopy(cb *constraint.Builder) {
	cl := g.layout.Copy
	if cl == nil {
		return
	}

	g.hasCopy = cb.QueryBool()
	g.copySrc = cb.QueryCell()
	g.copyDst = cb.QueryCell()
	g.copyLength = cb.QueryCell()
	g.copyRws = cb.QueryCell()

	cb.Condition(g.hasCopy.Expr(), func() {
		cb.CopyLookup(constraint.CopyEvent{
			SrcID:   g.copyID(cl.SrcID, cb),
			DstID:   g.copyID(cl.DstID, cb),
			SrcType: cl.SrcType,
			DstType: cl.DstType,
			SrcAddr: g.copySrc.Expr(),
			DstAddr: g.copyDst.Expr(),
			Length:  g.copyLength.Expr(),
			RwcInc:  g.copyRws.Expr(),
		})
	})
}

func (g *opcodeGadget) configureSideTables(cb *constraint.Builder) {
	l := g.layout
	state := cb.Curr().State

	if l.Exp {
		cb.ExpLookup(g.pops[0], g.pops[1], g.pushes[0])
	}

	if l.Keccak {
		g.keccakRLC = cb.QueryCellPhase2()
		cb.KeccakLookup(g.keccakRLC.Expr(), g.pops[1].Lo.Expr(), g.pushes[0])
	}

	if l.BlockField {
		switch g.state {
		case step.StateBLOCKHASH:
			cb.BlockLookup(table.BlockHash.Expr(), g.pops[0].Lo.Expr(), g.pushes[0])
		case step.StateCHAINID:
			cb.BlockLookup(table.BlockChainID.Expr(), nil, g.pushes[0])
		default:
			g.blockTag = cb.QueryCell()
			cb.BlockLookup(g.blockTag.Expr(), nil, g.pushes[0])
		}
	}

	if l.TxField != 0 {
		cb.TxContextLookup(g.ctx[0].Lo.Expr(), l.TxField, nil, g.pushes[0].FieldExpr())
	}

	if l.CodeSize {
		cb.BytecodeLookup(state.CodeHash, table.BytecodeHeader, nil, nil, g.pushes[0].Lo.Expr())
	}

	if l.ByteResult {
		g.byteValue = cb.QueryByte()
		cb.RequireEqual("byte result low half", g.pushes[0].Lo.Expr(), g.byteValue.Expr())
		cb.RequireZero("byte result high half", g.pushes[0].Hi.Expr())
	}

	if g.state == step.PrecompileEcrecover {
		g.hasSig = cb.QueryBool()
		g.sigHash = cb.QueryWord()
		g.sigV = cb.QueryCell()
		g.sigR = cb.QueryWord()
		g.sigS = cb.QueryWord()
		g.sigRecovered = cb.QueryCell()
		g.sigIsValid = cb.QueryBool()

		cb.Condition(g.hasSig.Expr(), func() {
			cb.SigLookup(g.sigHash, g.sigV.Expr(), g.sigR, g.sigS, g.sigRecovered.Expr(), g.sigIsValid.Expr())
		})
	}
}

func (g *opcodeGadget) configurePushes(cb *constraint.Builder) {
	if g.layout.Swap {
		cb.StackLookup(true, g.swapDepth(), g.pushes[0])
		cb.StackLookup(true, plonk.Zero(), g.pushes[1])

		return
	}

	for j, word := range g.pushes {
		if present := g.pushPresent[j]; present != nil {
			cb.Condition(present.Expr(), func() {
				cb.StackPush(word)
			})

			continue
		}

		cb.StackPush(word)
	}
}

func (g *opcodeGadget) configureTransition(cb *constraint.Builder) {
	l := g.layout
	state := cb.Curr().State

	if l.Halts || l.SwitchesContext {
		delta := cb.RwCounterOffset()

		if l.Halts {
			isSuccess := g.ctx[len(g.ctx)-1].Lo.Expr()
			delta = plonk.Add(delta, plonk.Mul(plonk.Not(isSuccess), state.ReversibleWriteCounter.Expr()))
		}

		cb.RequireStepStateTransition(constraint.StepStateTransition{
			RwCounter:      constraint.Delta(delta),
			InnerRwCounter: constraint.Delta(delta),
		})

		return
	}

	t := cb.SameContext()
	t.GasLeft = constraint.Delta(plonk.Sub(plonk.Zero(), g.gasCost.Expr()))

	if l.FreePC {
		t.ProgramCounter = constraint.Any()
		if g.state == step.StatePUSH {
			t.ProgramCounter = constraint.Delta(plonk.Add(plonk.One(),
				plonk.Sub(g.opcode.Expr(), plonk.Const(uint64(step.PUSH0)))))
		}
	}

	if l.MemoryExpansion {
		t.MemoryWordSize = constraint.Any()
	}

	if l.Reversible() {
		t.ReversibleWriteCounter = constraint.Delta(plonk.One())
	}

	if l.LogIncrement {
		t.LogID = constraint.Delta(plonk.One())
	}

	cb.RequireStepStateTransition(t)
}

// rwCursor hands out the rw events of a step in lookup order
type rwCursor struct {
	block *witness.Block
	step  *witness.ExecStep
	next  int
}

func (c *rwCursor) take() (*witness.Rw, error) {
	if c.next >= len(c.step.RwIndices) {
		return nil, fmt.Errorf("%s: rw event #%d missing, step has %d", c.step, c.next, len(c.step.RwIndices))
	}

	rw := c.block.GetRws(c.step, c.next)
	c.next++

	return rw, nil
}

func (c *rwCursor) skip(n uint64) {
	c.next += int(n)
}

func (g *opcodeGadget) Assign(
	region *cell.CachedRegion,
	offset int,
	block *witness.Block,
	_ *witness.Chunk,
	_ *witness.Transaction,
	_ *witness.Call,
	s *witness.ExecStep,
) error {
	l := g.layout
	rws := &rwCursor{block: block, step: s}
	pops, pushes := g.state.StackEffect(s.Opcode)

	if g.hasOpcode() {
		if err := g.opcode.AssignUint64(region, offset, uint64(s.Opcode)); err != nil {
			return err
		}
	}

	if err := g.gasCost.AssignUint64(region, offset, s.GasCost); err != nil {
		return err
	}

	popValues := make([]uint256.Int, len(g.pops))

	for i := range g.pops {
		if present := g.popPresent[i]; present != nil {
			if err := present.AssignBool(region, offset, i < pops); err != nil {
				return err
			}
		}

		if i >= pops {
			continue
		}

		rw, err := rws.take()
		if err != nil {
			return err
		}

		popValues[i] = rw.Value
	}

	for i, word := range g.pops {
		if err := word.Assign(region, offset, &popValues[i]); err != nil {
			return err
		}
	}

	if l.Peek {
		rw, err := rws.take()
		if err != nil {
			return err
		}

		if err := g.peek.Assign(region, offset, &rw.Value); err != nil {
			return err
		}
	}

	for _, word := range g.ctx {
		if err := assignFromRw(region, offset, rws, word, false); err != nil {
			return err
		}
	}

	if l.Account != 0 {
		if err := assignFromRw(region, offset, rws, g.account, false); err != nil {
			return err
		}
	}

	switch l.Storage {
	case step.StorageRead:
		if err := assignFromRw(region, offset, rws, g.storageValue, false); err != nil {
			return err
		}
	case step.StorageWrite:
		if err := assignFromRw(region, offset, rws, g.storagePrev, true); err != nil {
			return err
		}
	}

	if l.Memory {
		if err := assignFromRw(region, offset, rws, g.memory, false); err != nil {
			return err
		}
	}

	if err := g.assignCopy(region, offset, rws, s); err != nil {
		return err
	}

	if err := g.assignSideTables(region, offset, block, s, popValues); err != nil {
		return err
	}

	if err := g.assignPushes(region, offset, rws, pushes); err != nil {
		return err
	}

	sp := s.StackPointer + uint64(pops) - uint64(pushes)

	return g.stackRange.AssignUint64(region, offset, param.StackCapacity-sp)
}

func assignFromRw(region *cell.CachedRegion, offset int, rws *rwCursor, word cell.Word, prev bool) error {
	rw, err := rws.take()
	if err != nil {
		return err
	}

	if prev {
		return word.Assign(region, offset, &rw.ValuePrev)
	}

	return word.Assign(region, offset, &rw.Value)
}

func (g *opcodeGadget) assignCopy(region *cell.CachedRegion, offset int, rws *rwCursor, s *witness.ExecStep) error {
	if g.layout.Copy == nil {
		return nil
	}

	ev := s.CopyEvent
	if ev == nil {
		ev = &witness.CopyEvent{}
	}

	for _, a := range []struct {
		cell  *cell.Cell
		value uint64
	}{
		{g.copySrc, ev.SrcAddr},
		{g.copyDst, ev.DstAddr},
		{g.copyLength, ev.Length},
		{g.copyRws, ev.RwcInc},
	} {
		if err := a.cell.AssignUint64(region, offset, a.value); err != nil {
			return err
		}
	}

	rws.skip(s.CopyRwCounterDelta)

	return g.hasCopy.AssignBool(region, offset, s.CopyEvent != nil)
}

func (g *opcodeGadget) assignSideTables(
	region *cell.CachedRegion,
	offset int,
	block *witness.Block,
	s *witness.ExecStep,
	pops []uint256.Int,
) error {
	if g.keccakRLC != nil {
		var input []byte
		if s.CopyEvent != nil {
			input = s.CopyEvent.Bytes
		}

		rlc := field.RLCBytes(input, region.Challenges().KeccakInput)
		if err := g.keccakRLC.Assign(region, offset, rlc); err != nil {
			return err
		}
	}

	if g.blockTag != nil {
		if err := g.blockTag.AssignUint64(region, offset, uint64(blockFieldTags[s.Opcode])); err != nil {
			return err
		}
	}

	if g.byteValue != nil {
		if err := g.byteValue.AssignUint64(region, offset, byteResult(block, s, len(pops))); err != nil {
			return err
		}
	}

	if g.hasSig != nil {
		return g.assignSig(region, offset, s.SigEvent)
	}

	return nil
}

// byteResult reads the pushed byte of a BYTE step
func byteResult(block *witness.Block, s *witness.ExecStep, pops int) uint64 {
	if len(s.RwIndices) <= pops {
		return 0
	}

	return block.GetRws(s, pops).Value.Uint64()
}

func (g *opcodeGadget) assignSig(region *cell.CachedRegion, offset int, ev *witness.SigEvent) error {
	if err := g.hasSig.AssignBool(region, offset, ev != nil); err != nil {
		return err
	}

	if ev == nil {
		ev = &witness.SigEvent{}
	}

	for _, w := range []struct {
		word  cell.Word
		value *uint256.Int
	}{
		{g.sigHash, &ev.MsgHash},
		{g.sigR, &ev.R},
		{g.sigS, &ev.S},
	} {
		if err := w.word.Assign(region, offset, w.value); err != nil {
			return err
		}
	}

	if err := g.sigV.AssignUint64(region, offset, ev.V); err != nil {
		return err
	}

	if err := g.sigRecovered.Assign(region, offset, field.FromBytes(ev.Recovered.Bytes())); err != nil {
		return err
	}

	return g.sigIsValid.AssignBool(region, offset, ev.IsValid)
}

func (g *opcodeGadget) assignPushes(region *cell.CachedRegion, offset int, rws *rwCursor, pushes int) error {
	if g.layout.Swap {
		rws.skip(2)

		return nil
	}

	for j, word := range g.pushes {
		if present := g.pushPresent[j]; present != nil {
			if err := present.AssignBool(region, offset, j < pushes); err != nil {
				return err
			}
		}

		if j >= pushes {
			if err := word.Assign(region, offset, new(uint256.Int)); err != nil {
				return err
			}

			continue
		}

		if err := assignFromRw(region, offset, rws, word, false); err != nil {
			return err
		}
	}

	return nil
}
