package witness

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/types"
)

const (
	stackLimit  = 1024
	memoryLimit = 1 << 20
)

var (
	errUnsupportedOpcode = errors.New("opcode is not supported by the block builder")
	errUnsupportedCall   = errors.New("only calls into precompiles are supported")
	errCodeOutOfRange    = errors.New("execution ran past the end of the code")
	errMemoryLimit       = errors.New("memory access exceeds the builder limit")
)

// recorder hands out rw counters and files the events of a block
type recorder struct {
	rws RwMap
	rwc uint64
}

func (r *recorder) push(s *ExecStep, rw Rw) RwIndex {
	rw.RwCounter = r.rwc
	r.rwc++

	idx := r.rws.Push(rw)
	s.RwIndices = append(s.RwIndices, idx)

	return idx
}

func (r *recorder) stack(s *ExecStep, callID uint64, isWrite bool, addr uint64, v uint256.Int) {
	rw := Rw{IsWrite: isWrite, Tag: table.RwStack, ID: callID, Value: v}
	rw.Address.SetUint64(addr)

	r.push(s, rw)
}

// reversion is the undo event of a reversible write, recorded only if the
// call fails
type reversion struct {
	step      *ExecStep
	counter   uint64
	transient bool
	rw        Rw
}

// contextPatch is a call context read whose value is only known once the
// call ends
type contextPatch struct {
	idx RwIndex
	tag table.CallContextFieldTag
}

type storageSlots map[types.Address]map[uint256.Int]uint256.Int

func (s storageSlots) get(addr types.Address, key uint256.Int) uint256.Int {
	return s[addr][key]
}

func (s storageSlots) set(addr types.Address, key, v uint256.Int) {
	if s[addr] == nil {
		s[addr] = make(map[uint256.Int]uint256.Int)
	}

	s[addr][key] = v
}

// precompileCall is a message call into a precompiled contract
type precompileCall struct {
	address types.Address
	input   []byte
}

// frame carries the operands and the side effects of one opcode
type frame struct {
	op     step.OpCode
	state  step.ExecutionState
	layout step.Layout

	pops    int
	args    []uint256.Int
	results []uint256.Int

	account    uint256.Int
	storageVal uint256.Int
	memWord    uint256.Int

	copy *CopyEvent
	data []byte
	exp  *ExpEvent

	jump    bool
	dest    uint64
	success bool
	callee  *precompileCall
}

// state is the interpreter of a single root call
type state struct {
	logger hclog.Logger

	rec   *recorder
	block *Block
	tx    *Transaction
	call  *Call

	storage   storageSlots
	transient storageSlots
	accounts  map[types.Address]*Account

	code   []byte
	isCode []bool

	ip    uint64
	gas   uint64
	stack []uint256.Int

	memory []byte

	logID      uint64
	revCounter uint64
	lastCallee uint64

	reversions []reversion
	patches    []contextPatch

	stop    bool
	success bool
}

func (c *state) stackPointer() uint64 {
	return uint64(stackLimit - len(c.stack))
}

func (c *state) newStep(op step.OpCode) *ExecStep {
	s := &ExecStep{
		CallIndex:              0,
		RwCounter:              c.rec.rwc,
		ProgramCounter:         c.ip,
		StackPointer:           c.stackPointer(),
		GasLeft:                c.gas,
		MemoryWordSize:         uint64(len(c.memory)) / 32,
		ReversibleWriteCounter: c.revCounter,
		LogID:                  c.logID,
		Opcode:                 op,
	}
	c.tx.Steps = append(c.tx.Steps, s)

	return s
}

// peek returns the n topmost words, the top first
func (c *state) peek(n int) []uint256.Int {
	args := make([]uint256.Int, n)
	for i := range args {
		args[i] = c.stack[len(c.stack)-1-i]
	}

	return args
}

func (c *state) validJumpdest(dest *uint256.Int) bool {
	if !dest.IsUint64() {
		return false
	}

	d := dest.Uint64()

	return d < uint64(len(c.code)) && c.isCode[d] && step.OpCode(c.code[d]) == step.JUMPDEST
}

// Run executes the code until the call halts
func (c *state) Run() error {
	for !c.stop {
		if err := c.step(); err != nil {
			return err
		}
	}

	return nil
}

func (c *state) step() error {
	if c.ip >= uint64(len(c.code)) {
		return errCodeOutOfRange
	}

	op := step.OpCode(c.code[c.ip])
	s := c.newStep(op)

	defer func() {
		c.logger.Trace("step", "tx", c.tx.ID, "step", s.String())
	}()

	st, ok := step.StateForOpcode(op)
	if !ok {
		return c.fail(s, step.ErrorInvalidOpcode)
	}

	if dispatchTable[op] == nil {
		return fmt.Errorf("%w: %s", errUnsupportedOpcode, op)
	}

	layout := st.Layout()
	pops, pushes := st.StackEffect(op)

	depth := pops
	switch {
	case layout.Peek:
		depth = int(op-step.DUP1) + 1
	case layout.Swap:
		depth = int(op-step.SWAP1) + 2
	}

	if len(c.stack) < depth || len(c.stack)-pops+pushes > stackLimit {
		return c.fail(s, step.ErrorStack)
	}

	cost := constantGas(op)
	if c.gas < cost {
		return c.fail(s, step.ErrorOutOfGasConstant)
	}

	f := &frame{op: op, state: st, layout: layout, pops: pops, args: c.peek(pops)}
	if layout.Swap {
		f.args[1] = c.stack[len(c.stack)-depth]
	}

	if errState, failed := c.precheck(f); failed {
		return c.fail(s, errState)
	}

	s.ExecutionState = st
	s.GasCost = cost
	c.gas -= cost

	if err := dispatchTable[op](c, f); err != nil {
		return fmt.Errorf("%s at pc %d: %w", op, c.ip, err)
	}

	c.record(s, f)
	c.apply(f)

	if f.layout.Halts {
		c.halt(f.success)
	}

	if f.callee != nil {
		c.runPrecompile(f.callee)
	}

	return nil
}

// precheck detects the exceptional halts that depend on operand values
func (c *state) precheck(f *frame) (step.ExecutionState, bool) {
	switch f.op {
	case step.JUMP:
		if !c.validJumpdest(&f.args[0]) {
			return step.ErrorInvalidJump, true
		}
	case step.JUMPI:
		if !f.args[1].IsZero() && !c.validJumpdest(&f.args[0]) {
			return step.ErrorInvalidJump, true
		}
	case step.RETURNDATACOPY:
		// return data is always empty
		if !f.args[1].IsZero() || !f.args[2].IsZero() {
			return step.ErrorReturnDataOutOfBound, true
		}
	}

	return 0, false
}

// fail records an exceptional halt. The failing step reads the operands the
// opcode would have consumed and consumes all the gas left.
func (c *state) fail(s *ExecStep, errState step.ExecutionState) error {
	l := errState.Layout()

	s.ExecutionState = errState
	s.GasCost = c.gas

	f := &frame{state: errState, layout: l, pops: l.Pops, args: c.peek(l.Pops)}
	c.record(s, f)
	c.gas = 0
	c.halt(false)

	return nil
}

func (c *state) contextValue(tag table.CallContextFieldTag, f *frame) uint256.Int {
	var v uint256.Int

	switch tag {
	case table.CallContextTxID:
		v.SetUint64(c.tx.ID)
	case table.CallContextCallerAddress:
		v = AddressWord(c.call.CallerAddress)
	case table.CallContextCalleeAddress:
		v = AddressWord(c.call.Address)
	case table.CallContextCallDataLength:
		v.SetUint64(uint64(len(c.tx.CallData)))
	case table.CallContextValue:
		v = c.tx.Value
	case table.CallContextIsSuccess:
		if f.success {
			v.SetOne()
		}
	case table.CallContextLastCalleeID:
		v.SetUint64(c.lastCallee)
	case table.CallContextDepth:
		v.SetUint64(c.call.Depth)
	case table.CallContextIsRoot:
		if c.call.IsRoot {
			v.SetOne()
		}
	}

	return v
}

// record files the events of a step in the order its gadget looks them up
func (c *state) record(s *ExecStep, f *frame) {
	l := f.layout
	sp := c.stackPointer()
	callID := c.call.ID

	for i := 0; i < f.pops; i++ {
		addr := sp + uint64(i)
		if l.Swap && i == 1 {
			addr = sp + uint64(f.op-step.SWAP1) + 1
		}

		c.rec.stack(s, callID, false, addr, f.args[i])
	}

	if l.Peek {
		n := uint64(f.op - step.DUP1)
		c.rec.stack(s, callID, false, sp+n, c.stack[len(c.stack)-1-int(n)])
	}

	ctx := make([]uint256.Int, len(l.ContextReads))

	for i, tag := range l.ContextReads {
		ctx[i] = c.contextValue(tag, f)

		idx := c.rec.push(s, Rw{Tag: table.RwCallContext, ID: callID, FieldTag: uint64(tag), Value: ctx[i]})

		switch tag {
		case table.CallContextIsPersistent, table.CallContextRwCounterEndOfReversion:
			c.patches = append(c.patches, contextPatch{idx: idx, tag: tag})
		}
	}

	if l.Account != 0 {
		var addr uint256.Int
		if f.pops > 0 {
			addr = f.args[0]
		} else {
			addr = ctx[0]
		}

		c.rec.push(s, Rw{
			Tag:       table.RwAccount,
			Address:   addr,
			FieldTag:  uint64(l.Account),
			Value:     f.account,
			ValuePrev: f.account,
		})
	}

	if l.Storage != step.NoStorage {
		tag := table.RwAccountStorage
		if l.Transient {
			tag = table.RwTransientStorage
		}

		rw := Rw{Tag: tag, Address: ctx[0], StorageKey: f.args[0]}

		if l.Storage == step.StorageRead {
			rw.Value, rw.ValuePrev = f.storageVal, f.storageVal
		} else {
			rw.IsWrite = true
			rw.Value, rw.ValuePrev = f.args[1], f.storageVal

			undo := rw
			undo.Value, undo.ValuePrev = rw.ValuePrev, rw.Value

			c.reversions = append(c.reversions, reversion{
				step:      s,
				counter:   s.ReversibleWriteCounter,
				transient: l.Transient,
				rw:        undo,
			})
			s.ReversibleWriteCounterDelta = 1
		}

		c.rec.push(s, rw)
	}

	if l.Memory {
		c.rec.push(s, Rw{
			IsWrite: f.op != step.MLOAD,
			Tag:     table.RwMemory,
			ID:      callID,
			Address: f.args[0],
			Value:   f.memWord,
		})
	}

	if f.copy != nil {
		c.recordCopy(s, f)
	}

	s.ExpEvent = f.exp

	for j, v := range f.results {
		addr := sp + uint64(f.pops) - 1 - uint64(j)
		if l.Swap && j == 0 {
			addr = sp + uint64(f.op-step.SWAP1) + 1
		}

		c.rec.stack(s, callID, true, addr, v)
	}
}

// recordCopy files one memory event per copied byte
func (c *state) recordCopy(s *ExecStep, f *frame) {
	ev := f.copy
	ev.RwCounter = c.rec.rwc
	start := len(s.RwIndices)

	for i, b := range f.data {
		var value uint256.Int
		value.SetUint64(uint64(b))

		rw := Rw{Tag: table.RwMemory, ID: c.call.ID, Value: value}

		switch {
		case ev.SrcType == table.CopyMemory:
			rw.Address.SetUint64(ev.SrcAddr + uint64(i))
		case ev.DstType == table.CopyMemory:
			rw.IsWrite = true
			rw.Address.SetUint64(ev.DstAddr + uint64(i))
		default:
			continue
		}

		c.rec.push(s, rw)
	}

	ev.RwcInc = uint64(len(s.RwIndices) - start)
	ev.Bytes = f.data
	s.CopyRwCounterDelta = ev.RwcInc
	s.CopyEvent = ev
}

// apply moves the stack and the program counter past the step
func (c *state) apply(f *frame) {
	l := f.layout

	if l.Swap {
		n := int(f.op-step.SWAP1) + 1
		top := len(c.stack) - 1
		c.stack[top], c.stack[top-n] = c.stack[top-n], c.stack[top]
	} else {
		c.stack = append(c.stack[:len(c.stack)-f.pops], f.results...)
	}

	switch {
	case f.jump:
		c.ip = f.dest
	case !l.Halts:
		c.ip += 1 + uint64(f.op.PushSize())
	}

	if l.LogIncrement {
		c.logID++
	}

	if l.Reversible() {
		c.revCounter++
	}
}

// halt ends the call. A failed call undoes its reversible writes, each undo
// event taking the rw counter reserved for it right after the halting step.
func (c *state) halt(success bool) {
	c.stop = true
	c.success = success

	endOfReversion := c.rec.rwc - 1

	if !success {
		endOfReversion = c.rec.rwc + c.revCounter - 1

		for i := len(c.reversions) - 1; i >= 0; i-- {
			r := c.reversions[i]

			rw := r.rw
			rw.RwCounter = endOfReversion - r.counter

			idx := c.rec.rws.Push(rw)
			r.step.RwIndices = append(r.step.RwIndices, idx)

			slots := c.storage
			if r.transient {
				slots = c.transient
			}

			slots.set(c.call.Address, rw.StorageKey, rw.Value)
		}

		c.rec.rwc += c.revCounter
	}

	c.call.IsSuccess = success
	c.call.IsPersistent = success
	c.call.RwCounterEndOfReversion = endOfReversion

	for _, p := range c.patches {
		rw := c.rec.rws.Get(p.idx)

		switch p.tag {
		case table.CallContextIsPersistent:
			rw.Value.Clear()
			if success {
				rw.Value.SetOne()
			}
		case table.CallContextRwCounterEndOfReversion:
			rw.Value.SetUint64(endOfReversion)
		}
	}
}

// expand grows the memory to cover size bytes at offset and returns the
// offset
func (c *state) expand(offset, size *uint256.Int) (uint64, error) {
	if size.IsZero() {
		if offset.IsUint64() {
			return offset.Uint64(), nil
		}

		return 0, nil
	}

	if !offset.IsUint64() || !size.IsUint64() {
		return 0, errMemoryLimit
	}

	o, n := offset.Uint64(), size.Uint64()
	if o+n > memoryLimit {
		return 0, errMemoryLimit
	}

	if need := (o + n + 31) / 32 * 32; need > uint64(len(c.memory)) {
		c.memory = append(c.memory, make([]byte, need-uint64(len(c.memory)))...)
	}

	return o, nil
}

// slice returns length bytes of src at offset, zero padded
func slice(src []byte, offset, length uint64) []byte {
	out := make([]byte, length)

	if offset < uint64(len(src)) {
		copy(out, src[offset:])
	}

	return out
}
