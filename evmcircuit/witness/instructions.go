package witness

import (
	"github.com/holiman/uint256"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/helper/keccak"
	"github.com/0xPolygon/evm-circuit/types"
)

type instruction func(c *state, f *frame) error

var dispatchTable [256]instruction

func register(op step.OpCode, inst instruction) {
	dispatchTable[op] = inst
}

func init() {
	binary := func(fn func(z, a, b *uint256.Int)) instruction {
		return func(c *state, f *frame) error {
			var z uint256.Int
			fn(&z, &f.args[0], &f.args[1])
			f.results = []uint256.Int{z}

			return nil
		}
	}

	register(step.ADD, binary(func(z, a, b *uint256.Int) { z.Add(a, b) }))
	register(step.SUB, binary(func(z, a, b *uint256.Int) { z.Sub(a, b) }))
	register(step.MUL, binary(func(z, a, b *uint256.Int) { z.Mul(a, b) }))
	register(step.DIV, binary(func(z, a, b *uint256.Int) { z.Div(a, b) }))
	register(step.SDIV, binary(func(z, a, b *uint256.Int) { z.SDiv(a, b) }))
	register(step.MOD, binary(func(z, a, b *uint256.Int) { z.Mod(a, b) }))
	register(step.SMOD, binary(func(z, a, b *uint256.Int) { z.SMod(a, b) }))
	register(step.SIGNEXTEND, binary(func(z, a, b *uint256.Int) { z.ExtendSign(b, a) }))
	register(step.LT, binary(func(z, a, b *uint256.Int) { setBool(z, a.Lt(b)) }))
	register(step.GT, binary(func(z, a, b *uint256.Int) { setBool(z, a.Gt(b)) }))
	register(step.SLT, binary(func(z, a, b *uint256.Int) { setBool(z, a.Slt(b)) }))
	register(step.SGT, binary(func(z, a, b *uint256.Int) { setBool(z, a.Sgt(b)) }))
	register(step.EQ, binary(func(z, a, b *uint256.Int) { setBool(z, a.Eq(b)) }))
	register(step.AND, binary(func(z, a, b *uint256.Int) { z.And(a, b) }))
	register(step.OR, binary(func(z, a, b *uint256.Int) { z.Or(a, b) }))
	register(step.XOR, binary(func(z, a, b *uint256.Int) { z.Xor(a, b) }))
	register(step.BYTE, binary(func(z, a, b *uint256.Int) { z.Set(b).Byte(a) }))
	register(step.SHL, binary(func(z, a, b *uint256.Int) {
		if a.LtUint64(256) {
			z.Lsh(b, uint(a.Uint64()))
		}
	}))
	register(step.SHR, binary(func(z, a, b *uint256.Int) {
		if a.LtUint64(256) {
			z.Rsh(b, uint(a.Uint64()))
		}
	}))
	register(step.SAR, binary(func(z, a, b *uint256.Int) {
		switch {
		case a.LtUint64(256):
			z.SRsh(b, uint(a.Uint64()))
		case b.Sign() < 0:
			z.SetAllOne()
		}
	}))

	register(step.ADDMOD, opAddMod)
	register(step.MULMOD, opMulMod)
	register(step.EXP, opExp)
	register(step.ISZERO, opIsZero)
	register(step.NOT, opNot)
	register(step.SHA3, opSha3)

	register(step.ADDRESS, opContextPush)
	register(step.CALLER, opContextPush)
	register(step.CALLVALUE, opContextPush)
	register(step.CALLDATASIZE, opContextPush)
	register(step.RETURNDATASIZE, opContextPush)
	register(step.ORIGIN, opOrigin)
	register(step.GASPRICE, opGasPrice)
	register(step.BALANCE, opBalance)
	register(step.SELFBALANCE, opSelfBalance)
	register(step.EXTCODEHASH, opExtCodeHash)
	register(step.EXTCODESIZE, opExtCodeSize)
	register(step.CODESIZE, opCodeSize)
	register(step.CALLDATALOAD, opCallDataLoad)
	register(step.CALLDATACOPY, opCallDataCopy)
	register(step.CODECOPY, opCodeCopy)
	register(step.EXTCODECOPY, opExtCodeCopy)
	register(step.RETURNDATACOPY, opReturnDataCopy)

	register(step.BLOCKHASH, opBlockHash)
	for _, op := range step.StateBLOCKCTX.ResponsibleOpcodes() {
		register(op, opBlockContext)
	}
	register(step.CHAINID, opBlockContext)

	register(step.POP, opNop)
	register(step.JUMPDEST, opNop)
	register(step.MLOAD, opMload)
	register(step.MSTORE, opMstore)
	register(step.MSTORE8, opMstore8)
	register(step.SLOAD, opSload)
	register(step.TLOAD, opSload)
	register(step.SSTORE, opSstore)
	register(step.TSTORE, opSstore)
	register(step.JUMP, opJump)
	register(step.JUMPI, opJump)
	register(step.PC, opPC)
	register(step.MSIZE, opMsize)
	register(step.GAS, opGas)

	for _, op := range step.StatePUSH.ResponsibleOpcodes() {
		register(op, opPush)
	}

	for _, op := range step.StateDUP.ResponsibleOpcodes() {
		register(op, opDup)
	}

	for _, op := range step.StateSWAP.ResponsibleOpcodes() {
		register(op, opSwap)
	}

	for _, op := range step.StateLOG.ResponsibleOpcodes() {
		register(op, opLog)
	}

	register(step.CALL, opCall)
	register(step.STATICCALL, opCall)

	register(step.STOP, opHalt(true))
	register(step.RETURN, opReturn(true))
	register(step.REVERT, opReturn(false))
	register(step.SELFDESTRUCT, opHalt(true))
}

func setBool(z *uint256.Int, b bool) {
	if b {
		z.SetOne()
	} else {
		z.Clear()
	}
}

func push(f *frame, v uint256.Int) {
	f.results = append(f.results, v)
}

func opNop(c *state, f *frame) error {
	return nil
}

func opAddMod(c *state, f *frame) error {
	var z uint256.Int
	z.AddMod(&f.args[0], &f.args[1], &f.args[2])
	push(f, z)

	return nil
}

func opMulMod(c *state, f *frame) error {
	var z uint256.Int
	z.MulMod(&f.args[0], &f.args[1], &f.args[2])
	push(f, z)

	return nil
}

func opExp(c *state, f *frame) error {
	var z uint256.Int
	z.Exp(&f.args[0], &f.args[1])
	push(f, z)

	f.expEvent(z)

	return nil
}

func (f *frame) expEvent(result uint256.Int) {
	f.exp = &ExpEvent{Base: f.args[0], Exponent: f.args[1], Result: result}
}

func opIsZero(c *state, f *frame) error {
	var z uint256.Int
	setBool(&z, f.args[0].IsZero())
	push(f, z)

	return nil
}

func opNot(c *state, f *frame) error {
	var z uint256.Int
	z.Not(&f.args[0])
	push(f, z)

	return nil
}

func opSha3(c *state, f *frame) error {
	offset, err := c.expand(&f.args[0], &f.args[1])
	if err != nil {
		return err
	}

	data := slice(c.memory, offset, f.args[1].Uint64())
	c.block.KeccakInputs = append(c.block.KeccakInputs, data)

	push(f, HashWord(types.BytesToHash(keccak.Keccak256(nil, data))))

	var callID uint256.Int
	callID.SetUint64(c.call.ID)

	c.copyEvent(f, data, &CopyEvent{
		SrcID:   callID,
		SrcType: table.CopyMemory,
		DstType: table.CopyRlcAcc,
		SrcAddr: offset,
		Length:  uint64(len(data)),
	})

	return nil
}

// copyEvent attaches a copy event to the frame unless it moves no bytes
func (c *state) copyEvent(f *frame, data []byte, ev *CopyEvent) {
	if len(data) == 0 {
		return
	}

	f.copy = ev
	f.data = data
}

func opContextPush(c *state, f *frame) error {
	push(f, c.contextValue(f.layout.ContextReads[0], f))

	return nil
}

func opOrigin(c *state, f *frame) error {
	push(f, AddressWord(c.tx.Caller))

	return nil
}

func opGasPrice(c *state, f *frame) error {
	push(f, c.tx.GasPrice)

	return nil
}

// account returns the account at the low 20 bytes of w
func (c *state) account(w *uint256.Int) (types.Address, *Account) {
	addr := types.Address(w.Bytes20())

	return addr, c.accounts[addr]
}

func codeHash(acc *Account) types.Hash {
	switch {
	case acc == nil:
		return types.ZeroHash
	case len(acc.Code) == 0:
		return types.EmptyCodeHash
	}

	return NewBytecode(acc.Code).Hash
}

func opBalance(c *state, f *frame) error {
	if _, acc := c.account(&f.args[0]); acc != nil {
		f.account = acc.Balance
	}

	push(f, f.account)

	return nil
}

func opSelfBalance(c *state, f *frame) error {
	if acc := c.accounts[c.call.Address]; acc != nil {
		f.account = acc.Balance
	}

	push(f, f.account)

	return nil
}

func opExtCodeHash(c *state, f *frame) error {
	_, acc := c.account(&f.args[0])
	f.account = HashWord(codeHash(acc))

	push(f, f.account)

	return nil
}

func opExtCodeSize(c *state, f *frame) error {
	_, acc := c.account(&f.args[0])
	f.account = HashWord(codeHash(acc))

	var size uint256.Int
	if acc != nil {
		size.SetUint64(uint64(len(acc.Code)))
	}

	push(f, size)

	return nil
}

func opCodeSize(c *state, f *frame) error {
	var size uint256.Int
	size.SetUint64(uint64(len(c.code)))
	push(f, size)

	return nil
}

func opCallDataLoad(c *state, f *frame) error {
	var v uint256.Int

	if f.args[0].IsUint64() {
		v.SetBytes(slice(c.tx.CallData, f.args[0].Uint64(), 32))
	}

	push(f, v)

	return nil
}

// copyToMemory writes src[srcOffset:srcOffset+size] at dstOffset and
// returns the copied bytes
func (c *state) copyToMemory(dstOffset, srcOffset, size *uint256.Int, src []byte) (uint64, uint64, []byte, error) {
	dst, err := c.expand(dstOffset, size)
	if err != nil {
		return 0, 0, nil, err
	}

	if size.IsZero() {
		return dst, 0, nil, nil
	}

	if !srcOffset.IsUint64() || srcOffset.Uint64() > memoryLimit {
		return 0, 0, nil, errMemoryLimit
	}

	data := slice(src, srcOffset.Uint64(), size.Uint64())
	copy(c.memory[dst:], data)

	return dst, srcOffset.Uint64(), data, nil
}

func opCallDataCopy(c *state, f *frame) error {
	dst, src, data, err := c.copyToMemory(&f.args[0], &f.args[1], &f.args[2], c.tx.CallData)
	if err != nil {
		return err
	}

	var txID, callID uint256.Int
	txID.SetUint64(c.tx.ID)
	callID.SetUint64(c.call.ID)

	c.copyEvent(f, data, &CopyEvent{
		SrcID:   txID,
		SrcType: table.CopyTxCalldata,
		DstID:   callID,
		DstType: table.CopyMemory,
		SrcAddr: src,
		DstAddr: dst,
		Length:  uint64(len(data)),
	})

	return nil
}

func opCodeCopy(c *state, f *frame) error {
	dst, src, data, err := c.copyToMemory(&f.args[0], &f.args[1], &f.args[2], c.code)
	if err != nil {
		return err
	}

	var callID uint256.Int
	callID.SetUint64(c.call.ID)

	c.copyEvent(f, data, &CopyEvent{
		SrcID:   HashWord(c.call.CodeHash),
		SrcType: table.CopyBytecode,
		DstID:   callID,
		DstType: table.CopyMemory,
		SrcAddr: src,
		DstAddr: dst,
		Length:  uint64(len(data)),
	})

	return nil
}

func opExtCodeCopy(c *state, f *frame) error {
	_, acc := c.account(&f.args[0])
	f.account = HashWord(codeHash(acc))

	var code []byte
	if acc != nil {
		code = acc.Code
	}

	dst, src, data, err := c.copyToMemory(&f.args[1], &f.args[2], &f.args[3], code)
	if err != nil {
		return err
	}

	var callID uint256.Int
	callID.SetUint64(c.call.ID)

	c.copyEvent(f, data, &CopyEvent{
		SrcID:   f.account,
		SrcType: table.CopyBytecode,
		DstID:   callID,
		DstType: table.CopyMemory,
		SrcAddr: src,
		DstAddr: dst,
		Length:  uint64(len(data)),
	})

	return nil
}

// opReturnDataCopy only runs with a zero length, larger copies fail in
// precheck
func opReturnDataCopy(c *state, f *frame) error {
	_, err := c.expand(&f.args[0], &f.args[2])

	return err
}

func opBlockHash(c *state, f *frame) error {
	if !f.args[0].IsUint64() {
		return errMemoryLimit
	}

	n := f.args[0].Uint64()

	// unknown blocks hash to zero and are added to the history so the block
	// table can serve the lookup
	hash, ok := c.block.Context.History[n]
	if !ok {
		c.block.Context.History[n] = types.ZeroHash
	}

	push(f, HashWord(hash))

	return nil
}

func opBlockContext(c *state, f *frame) error {
	ctx := &c.block.Context

	var v uint256.Int

	switch f.op {
	case step.COINBASE:
		v = AddressWord(ctx.Coinbase)
	case step.TIMESTAMP:
		v.SetUint64(ctx.Timestamp)
	case step.NUMBER:
		v.SetUint64(ctx.Number)
	case step.DIFFICULTY:
		v = ctx.Difficulty
	case step.GASLIMIT:
		v.SetUint64(ctx.GasLimit)
	case step.BASEFEE:
		v = ctx.BaseFee
	case step.CHAINID:
		v.SetUint64(ctx.ChainID)
	}

	push(f, v)

	return nil
}

func opMload(c *state, f *frame) error {
	offset, err := c.expand(&f.args[0], uint256.NewInt(32))
	if err != nil {
		return err
	}

	f.memWord.SetBytes32(c.memory[offset : offset+32])
	push(f, f.memWord)

	return nil
}

func opMstore(c *state, f *frame) error {
	offset, err := c.expand(&f.args[0], uint256.NewInt(32))
	if err != nil {
		return err
	}

	word := f.args[1].Bytes32()
	copy(c.memory[offset:], word[:])
	f.memWord = f.args[1]

	return nil
}

func opMstore8(c *state, f *frame) error {
	offset, err := c.expand(&f.args[0], uint256.NewInt(1))
	if err != nil {
		return err
	}

	b := byte(f.args[1].Uint64())
	c.memory[offset] = b
	f.memWord.SetUint64(uint64(b))

	return nil
}

func (c *state) slots(f *frame) storageSlots {
	if f.layout.Transient {
		return c.transient
	}

	return c.storage
}

func opSload(c *state, f *frame) error {
	f.storageVal = c.slots(f).get(c.call.Address, f.args[0])
	push(f, f.storageVal)

	return nil
}

func opSstore(c *state, f *frame) error {
	slots := c.slots(f)

	f.storageVal = slots.get(c.call.Address, f.args[0])
	slots.set(c.call.Address, f.args[0], f.args[1])

	return nil
}

func opJump(c *state, f *frame) error {
	if f.op == step.JUMP || !f.args[1].IsZero() {
		f.jump = true
		f.dest = f.args[0].Uint64()
	} else {
		f.jump = true
		f.dest = c.ip + 1
	}

	return nil
}

func opPC(c *state, f *frame) error {
	var v uint256.Int
	v.SetUint64(c.ip)
	push(f, v)

	return nil
}

func opMsize(c *state, f *frame) error {
	var v uint256.Int
	v.SetUint64(uint64(len(c.memory)))
	push(f, v)

	return nil
}

func opGas(c *state, f *frame) error {
	var v uint256.Int
	v.SetUint64(c.gas)
	push(f, v)

	return nil
}

func opPush(c *state, f *frame) error {
	n := uint64(f.op.PushSize())

	var v uint256.Int
	v.SetBytes(slice(c.code, c.ip+1, n))
	push(f, v)

	return nil
}

func opDup(c *state, f *frame) error {
	push(f, c.stack[len(c.stack)-1-int(f.op-step.DUP1)])

	return nil
}

func opSwap(c *state, f *frame) error {
	push(f, f.args[0])
	push(f, f.args[1])

	return nil
}

func opLog(c *state, f *frame) error {
	offset, err := c.expand(&f.args[0], &f.args[1])
	if err != nil {
		return err
	}

	data := slice(c.memory, offset, f.args[1].Uint64())

	var callID, txID uint256.Int
	callID.SetUint64(c.call.ID)
	txID.SetUint64(c.tx.ID)

	c.copyEvent(f, data, &CopyEvent{
		SrcID:   callID,
		SrcType: table.CopyMemory,
		DstID:   txID,
		DstType: table.CopyTxLog,
		SrcAddr: offset,
		Length:  uint64(len(data)),
	})

	return nil
}

// opCall only reaches precompiled contracts. The call always succeeds and
// its output is not written back to memory.
func opCall(c *state, f *frame) error {
	addr := types.Address(f.args[1].Bytes20())
	if !isPrecompile(addr) {
		return errUnsupportedCall
	}

	argsAt := 2
	if f.op == step.CALL {
		argsAt = 3
	}

	offset, err := c.expand(&f.args[argsAt], &f.args[argsAt+1])
	if err != nil {
		return err
	}

	if _, err := c.expand(&f.args[argsAt+2], &f.args[argsAt+3]); err != nil {
		return err
	}

	f.callee = &precompileCall{
		address: addr,
		input:   slice(c.memory, offset, f.args[argsAt+1].Uint64()),
	}

	push(f, *uint256.NewInt(1))

	return nil
}

func opHalt(success bool) instruction {
	return func(c *state, f *frame) error {
		f.success = success

		return nil
	}
}

func opReturn(success bool) instruction {
	return func(c *state, f *frame) error {
		if _, err := c.expand(&f.args[0], &f.args[1]); err != nil {
			return err
		}

		f.success = success

		return nil
	}
}
