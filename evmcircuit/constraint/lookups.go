package constraint

import (
	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// RLC folds values with r: values[0] + values[1]·r + values[2]·r² ...
func RLC(values []plonk.Expression, r plonk.Expression) plonk.Expression {
	if len(values) == 0 {
		return plonk.Zero()
	}

	acc := values[len(values)-1]
	for i := len(values) - 2; i >= 0; i-- {
		acc = plonk.Add(values[i], plonk.Mul(r, acc))
	}

	return acc
}

// lookup stores the conditioned RLC of values into a lookup cell of table t
func (cb *Builder) lookup(name string, t table.Table, values []plonk.Expression) *cell.Cell {
	cb.lookups[t]++

	expr := plonk.Mul(cb.conditionExpr(), RLC(values, cb.challenges.LookupInputExpr()))

	return cb.StoreExpression(name, expr, cell.LookupOf(t))
}

// RwValues are the columns of a rw table row after the counter, the write
// flag and the tag
type RwValues struct {
	ID         plonk.Expression
	Address    plonk.Expression
	FieldTag   plonk.Expression
	StorageKey [2]plonk.Expression
	Value      [2]plonk.Expression
	ValuePrev  [2]plonk.Expression
}

func orZero(e plonk.Expression) plonk.Expression {
	if e == nil {
		return plonk.Zero()
	}

	return e
}

func (v RwValues) exprs() []plonk.Expression {
	return []plonk.Expression{
		orZero(v.ID),
		orZero(v.Address),
		orZero(v.FieldTag),
		orZero(v.StorageKey[0]), orZero(v.StorageKey[1]),
		orZero(v.Value[0]), orZero(v.Value[1]),
		orZero(v.ValuePrev[0]), orZero(v.ValuePrev[1]),
	}
}

func wordExprs(w cell.Word) [2]plonk.Expression {
	return [2]plonk.Expression{w.Lo.Expr(), w.Hi.Expr()}
}

func boolExpr(b bool) plonk.Expression {
	if b {
		return plonk.One()
	}

	return plonk.Zero()
}

// RwLookup looks up the next rw event of the step and moves the rw counter
// offset past it
func (cb *Builder) RwLookup(name string, isWrite plonk.Expression, tag table.RwTag, values RwValues) {
	counter := plonk.Add(cb.curr.State.RwCounter.Expr(), cb.rwCounterOffset)
	cb.RwLookupWithCounter(name, counter, isWrite, tag, values)

	cb.rwCounterOffset = plonk.Add(cb.rwCounterOffset, cb.conditionExpr())
}

// RwLookupWithCounter looks up a rw event at an explicit counter
func (cb *Builder) RwLookupWithCounter(
	name string,
	counter plonk.Expression,
	isWrite plonk.Expression,
	tag table.RwTag,
	values RwValues,
) {
	row := append([]plonk.Expression{counter, isWrite, tag.Expr()}, values.exprs()...)

	label := "rw lookup " + tag.String()
	if name != "" {
		label += " " + name
	}

	cb.lookup(label, table.Rw, row)
}

// StackLookup reads or writes word at stack pointer plus offset
func (cb *Builder) StackLookup(isWrite bool, offset plonk.Expression, word cell.Word) {
	cb.RwLookup("", boolExpr(isWrite), table.RwStack, RwValues{
		ID:      cb.curr.State.CallID.Expr(),
		Address: plonk.Add(cb.curr.State.StackPointer.Expr(), offset),
		Value:   wordExprs(word),
	})
}

// StackPop reads the word on top of the remaining stack
func (cb *Builder) StackPop(word cell.Word) {
	cb.StackLookup(false, cb.stackPointerOffset, word)
	cb.stackPointerOffset = plonk.Add(cb.stackPointerOffset, cb.conditionExpr())
}

// StackPush writes word on top of the stack
func (cb *Builder) StackPush(word cell.Word) {
	cb.stackPointerOffset = plonk.Sub(cb.stackPointerOffset, cb.conditionExpr())
	cb.StackLookup(true, cb.stackPointerOffset, word)
}

// CallContextLookup reads or writes a field of the current call
func (cb *Builder) CallContextLookup(isWrite bool, fieldTag table.CallContextFieldTag, word cell.Word) {
	cb.CallContextLookupWithID(isWrite, cb.curr.State.CallID.Expr(), fieldTag, word)
}

// CallContextLookupWithID accesses a field of the call id
func (cb *Builder) CallContextLookupWithID(
	isWrite bool,
	id plonk.Expression,
	fieldTag table.CallContextFieldTag,
	word cell.Word,
) {
	cb.RwLookup("", boolExpr(isWrite), table.RwCallContext, RwValues{
		ID:       id,
		FieldTag: fieldTag.Expr(),
		Value:    wordExprs(word),
	})
}

// AccountRead reads a field of the account at address
func (cb *Builder) AccountRead(address plonk.Expression, fieldTag table.AccountFieldTag, word cell.Word) {
	cb.RwLookup("", plonk.Zero(), table.RwAccount, RwValues{
		Address:   address,
		FieldTag:  fieldTag.Expr(),
		Value:     wordExprs(word),
		ValuePrev: wordExprs(word),
	})
}

// ReversionInfo locates the undo events of the reversible writes of a call
type ReversionInfo struct {
	RwCounterEndOfReversion plonk.Expression
	IsPersistent            plonk.Expression
	ReversibleWriteCounter  plonk.Expression
}

// StorageRead reads a storage slot of address
func (cb *Builder) StorageRead(tag table.RwTag, address plonk.Expression, key, value cell.Word) {
	cb.RwLookup("", plonk.Zero(), tag, RwValues{
		Address:    address,
		StorageKey: wordExprs(key),
		Value:      wordExprs(value),
		ValuePrev:  wordExprs(value),
	})
}

// StorageWrite writes a storage slot. When the call does not persist, the
// undo event is looked up at the counter reserved for it.
func (cb *Builder) StorageWrite(
	tag table.RwTag,
	address plonk.Expression,
	key, value, prev cell.Word,
	reversion *ReversionInfo,
) {
	values := RwValues{
		Address:    address,
		StorageKey: wordExprs(key),
		Value:      wordExprs(value),
		ValuePrev:  wordExprs(prev),
	}

	cb.RwLookup("", plonk.One(), tag, values)

	if reversion == nil {
		return
	}

	undo := values
	undo.Value, undo.ValuePrev = values.ValuePrev, values.Value

	cb.Condition(plonk.Not(reversion.IsPersistent), func() {
		counter := plonk.Sub(reversion.RwCounterEndOfReversion, reversion.ReversibleWriteCounter)
		cb.RwLookupWithCounter("with reversion", counter, plonk.One(), tag, undo)
	})
}

// MemoryLookup accesses the memory word at address
func (cb *Builder) MemoryLookup(isWrite, address plonk.Expression, word cell.Word) {
	cb.RwLookup("", isWrite, table.RwMemory, RwValues{
		ID:      cb.curr.State.CallID.Expr(),
		Address: address,
		Value:   wordExprs(word),
	})
}

// TxReceiptLookup accesses a field of the receipt of tx
func (cb *Builder) TxReceiptLookup(isWrite bool, txID plonk.Expression, fieldTag table.TxReceiptFieldTag, value plonk.Expression) {
	cb.RwLookup("", boolExpr(isWrite), table.RwTxReceipt, RwValues{
		ID:       txID,
		FieldTag: fieldTag.Expr(),
		Value:    [2]plonk.Expression{value, plonk.Zero()},
	})
}

// TxContextLookup looks up a field of a transaction
func (cb *Builder) TxContextLookup(txID plonk.Expression, tag table.TxFieldTag, index, value plonk.Expression) {
	cb.lookup("tx lookup", table.Tx, []plonk.Expression{txID, tag.Expr(), orZero(index), value})
}

// BlockLookup looks up a field of the block context
func (cb *Builder) BlockLookup(tag, index plonk.Expression, value cell.Word) {
	cb.lookup("block lookup", table.Block, []plonk.Expression{tag, orZero(index), value.Lo.Expr(), value.Hi.Expr()})
}

// BytecodeLookup looks up a row of the code with hash codeHash
func (cb *Builder) BytecodeLookup(codeHash cell.Word, tag table.BytecodeFieldTag, index, isCode, value plonk.Expression) {
	cb.lookup("bytecode lookup", table.Bytecode, []plonk.Expression{
		codeHash.Lo.Expr(), codeHash.Hi.Expr(),
		tag.Expr(),
		orZero(index),
		orZero(isCode),
		value,
	})
}

// OpcodeLookup checks that the byte at the program counter is opcode
func (cb *Builder) OpcodeLookup(opcode plonk.Expression) {
	state := cb.curr.State
	cb.BytecodeLookup(state.CodeHash, table.BytecodeByte, state.ProgramCounter.Expr(), plonk.One(), opcode)
}

// FixedLookup looks up the fixed table
func (cb *Builder) FixedLookup(tag table.FixedTableTag, value1, value2, value3 plonk.Expression) {
	cb.lookup("fixed lookup", table.Fixed, []plonk.Expression{tag.Expr(), orZero(value1), orZero(value2), orZero(value3)})
}

// CopyEvent are the columns of a copy table row
type CopyEvent struct {
	SrcID, DstID     plonk.Expression
	SrcType, DstType table.CopyDataType
	SrcAddr, DstAddr plonk.Expression
	Length           plonk.Expression
	RwcInc           plonk.Expression
}

// CopyLookup looks up a copy event starting at the current rw counter and
// moves the rw counter offset past its memory events
func (cb *Builder) CopyLookup(ev CopyEvent) {
	counter := plonk.Add(cb.curr.State.RwCounter.Expr(), cb.rwCounterOffset)

	cb.lookup("copy lookup", table.Copy, []plonk.Expression{
		orZero(ev.SrcID), ev.SrcType.Expr(),
		orZero(ev.DstID), ev.DstType.Expr(),
		orZero(ev.SrcAddr), orZero(ev.DstAddr),
		ev.Length,
		counter,
		ev.RwcInc,
	})

	cb.rwCounterOffset = plonk.Add(cb.rwCounterOffset, plonk.Mul(cb.conditionExpr(), ev.RwcInc))
}

// KeccakLookup looks up the hash of an input folded with the keccak input
// challenge
func (cb *Builder) KeccakLookup(inputRLC, length plonk.Expression, output cell.Word) {
	cb.lookup("keccak lookup", table.Keccak, []plonk.Expression{inputRLC, length, output.Lo.Expr(), output.Hi.Expr()})
}

// ExpLookup looks up base^exponent = result
func (cb *Builder) ExpLookup(base, exponent, result cell.Word) {
	cb.lookup("exp lookup", table.Exp, []plonk.Expression{
		base.Lo.Expr(), base.Hi.Expr(),
		exponent.Lo.Expr(), exponent.Hi.Expr(),
		result.Lo.Expr(), result.Hi.Expr(),
	})
}

// SigLookup looks up a signature recovery
func (cb *Builder) SigLookup(msgHash cell.Word, v plonk.Expression, r, s cell.Word, recovered, isValid plonk.Expression) {
	cb.lookup("sig lookup", table.Sig, []plonk.Expression{
		msgHash.Lo.Expr(), msgHash.Hi.Expr(),
		v,
		r.Lo.Expr(), r.Hi.Expr(),
		s.Lo.Expr(), s.Hi.Expr(),
		recovered,
		isValid,
	})
}

// ChunkContextLookup looks up a field of the chunk context
func (cb *Builder) ChunkContextLookup(tag table.ChunkCtxFieldTag, value plonk.Expression) {
	cb.lookup("chunk_ctx lookup", table.ChunkCtx, []plonk.Expression{tag.Expr(), value})
}
