package step

import "github.com/0xPolygon/evm-circuit/evmcircuit/table"

// StorageAccess is the kind of storage slot access of a state
type StorageAccess int

const (
	NoStorage StorageAccess = iota
	StorageRead
	StorageWrite
)

// CopyID names the identifier used as copy source or destination
type CopyID int

const (
	CopyIDNone CopyID = iota
	CopyIDCallID
	CopyIDTxID
	CopyIDCodeHash
	CopyIDAccount
	CopyIDLastCallee
)

// CopyLayout describes the copy event of a state. Stack positions index the
// popped words; -1 means the value is zero.
type CopyLayout struct {
	SrcType, DstType table.CopyDataType
	SrcID, DstID     CopyID

	SrcAddrPop int
	DstAddrPop int
	LengthPop  int
}

// Layout is the read/write footprint of an opcode state. Events happen in
// this order: stack pops, call context reads, account read, storage access,
// memory access, copy sub-events, stack pushes, and finally the reversion of
// a reversible write.
type Layout struct {
	// Pops and Pushes are the maximum stack accesses; MinPops and MinPushes
	// are always performed, the rest depend on the opcode.
	Pops, MinPops     int
	Pushes, MinPushes int

	ContextReads []table.CallContextFieldTag

	// Account is the account field read, zero when there is none. The
	// address is the first popped word, or the first context read when
	// nothing is popped.
	Account table.AccountFieldTag

	Storage   StorageAccess
	Transient bool

	// Memory is a single word access; it is a write unless the opcode is MLOAD
	Memory bool

	Copy *CopyLayout

	TxField    table.TxFieldTag
	BlockField bool
	CodeSize   bool
	Exp        bool
	Keccak     bool
	ByteResult bool

	// Peek reads the word at depth opcode-DUP1 without popping it
	Peek bool

	// Swap moves the second pop and the first push to depth opcode-SWAP1+1
	Swap bool

	// SwitchesContext is set when the next step runs in another call, so
	// only the rw counters carry over
	SwitchesContext bool

	Halts           bool
	FreePC          bool
	MemoryExpansion bool
	LogIncrement    bool
}

// Reversible reports whether the state performs a reversible write
func (l Layout) Reversible() bool {
	return l.Storage == StorageWrite
}

// StackEffect returns the number of stack pops and pushes op performs in
// state s
func (s ExecutionState) StackEffect(op OpCode) (int, int) {
	l := s.Layout()

	switch s {
	case StateMEMORY:
		if op == MLOAD {
			return 1, 1
		}

		return 2, 0
	case StateLOG:
		return 2 + int(op-LOG0), 0
	case StateCALL_OP:
		if op == CALL || op == CALLCODE {
			return 7, 1
		}

		return 6, 1
	}

	return l.Pops, l.Pushes
}

func fixed(pops, pushes int) Layout {
	return Layout{Pops: pops, MinPops: pops, Pushes: pushes, MinPushes: pushes}
}

// Layout returns the footprint of an opcode, error or precompile state.
// Internal states have dedicated gadgets and return the zero layout.
// Halting states finish by reading whether the call succeeded; a failed call
// also skips the rw counters reserved for its reversions.
func (s ExecutionState) Layout() Layout {
	l := s.layout()
	if l.Halts {
		l.ContextReads = append(l.ContextReads[:len(l.ContextReads):len(l.ContextReads)], table.CallContextIsSuccess)
	}

	return l
}

func (s ExecutionState) layout() Layout {
	switch s {
	case StateADD_SUB, StateMUL_DIV_MOD, StateSDIV_SMOD, StateSHL_SHR, StateSIGNEXTEND,
		StateCMP, StateSCMP, StateBITWISE, StateSAR:
		return fixed(2, 1)
	case StateADDMOD, StateMULMOD:
		return fixed(3, 1)
	case StateISZERO, StateNOT, StateCALLDATALOAD:
		return fixed(1, 1)
	case StateBYTE:
		l := fixed(2, 1)
		l.ByteResult = true

		return l
	case StateEXP:
		l := fixed(2, 1)
		l.Exp = true

		return l
	case StateSHA3:
		l := fixed(2, 1)
		l.Keccak = true
		l.MemoryExpansion = true
		l.Copy = &CopyLayout{
			SrcType: table.CopyMemory, DstType: table.CopyRlcAcc,
			SrcID: CopyIDCallID, DstID: CopyIDNone,
			SrcAddrPop: 0, DstAddrPop: -1, LengthPop: 1,
		}

		return l
	case StateADDRESS:
		return contextPush(table.CallContextCalleeAddress)
	case StateCALLER:
		return contextPush(table.CallContextCallerAddress)
	case StateCALLVALUE:
		return contextPush(table.CallContextValue)
	case StateCALLDATASIZE:
		return contextPush(table.CallContextCallDataLength)
	case StateORIGIN:
		l := contextPush(table.CallContextTxID)
		l.TxField = table.TxCallerAddress

		return l
	case StateGASPRICE:
		l := contextPush(table.CallContextTxID)
		l.TxField = table.TxGasPrice

		return l
	case StateBALANCE:
		l := fixed(1, 1)
		l.Account = table.AccountBalance

		return l
	case StateEXTCODEHASH, StateEXTCODESIZE:
		l := fixed(1, 1)
		l.Account = table.AccountCodeHash

		return l
	case StateSELFBALANCE:
		l := contextPush(table.CallContextCalleeAddress)
		l.Account = table.AccountBalance

		return l
	case StateCODESIZE:
		l := fixed(0, 1)
		l.CodeSize = true

		return l
	case StateCALLDATACOPY:
		l := fixed(3, 0)
		l.ContextReads = []table.CallContextFieldTag{table.CallContextTxID}
		l.MemoryExpansion = true
		l.Copy = &CopyLayout{
			SrcType: table.CopyTxCalldata, DstType: table.CopyMemory,
			SrcID: CopyIDTxID, DstID: CopyIDCallID,
			SrcAddrPop: 1, DstAddrPop: 0, LengthPop: 2,
		}

		return l
	case StateCODECOPY:
		l := fixed(3, 0)
		l.MemoryExpansion = true
		l.Copy = &CopyLayout{
			SrcType: table.CopyBytecode, DstType: table.CopyMemory,
			SrcID: CopyIDCodeHash, DstID: CopyIDCallID,
			SrcAddrPop: 1, DstAddrPop: 0, LengthPop: 2,
		}

		return l
	case StateRETURNDATACOPY:
		l := fixed(3, 0)
		l.ContextReads = []table.CallContextFieldTag{table.CallContextLastCalleeID}
		l.MemoryExpansion = true
		l.Copy = &CopyLayout{
			SrcType: table.CopyMemory, DstType: table.CopyMemory,
			SrcID: CopyIDLastCallee, DstID: CopyIDCallID,
			SrcAddrPop: 1, DstAddrPop: 0, LengthPop: 2,
		}

		return l
	case StateEXTCODECOPY:
		l := fixed(4, 0)
		l.Account = table.AccountCodeHash
		l.MemoryExpansion = true
		l.Copy = &CopyLayout{
			SrcType: table.CopyBytecode, DstType: table.CopyMemory,
			SrcID: CopyIDAccount, DstID: CopyIDCallID,
			SrcAddrPop: 2, DstAddrPop: 1, LengthPop: 3,
		}

		return l
	case StateRETURNDATASIZE:
		return contextPush(table.CallContextReturnDataLength)
	case StateBLOCKHASH:
		l := fixed(1, 1)
		l.BlockField = true

		return l
	case StateBLOCKCTX, StateCHAINID:
		l := fixed(0, 1)
		l.BlockField = true

		return l
	case StatePOP, StateJUMP:
		l := fixed(1, 0)
		l.FreePC = s == StateJUMP

		return l
	case StateJUMPI:
		l := fixed(2, 0)
		l.FreePC = true

		return l
	case StatePC, StateMSIZE, StateGAS:
		return fixed(0, 1)
	case StateJUMPDEST:
		return fixed(0, 0)
	case StatePUSH:
		l := fixed(0, 1)
		l.FreePC = true

		return l
	case StateDUP:
		l := fixed(0, 1)
		l.Peek = true

		return l
	case StateSWAP:
		l := fixed(2, 2)
		l.Swap = true

		return l
	case StateMEMORY:
		return Layout{Pops: 2, MinPops: 1, Pushes: 1, MinPushes: 0, Memory: true, MemoryExpansion: true}
	case StateSLOAD, StateTLOAD:
		l := contextAfterPops(1, 1, table.CallContextCalleeAddress)
		l.Storage = StorageRead
		l.Transient = s == StateTLOAD

		return l
	case StateSSTORE, StateTSTORE:
		l := contextAfterPops(2, 0,
			table.CallContextCalleeAddress,
			table.CallContextIsPersistent,
			table.CallContextRwCounterEndOfReversion,
		)
		l.Storage = StorageWrite
		l.Transient = s == StateTSTORE

		return l
	case StateLOG:
		return Layout{
			Pops: 6, MinPops: 2,
			ContextReads:    []table.CallContextFieldTag{table.CallContextTxID},
			MemoryExpansion: true,
			LogIncrement:    true,
			Copy: &CopyLayout{
				SrcType: table.CopyMemory, DstType: table.CopyTxLog,
				SrcID: CopyIDCallID, DstID: CopyIDTxID,
				SrcAddrPop: 0, DstAddrPop: -1, LengthPop: 1,
			},
		}
	case StateCREATE:
		l := fixed(3, 1)
		l.SwitchesContext = true

		return l
	case StateCREATE2:
		l := fixed(4, 1)
		l.SwitchesContext = true

		return l
	case StateCALL_OP:
		return Layout{Pops: 7, MinPops: 6, Pushes: 1, MinPushes: 1, SwitchesContext: true}
	case StateSTOP:
		l := fixed(0, 0)
		l.Halts = true

		return l
	case StateRETURN_REVERT:
		l := fixed(2, 0)
		l.Halts = true

		return l
	case StateSELFDESTRUCT:
		l := fixed(1, 0)
		l.Halts = true

		return l
	case PrecompileIdentity:
		l := fixed(0, 0)
		l.ContextReads = []table.CallContextFieldTag{
			table.CallContextCallDataLength,
			table.CallContextReturnDataLength,
		}
		l.Halts = true

		return l
	case PrecompileEcrecover:
		l := fixed(0, 0)
		l.Halts = true

		return l
	}

	if s.IsError() {
		return errorLayout(s)
	}

	return Layout{}
}

func contextPush(tag table.CallContextFieldTag) Layout {
	l := fixed(0, 1)
	l.ContextReads = []table.CallContextFieldTag{tag}

	return l
}

func contextAfterPops(pops, pushes int, tags ...table.CallContextFieldTag) Layout {
	l := fixed(pops, pushes)
	l.ContextReads = tags

	return l
}

// errorLayout reads the operands the failing opcode would have consumed
func errorLayout(s ExecutionState) Layout {
	pops := 0

	switch s {
	case ErrorInvalidJump:
		pops = 1
	case ErrorReturnDataOutOfBound, ErrorOutOfGasSHA3, ErrorOutOfGasEXP:
		pops = 2
	case ErrorOutOfGasMemoryCopy, ErrorOutOfGasCREATE:
		pops = 3
	case ErrorOutOfGasEXTCODECOPY:
		pops = 4
	}

	l := fixed(pops, 0)
	l.Halts = true

	return l
}
