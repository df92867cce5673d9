package witness

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/types"
)

// ExecStep is one step of the execution trace
type ExecStep struct {
	ExecutionState step.ExecutionState `json:"executionState"`
	CallIndex      int                 `json:"callIndex"`
	RwIndices      []RwIndex           `json:"rwIndices"`

	// CopyRwCounterDelta is the number of rw events performed by the copy
	// event of the step
	CopyRwCounterDelta uint64 `json:"copyRwCounterDelta"`

	RwCounter                   uint64      `json:"rwCounter"`
	ProgramCounter              uint64      `json:"pc"`
	StackPointer                uint64      `json:"sp"`
	GasLeft                     uint64      `json:"gasLeft"`
	GasCost                     uint64      `json:"gasCost"`
	MemoryWordSize              uint64      `json:"memoryWordSize"`
	ReversibleWriteCounter      uint64      `json:"reversibleWriteCounter"`
	ReversibleWriteCounterDelta uint64      `json:"reversibleWriteCounterDelta"`
	LogID                       uint64      `json:"logId"`
	Opcode                      step.OpCode `json:"opcode"`

	CopyEvent *CopyEvent `json:"copyEvent,omitempty"`
	ExpEvent  *ExpEvent  `json:"expEvent,omitempty"`
	SigEvent  *SigEvent  `json:"sigEvent,omitempty"`
}

// RwIndicesLen is the number of rw events of the step
func (s *ExecStep) RwIndicesLen() int {
	return len(s.RwIndices)
}

// BoundaryCopy returns a step in state that continues from s without
// performing any event. Chunk boundary and padding steps are built this way
// so that the constraints of the step before them hold.
func (s *ExecStep) BoundaryCopy(state step.ExecutionState) *ExecStep {
	return &ExecStep{
		ExecutionState:         state,
		CallIndex:              s.CallIndex,
		RwCounter:              s.RwCounter,
		ProgramCounter:         s.ProgramCounter,
		StackPointer:           s.StackPointer,
		GasLeft:                s.GasLeft,
		MemoryWordSize:         s.MemoryWordSize,
		ReversibleWriteCounter: s.ReversibleWriteCounter,
		LogID:                  s.LogID,
	}
}

func (s *ExecStep) String() string {
	return fmt.Sprintf("%s{rwc: %d, pc: %d, sp: %d, rws: %d}",
		s.ExecutionState, s.RwCounter, s.ProgramCounter, s.StackPointer, len(s.RwIndices))
}

// CopyEvent moves bytes between memory, bytecode, calldata and logs
type CopyEvent struct {
	SrcID     uint256.Int        `json:"srcId"`
	SrcType   table.CopyDataType `json:"srcType"`
	DstID     uint256.Int        `json:"dstId"`
	DstType   table.CopyDataType `json:"dstType"`
	SrcAddr   uint64             `json:"srcAddr"`
	DstAddr   uint64             `json:"dstAddr"`
	Length    uint64             `json:"length"`
	RwCounter uint64             `json:"rwCounter"`
	RwcInc    uint64             `json:"rwcInc"`
	Bytes     types.HexBytes     `json:"bytes"`
}

// TableRow returns the copy table row of the event
func (e *CopyEvent) TableRow() []field.Element {
	return []field.Element{
		field.FromUint256(&e.SrcID),
		field.FromUint64(uint64(e.SrcType)),
		field.FromUint256(&e.DstID),
		field.FromUint64(uint64(e.DstType)),
		field.FromUint64(e.SrcAddr),
		field.FromUint64(e.DstAddr),
		field.FromUint64(e.Length),
		field.FromUint64(e.RwCounter),
		field.FromUint64(e.RwcInc),
	}
}

// ExpEvent is an exponentiation checked by the exponentiation table
type ExpEvent struct {
	Base     uint256.Int `json:"base"`
	Exponent uint256.Int `json:"exponent"`
	Result   uint256.Int `json:"result"`
}

func (e *ExpEvent) TableRow() []field.Element {
	baseLo, baseHi := field.WordLoHi(&e.Base)
	expLo, expHi := field.WordLoHi(&e.Exponent)
	resLo, resHi := field.WordLoHi(&e.Result)

	return []field.Element{baseLo, baseHi, expLo, expHi, resLo, resHi}
}

// SigEvent is an ecrecover checked by the signature table
type SigEvent struct {
	MsgHash   uint256.Int   `json:"msgHash"`
	V         uint64        `json:"v"`
	R         uint256.Int   `json:"r"`
	S         uint256.Int   `json:"s"`
	Recovered types.Address `json:"recovered"`
	IsValid   bool          `json:"isValid"`
}

func (e *SigEvent) TableRow() []field.Element {
	hashLo, hashHi := field.WordLoHi(&e.MsgHash)
	rLo, rHi := field.WordLoHi(&e.R)
	sLo, sHi := field.WordLoHi(&e.S)

	return []field.Element{
		hashLo, hashHi,
		field.FromUint64(e.V),
		rLo, rHi,
		sLo, sHi,
		field.FromBytes(e.Recovered.Bytes()),
		field.FromBool(e.IsValid),
	}
}
