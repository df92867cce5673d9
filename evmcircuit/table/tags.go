package table

import (
	"fmt"

	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// RwTag is the target of a read/write event. Values start at 1 so that an
// all-zero rw row never matches a real event.
type RwTag uint64

const (
	RwStart RwTag = iota + 1
	RwStack
	RwMemory
	RwAccountStorage
	RwTransientStorage
	RwTxAccessListAccount
	RwTxAccessListAccountStorage
	RwTxRefund
	RwAccount
	RwCallContext
	RwTxLog
	RwTxReceipt
	RwPadding
)

func (t RwTag) String() string {
	switch t {
	case RwStart:
		return "Start"
	case RwStack:
		return "Stack"
	case RwMemory:
		return "Memory"
	case RwAccountStorage:
		return "AccountStorage"
	case RwTransientStorage:
		return "TransientStorage"
	case RwTxAccessListAccount:
		return "TxAccessListAccount"
	case RwTxAccessListAccountStorage:
		return "TxAccessListAccountStorage"
	case RwTxRefund:
		return "TxRefund"
	case RwAccount:
		return "Account"
	case RwCallContext:
		return "CallContext"
	case RwTxLog:
		return "TxLog"
	case RwTxReceipt:
		return "TxReceipt"
	case RwPadding:
		return "Padding"
	default:
		panic(fmt.Sprintf("BUG: rw tag not found: %d", uint64(t)))
	}
}

func (t RwTag) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

// CallContextFieldTag selects a field of the call context
type CallContextFieldTag uint64

const (
	CallContextRwCounterEndOfReversion CallContextFieldTag = iota + 1
	CallContextCallerID
	CallContextTxID
	CallContextDepth
	CallContextCallerAddress
	CallContextCalleeAddress
	CallContextCallDataOffset
	CallContextCallDataLength
	CallContextReturnDataOffset
	CallContextReturnDataLength
	CallContextValue
	CallContextIsSuccess
	CallContextIsPersistent
	CallContextIsStatic
	CallContextLastCalleeID
	CallContextIsRoot
	CallContextIsCreate
	CallContextCodeHash
)

func (t CallContextFieldTag) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

// AccountFieldTag selects a field of an account
type AccountFieldTag uint64

const (
	AccountNonce AccountFieldTag = iota + 1
	AccountBalance
	AccountCodeHash
)

func (t AccountFieldTag) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

// TxReceiptFieldTag selects a field of a transaction receipt
type TxReceiptFieldTag uint64

const (
	TxReceiptPostStateOrStatus TxReceiptFieldTag = iota + 1
	TxReceiptCumulativeGasUsed
	TxReceiptLogLength
)

func (t TxReceiptFieldTag) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

// TxFieldTag selects a field of a transaction in the tx table
type TxFieldTag uint64

const (
	TxNonce TxFieldTag = iota + 1
	TxGas
	TxGasPrice
	TxCallerAddress
	TxCalleeAddress
	TxIsCreate
	TxValue
	TxCallDataLength
	TxCallData
)

func (t TxFieldTag) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

// BlockContextFieldTag selects a field of the block context
type BlockContextFieldTag uint64

const (
	BlockCoinbase BlockContextFieldTag = iota + 1
	BlockTimestamp
	BlockNumber
	BlockDifficulty
	BlockGasLimit
	BlockBaseFee
	BlockHash
	BlockChainID
)

func (t BlockContextFieldTag) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

// BytecodeFieldTag distinguishes the header row from the byte rows
type BytecodeFieldTag uint64

const (
	BytecodeHeader BytecodeFieldTag = iota + 1
	BytecodeByte
)

func (t BytecodeFieldTag) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

// CopyDataType is the source or destination kind of a copy event
type CopyDataType uint64

const (
	CopyMemory CopyDataType = iota + 1
	CopyBytecode
	CopyTxCalldata
	CopyTxLog
	CopyRlcAcc
)

func (t CopyDataType) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

// FixedTableTag partitions the fixed table
type FixedTableTag uint64

const (
	FixedZero FixedTableTag = iota + 1
	FixedResponsibleOpcode
)

func (t FixedTableTag) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

// ChunkCtxFieldTag selects a value of the chunk context table
type ChunkCtxFieldTag uint64

const (
	ChunkCtxCurrentChunkIndex ChunkCtxFieldTag = iota + 1
	ChunkCtxNextChunkIndex
	ChunkCtxTotalChunks
	ChunkCtxInitialRWC
	ChunkCtxEndRWC
)

func (t ChunkCtxFieldTag) String() string {
	switch t {
	case ChunkCtxCurrentChunkIndex:
		return "CurrentChunkIndex"
	case ChunkCtxNextChunkIndex:
		return "NextChunkIndex"
	case ChunkCtxTotalChunks:
		return "TotalChunks"
	case ChunkCtxInitialRWC:
		return "InitialRWC"
	case ChunkCtxEndRWC:
		return "EndRWC"
	default:
		panic(fmt.Sprintf("BUG: chunk ctx tag not found: %d", uint64(t)))
	}
}

func (t ChunkCtxFieldTag) Expr() plonk.Expression { return plonk.Const(uint64(t)) }

func (t ChunkCtxFieldTag) Value() field.Element { return field.FromUint64(uint64(t)) }
