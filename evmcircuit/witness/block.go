// Package witness holds the execution trace of a block and turns it into
// the rows of the lookup tables
package witness

import (
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/helper/keccak"
	"github.com/0xPolygon/evm-circuit/types"
)

// Block is the witness of one block
type Block struct {
	Context   BlockContext             `json:"context"`
	Txs       []*Transaction           `json:"txs"`
	Rws       RwMap                    `json:"rws"`
	Bytecodes map[types.Hash]*Bytecode `json:"bytecodes"`

	// KeccakInputs are the preimages hashed by SHA3 steps
	KeccakInputs []types.HexBytes `json:"keccakInputs"`

	// EndRwCounter is the rw counter following the last event of the block
	EndRwCounter uint64 `json:"endRwCounter"`
}

// GetRws returns the i-th rw event of s
func (b *Block) GetRws(s *ExecStep, i int) *Rw {
	return b.Rws.Get(s.RwIndices[i])
}

// Steps iterates over every step of the block in execution order
func (b *Block) Steps(fn func(tx *Transaction, s *ExecStep) bool) {
	for _, tx := range b.Txs {
		for _, s := range tx.Steps {
			if !fn(tx, s) {
				return
			}
		}
	}
}

// Transaction is a transaction with the steps it executed
type Transaction struct {
	ID       uint64         `json:"id"`
	Nonce    uint64         `json:"nonce"`
	Gas      uint64         `json:"gas"`
	GasPrice uint256.Int    `json:"gasPrice"`
	Caller   types.Address  `json:"caller"`
	Callee   types.Address  `json:"callee"`
	IsCreate bool           `json:"isCreate"`
	Value    uint256.Int    `json:"value"`
	CallData types.HexBytes `json:"callData"`
	Invalid  bool           `json:"invalid"`

	Calls []*Call     `json:"calls"`
	Steps []*ExecStep `json:"steps"`
}

// Call is a message call frame of a transaction
type Call struct {
	ID            uint64        `json:"id"`
	IsRoot        bool          `json:"isRoot"`
	IsCreate      bool          `json:"isCreate"`
	CodeHash      types.Hash    `json:"codeHash"`
	CallerAddress types.Address `json:"callerAddress"`
	Address       types.Address `json:"address"`
	Depth         uint64        `json:"depth"`
	IsSuccess     bool          `json:"isSuccess"`
	IsPersistent  bool          `json:"isPersistent"`

	RwCounterEndOfReversion uint64 `json:"rwCounterEndOfReversion"`
}

// BlockContext is the environment read by the block opcodes
type BlockContext struct {
	Coinbase   types.Address `json:"coinbase"`
	Timestamp  uint64        `json:"timestamp"`
	Number     uint64        `json:"number"`
	Difficulty uint256.Int   `json:"difficulty"`
	GasLimit   uint64        `json:"gasLimit"`
	BaseFee    uint256.Int   `json:"baseFee"`
	ChainID    uint64        `json:"chainId"`

	// History maps previous block numbers to their hashes
	History map[uint64]types.Hash `json:"history"`
}

// Bytecode is a contract code with its hash
type Bytecode struct {
	Hash types.Hash     `json:"hash"`
	Code types.HexBytes `json:"code"`
}

// NewBytecode hashes code
func NewBytecode(code []byte) *Bytecode {
	return &Bytecode{
		Hash: types.BytesToHash(keccak.Keccak256(nil, code)),
		Code: code,
	}
}

// IsCode marks the bytes that are opcodes rather than push data
func (b *Bytecode) IsCode() []bool {
	isCode := make([]bool, len(b.Code))

	for i := 0; i < len(b.Code); {
		isCode[i] = true

		op := step.OpCode(b.Code[i])
		if op.IsPush() {
			i += op.PushSize()
		}

		i++
	}

	return isCode
}

// TableRows returns the header row followed by one row per byte
func (b *Bytecode) TableRows() [][]field.Element {
	hash := HashWord(b.Hash)
	lo, hi := field.WordLoHi(&hash)

	rows := make([][]field.Element, 0, len(b.Code)+1)
	rows = append(rows, []field.Element{
		lo, hi,
		field.FromUint64(uint64(table.BytecodeHeader)),
		field.Zero,
		field.Zero,
		field.FromUint64(uint64(len(b.Code))),
	})

	for i, isCode := range b.IsCode() {
		rows = append(rows, []field.Element{
			lo, hi,
			field.FromUint64(uint64(table.BytecodeByte)),
			field.FromUint64(uint64(i)),
			field.FromBool(isCode),
			field.FromUint64(uint64(b.Code[i])),
		})
	}

	return rows
}

// HashWord returns h as a 256-bit word
func HashWord(h types.Hash) uint256.Int {
	var w uint256.Int
	w.SetBytes32(h[:])

	return w
}

// AddressWord returns a as a 256-bit word
func AddressWord(a types.Address) uint256.Int {
	var w uint256.Int
	w.SetBytes20(a[:])

	return w
}

// TxRows returns the tx table rows of every transaction
func (b *Block) TxRows() [][]field.Element {
	var rows [][]field.Element

	for _, tx := range b.Txs {
		id := field.FromUint64(tx.ID)

		caller := AddressWord(tx.Caller)
		callee := AddressWord(tx.Callee)

		for _, f := range []struct {
			tag   table.TxFieldTag
			value field.Element
		}{
			{table.TxNonce, field.FromUint64(tx.Nonce)},
			{table.TxGas, field.FromUint64(tx.Gas)},
			{table.TxGasPrice, field.FromUint256(&tx.GasPrice)},
			{table.TxCallerAddress, field.FromUint256(&caller)},
			{table.TxCalleeAddress, field.FromUint256(&callee)},
			{table.TxIsCreate, field.FromBool(tx.IsCreate)},
			{table.TxValue, field.FromUint256(&tx.Value)},
			{table.TxCallDataLength, field.FromUint64(uint64(len(tx.CallData)))},
		} {
			rows = append(rows, []field.Element{id, field.FromUint64(uint64(f.tag)), field.Zero, f.value})
		}

		for i, v := range tx.CallData {
			rows = append(rows, []field.Element{
				id,
				field.FromUint64(uint64(table.TxCallData)),
				field.FromUint64(uint64(i)),
				field.FromUint64(uint64(v)),
			})
		}
	}

	return rows
}

// BlockRows returns the block table rows: the context fields at index 0 and
// one hash row per known previous block
func (b *Block) BlockRows() [][]field.Element {
	ctx := &b.Context
	coinbase := AddressWord(ctx.Coinbase)

	var timestamp, number, gasLimit, chainID uint256.Int

	timestamp.SetUint64(ctx.Timestamp)
	number.SetUint64(ctx.Number)
	gasLimit.SetUint64(ctx.GasLimit)
	chainID.SetUint64(ctx.ChainID)

	row := func(tag table.BlockContextFieldTag, index uint64, value *uint256.Int) []field.Element {
		lo, hi := field.WordLoHi(value)

		return []field.Element{field.FromUint64(uint64(tag)), field.FromUint64(index), lo, hi}
	}

	rows := [][]field.Element{
		row(table.BlockCoinbase, 0, &coinbase),
		row(table.BlockTimestamp, 0, &timestamp),
		row(table.BlockNumber, 0, &number),
		row(table.BlockDifficulty, 0, &ctx.Difficulty),
		row(table.BlockGasLimit, 0, &gasLimit),
		row(table.BlockBaseFee, 0, &ctx.BaseFee),
		row(table.BlockChainID, 0, &chainID),
	}

	numbers := maps.Keys(ctx.History)
	slices.Sort(numbers)

	for _, n := range numbers {
		hash := HashWord(ctx.History[n])
		rows = append(rows, row(table.BlockHash, n, &hash))
	}

	return rows
}

// BytecodeRows returns the rows of every bytecode, ordered by hash
func (b *Block) BytecodeRows() [][]field.Element {
	hashes := maps.Keys(b.Bytecodes)
	slices.SortFunc(hashes, func(a, b types.Hash) int {
		for i := range a {
			if a[i] != b[i] {
				return int(a[i]) - int(b[i])
			}
		}

		return 0
	})

	var rows [][]field.Element
	for _, h := range hashes {
		rows = append(rows, b.Bytecodes[h].TableRows()...)
	}

	return rows
}

// RwRows returns the rows of the given events ordered by rw counter
func RwRows(rws []Rw) [][]field.Element {
	rows := make([][]field.Element, len(rws))
	for i := range rws {
		rows[i] = rws[i].TableRow()
	}

	return rows
}

// CopyRows returns one row per copy event of steps
func CopyRows(steps []*ExecStep) [][]field.Element {
	var rows [][]field.Element

	for _, s := range steps {
		if s.CopyEvent != nil {
			rows = append(rows, s.CopyEvent.TableRow())
		}
	}

	return rows
}

// ExpRows returns one row per exponentiation of steps
func ExpRows(steps []*ExecStep) [][]field.Element {
	var rows [][]field.Element

	for _, s := range steps {
		if s.ExpEvent != nil {
			rows = append(rows, s.ExpEvent.TableRow())
		}
	}

	return rows
}

// SigRows returns one row per signature recovery of steps
func SigRows(steps []*ExecStep) [][]field.Element {
	var rows [][]field.Element

	for _, s := range steps {
		if s.SigEvent != nil {
			rows = append(rows, s.SigEvent.TableRow())
		}
	}

	return rows
}

// KeccakRows returns the keccak table rows of the block. Inputs are folded
// with the keccak input challenge.
func (b *Block) KeccakRows(challenges challenge.Values) [][]field.Element {
	rows := make([][]field.Element, len(b.KeccakInputs))

	for i, input := range b.KeccakInputs {
		hash := HashWord(types.BytesToHash(keccak.Keccak256(nil, input)))
		lo, hi := field.WordLoHi(&hash)

		rows[i] = []field.Element{
			field.RLCBytes(input, challenges.KeccakInput),
			field.FromUint64(uint64(len(input))),
			lo, hi,
		}
	}

	return rows
}

// FixedTableRows returns the all-zero row followed by the opcodes each
// execution state is responsible for
func FixedTableRows() [][]field.Element {
	rows := [][]field.Element{{field.Zero, field.Zero, field.Zero, field.Zero}}

	for _, state := range step.AllExecutionStates() {
		for _, op := range state.ResponsibleOpcodes() {
			rows = append(rows, []field.Element{
				field.FromUint64(uint64(table.FixedResponsibleOpcode)),
				field.FromUint64(uint64(state)),
				field.FromUint64(uint64(op)),
				field.Zero,
			})
		}
	}

	return rows
}
