package witness

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/types"
)

// Account is the pre-state of an account
type Account struct {
	Balance uint256.Int               `json:"balance"`
	Code    types.HexBytes            `json:"code"`
	Storage map[types.Hash]types.Hash `json:"storage"`
}

// TxSpec describes a transaction to execute
type TxSpec struct {
	Caller   types.Address  `json:"caller"`
	Callee   types.Address  `json:"callee"`
	Nonce    uint64         `json:"nonce"`
	Gas      uint64         `json:"gas"`
	GasPrice uint256.Int    `json:"gasPrice"`
	Value    uint256.Int    `json:"value"`
	CallData types.HexBytes `json:"callData"`

	// Invalid transactions are rejected before execution
	Invalid bool `json:"invalid"`
}

// BlockBuilder executes transactions over a set of accounts and records the
// witness of the resulting block
type BlockBuilder struct {
	logger   hclog.Logger
	ctx      BlockContext
	accounts map[types.Address]*Account
	txs      []TxSpec
}

// NewBlockBuilder creates a builder for a block with the given context
func NewBlockBuilder(ctx BlockContext, logger hclog.Logger) *BlockBuilder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &BlockBuilder{
		logger:   logger.Named("builder"),
		ctx:      ctx,
		accounts: make(map[types.Address]*Account),
	}
}

// SetAccount sets the pre-state of addr
func (b *BlockBuilder) SetAccount(addr types.Address, acc Account) *BlockBuilder {
	b.accounts[addr] = &acc

	return b
}

// AddTx appends a transaction to the block
func (b *BlockBuilder) AddTx(tx TxSpec) *BlockBuilder {
	b.txs = append(b.txs, tx)

	return b
}

// Build executes every transaction in order. The pre-state is left
// untouched, so Build may be called again.
func (b *BlockBuilder) Build() (*Block, error) {
	block := &Block{
		Context:   b.ctx,
		Rws:       make(RwMap),
		Bytecodes: make(map[types.Hash]*Bytecode),
	}

	block.Context.History = maps.Clone(b.ctx.History)
	if block.Context.History == nil {
		block.Context.History = make(map[uint64]types.Hash)
	}

	storage := make(storageSlots)

	for addr, acc := range b.accounts {
		if len(acc.Code) > 0 {
			bc := NewBytecode(acc.Code)
			block.Bytecodes[bc.Hash] = bc
		}

		for k, v := range acc.Storage {
			storage.set(addr, HashWord(k), HashWord(v))
		}
	}

	rec := &recorder{rws: block.Rws, rwc: 1}

	for i, spec := range b.txs {
		tx := &Transaction{
			ID:       uint64(i + 1),
			Nonce:    spec.Nonce,
			Gas:      spec.Gas,
			GasPrice: spec.GasPrice,
			Caller:   spec.Caller,
			Callee:   spec.Callee,
			Value:    spec.Value,
			CallData: spec.CallData,
			Invalid:  spec.Invalid,
		}
		block.Txs = append(block.Txs, tx)

		if spec.Invalid {
			b.invalidTx(rec, tx)

			continue
		}

		if err := b.executeTx(rec, block, tx, storage); err != nil {
			return nil, fmt.Errorf("tx %d: %w", tx.ID, err)
		}
	}

	block.EndRwCounter = rec.rwc

	b.logger.Debug("block built",
		"txs", len(block.Txs),
		"rws", block.Rws.Len(),
		"end_rwc", block.EndRwCounter,
	)

	return block, nil
}

func (b *BlockBuilder) invalidTx(rec *recorder, tx *Transaction) {
	tx.Calls = []*Call{{
		ID:            rec.rwc,
		IsRoot:        true,
		CallerAddress: tx.Caller,
		Address:       tx.Callee,
	}}

	s := &ExecStep{
		ExecutionState: step.InvalidTx,
		RwCounter:      rec.rwc,
		StackPointer:   stackLimit,
		GasLeft:        tx.Gas,
	}
	tx.Steps = append(tx.Steps, s)

	rec.push(s, Rw{
		IsWrite:  true,
		Tag:      table.RwTxReceipt,
		ID:       tx.ID,
		FieldTag: uint64(table.TxReceiptPostStateOrStatus),
	})
}

func (b *BlockBuilder) executeTx(rec *recorder, block *Block, tx *Transaction, storage storageSlots) error {
	callee := b.accounts[tx.Callee]

	var code []byte
	if callee != nil {
		code = callee.Code
	}

	call := &Call{
		ID:            rec.rwc,
		IsRoot:        true,
		CodeHash:      codeHash(callee),
		CallerAddress: tx.Caller,
		Address:       tx.Callee,
	}
	tx.Calls = []*Call{call}

	begin := &ExecStep{
		ExecutionState: step.BeginTx,
		RwCounter:      rec.rwc,
		StackPointer:   stackLimit,
		GasLeft:        tx.Gas,
	}
	tx.Steps = append(tx.Steps, begin)

	var txID uint256.Int
	txID.SetUint64(tx.ID)

	for _, w := range []struct {
		tag   table.CallContextFieldTag
		value uint256.Int
	}{
		{table.CallContextTxID, txID},
		{table.CallContextCallerAddress, AddressWord(tx.Caller)},
		{table.CallContextCalleeAddress, AddressWord(tx.Callee)},
	} {
		rec.push(begin, Rw{IsWrite: true, Tag: table.RwCallContext, ID: call.ID, FieldTag: uint64(w.tag), Value: w.value})
	}

	c := &state{
		logger:    b.logger,
		rec:       rec,
		block:     block,
		tx:        tx,
		call:      call,
		storage:   storage,
		transient: make(storageSlots),
		accounts:  b.accounts,
		code:      code,
		isCode:    (&Bytecode{Code: code}).IsCode(),
		gas:       tx.Gas,
	}

	if len(code) == 0 {
		call.IsSuccess = true
		call.IsPersistent = true
		call.RwCounterEndOfReversion = rec.rwc - 1
		c.success = true
	} else if err := c.Run(); err != nil {
		return err
	}

	end := &ExecStep{
		ExecutionState:         step.EndTx,
		RwCounter:              rec.rwc,
		ProgramCounter:         c.ip,
		StackPointer:           c.stackPointer(),
		GasLeft:                c.gas,
		MemoryWordSize:         uint64(len(c.memory)) / 32,
		ReversibleWriteCounter: c.revCounter,
		LogID:                  c.logID,
	}
	tx.Steps = append(tx.Steps, end)

	var status uint256.Int
	if c.success {
		status.SetOne()
	}

	rec.push(end, Rw{Tag: table.RwCallContext, ID: call.ID, FieldTag: uint64(table.CallContextTxID), Value: txID})
	rec.push(end, Rw{
		IsWrite:  true,
		Tag:      table.RwTxReceipt,
		ID:       tx.ID,
		FieldTag: uint64(table.TxReceiptPostStateOrStatus),
		Value:    status,
	})

	return nil
}
