package witness

import (
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/types"
)

var (
	demoCaller   = types.StringToAddress("0x00000000000000000000000000000000000000c0")
	demoStorage  = types.StringToAddress("0x00000000000000000000000000000000000000a1")
	demoReverter = types.StringToAddress("0x00000000000000000000000000000000000000a2")
)

func ops(code ...interface{}) types.HexBytes {
	var out []byte

	for _, c := range code {
		switch v := c.(type) {
		case step.OpCode:
			out = append(out, byte(v))
		case int:
			out = append(out, byte(v))
		}
	}

	return out
}

// DemoBlockSpec is a small block touching the stack, storage, memory, the
// keccak table and the block context, followed by a reverted write
func DemoBlockSpec() *BlockSpec {
	return &BlockSpec{
		Context: BlockContext{
			Coinbase:  demoCaller,
			Timestamp: 1700000000,
			Number:    42,
			GasLimit:  30000000,
			ChainID:   1,
		},
		Accounts: map[types.Address]Account{
			demoStorage: {Code: ops(
				step.PUSH1, 0x2a,
				step.PUSH1, 0x01,
				step.SSTORE,
				step.PUSH1, 0x01,
				step.SLOAD,
				step.PUSH1, 0x00,
				step.MSTORE,
				step.PUSH1, 0x20,
				step.PUSH1, 0x00,
				step.SHA3,
				step.POP,
				step.CALLER,
				step.NUMBER,
				step.ADD,
				step.POP,
				step.STOP,
			)},
			demoReverter: {Code: ops(
				step.PUSH1, 0x07,
				step.PUSH1, 0x02,
				step.SSTORE,
				step.PUSH1, 0x00,
				step.PUSH1, 0x00,
				step.REVERT,
			)},
		},
		Txs: []TxSpec{
			{Caller: demoCaller, Callee: demoStorage, Gas: 100000},
			{Caller: demoCaller, Callee: demoReverter, Nonce: 1, Gas: 100000},
			{Caller: demoCaller, Callee: demoStorage, Nonce: 2, Gas: 100000},
		},
	}
}
