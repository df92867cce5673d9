package witness

import "github.com/0xPolygon/evm-circuit/evmcircuit/step"

// Gas tiers of the constant part of the opcode cost
const (
	GasZero        uint64 = 0
	GasJumpDest    uint64 = 1
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20

	GasWarmAccess uint64 = 100
	GasSha3       uint64 = 30
	GasLog        uint64 = 375
	GasSelfDestr  uint64 = 5000

	GasEcrecover    uint64 = 3000
	GasIdentityBase uint64 = 15
)

// constantGas is the static cost of op. Memory expansion and the other
// dynamic costs are not charged by the builder.
func constantGas(op step.OpCode) uint64 {
	switch {
	case op.IsPush() && op != step.PUSH0,
		op >= step.DUP1 && op <= step.DUP16,
		op >= step.SWAP1 && op <= step.SWAP16:
		return GasFastestStep
	case op >= step.LOG0 && op <= step.LOG4:
		return GasLog * uint64(op-step.LOG0+1)
	}

	switch op {
	case step.STOP, step.RETURN, step.REVERT:
		return GasZero
	case step.JUMPDEST:
		return GasJumpDest
	case step.ADDRESS, step.ORIGIN, step.CALLER, step.CALLVALUE, step.CALLDATASIZE,
		step.CODESIZE, step.GASPRICE, step.RETURNDATASIZE, step.COINBASE, step.TIMESTAMP,
		step.NUMBER, step.DIFFICULTY, step.GASLIMIT, step.CHAINID, step.BASEFEE,
		step.POP, step.PC, step.MSIZE, step.GAS, step.PUSH0:
		return GasQuickStep
	case step.ADD, step.SUB, step.LT, step.GT, step.SLT, step.SGT, step.EQ, step.ISZERO,
		step.AND, step.OR, step.XOR, step.NOT, step.BYTE, step.SHL, step.SHR, step.SAR,
		step.CALLDATALOAD, step.MLOAD, step.MSTORE, step.MSTORE8,
		step.CALLDATACOPY, step.CODECOPY, step.RETURNDATACOPY:
		return GasFastestStep
	case step.MUL, step.DIV, step.SDIV, step.MOD, step.SMOD, step.SIGNEXTEND, step.SELFBALANCE:
		return GasFastStep
	case step.ADDMOD, step.MULMOD, step.JUMP:
		return GasMidStep
	case step.JUMPI, step.EXP:
		return GasSlowStep
	case step.BLOCKHASH:
		return GasExtStep
	case step.SHA3:
		return GasSha3
	case step.BALANCE, step.EXTCODESIZE, step.EXTCODECOPY, step.EXTCODEHASH,
		step.SLOAD, step.SSTORE, step.TLOAD, step.TSTORE,
		step.CALL, step.CALLCODE, step.DELEGATECALL, step.STATICCALL:
		return GasWarmAccess
	case step.SELFDESTRUCT:
		return GasSelfDestr
	case step.CREATE, step.CREATE2:
		return 32000
	}

	return GasZero
}
