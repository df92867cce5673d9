package step

import "fmt"

// ExecutionState is the kind of an execution step. Every state is handled by
// exactly one gadget of the execution circuit.
type ExecutionState int

const (
	// Internal states
	BeginTx ExecutionState = iota
	EndTx
	Padding
	EndBlock
	BeginChunk
	EndChunk
	InvalidTx

	// Opcode successful cases
	StateSTOP
	StateADD_SUB
	StateMUL_DIV_MOD
	StateSDIV_SMOD
	StateSHL_SHR
	StateADDMOD
	StateMULMOD
	StateEXP
	StateSIGNEXTEND
	StateCMP
	StateSCMP
	StateISZERO
	StateBITWISE
	StateNOT
	StateBYTE
	StateSAR
	StateSHA3
	StateADDRESS
	StateBALANCE
	StateORIGIN
	StateCALLER
	StateCALLVALUE
	StateCALLDATALOAD
	StateCALLDATASIZE
	StateCALLDATACOPY
	StateCODESIZE
	StateCODECOPY
	StateGASPRICE
	StateEXTCODESIZE
	StateEXTCODECOPY
	StateRETURNDATASIZE
	StateRETURNDATACOPY
	StateEXTCODEHASH
	StateBLOCKHASH
	StateBLOCKCTX
	StateCHAINID
	StateSELFBALANCE
	StatePOP
	StateMEMORY
	StateSLOAD
	StateSSTORE
	StateJUMP
	StateJUMPI
	StatePC
	StateMSIZE
	StateGAS
	StateJUMPDEST
	StatePUSH
	StateDUP
	StateSWAP
	StateLOG
	StateCREATE
	StateCALL_OP
	StateRETURN_REVERT
	StateCREATE2
	StateSELFDESTRUCT
	StateTLOAD
	StateTSTORE

	// Error cases
	ErrorInvalidOpcode
	ErrorStack
	ErrorWriteProtection
	ErrorInvalidCreationCode
	ErrorInvalidJump
	ErrorReturnDataOutOfBound
	ErrorPrecompileFailed
	ErrorOutOfGasConstant
	ErrorOutOfGasStaticMemoryExpansion
	ErrorOutOfGasDynamicMemoryExpansion
	ErrorOutOfGasMemoryCopy
	ErrorOutOfGasAccountAccess
	ErrorCodeStore
	ErrorOutOfGasLOG
	ErrorOutOfGasEXP
	ErrorOutOfGasSHA3
	ErrorOutOfGasEXTCODECOPY
	ErrorOutOfGasCall
	ErrorOutOfGasPrecompile
	ErrorOutOfGasSloadSstore
	ErrorOutOfGasCREATE
	ErrorOutOfGasSELFDESTRUCT
	ErrorDepth
	ErrorContractAddressCollision

	// Precompiles
	PrecompileEcrecover
	PrecompileIdentity

	numExecutionStates
)

// NumExecutionStates is the number of declared execution states
const NumExecutionStates = int(numExecutionStates)

var executionStateNames = [NumExecutionStates]string{
	"BeginTx", "EndTx", "Padding", "EndBlock", "BeginChunk", "EndChunk", "InvalidTx",
	"STOP", "ADD_SUB", "MUL_DIV_MOD", "SDIV_SMOD", "SHL_SHR", "ADDMOD", "MULMOD", "EXP", "SIGNEXTEND",
	"CMP", "SCMP", "ISZERO", "BITWISE", "NOT", "BYTE", "SAR", "SHA3", "ADDRESS", "BALANCE", "ORIGIN",
	"CALLER", "CALLVALUE", "CALLDATALOAD", "CALLDATASIZE", "CALLDATACOPY", "CODESIZE", "CODECOPY",
	"GASPRICE", "EXTCODESIZE", "EXTCODECOPY", "RETURNDATASIZE", "RETURNDATACOPY", "EXTCODEHASH",
	"BLOCKHASH", "BLOCKCTX", "CHAINID", "SELFBALANCE", "POP", "MEMORY", "SLOAD", "SSTORE", "JUMP",
	"JUMPI", "PC", "MSIZE", "GAS", "JUMPDEST", "PUSH", "DUP", "SWAP", "LOG", "CREATE", "CALL_OP",
	"RETURN_REVERT", "CREATE2", "SELFDESTRUCT", "TLOAD", "TSTORE",
	"ErrorInvalidOpcode", "ErrorStack", "ErrorWriteProtection", "ErrorInvalidCreationCode",
	"ErrorInvalidJump", "ErrorReturnDataOutOfBound", "ErrorPrecompileFailed", "ErrorOutOfGasConstant",
	"ErrorOutOfGasStaticMemoryExpansion", "ErrorOutOfGasDynamicMemoryExpansion", "ErrorOutOfGasMemoryCopy",
	"ErrorOutOfGasAccountAccess", "ErrorCodeStore", "ErrorOutOfGasLOG", "ErrorOutOfGasEXP",
	"ErrorOutOfGasSHA3", "ErrorOutOfGasEXTCODECOPY", "ErrorOutOfGasCall", "ErrorOutOfGasPrecompile",
	"ErrorOutOfGasSloadSstore", "ErrorOutOfGasCREATE", "ErrorOutOfGasSELFDESTRUCT", "ErrorDepth",
	"ErrorContractAddressCollision",
	"PrecompileEcrecover", "PrecompileIdentity",
}

func (s ExecutionState) String() string {
	if s < 0 || int(s) >= NumExecutionStates {
		panic(fmt.Sprintf("BUG: execution state not found: %d", int(s)))
	}

	return executionStateNames[s]
}

// AllExecutionStates lists every state in index order
func AllExecutionStates() []ExecutionState {
	states := make([]ExecutionState, NumExecutionStates)
	for i := range states {
		states[i] = ExecutionState(i)
	}

	return states
}

// ParseExecutionState resolves a state by its name
func ParseExecutionState(name string) (ExecutionState, bool) {
	for i, n := range executionStateNames {
		if n == name {
			return ExecutionState(i), true
		}
	}

	return 0, false
}

// IsInternal reports whether the state is not the execution of an opcode
func (s ExecutionState) IsInternal() bool {
	return s <= InvalidTx
}

// IsError reports whether the state is an exceptional halt
func (s ExecutionState) IsError() bool {
	return s >= ErrorInvalidOpcode && s <= ErrorContractAddressCollision
}

// IsPrecompile reports whether the state executes a precompiled contract
func (s ExecutionState) IsPrecompile() bool {
	return s >= PrecompileEcrecover && s <= PrecompileIdentity
}

// Halts reports whether the state ends the current call
func (s ExecutionState) Halts() bool {
	switch s {
	case StateSTOP, StateRETURN_REVERT, StateSELFDESTRUCT:
		return true
	}

	return s.IsError() || s.IsPrecompile()
}

// HaltingStates returns every state for which Halts is true
func HaltingStates() []ExecutionState {
	var states []ExecutionState

	for _, s := range AllExecutionStates() {
		if s.Halts() {
			states = append(states, s)
		}
	}

	return states
}

// ResponsibleOpcodes returns the opcodes executed by the state
func (s ExecutionState) ResponsibleOpcodes() []OpCode {
	switch s {
	case StateSTOP:
		return []OpCode{STOP}
	case StateADD_SUB:
		return []OpCode{ADD, SUB}
	case StateMUL_DIV_MOD:
		return []OpCode{MUL, DIV, MOD}
	case StateSDIV_SMOD:
		return []OpCode{SDIV, SMOD}
	case StateSHL_SHR:
		return []OpCode{SHL, SHR}
	case StateADDMOD:
		return []OpCode{ADDMOD}
	case StateMULMOD:
		return []OpCode{MULMOD}
	case StateEXP:
		return []OpCode{EXP}
	case StateSIGNEXTEND:
		return []OpCode{SIGNEXTEND}
	case StateCMP:
		return []OpCode{LT, GT, EQ}
	case StateSCMP:
		return []OpCode{SLT, SGT}
	case StateISZERO:
		return []OpCode{ISZERO}
	case StateBITWISE:
		return []OpCode{AND, OR, XOR}
	case StateNOT:
		return []OpCode{NOT}
	case StateBYTE:
		return []OpCode{BYTE}
	case StateSAR:
		return []OpCode{SAR}
	case StateSHA3:
		return []OpCode{SHA3}
	case StateADDRESS:
		return []OpCode{ADDRESS}
	case StateBALANCE:
		return []OpCode{BALANCE}
	case StateORIGIN:
		return []OpCode{ORIGIN}
	case StateCALLER:
		return []OpCode{CALLER}
	case StateCALLVALUE:
		return []OpCode{CALLVALUE}
	case StateCALLDATALOAD:
		return []OpCode{CALLDATALOAD}
	case StateCALLDATASIZE:
		return []OpCode{CALLDATASIZE}
	case StateCALLDATACOPY:
		return []OpCode{CALLDATACOPY}
	case StateCODESIZE:
		return []OpCode{CODESIZE}
	case StateCODECOPY:
		return []OpCode{CODECOPY}
	case StateGASPRICE:
		return []OpCode{GASPRICE}
	case StateEXTCODESIZE:
		return []OpCode{EXTCODESIZE}
	case StateEXTCODECOPY:
		return []OpCode{EXTCODECOPY}
	case StateRETURNDATASIZE:
		return []OpCode{RETURNDATASIZE}
	case StateRETURNDATACOPY:
		return []OpCode{RETURNDATACOPY}
	case StateEXTCODEHASH:
		return []OpCode{EXTCODEHASH}
	case StateBLOCKHASH:
		return []OpCode{BLOCKHASH}
	case StateBLOCKCTX:
		return []OpCode{COINBASE, TIMESTAMP, NUMBER, DIFFICULTY, GASLIMIT, BASEFEE}
	case StateCHAINID:
		return []OpCode{CHAINID}
	case StateSELFBALANCE:
		return []OpCode{SELFBALANCE}
	case StatePOP:
		return []OpCode{POP}
	case StateMEMORY:
		return []OpCode{MLOAD, MSTORE, MSTORE8}
	case StateSLOAD:
		return []OpCode{SLOAD}
	case StateSSTORE:
		return []OpCode{SSTORE}
	case StateJUMP:
		return []OpCode{JUMP}
	case StateJUMPI:
		return []OpCode{JUMPI}
	case StatePC:
		return []OpCode{PC}
	case StateMSIZE:
		return []OpCode{MSIZE}
	case StateGAS:
		return []OpCode{GAS}
	case StateJUMPDEST:
		return []OpCode{JUMPDEST}
	case StatePUSH:
		return opRange(PUSH0, PUSH32)
	case StateDUP:
		return opRange(DUP1, DUP16)
	case StateSWAP:
		return opRange(SWAP1, SWAP16)
	case StateLOG:
		return opRange(LOG0, LOG4)
	case StateCREATE:
		return []OpCode{CREATE}
	case StateCALL_OP:
		return []OpCode{CALL, CALLCODE, DELEGATECALL, STATICCALL}
	case StateRETURN_REVERT:
		return []OpCode{RETURN, REVERT}
	case StateCREATE2:
		return []OpCode{CREATE2}
	case StateSELFDESTRUCT:
		return []OpCode{SELFDESTRUCT}
	case StateTLOAD:
		return []OpCode{TLOAD}
	case StateTSTORE:
		return []OpCode{TSTORE}
	default:
		return nil
	}
}

// StateForOpcode returns the successful execution state of op
func StateForOpcode(op OpCode) (ExecutionState, bool) {
	s, ok := opcodeStates[op]

	return s, ok
}

var opcodeStates = func() map[OpCode]ExecutionState {
	m := make(map[OpCode]ExecutionState)

	for _, s := range AllExecutionStates() {
		for _, op := range s.ResponsibleOpcodes() {
			m[op] = s
		}
	}

	return m
}()

func (s ExecutionState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= NumExecutionStates {
		return nil, fmt.Errorf("unknown execution state %d", int(s))
	}

	return []byte(s.String()), nil
}

func (s *ExecutionState) UnmarshalText(input []byte) error {
	state, ok := ParseExecutionState(string(input))
	if !ok {
		return fmt.Errorf("unknown execution state %q", string(input))
	}

	*s = state

	return nil
}
