// Package param holds the sizing constants of the EVM circuit
package param

import "github.com/0xPolygon/evm-circuit/evmcircuit/table"

const (
	// MaxStepHeight bounds the number of rows a single execution step may occupy
	MaxStepHeight = 6

	// StepStateHeight is the number of rows holding the step state cells
	StepStateHeight = 1

	// NPhase1Columns is the number of first phase storage columns
	NPhase1Columns = 64

	// NPhase2Columns is the number of second phase storage columns
	NPhase2Columns = 2

	// NU8LookupColumns is the number of columns range checked to 8 bits
	NU8LookupColumns = 2

	// NU16LookupColumns is the number of columns range checked to 16 bits
	NU16LookupColumns = 2

	// StackCapacity is the stack pointer of an empty stack
	StackCapacity = 1024
)

// LookupColumns is the number of lookup cell columns reserved per table,
// in layout order
var LookupColumns = []struct {
	Table table.Table
	Count int
}{
	{table.Fixed, 2},
	{table.Tx, 6},
	{table.Rw, 12},
	{table.Bytecode, 1},
	{table.Block, 1},
	{table.Copy, 1},
	{table.Keccak, 1},
	{table.Exp, 1},
	{table.Sig, 1},
	{table.ChunkCtx, 1},
}

// NLookupColumns is the total number of lookup cell columns
func NLookupColumns() int {
	n := 0
	for _, l := range LookupColumns {
		n += l.Count
	}

	return n
}

// StepWidth is the number of advice columns of an execution step
func StepWidth() int {
	return NLookupColumns() + NPhase2Columns + NU8LookupColumns + NU16LookupColumns + NPhase1Columns
}
