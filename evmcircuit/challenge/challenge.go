// Package challenge holds the verifier challenges shared by the EVM circuit
package challenge

import (
	"math/big"

	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// Challenges are the challenge identifiers allocated in the constraint system
type Challenges struct {
	EvmWord     plonk.Challenge
	KeccakInput plonk.Challenge
	LookupInput plonk.Challenge
}

// Configure allocates the challenges, all drawn after the first phase. They
// are allocated in field order, so their indices are 0, 1 and 2.
func Configure(cs *plonk.ConstraintSystem) Challenges {
	return Challenges{
		EvmWord:     cs.Challenge(plonk.FirstPhase),
		KeccakInput: cs.Challenge(plonk.FirstPhase),
		LookupInput: cs.Challenge(plonk.FirstPhase),
	}
}

func (c Challenges) EvmWordExpr() plonk.Expression {
	return c.EvmWord.Expr()
}

func (c Challenges) KeccakInputExpr() plonk.Expression {
	return c.KeccakInput.Expr()
}

func (c Challenges) LookupInputExpr() plonk.Expression {
	return c.LookupInput.Expr()
}

// Values are the concrete challenge values used during assignment
type Values struct {
	EvmWord     field.Element
	KeccakInput field.Element
	LookupInput field.Element
}

// Slice orders the values by challenge index, as the mock prover expects
func (v Values) Slice() []field.Element {
	return []field.Element{v.EvmWord, v.KeccakInput, v.LookupInput}
}

// ByIndex returns the value of the challenge with the given index
func (v Values) ByIndex(index int) field.Element {
	switch index {
	case 0:
		return v.EvmWord
	case 1:
		return v.KeccakInput
	default:
		return v.LookupInput
	}
}

// DefaultValues are fixed, arbitrary looking values for testing and tooling
func DefaultValues() Values {
	return Values{
		EvmWord:     mustDecimal("7716148293842213490178823501437916231487312738127590317453276498712399152"),
		KeccakInput: mustDecimal("1827364518273645182736451827364518273645182736451827364518273645"),
		LookupInput: mustDecimal("9182736450918273645091827364509182736450918273645091827364509"),
	}
}

// ParseValues parses three decimal strings into challenge values
func ParseValues(evmWord, keccakInput, lookupInput string) (Values, bool) {
	var (
		values Values
		ok     bool
	)

	if values.EvmWord, ok = decimal(evmWord); !ok {
		return values, false
	}

	if values.KeccakInput, ok = decimal(keccakInput); !ok {
		return values, false
	}

	if values.LookupInput, ok = decimal(lookupInput); !ok {
		return values, false
	}

	return values, true
}

func decimal(s string) (field.Element, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return field.Zero, false
	}

	return field.FromBig(v), true
}

func mustDecimal(s string) field.Element {
	v, ok := decimal(s)
	if !ok {
		panic("BUG: invalid challenge constant " + s)
	}

	return v
}
