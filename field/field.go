// Package field holds the scalar field helpers shared by the constraint
// system and the execution layer.
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

// Element is a bn254 scalar field element
type Element = fr.Element

var (
	// Zero is the additive identity
	Zero = Element{}

	// One is the multiplicative identity
	One = FromUint64(1)
)

// FromUint64 returns v as a field element
func FromUint64(v uint64) Element {
	var e Element
	e.SetUint64(v)

	return e
}

// FromBool returns 1 for true and 0 for false
func FromBool(b bool) Element {
	if b {
		return One
	}

	return Zero
}

// FromBig reduces v modulo the field order
func FromBig(v *big.Int) Element {
	var e Element
	e.SetBigInt(v)

	return e
}

// FromBytes interprets b as a big-endian integer reduced modulo the field order
func FromBytes(b []byte) Element {
	var e Element
	e.SetBytes(b)

	return e
}

// InvertOrZero returns v^-1, or 0 when v is 0
func InvertOrZero(v Element) Element {
	var inv Element
	if v.IsZero() {
		return inv
	}

	inv.Inverse(&v)

	return inv
}

// IsZero reports whether v is the zero element
func IsZero(v Element) bool {
	return v.IsZero()
}

// Add returns a + b
func Add(a, b Element) Element {
	var r Element
	r.Add(&a, &b)

	return r
}

// Sub returns a - b
func Sub(a, b Element) Element {
	var r Element
	r.Sub(&a, &b)

	return r
}

// Mul returns a * b
func Mul(a, b Element) Element {
	var r Element
	r.Mul(&a, &b)

	return r
}

// Neg returns -a
func Neg(a Element) Element {
	var r Element
	r.Neg(&a)

	return r
}

// RLC folds values with the randomness r: values[0] + values[1]*r + values[2]*r^2 ...
func RLC(values []Element, r Element) Element {
	var acc Element

	for i := len(values) - 1; i >= 0; i-- {
		acc.Mul(&acc, &r)
		acc.Add(&acc, &values[i])
	}

	return acc
}

// RLCBytes folds bytes big-endian style: b[0]*r^(n-1) + ... + b[n-1]
func RLCBytes(b []byte, r Element) Element {
	var acc Element

	for _, v := range b {
		byteVal := FromUint64(uint64(v))

		acc.Mul(&acc, &r)
		acc.Add(&acc, &byteVal)
	}

	return acc
}

// WordLoHi splits a 256-bit word into its low and high 128-bit halves
func WordLoHi(w *uint256.Int) (Element, Element) {
	var lo, hi Element

	lo.SetUint64(w[1])
	lo.Mul(&lo, &twoPow64)
	lo.Add(&lo, new(Element).SetUint64(w[0]))

	hi.SetUint64(w[3])
	hi.Mul(&hi, &twoPow64)
	hi.Add(&hi, new(Element).SetUint64(w[2]))

	return lo, hi
}

var twoPow64 = func() Element {
	var e Element
	e.SetBigInt(new(big.Int).Lsh(big.NewInt(1), 64))

	return e
}()

// Uint64 returns the element as uint64, and false if it does not fit
func Uint64(e Element) (uint64, bool) {
	if !e.IsUint64() {
		return 0, false
	}

	return e.Uint64(), true
}

// FromUint256 reduces w modulo the field order
func FromUint256(w *uint256.Int) Element {
	return FromBig(w.ToBig())
}
