package cell

import (
	"math/big"

	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
	"github.com/holiman/uint256"
)

// Word is a 256-bit value held in two cells of 128 bits each
type Word struct {
	Lo, Hi *Cell
}

// QueryWord allocates the two cells of a word
func (m *Manager) QueryWord(t Type) Word {
	return Word{Lo: m.QueryCell(t), Hi: m.QueryCell(t)}
}

// Exprs returns the lo and hi expressions
func (w Word) Exprs() (plonk.Expression, plonk.Expression) {
	return w.Lo.Expr(), w.Hi.Expr()
}

// FieldExpr recombines the word into one field element. Only meaningful for
// values below the field modulus, such as addresses.
func (w Word) FieldExpr() plonk.Expression {
	return plonk.Add(w.Lo.Expr(), plonk.Mul(w.Hi.Expr(), plonk.ConstElement(twoPow128)))
}

// Assign writes both halves of value
func (w Word) Assign(region *CachedRegion, offset int, value *uint256.Int) error {
	lo, hi := field.WordLoHi(value)

	if err := w.Lo.Assign(region, offset, lo); err != nil {
		return err
	}

	return w.Hi.Assign(region, offset, hi)
}

var twoPow128 = field.FromBig(new(big.Int).Lsh(big.NewInt(1), 128))
