package step

import (
	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// DynamicSelectorHalf encodes a one-hot choice among count targets with
// ceil(count/2) pair cells and one parity cell. Target t is selected when
// pair t/2 is set and the parity cell equals t mod 2.
type DynamicSelectorHalf struct {
	count       int
	targetPairs []*cell.Cell
	targetOdd   *cell.Cell
}

func NewDynamicSelectorHalf(m *cell.Manager, count int) *DynamicSelectorHalf {
	return &DynamicSelectorHalf{
		count:       count,
		targetPairs: m.QueryCells(cell.Phase1, (count+1)/2),
		targetOdd:   m.QueryCell(cell.Phase1),
	}
}

// Constraints returns the well formedness constraints of the encoding
func (d *DynamicSelectorHalf) Constraints() []plonk.Constraint {
	constraints := make([]plonk.Constraint, 0, len(d.targetPairs)+3)

	pairs := make([]plonk.Expression, len(d.targetPairs))
	for i, pair := range d.targetPairs {
		pairs[i] = pair.Expr()
		constraints = append(constraints, plonk.Constraint{
			Name: "target pair is boolean",
			Poly: plonk.Mul(pair.Expr(), plonk.Not(pair.Expr())),
		})
	}

	constraints = append(constraints,
		plonk.Constraint{
			Name: "target odd is boolean",
			Poly: plonk.Mul(d.targetOdd.Expr(), plonk.Not(d.targetOdd.Expr())),
		},
		plonk.Constraint{
			Name: "exactly one target pair is selected",
			Poly: plonk.Sub(plonk.Sum(pairs...), plonk.One()),
		},
	)

	if d.count%2 == 1 {
		constraints = append(constraints, plonk.Constraint{
			Name: "odd target of the last pair is out of range",
			Poly: plonk.Mul(d.targetPairs[len(d.targetPairs)-1].Expr(), d.targetOdd.Expr()),
		})
	}

	return constraints
}

// Selector returns an expression equal to 1 when one of targets is selected
func (d *DynamicSelectorHalf) Selector(targets ...int) plonk.Expression {
	terms := make([]plonk.Expression, 0, len(targets))

	for _, target := range targets {
		parity := plonk.Not(d.targetOdd.Expr())
		if target%2 == 1 {
			parity = d.targetOdd.Expr()
		}

		terms = append(terms, plonk.Mul(d.targetPairs[target/2].Expr(), parity))
	}

	return plonk.Sum(terms...)
}

// Assign selects target
func (d *DynamicSelectorHalf) Assign(region *cell.CachedRegion, offset, target int) error {
	for i, pair := range d.targetPairs {
		if err := pair.AssignBool(region, offset, i == target/2); err != nil {
			return err
		}
	}

	return d.targetOdd.AssignBool(region, offset, target%2 == 1)
}
