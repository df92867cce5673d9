package execution

import (
	"fmt"

	"github.com/0xPolygon/evm-circuit/evmcircuit/constraint"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// configureLookups binds every lookup cell column of the step to its table.
// Gadgets store their lookup inputs already folded with the lookup input
// challenge, so the table side is folded the same way.
func (c *Config) configureLookups(cs *plonk.ConstraintSystem) {
	r := c.challenges.LookupInputExpr()
	qUsable := c.qUsable.Cur()

	for _, col := range c.step.CellManager.Columns() {
		t, ok := col.Type.LookupTable()
		if !ok {
			continue
		}

		cs.LookupAny(
			fmt.Sprintf("%s lookup #%d", t, col.Index),
			plonk.Mul(qUsable, col.Column.Cur()),
			constraint.RLC(c.tables.Get(t).TableExprs(), r),
		)
	}
}
