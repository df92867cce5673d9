package execution

import (
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// configureAllocator constrains the countdown splitting the region into row
// blocks. A block starts where the countdown is zero and every other row
// counts down towards the start of the next block.
func (c *Config) configureAllocator(cs *plonk.ConstraintSystem) {
	qUsable := c.qUsable.Cur()
	qStep := c.qStep.Cur()
	value := c.numRowsUntil.Cur()
	inverse := c.numRowsInverse.Cur()

	isZero := plonk.Not(plonk.Mul(value, inverse))

	cs.CreateGate("row block allocator", []plonk.Constraint{
		{
			Name: "countdown is zero or has an inverse",
			Poly: plonk.Product(qUsable, value, isZero),
		},
		{
			Name: "inverse is zero or inverts the countdown",
			Poly: plonk.Product(qUsable, inverse, isZero),
		},
		{
			Name: "step starts where the countdown is zero",
			Poly: plonk.Mul(qUsable, plonk.Sub(qStep, isZero)),
		},
		{
			Name: "countdown decreases inside a block",
			Poly: plonk.Product(qUsable, plonk.Not(qStep),
				plonk.Sub(plonk.Sub(value, c.numRowsUntil.Next()), plonk.One())),
		},
		{
			Name: "first block starts a step",
			Poly: plonk.Product(qUsable, c.qStepFirst.Cur(), plonk.Sub(qStep, plonk.One())),
		},
		{
			Name: "last block starts a step",
			Poly: plonk.Product(qUsable, c.qStepLast.Cur(), plonk.Sub(qStep, plonk.One())),
		},
	})
}

// countdown is the rows-until-next-block value of row idx of a block
func countdown(idx, height int) uint64 {
	if idx == 0 {
		return 0
	}

	return uint64(height - idx)
}

// assignQStep marks the rows [offset, offset+height) as one block
func (c *Config) assignQStep(region plonk.Region, offset, height int) error {
	for idx := 0; idx < height; idx++ {
		row := offset + idx
		value := field.FromUint64(countdown(idx, height))

		if err := region.EnableSelector("q_usable", c.qUsable, row); err != nil {
			return err
		}

		if err := region.AssignAdvice("q_step", c.qStep, row, field.FromBool(idx == 0)); err != nil {
			return err
		}

		if err := region.AssignAdvice("rows until next step", c.numRowsUntil, row, value); err != nil {
			return err
		}

		if err := region.AssignAdvice("rows until next step inverse", c.numRowsInverse, row,
			field.InvertOrZero(value)); err != nil {
			return err
		}
	}

	return nil
}

// closeRegion ends the block sequence: the last block is marked and the
// countdown of the row after it is zeroed
func (c *Config) closeRegion(region plonk.Region, offset int) error {
	if err := region.EnableSelector("q_step_last", c.qStepLast, offset-1); err != nil {
		return err
	}

	for _, col := range []plonk.Column{c.numRowsUntil, c.qStep, c.numRowsInverse} {
		if err := region.AssignAdvice("step height", col, offset, field.Zero); err != nil {
			return err
		}
	}

	return nil
}
