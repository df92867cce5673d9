package cell

import (
	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// CachedRegion forwards advice writes to a region and keeps a copy of the
// rows [offset, offset+height) of the step columns, so that expressions over
// the step cells can be evaluated right after assignment
type CachedRegion struct {
	region     plonk.Region
	challenges challenge.Values

	advices     []plonk.Column
	columns     map[int]int
	advice      [][]field.Element
	offsetStart int
	height      int
}

func NewCachedRegion(
	region plonk.Region,
	challenges challenge.Values,
	advices []plonk.Column,
	height int,
	offset int,
) *CachedRegion {
	r := &CachedRegion{
		region:      region,
		challenges:  challenges,
		advices:     advices,
		columns:     make(map[int]int, len(advices)),
		advice:      make([][]field.Element, len(advices)),
		offsetStart: offset,
		height:      height,
	}

	for i, col := range advices {
		r.columns[col.Index] = i
		r.advice[i] = make([]field.Element, height)
	}

	return r
}

// Challenges returns the challenge values of the assignment
func (r *CachedRegion) Challenges() challenge.Values {
	return r.challenges
}

// AssignAdvice writes to the underlying region and to the cache when the
// cell falls inside the cached window
func (r *CachedRegion) AssignAdvice(col plonk.Column, offset int, value field.Element) error {
	if err := r.region.AssignAdvice("", col, offset, value); err != nil {
		return err
	}

	if i, ok := r.columns[col.Index]; ok && col.Kind == plonk.Advice {
		if row := offset - r.offsetStart; row >= 0 && row < r.height {
			r.advice[i][row] = value
		}
	}

	return nil
}

// Region returns the underlying region for non cached columns
func (r *CachedRegion) Region() plonk.Region {
	return r.region
}

// GetAdvice reads a cached value. Cells outside the window read as zero.
func (r *CachedRegion) GetAdvice(col plonk.Column, offset int) field.Element {
	i, ok := r.columns[col.Index]
	if !ok || col.Kind != plonk.Advice {
		return field.Zero
	}

	row := offset - r.offsetStart
	if row < 0 || row >= r.height {
		return field.Zero
	}

	return r.advice[i][row]
}

// At returns an evaluator resolving rotations relative to offset
func (r *CachedRegion) At(offset int) plonk.Evaluator {
	return cachedEvaluator{region: r, offset: offset}
}

// ReplicateAssignmentForRange copies the first cached row of every step
// column into the rows [begin, end)
func (r *CachedRegion) ReplicateAssignmentForRange(annotation string, begin, end int) error {
	for i, col := range r.advices {
		value := r.advice[i][0]

		for offset := begin; offset < end; offset++ {
			if err := r.region.AssignAdvice(annotation, col, offset, value); err != nil {
				return err
			}
		}
	}

	return nil
}

type cachedEvaluator struct {
	region *CachedRegion
	offset int
}

func (e cachedEvaluator) QueryValue(col plonk.Column, rotation int) field.Element {
	return e.region.GetAdvice(col, e.offset+rotation)
}

func (e cachedEvaluator) ChallengeValue(c plonk.Challenge) field.Element {
	return e.region.challenges.ByIndex(c.Index)
}
