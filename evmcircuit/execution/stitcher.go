package execution

import (
	"github.com/0xPolygon/evm-circuit/evmcircuit/constraint"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// stitcher binds the first and last block of the region to the chunk
// context, so that consecutive chunks of a block continue each other
type stitcher struct {
	chunkIndex    plonk.Column
	chunkIndexInv plonk.Column
	totalChunks   plonk.Column
	chunkDiffInv  plonk.Column
}

// FirstStepStates are the states a chunk may start with
func FirstStepStates(features Features) []step.ExecutionState {
	states := []step.ExecutionState{step.BeginTx, step.Padding, step.BeginChunk}
	if features.InvalidTx {
		states = append(states, step.InvalidTx)
	}

	return states
}

// LastStepStates are the states a chunk may end with
func LastStepStates() []step.ExecutionState {
	return []step.ExecutionState{step.EndBlock, step.EndChunk}
}

func configureStitcher(cs *plonk.ConstraintSystem, c *Config) *stitcher {
	s := &stitcher{
		chunkIndex:    cs.AdviceColumn(),
		chunkIndexInv: cs.AdviceColumn(),
		totalChunks:   cs.AdviceColumn(),
		chunkDiffInv:  cs.AdviceColumn(),
	}

	cs.AnnotateColumn(s.chunkIndex, "EVM_chunk_index")
	cs.AnnotateColumn(s.chunkIndexInv, "EVM_chunk_index_inv")
	cs.AnnotateColumn(s.totalChunks, "EVM_total_chunks")
	cs.AnnotateColumn(s.chunkDiffInv, "EVM_chunk_diff_inv")

	qUsable := c.qUsable.Cur()
	qFirst := plonk.Mul(qUsable, c.qStepFirst.Cur())
	qLast := plonk.Mul(qUsable, c.qStepLast.Cur())

	index := s.chunkIndex.Cur()
	total := s.totalChunks.Cur()
	diff := plonk.Sub(plonk.Sub(total, index), plonk.One())

	isFirst := plonk.Not(plonk.Mul(index, s.chunkIndexInv.Cur()))
	isLast := plonk.Not(plonk.Mul(diff, s.chunkDiffInv.Cur()))

	cs.CreateGate("chunk context", []plonk.Constraint{
		{Name: "is_first_chunk: index is zero or has an inverse", Poly: plonk.Product(qUsable, index, isFirst)},
		{Name: "is_last_chunk: distance is zero or has an inverse", Poly: plonk.Product(qUsable, diff, isLast)},
		{Name: "chunk index is constant", Poly: plonk.Mul(qUsable, plonk.Sub(s.chunkIndex.Next(), index))},
		{Name: "total chunks is constant", Poly: plonk.Mul(qUsable, plonk.Sub(s.totalChunks.Next(), total))},
	})

	sel := c.step.ExecutionStateSelector
	firstStates := onlyConfigured(c.registry, FirstStepStates(c.features))

	cs.CreateGate("chunk boundary", []plonk.Constraint{
		{
			Name: "first chunk starts with a first step state",
			Poly: plonk.Product(qFirst, isFirst, plonk.Not(sel(firstStates...))),
		},
		{
			Name: "chunk after the first starts with BeginChunk",
			Poly: plonk.Product(qFirst, plonk.Not(isFirst), plonk.Not(sel(step.BeginChunk))),
		},
		{
			Name: "last chunk ends with EndBlock",
			Poly: plonk.Product(qLast, isLast, plonk.Not(sel(step.EndBlock))),
		},
		{
			Name: "chunk before the last ends with EndChunk",
			Poly: plonk.Product(qLast, plonk.Not(isLast), plonk.Not(sel(step.EndChunk))),
		},
	})

	r := c.challenges.LookupInputExpr()
	chunkTable := constraint.RLC(c.tables.ChunkCtx.TableExprs(), r)
	rwc := c.step.State.RwCounter.Expr()

	entry := func(tag table.ChunkCtxFieldTag, value plonk.Expression) plonk.Expression {
		return constraint.RLC([]plonk.Expression{tag.Expr(), value}, r)
	}

	var endRwc []plonk.Expression
	for _, state := range LastStepStates() {
		endRwc = append(endRwc, plonk.Mul(sel(state),
			entry(table.ChunkCtxEndRWC, plonk.Add(rwc, c.registry.RwCounterOffset(state)))))
	}

	for _, l := range []struct {
		name  string
		input plonk.Expression
	}{
		{"chunk_ctx current chunk index", plonk.Mul(qFirst, entry(table.ChunkCtxCurrentChunkIndex, index))},
		{"chunk_ctx total chunks", plonk.Mul(qFirst, entry(table.ChunkCtxTotalChunks, total))},
		{"chunk_ctx initial rw counter", plonk.Product(qFirst, sel(firstStates...), entry(table.ChunkCtxInitialRWC, rwc))},
		{"chunk_ctx end rw counter", plonk.Mul(qLast, plonk.Sum(endRwc...))},
	} {
		cs.LookupAny(l.name, l.input, chunkTable)
	}

	return s
}

func onlyConfigured(r *Registry, states []step.ExecutionState) []step.ExecutionState {
	var out []step.ExecutionState

	for _, s := range states {
		if r.Has(s) {
			out = append(out, s)
		}
	}

	return out
}

// assign writes the chunk context columns on every row of the grid
func (s *stitcher) assign(region plonk.Region, rows int, ctx witness.ChunkContext) error {
	index := field.FromUint64(ctx.Index)
	total := field.FromUint64(ctx.Total)
	diff := field.Sub(field.Sub(total, index), field.One)

	for _, a := range []struct {
		name  string
		col   plonk.Column
		value field.Element
	}{
		{"chunk index", s.chunkIndex, index},
		{"chunk index inverse", s.chunkIndexInv, field.InvertOrZero(index)},
		{"total chunks", s.totalChunks, total},
		{"chunk distance inverse", s.chunkDiffInv, field.InvertOrZero(diff)},
	} {
		for row := 0; row < rows; row++ {
			if err := region.AssignAdvice(a.name, a.col, row, a.value); err != nil {
				return err
			}
		}
	}

	return nil
}
