package execution

import (
	"github.com/armon/go-metrics"

	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
	"github.com/0xPolygon/evm-circuit/field"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// AssignResult describes an assigned execution region
type AssignResult struct {
	// Rows is the number of rows used, closing step included
	Rows int `json:"rows"`

	// Steps is the number of assigned blocks, padding rows included
	Steps int `json:"steps"`

	Padding int `json:"padding"`

	// Mismatches are the rw lookups that disagree with the recorded events.
	// Only filled when the cross-check runs.
	Mismatches []RwMismatch `json:"mismatches,omitempty"`
}

// entry is a step together with what it runs in
type entry struct {
	tx   *witness.Transaction
	call *witness.Call
	step *witness.ExecStep
}

// chunkEntries returns the steps of the chunk in grid order: the BeginChunk
// step when there is one, then the real steps
func chunkEntries(block *witness.Block, chunk *witness.Chunk) []entry {
	ctx := chunk.Context

	var entries []entry

	if chunk.BeginChunk != nil {
		entries = append(entries, entry{call: chunk.PrevLastCall, step: chunk.BeginChunk})
	}

	for _, tx := range block.Txs[ctx.InitialTxIndex:ctx.EndTxIndex] {
		for _, s := range tx.Steps {
			if s.RwCounter < ctx.InitialRWC || s.RwCounter >= ctx.EndRWC {
				continue
			}

			entries = append(entries, entry{tx: tx, call: tx.Calls[s.CallIndex], step: s})
		}
	}

	return entries
}

func closingStep(chunk *witness.Chunk) *witness.ExecStep {
	if chunk.EndChunk != nil {
		return chunk.EndChunk
	}

	return chunk.EndBlock
}

// AssignBlock lays the steps of chunk out from row 0. With a fixed number of
// execution rows the steps are followed by padding up to the last row, which
// holds the closing step; otherwise the closing step follows the last step.
func (c *Config) AssignBlock(
	layouter *plonk.Layouter,
	block *witness.Block,
	chunk *witness.Chunk,
	challenges challenge.Values,
) (*AssignResult, error) {
	var (
		result *AssignResult
		pass   int
	)

	err := layouter.AssignRegion("execution step", func(region plonk.Region) error {
		pass++

		w := &walker{
			Config:     c,
			region:     region,
			block:      block,
			chunk:      chunk,
			challenges: challenges,
			rows:       layouter.Rows(),
			final:      pass == 2,
			check:      pass == 2 && (c.checkRw || c.logger.IsDebug()),
		}

		res, err := w.walk()
		if err != nil {
			return err
		}

		result = res

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrCounter([]string{executionMetrics, "walker", "steps"}, float32(result.Steps))

	c.logger.Debug("assigned execution region",
		"chunk", chunk.Context.Index,
		"rows", result.Rows,
		"steps", result.Steps,
		"padding", result.Padding,
	)

	return result, nil
}

type walker struct {
	*Config

	region     plonk.Region
	block      *witness.Block
	chunk      *witness.Chunk
	challenges challenge.Values
	rows       int
	final      bool
	check      bool

	result AssignResult
}

func (w *walker) walk() (*AssignResult, error) {
	evmRows := w.chunk.FixedParams.MaxEvmRows
	if evmRows > 0 && evmRows+1 > w.rows {
		return nil, rowsError(evmRows, 0, w.rows)
	}

	entries := chunkEntries(w.block, w.chunk)
	closing := entry{call: w.chunk.LastCall, step: closingStep(w.chunk)}
	padding := entry{call: w.chunk.LastCall, step: w.chunk.Padding}

	// successor of the last real step
	tail := closing
	if evmRows > 0 {
		tail = padding
	}

	if err := w.region.EnableSelector("step selector", w.qStepFirst, 0); err != nil {
		return nil, err
	}

	offset := 0

	for i := range entries {
		height := w.registry.Height(entries[i].step.ExecutionState)
		if height == 0 {
			return nil, unknownError(entries[i].step.ExecutionState)
		}

		if evmRows > 0 {
			if offset+height >= evmRows-1 {
				return nil, rowsError(offset, height, evmRows-1)
			}
		} else if offset+height+2 > w.rows {
			return nil, rowsError(offset, height, w.rows-2)
		}

		next := tail
		if i+1 < len(entries) {
			next = entries[i+1]
		}

		if err := w.assignStep(offset, &entries[i], &next); err != nil {
			return nil, err
		}

		offset += height
	}

	if evmRows > 0 {
		end := evmRows - 1
		if offset >= end {
			return nil, ErrEmptyPaddingRange
		}

		if err := w.assignPadding(offset, end, &padding); err != nil {
			return nil, err
		}

		offset = end
	} else {
		// a block without steps opens with a single padding row
		if len(entries) == 0 {
			if err := w.assignPadding(offset, offset+1, &padding); err != nil {
				return nil, err
			}

			offset++
		}

		if offset+2 > w.rows {
			return nil, rowsError(offset, 1, w.rows-2)
		}
	}

	if err := w.assignStep(offset, &closing, nil); err != nil {
		return nil, err
	}

	offset++

	if err := w.closeRegion(w.region, offset); err != nil {
		return nil, err
	}

	if err := w.stitcher.assign(w.region, w.rows, w.chunk.Context); err != nil {
		return nil, err
	}

	w.result.Rows = offset

	return &w.result, nil
}

func (w *walker) stateValues(e *entry) step.StateValues {
	s, call := e.step, e.call

	return step.StateValues{
		ExecutionState:         s.ExecutionState,
		RwCounter:              s.RwCounter,
		CallID:                 call.ID,
		IsRoot:                 call.IsRoot,
		IsCreate:               call.IsCreate,
		CodeHash:               witness.HashWord(call.CodeHash),
		ProgramCounter:         s.ProgramCounter,
		StackPointer:           s.StackPointer,
		GasLeft:                s.GasLeft,
		MemoryWordSize:         s.MemoryWordSize,
		ReversibleWriteCounter: s.ReversibleWriteCounter,
		LogID:                  s.LogID,
		InnerRwCounter:         s.RwCounter - w.chunk.Context.InitialRWC + 1,
	}
}

// assignState writes the state cells and the gadget cells of e at offset
func (w *walker) assignState(region *cell.CachedRegion, offset int, e *entry) error {
	g, err := w.registry.Gadget(e.step.ExecutionState)
	if err != nil {
		return err
	}

	if err := w.step.Assign(region, offset, w.stateValues(e)); err != nil {
		return err
	}

	return g.Assign(region, offset, w.block, w.chunk, e.tx, e.call, e.step)
}

// assignStep assigns cur at offset. The step following it is assigned first
// so that expressions reaching into it evaluate over the cache.
func (w *walker) assignStep(offset int, cur, next *entry) error {
	state := cur.step.ExecutionState
	height := w.registry.Height(state)

	region := cell.NewCachedRegion(w.region, w.challenges, w.advices, 3*param.MaxStepHeight, offset)

	if next != nil {
		if err := w.assignState(region, offset+height, next); err != nil {
			return err
		}
	}

	if err := w.assignState(region, offset, cur); err != nil {
		return err
	}

	stored := w.registry.StoredExpressions(state)
	values := make([]field.Element, len(stored))

	for i, se := range stored {
		v, err := se.Assign(region, offset)
		if err != nil {
			return err
		}

		values[i] = v
	}

	if w.check && state != step.Padding {
		w.result.Mismatches = append(w.result.Mismatches,
			w.checkRwLookups(cur.step, stored, values)...)
	}

	if w.final && w.logger.IsTrace() {
		for _, de := range w.registry.DebugExpressions(state) {
			v := de.Expr.Evaluate(region.At(offset))
			w.logger.Trace("debug expression", "state", state, "offset", offset, "name", de.Name, "value", v.String())
		}
	}

	w.result.Steps++

	return w.assignQStep(w.region, offset, height)
}

// assignPadding fills [offset, end) with copies of the padding step
func (w *walker) assignPadding(offset, end int, padding *entry) error {
	region := cell.NewCachedRegion(w.region, w.challenges, w.advices, 1, offset)

	if err := w.assignState(region, offset, padding); err != nil {
		return err
	}

	if err := region.ReplicateAssignmentForRange("padding", offset+1, end); err != nil {
		return err
	}

	for row := offset; row < end; row++ {
		if err := w.assignQStep(w.region, row, 1); err != nil {
			return err
		}
	}

	w.result.Steps += end - offset
	w.result.Padding = end - offset

	return nil
}
