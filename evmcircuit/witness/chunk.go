package witness

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
)

var (
	errInvalidChunkCount = errors.New("invalid number of chunks")
	errNotEnoughCuts     = errors.New("block has fewer chunk boundaries than requested")
)

// FixedParams are the circuit parameters shared by every chunk
type FixedParams struct {
	// MaxEvmRows is the number of rows of the execution region. Zero means
	// the region ends right after the last step, without padding.
	MaxEvmRows int `json:"maxEvmRows"`
}

// ChunkContext locates a chunk inside its block
type ChunkContext struct {
	Index uint64 `json:"index"`
	Total uint64 `json:"total"`

	// InitialRWC and EndRWC bound the rw counters of the chunk: [InitialRWC, EndRWC)
	InitialRWC uint64 `json:"initialRwc"`
	EndRWC     uint64 `json:"endRwc"`

	// InitialTxIndex and EndTxIndex bound the transactions with steps in the chunk
	InitialTxIndex int `json:"initialTxIndex"`
	EndTxIndex     int `json:"endTxIndex"`
}

func (c ChunkContext) IsFirstChunk() bool {
	return c.Index == 0
}

func (c ChunkContext) IsLastChunk() bool {
	return c.Index+1 == c.Total
}

// TableRows returns the chunk context table rows
func (c ChunkContext) TableRows() [][]field.Element {
	row := func(tag table.ChunkCtxFieldTag, v uint64) []field.Element {
		return []field.Element{tag.Value(), field.FromUint64(v)}
	}

	return [][]field.Element{
		row(table.ChunkCtxCurrentChunkIndex, c.Index),
		row(table.ChunkCtxNextChunkIndex, c.Index+1),
		row(table.ChunkCtxTotalChunks, c.Total),
		row(table.ChunkCtxInitialRWC, c.InitialRWC),
		row(table.ChunkCtxEndRWC, c.EndRWC),
	}
}

// Chunk is the part of a block proven by one execution region
type Chunk struct {
	Context     ChunkContext `json:"context"`
	FixedParams FixedParams  `json:"fixedParams"`

	// BeginChunk opens every chunk but the first, EndChunk closes every
	// chunk but the last and EndBlock closes the last one
	BeginChunk *ExecStep `json:"beginChunk,omitempty"`
	EndChunk   *ExecStep `json:"endChunk,omitempty"`
	EndBlock   *ExecStep `json:"endBlock,omitempty"`
	Padding    *ExecStep `json:"padding"`

	// PrevLastCall is the call execution continues in when the chunk starts
	PrevLastCall *Call `json:"prevLastCall,omitempty"`

	// LastCall is the call the padding and closing steps are assigned with
	LastCall *Call `json:"lastCall,omitempty"`
}

// Steps returns the real steps of the chunk in execution order
func (c *Chunk) Steps(b *Block) []*ExecStep {
	var steps []*ExecStep

	for _, tx := range b.Txs[c.Context.InitialTxIndex:c.Context.EndTxIndex] {
		for _, s := range tx.Steps {
			if s.RwCounter >= c.Context.InitialRWC && s.RwCounter < c.Context.EndRWC {
				steps = append(steps, s)
			}
		}
	}

	return steps
}

// Rws returns every event performed by the steps of the chunk, ordered by
// rw counter. Reversions recorded in the chunk are included even when their
// counter lies after the chunk.
func (c *Chunk) Rws(b *Block) []Rw {
	seen := make(map[RwIndex]struct{})

	var rws []Rw

	for _, s := range c.Steps(b) {
		for _, idx := range s.RwIndices {
			if _, ok := seen[idx]; ok {
				continue
			}

			seen[idx] = struct{}{}
			rws = append(rws, *b.Rws.Get(idx))
		}
	}

	slices.SortStableFunc(rws, func(a, b Rw) int {
		switch {
		case a.RwCounter < b.RwCounter:
			return -1
		case a.RwCounter > b.RwCounter:
			return 1
		default:
			return 0
		}
	})

	return rws
}

type stepRef struct {
	txIndex int
	tx      *Transaction
	step    *ExecStep
}

// canBeginChunk reports whether a chunk may start right before s. Internal
// steps constrain their predecessor, so chunks only start at opcode, error
// and precompile steps.
func canBeginChunk(prev, s *ExecStep) bool {
	return !s.ExecutionState.IsInternal() && s.RwCounter > prev.RwCounter
}

// SplitChunks cuts the block into total chunks of roughly equal rw counter
// ranges
func SplitChunks(b *Block, total int, params FixedParams) ([]*Chunk, error) {
	if total < 1 {
		return nil, fmt.Errorf("%w: %d", errInvalidChunkCount, total)
	}

	var refs []stepRef

	for i, tx := range b.Txs {
		for _, s := range tx.Steps {
			refs = append(refs, stepRef{txIndex: i, tx: tx, step: s})
		}
	}

	initial := uint64(1)
	if len(refs) > 0 {
		initial = refs[0].step.RwCounter
	}

	// cuts are the indices of the first step of every chunk after the first
	cuts := make([]int, 0, total-1)
	span := b.EndRwCounter - initial

	for k := 1; k < total; k++ {
		target := initial + span*uint64(k)/uint64(total)

		start := 1
		if len(cuts) > 0 {
			start = cuts[len(cuts)-1] + 1
		}

		found := false

		for i := start; i < len(refs); i++ {
			if refs[i].step.RwCounter >= target && canBeginChunk(refs[i-1].step, refs[i].step) {
				cuts = append(cuts, i)
				found = true

				break
			}
		}

		if !found {
			return nil, fmt.Errorf("%w: wanted %d chunks, found %d", errNotEnoughCuts, total, len(cuts)+1)
		}
	}

	chunks := make([]*Chunk, total)

	for k := range chunks {
		first, end := 0, len(refs)
		if k > 0 {
			first = cuts[k-1]
		}

		if k < len(cuts) {
			end = cuts[k]
		}

		ctx := ChunkContext{
			Index:      uint64(k),
			Total:      uint64(total),
			InitialRWC: initial,
			EndRWC:     b.EndRwCounter,
			EndTxIndex: len(b.Txs),
		}

		if first < len(refs) {
			ctx.InitialRWC = refs[first].step.RwCounter
			ctx.InitialTxIndex = refs[first].txIndex
		}

		if end < len(refs) {
			ctx.EndRWC = refs[end].step.RwCounter
			ctx.EndTxIndex = refs[end].txIndex + 1
		}

		chunk := &Chunk{Context: ctx, FixedParams: params}

		if k > 0 {
			next := refs[first]
			chunk.BeginChunk = next.step.BoundaryCopy(step.BeginChunk)
			chunk.PrevLastCall = next.tx.Calls[next.step.CallIndex]
		}

		var closing *ExecStep

		if end < len(refs) {
			next := refs[end]
			chunk.EndChunk = next.step.BoundaryCopy(step.EndChunk)
			chunk.LastCall = next.tx.Calls[next.step.CallIndex]
			closing = chunk.EndChunk
		} else {
			chunk.EndBlock = endBlockStep(b, refs)
			closing = chunk.EndBlock

			if len(b.Txs) > 0 && len(b.Txs[len(b.Txs)-1].Calls) > 0 {
				chunk.LastCall = b.Txs[len(b.Txs)-1].Calls[0]
			}
		}

		if chunk.LastCall == nil {
			chunk.LastCall = &Call{}
		}

		chunk.Padding = closing.BoundaryCopy(step.Padding)
		chunks[k] = chunk
	}

	return chunks, nil
}

func endBlockStep(b *Block, refs []stepRef) *ExecStep {
	var last *ExecStep
	if len(refs) > 0 {
		last = refs[len(refs)-1].step.BoundaryCopy(step.EndBlock)
	} else {
		last = &ExecStep{ExecutionState: step.EndBlock}
	}

	last.RwCounter = b.EndRwCounter

	return last
}

// RwTagCounts returns the number of events per tag of rws
func RwTagCounts(rws []Rw) map[table.RwTag]int {
	counts := make(map[table.RwTag]int)
	for _, rw := range rws {
		counts[rw.Tag]++
	}

	return counts
}

// SortedTags returns the keys of counts in ascending order
func SortedTags(counts map[table.RwTag]int) []table.RwTag {
	tags := maps.Keys(counts)
	slices.Sort(tags)

	return tags
}
