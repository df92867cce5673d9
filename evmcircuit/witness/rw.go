package witness

import (
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/field"
)

// Rw is a read or write event recorded while executing a block
type Rw struct {
	RwCounter  uint64      `json:"rwCounter"`
	IsWrite    bool        `json:"isWrite"`
	Tag        table.RwTag `json:"tag"`
	ID         uint64      `json:"id"`
	Address    uint256.Int `json:"address"`
	FieldTag   uint64      `json:"fieldTag"`
	StorageKey uint256.Int `json:"storageKey"`
	Value      uint256.Int `json:"value"`
	ValuePrev  uint256.Int `json:"valuePrev"`
}

// TableRow returns the rw table row of the event, in table.RwColumnNames
// order
func (rw *Rw) TableRow() []field.Element {
	keyLo, keyHi := field.WordLoHi(&rw.StorageKey)
	valueLo, valueHi := field.WordLoHi(&rw.Value)
	prevLo, prevHi := field.WordLoHi(&rw.ValuePrev)

	return []field.Element{
		field.FromUint64(rw.RwCounter),
		field.FromBool(rw.IsWrite),
		field.FromUint64(uint64(rw.Tag)),
		field.FromUint64(rw.ID),
		field.FromUint256(&rw.Address),
		field.FromUint64(rw.FieldTag),
		keyLo, keyHi,
		valueLo, valueHi,
		prevLo, prevHi,
	}
}

// RLC folds the table row with the lookup randomness
func (rw *Rw) RLC(randomness field.Element) field.Element {
	return field.RLC(rw.TableRow(), randomness)
}

func (rw *Rw) String() string {
	return fmt.Sprintf("%s{rwc: %d, write: %t, id: %d, address: %s, field: %d, value: %s}",
		rw.Tag, rw.RwCounter, rw.IsWrite, rw.ID, rw.Address.Hex(), rw.FieldTag, rw.Value.Hex())
}

// RwIndex addresses an event in a RwMap
type RwIndex struct {
	Tag   table.RwTag `json:"tag"`
	Index int         `json:"index"`
}

// RwMap groups the events of a block by tag. Every group is in recording
// order.
type RwMap map[table.RwTag][]Rw

// Push records rw and returns its index
func (m RwMap) Push(rw Rw) RwIndex {
	idx := RwIndex{Tag: rw.Tag, Index: len(m[rw.Tag])}
	m[rw.Tag] = append(m[rw.Tag], rw)

	return idx
}

// Get returns the event at idx
func (m RwMap) Get(idx RwIndex) *Rw {
	return &m[idx.Tag][idx.Index]
}

// Len is the total number of events
func (m RwMap) Len() int {
	n := 0
	for _, rws := range m {
		n += len(rws)
	}

	return n
}

// Sorted returns every event ordered by rw counter
func (m RwMap) Sorted() []Rw {
	rws := make([]Rw, 0, m.Len())

	tags := maps.Keys(m)
	slices.Sort(tags)

	for _, tag := range tags {
		rws = append(rws, m[tag]...)
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
