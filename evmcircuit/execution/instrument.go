package execution

import (
	"github.com/armon/go-metrics"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/0xPolygon/evm-circuit/evmcircuit/cell"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
)

const executionMetrics = "evm_circuit"

// Instrument summarizes the footprint of the configured gadgets
type Instrument struct {
	Gadgets []GadgetStats `json:"gadgets"`

	// CellsByType is the maximum number of cells of each type used by a
	// single gadget
	CellsByType map[string]int `json:"cells_by_type"`

	// LookupsByTable is the maximum number of lookups into each table
	// performed by a single gadget
	LookupsByTable map[string]int `json:"lookups_by_table"`

	MaxHeight int `json:"max_height"`
}

// Instrument collects the statistics of every gadget
func (c *Config) Instrument() *Instrument {
	in := &Instrument{
		Gadgets:        c.registry.Stats(),
		CellsByType:    make(map[string]int),
		LookupsByTable: make(map[string]int),
	}

	for _, g := range in.Gadgets {
		if g.Height > in.MaxHeight {
			in.MaxHeight = g.Height
		}

		for t, n := range g.Cells {
			if n > in.CellsByType[t.String()] {
				in.CellsByType[t.String()] = n
			}
		}

		for t, n := range g.Lookups {
			if n > in.LookupsByTable[t.String()] {
				in.LookupsByTable[t.String()] = n
			}
		}
	}

	return in
}

// Publish exports the statistics as gauges
func (in *Instrument) Publish() {
	for _, g := range in.Gadgets {
		labels := []metrics.Label{{Name: "state", Value: g.State.String()}}

		metrics.SetGaugeWithLabels([]string{executionMetrics, "gadget", "height"}, float32(g.Height), labels)
		metrics.SetGaugeWithLabels([]string{executionMetrics, "gadget", "constraints"}, float32(g.Constraints), labels)
	}

	for _, name := range sortedKeys(in.CellsByType) {
		metrics.SetGauge([]string{executionMetrics, "cells", name}, float32(in.CellsByType[name]))
	}

	for _, name := range sortedKeys(in.LookupsByTable) {
		metrics.SetGauge([]string{executionMetrics, "lookups", name}, float32(in.LookupsByTable[name]))
	}

	metrics.SetGauge([]string{executionMetrics, "max_height"}, float32(in.MaxHeight))
}

func sortedKeys(m map[string]int) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)

	return keys
}

// CellUsage returns the cells of type t used by the gadget, 0 when none
func (g GadgetStats) CellUsage(t cell.Type) int {
	return g.Cells[t]
}

// LookupCount returns the lookups of the gadget into t
func (g GadgetStats) LookupCount(t table.Table) int {
	return g.Lookups[t]
}
