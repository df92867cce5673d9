package inspect

import (
	"bytes"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/0xPolygon/evm-circuit/command/helper"
)

type GadgetResult struct {
	State       string `json:"state"`
	Height      int    `json:"height"`
	Constraints int    `json:"constraints"`
	Lookups     int    `json:"lookups"`
}

type InspectResult struct {
	Rows           int            `json:"rows"`
	AdviceColumns  int            `json:"adviceColumns"`
	FixedColumns   int            `json:"fixedColumns"`
	Selectors      int            `json:"selectors"`
	Gates          int            `json:"gates"`
	Lookups        int            `json:"lookups"`
	Degree         int            `json:"degree"`
	MaxHeight      int            `json:"maxHeight"`
	CellsByType    map[string]int `json:"cellsByType"`
	LookupsByTable map[string]int `json:"lookupsByTable"`
	Gadgets        []GadgetResult `json:"gadgets"`
	Metrics        string         `json:"-"`
}

func (r *InspectResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("\n[CIRCUIT]\n")
	buffer.WriteString(helper.FormatKV([]string{
		fmt.Sprintf("Rows|%d", r.Rows),
		fmt.Sprintf("Advice columns|%d", r.AdviceColumns),
		fmt.Sprintf("Fixed columns|%d", r.FixedColumns),
		fmt.Sprintf("Selectors|%d", r.Selectors),
		fmt.Sprintf("Gates|%d", r.Gates),
		fmt.Sprintf("Lookups|%d", r.Lookups),
		fmt.Sprintf("Expression degree|%d", r.Degree),
		fmt.Sprintf("Max step height|%d", r.MaxHeight),
	}))
	buffer.WriteString("\n")

	buffer.WriteString("\n[CELLS PER TYPE]\n")
	buffer.WriteString(helper.FormatKV(kvRows(r.CellsByType)))
	buffer.WriteString("\n")

	buffer.WriteString("\n[LOOKUPS PER TABLE]\n")
	buffer.WriteString(helper.FormatKV(kvRows(r.LookupsByTable)))
	buffer.WriteString("\n")

	rows := make([]string, 0, len(r.Gadgets)+1)
	rows = append(rows, "State|Height|Constraints|Lookups")

	for _, g := range r.Gadgets {
		rows = append(rows, fmt.Sprintf("%s|%d|%d|%d", g.State, g.Height, g.Constraints, g.Lookups))
	}

	buffer.WriteString("\n[GADGETS]\n")
	buffer.WriteString(helper.FormatList(rows))
	buffer.WriteString("\n")

	if r.Metrics != "" {
		buffer.WriteString("\n[METRICS]\n")
		buffer.WriteString(r.Metrics)
		buffer.WriteString("\n")
	}

	return buffer.String()
}

func kvRows(m map[string]int) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)

	rows := make([]string, len(keys))
	for i, k := range keys {
		rows[i] = fmt.Sprintf("%s|%d", k, m[k])
	}

	return rows
}
