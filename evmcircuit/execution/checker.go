package execution

import (
	"fmt"
	"strings"

	"github.com/armon/go-metrics"

	"github.com/0xPolygon/evm-circuit/evmcircuit/constraint"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/evmcircuit/witness"
	"github.com/0xPolygon/evm-circuit/field"
)

const (
	rwLookupPrefix   = "rw lookup"
	copyLookupName   = "copy lookup"
	reversionPostfix = "with reversion"
)

// RwMismatch is an assigned rw lookup of a step that does not match the
// event recorded for it
type RwMismatch struct {
	Step   string `json:"step"`
	Lookup string `json:"lookup"`

	// Index is the position of the expected event in the events of the
	// step, -1 when the step has no event left for the lookup
	Index int `json:"index"`

	Expected string `json:"expected,omitempty"`
	Reason   string `json:"reason"`
}

func (m RwMismatch) String() string {
	return fmt.Sprintf("%s: %s #%d: %s %s", m.Step, m.Lookup, m.Index, m.Reason, m.Expected)
}

type assignedLookup struct {
	name  string
	value field.Element
}

// checkRwLookups compares the rw lookups assigned for s with its recorded
// events. Lookups are matched positionally: plain lookups take the events in
// recording order, the bytes of a copy lookup take the following memory
// events and reversion lookups take the events appended last.
func (w *walker) checkRwLookups(
	s *witness.ExecStep,
	stored []*constraint.StoredExpression,
	values []field.Element,
) []RwMismatch {
	var (
		lookups    []assignedLookup
		reversions []assignedLookup
		copies     int
	)

	// a lookup assigned twice with the same input reads one event
	seen := make(map[assignedLookup]struct{})

	for i, se := range stored {
		if field.IsZero(values[i]) {
			continue
		}

		l := assignedLookup{name: se.Name, value: values[i]}
		if _, ok := seen[l]; ok {
			continue
		}

		switch {
		case se.Name == copyLookupName:
			copies++

			lookups = append(lookups, l)
		case strings.HasPrefix(se.Name, rwLookupPrefix) && strings.HasSuffix(se.Name, reversionPostfix):
			reversions = append(reversions, l)
		case strings.HasPrefix(se.Name, rwLookupPrefix):
			lookups = append(lookups, l)
		default:
			continue
		}

		seen[l] = struct{}{}
	}

	if copies > 1 {
		w.logger.Warn("step performs more than one copy lookup, rw check skipped", "step", s.String(), "copies", copies)

		return nil
	}

	r := w.challenges.LookupInput
	total := len(s.RwIndices)
	plain := total - len(reversions)

	var mismatches []RwMismatch

	report := func(m RwMismatch) {
		m.Step = s.String()
		mismatches = append(mismatches, m)
	}

	if want := len(lookups) - copies + int(s.CopyRwCounterDelta) + len(reversions); want != total {
		report(RwMismatch{
			Lookup: rwLookupPrefix,
			Index:  -1,
			Reason: fmt.Sprintf("lookups cover %d events, step has %d", want, total),
		})
	}

	cursor := 0

	for _, l := range lookups {
		if l.name == copyLookupName {
			for k := uint64(0); k < s.CopyRwCounterDelta && cursor < plain; k++ {
				if rw := w.block.GetRws(s, cursor); rw.Tag != table.RwMemory {
					report(RwMismatch{Lookup: l.name, Index: cursor, Expected: rw.String(), Reason: "copy byte is not a memory event"})
				}

				cursor++
			}

			continue
		}

		if cursor >= plain {
			report(RwMismatch{Lookup: l.name, Index: -1, Reason: "no event left"})

			continue
		}

		if rw := w.block.GetRws(s, cursor); rw.RLC(r) != l.value {
			report(RwMismatch{Lookup: l.name, Index: cursor, Expected: rw.String(), Reason: "value differs"})
		}

		cursor++
	}

	for k, l := range reversions {
		idx := plain + k
		if idx >= total {
			report(RwMismatch{Lookup: l.name, Index: -1, Reason: "no reversion event left"})

			continue
		}

		if rw := w.block.GetRws(s, idx); rw.RLC(r) != l.value {
			report(RwMismatch{Lookup: l.name, Index: idx, Expected: rw.String(), Reason: "reversion differs"})
		}
	}

	for _, m := range mismatches {
		w.logger.Error("rw lookup mismatch", "step", m.Step, "lookup", m.Lookup, "index", m.Index,
			"reason", m.Reason, "expected", m.Expected)
	}

	if len(mismatches) > 0 {
		metrics.IncrCounter([]string{executionMetrics, "rw_check", "mismatch"}, float32(len(mismatches)))
	}

	return mismatches
}
