package plonk

import (
	"fmt"

	"github.com/0xPolygon/evm-circuit/field"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru"
)

const tableCacheSize = 64

// FailureKind classifies a verification failure
type FailureKind int

const (
	ConstraintNotSatisfied FailureKind = iota
	LookupNotSatisfied
)

func (k FailureKind) String() string {
	switch k {
	case ConstraintNotSatisfied:
		return "constraint not satisfied"
	case LookupNotSatisfied:
		return "lookup not satisfied"
	default:
		panic(fmt.Sprintf("BUG: failure kind not found: %d", int(k)))
	}
}

// VerifyFailure describes one failing gate constraint or lookup input
type VerifyFailure struct {
	Kind       FailureKind
	Gate       string
	Constraint string
	Row        int
	Value      field.Element
}

func (f *VerifyFailure) Error() string {
	if f.Kind == LookupNotSatisfied {
		return fmt.Sprintf("%s: lookup %q at row %d, input %s", f.Kind, f.Gate, f.Row, f.Value.String())
	}

	return fmt.Sprintf("%s: gate %q constraint %q at row %d", f.Kind, f.Gate, f.Constraint, f.Row)
}

// MockProver checks an assignment against a constraint system without
// producing a proof
type MockProver struct {
	cs         *ConstraintSystem
	assignment *Assignment
	challenges []field.Element

	tables *lru.Cache
}

// NewMockProver binds the challenge values, indexed by challenge index
func NewMockProver(cs *ConstraintSystem, assignment *Assignment, challenges []field.Element) (*MockProver, error) {
	if len(challenges) < cs.NumChallenges() {
		return nil, fmt.Errorf("expected %d challenge values, got %d", cs.NumChallenges(), len(challenges))
	}

	tables, err := lru.New(tableCacheSize)
	if err != nil {
		return nil, err
	}

	return &MockProver{
		cs:         cs,
		assignment: assignment,
		challenges: challenges,
		tables:     tables,
	}, nil
}

// Verify evaluates every gate on every row and every lookup input against
// its table. All failures are returned together.
func (p *MockProver) Verify() error {
	var result error

	for _, failure := range p.VerifyGates() {
		result = multierror.Append(result, failure)
	}

	for _, failure := range p.VerifyLookups() {
		result = multierror.Append(result, failure)
	}

	return result
}

// VerifyGates returns the failing gate constraints
func (p *MockProver) VerifyGates() []*VerifyFailure {
	var failures []*VerifyFailure

	for _, gate := range p.cs.Gates() {
		for _, constraint := range gate.Constraints {
			for row := 0; row < p.assignment.n; row++ {
				value := constraint.Poly.Evaluate(p.at(row))
				if value.IsZero() {
					continue
				}

				failures = append(failures, &VerifyFailure{
					Kind:       ConstraintNotSatisfied,
					Gate:       gate.Name,
					Constraint: constraint.Name,
					Row:        row,
					Value:      value,
				})
			}
		}
	}

	return failures
}

// VerifyLookups returns the lookup inputs missing from their tables
func (p *MockProver) VerifyLookups() []*VerifyFailure {
	var failures []*VerifyFailure

	for _, lookup := range p.cs.Lookups() {
		table := p.tableSet(lookup.Table)

		for row := 0; row < p.assignment.n; row++ {
			value := lookup.Input.Evaluate(p.at(row))
			if _, ok := table[value]; ok {
				continue
			}

			failures = append(failures, &VerifyFailure{
				Kind:  LookupNotSatisfied,
				Gate:  lookup.Name,
				Row:   row,
				Value: value,
			})
		}
	}

	return failures
}

// tableSet evaluates a table expression over all rows. Lookups into the same
// table share one evaluation.
func (p *MockProver) tableSet(table Expression) map[field.Element]struct{} {
	key := table.String()

	if cached, ok := p.tables.Get(key); ok {
		if set, ok := cached.(map[field.Element]struct{}); ok {
			return set
		}
	}

	set := make(map[field.Element]struct{})
	for row := 0; row < p.assignment.n; row++ {
		set[table.Evaluate(p.at(row))] = struct{}{}
	}

	p.tables.Add(key, set)

	return set
}

func (p *MockProver) at(row int) Evaluator {
	return p.assignment.At(row, p.challenges)
}
