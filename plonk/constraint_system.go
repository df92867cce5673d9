// Package plonk implements a small PLONKish constraint system: columns,
// polynomial gates, lookup arguments, a region based assignment API and a
// mock prover that checks an assignment against the configured constraints.
package plonk

// Constraint is a named polynomial that must evaluate to zero on every row
type Constraint struct {
	Name string
	Poly Expression
}

// Gate groups constraints created together
type Gate struct {
	Name        string
	Constraints []Constraint
}

// Lookup requires every evaluation of Input to appear among the
// evaluations of Table over all rows
type Lookup struct {
	Name  string
	Input Expression
	Table Expression
}

// ConstraintSystem collects the columns, gates and lookups of a circuit
type ConstraintSystem struct {
	advicePhases    []Phase
	numFixed        int
	numSelectors    int
	challengePhases []Phase

	gates   []Gate
	lookups []Lookup

	annotations map[Column]string
}

func NewConstraintSystem() *ConstraintSystem {
	return &ConstraintSystem{
		annotations: make(map[Column]string),
	}
}

// AdviceColumn allocates a first phase advice column
func (cs *ConstraintSystem) AdviceColumn() Column {
	return cs.AdviceColumnInPhase(FirstPhase)
}

// AdviceColumnInPhase allocates an advice column committed in the given phase
func (cs *ConstraintSystem) AdviceColumnInPhase(phase Phase) Column {
	col := Column{Kind: Advice, Index: len(cs.advicePhases), Phase: phase}
	cs.advicePhases = append(cs.advicePhases, phase)

	return col
}

// FixedColumn allocates a fixed column
func (cs *ConstraintSystem) FixedColumn() Column {
	col := Column{Kind: Fixed, Index: cs.numFixed}
	cs.numFixed++

	return col
}

// Selector allocates a selector column. Selectors may appear in any
// position of a gate polynomial.
func (cs *ConstraintSystem) Selector() Column {
	col := Column{Kind: Selector, Index: cs.numSelectors}
	cs.numSelectors++

	return col
}

// Challenge allocates a challenge drawn after the given phase is committed
func (cs *ConstraintSystem) Challenge(after Phase) Challenge {
	c := Challenge{Index: len(cs.challengePhases), Phase: after}
	cs.challengePhases = append(cs.challengePhases, after)

	return c
}

// AnnotateColumn attaches a human readable name to a column
func (cs *ConstraintSystem) AnnotateColumn(col Column, name string) {
	cs.annotations[col] = name
}

// Annotation returns the name of a column, or its index form when unnamed
func (cs *ConstraintSystem) Annotation(col Column) string {
	if name, ok := cs.annotations[col]; ok {
		return name
	}

	return col.String()
}

// CreateGate registers a gate. Gates without constraints are dropped.
func (cs *ConstraintSystem) CreateGate(name string, constraints []Constraint) {
	if len(constraints) == 0 {
		return
	}

	cs.gates = append(cs.gates, Gate{Name: name, Constraints: constraints})
}

// LookupAny registers a lookup of an arbitrary input expression into an
// arbitrary table expression
func (cs *ConstraintSystem) LookupAny(name string, input, table Expression) {
	cs.lookups = append(cs.lookups, Lookup{Name: name, Input: input, Table: table})
}

func (cs *ConstraintSystem) Gates() []Gate {
	return cs.gates
}

func (cs *ConstraintSystem) Lookups() []Lookup {
	return cs.lookups
}

func (cs *ConstraintSystem) NumAdviceColumns() int {
	return len(cs.advicePhases)
}

func (cs *ConstraintSystem) NumFixedColumns() int {
	return cs.numFixed
}

func (cs *ConstraintSystem) NumSelectors() int {
	return cs.numSelectors
}

func (cs *ConstraintSystem) NumChallenges() int {
	return len(cs.challengePhases)
}

// Degree returns the maximum degree over all gate polynomials and lookups
func (cs *ConstraintSystem) Degree() int {
	degree := 1

	for _, gate := range cs.gates {
		for _, c := range gate.Constraints {
			degree = maxInt(degree, c.Poly.Degree())
		}
	}

	for _, lookup := range cs.lookups {
		degree = maxInt(degree, lookup.Input.Degree()+lookup.Table.Degree()+1)
	}

	return degree
}
