package plonk

import "fmt"

// ColumnKind distinguishes the three column families of the grid
type ColumnKind int

const (
	Advice ColumnKind = iota
	Fixed
	Selector
)

func (k ColumnKind) String() string {
	switch k {
	case Advice:
		return "advice"
	case Fixed:
		return "fixed"
	case Selector:
		return "selector"
	default:
		panic(fmt.Sprintf("BUG: column kind not found: %d", int(k)))
	}
}

// Phase is the proving phase in which an advice column is committed
type Phase int

const (
	FirstPhase Phase = iota
	SecondPhase
)

// Column identifies a single column of the grid
type Column struct {
	Kind  ColumnKind
	Index int
	Phase Phase
}

// Query returns the expression reading this column at the given rotation
func (c Column) Query(rotation int) Expression {
	return &query{column: c, rotation: rotation}
}

// Cur reads the column at the current row
func (c Column) Cur() Expression {
	return c.Query(0)
}

// Next reads the column at the next row
func (c Column) Next() Expression {
	return c.Query(1)
}

func (c Column) String() string {
	return fmt.Sprintf("%s[%d]", c.Kind, c.Index)
}

// Challenge is a verifier challenge usable once its phase has been committed
type Challenge struct {
	Index int
	Phase Phase
}

// Expr returns the expression evaluating to the challenge value
func (c Challenge) Expr() Expression {
	return &challengeExpr{challenge: c}
}
