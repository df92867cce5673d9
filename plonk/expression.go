package plonk

import (
	"fmt"

	"github.com/0xPolygon/evm-circuit/field"
)

// Evaluator resolves the leaves of an expression
type Evaluator interface {
	QueryValue(col Column, rotation int) field.Element
	ChallengeValue(c Challenge) field.Element
}

// Expression is a polynomial over column queries, challenges and constants
type Expression interface {
	Evaluate(ev Evaluator) field.Element
	Degree() int
	String() string
}

type constant struct {
	value field.Element
}

func (c *constant) Evaluate(Evaluator) field.Element { return c.value }
func (c *constant) Degree() int                      { return 0 }
func (c *constant) String() string                   { return c.value.String() }

type query struct {
	column   Column
	rotation int
}

func (q *query) Evaluate(ev Evaluator) field.Element {
	return ev.QueryValue(q.column, q.rotation)
}

func (q *query) Degree() int { return 1 }

func (q *query) String() string {
	return fmt.Sprintf("%s@%d", q.column, q.rotation)
}

type challengeExpr struct {
	challenge Challenge
}

func (c *challengeExpr) Evaluate(ev Evaluator) field.Element {
	return ev.ChallengeValue(c.challenge)
}

func (c *challengeExpr) Degree() int { return 0 }

func (c *challengeExpr) String() string {
	return fmt.Sprintf("challenge[%d]", c.challenge.Index)
}

type sum struct {
	a, b Expression
}

func (s *sum) Evaluate(ev Evaluator) field.Element {
	return field.Add(s.a.Evaluate(ev), s.b.Evaluate(ev))
}

func (s *sum) Degree() int {
	return maxInt(s.a.Degree(), s.b.Degree())
}

func (s *sum) String() string {
	return fmt.Sprintf("(%s + %s)", s.a, s.b)
}

type product struct {
	a, b Expression
}

// Evaluate skips the right operand when the left one is zero, which keeps
// selector-gated constraints cheap on the rows where they are disabled
func (p *product) Evaluate(ev Evaluator) field.Element {
	left := p.a.Evaluate(ev)
	if left.IsZero() {
		return field.Zero
	}

	return field.Mul(left, p.b.Evaluate(ev))
}

func (p *product) Degree() int {
	return p.a.Degree() + p.b.Degree()
}

func (p *product) String() string {
	return fmt.Sprintf("%s * %s", p.a, p.b)
}

type negated struct {
	a Expression
}

func (n *negated) Evaluate(ev Evaluator) field.Element {
	return field.Neg(n.a.Evaluate(ev))
}

func (n *negated) Degree() int { return n.a.Degree() }

func (n *negated) String() string {
	return fmt.Sprintf("-%s", n.a)
}

type scaled struct {
	a      Expression
	factor field.Element
}

func (s *scaled) Evaluate(ev Evaluator) field.Element {
	return field.Mul(s.a.Evaluate(ev), s.factor)
}

func (s *scaled) Degree() int { return s.a.Degree() }

func (s *scaled) String() string {
	return fmt.Sprintf("%s * %s", s.a, s.factor.String())
}

// Const returns the constant expression v
func Const(v uint64) Expression {
	return &constant{value: field.FromUint64(v)}
}

// ConstElement returns the constant expression e
func ConstElement(e field.Element) Expression {
	return &constant{value: e}
}

// Zero is the constant 0
func Zero() Expression {
	return &constant{}
}

// One is the constant 1
func One() Expression {
	return Const(1)
}

// IsConstantZero reports whether e is the literal constant 0
func IsConstantZero(e Expression) bool {
	c, ok := e.(*constant)

	return ok && c.value.IsZero()
}

func isConstantOne(e Expression) bool {
	c, ok := e.(*constant)

	return ok && c.value.IsOne()
}

// Add returns a + b
func Add(a, b Expression) Expression {
	switch {
	case IsConstantZero(a):
		return b
	case IsConstantZero(b):
		return a
	}

	return &sum{a: a, b: b}
}

// Sub returns a - b
func Sub(a, b Expression) Expression {
	if IsConstantZero(b) {
		return a
	}

	return Add(a, Neg(b))
}

// Mul returns a * b
func Mul(a, b Expression) Expression {
	switch {
	case IsConstantZero(a), IsConstantZero(b):
		return Zero()
	case isConstantOne(a):
		return b
	case isConstantOne(b):
		return a
	}

	return &product{a: a, b: b}
}

// Neg returns -a
func Neg(a Expression) Expression {
	if IsConstantZero(a) {
		return a
	}

	return &negated{a: a}
}

// Scale returns a * factor
func Scale(a Expression, factor uint64) Expression {
	return &scaled{a: a, factor: field.FromUint64(factor)}
}

// Not returns 1 - a, the negation of a boolean expression
func Not(a Expression) Expression {
	return Sub(One(), a)
}

// Sum adds all expressions, returning 0 for an empty list
func Sum(exprs ...Expression) Expression {
	acc := Zero()
	for _, e := range exprs {
		acc = Add(acc, e)
	}

	return acc
}

// Product multiplies all expressions, returning 1 for an empty list
func Product(exprs ...Expression) Expression {
	acc := One()
	for _, e := range exprs {
		acc = Mul(acc, e)
	}

	return acc
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
