package plonk

import (
	"errors"
	"testing"

	"github.com/0xPolygon/evm-circuit/field"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mulCircuit struct {
	cs      *ConstraintSystem
	q       Column
	a, b, c Column
	table   Column
}

// newMulCircuit constrains a*b = c on enabled rows and looks a up in a
// fixed table holding 0..7
func newMulCircuit() *mulCircuit {
	cs := NewConstraintSystem()

	m := &mulCircuit{
		cs:    cs,
		q:     cs.Selector(),
		a:     cs.AdviceColumn(),
		b:     cs.AdviceColumn(),
		c:     cs.AdviceColumn(),
		table: cs.FixedColumn(),
	}

	cs.CreateGate("mul", []Constraint{
		{Name: "a * b = c", Poly: Mul(m.q.Cur(), Sub(Mul(m.a.Cur(), m.b.Cur()), m.c.Cur()))},
	})
	cs.LookupAny("a in range", m.a.Cur(), m.table.Cur())

	return m
}

func (m *mulCircuit) assign(t *testing.T, rows [][3]uint64) *Assignment {
	t.Helper()

	assignment := NewAssignment(m.cs, 16)
	layouter := NewLayouter(m.cs, assignment)

	require.NoError(t, layouter.AssignRegion("table", func(region Region) error {
		for i := 0; i < 8; i++ {
			if err := region.AssignFixed("table", m.table, i, field.FromUint64(uint64(i))); err != nil {
				return err
			}
		}

		return nil
	}))

	require.NoError(t, layouter.AssignRegion("mul", func(region Region) error {
		for i, row := range rows {
			if err := region.EnableSelector("q", m.q, i); err != nil {
				return err
			}

			for j, col := range []Column{m.a, m.b, m.c} {
				if err := region.AssignAdvice("v", col, i, field.FromUint64(row[j])); err != nil {
					return err
				}
			}
		}

		return nil
	}))

	return assignment
}

func TestMockProver_Verify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		rows          [][3]uint64
		gateFailures  int
		lookupFailure bool
	}{
		{"satisfied", [][3]uint64{{2, 3, 6}, {7, 7, 49}}, 0, false},
		{"wrong product", [][3]uint64{{2, 3, 7}}, 1, false},
		{"input outside table", [][3]uint64{{9, 1, 9}}, 0, true},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			m := newMulCircuit()
			prover, err := NewMockProver(m.cs, m.assign(t, c.rows), nil)
			require.NoError(t, err)

			assert.Len(t, prover.VerifyGates(), c.gateFailures)

			lookupFailures := prover.VerifyLookups()
			assert.Equal(t, c.lookupFailure, len(lookupFailures) > 0)

			err = prover.Verify()
			if c.gateFailures == 0 && !c.lookupFailure {
				assert.NoError(t, err)

				return
			}

			var merr *multierror.Error
			require.True(t, errors.As(err, &merr))

			var failure *VerifyFailure
			require.True(t, errors.As(merr.Errors[0], &failure))
		})
	}
}

func TestMockProver_RotationWraps(t *testing.T) {
	t.Parallel()

	cs := NewConstraintSystem()
	a := cs.AdviceColumn()

	// a(next) = a(cur) + 1 everywhere fails exactly at the wrap-around row
	cs.CreateGate("increment", []Constraint{
		{Name: "next", Poly: Sub(a.Next(), Add(a.Cur(), One()))},
	})

	assignment := NewAssignment(cs, 4)
	for i := 0; i < 4; i++ {
		require.NoError(t, assignment.Set(a, i, field.FromUint64(uint64(i))))
	}

	prover, err := NewMockProver(cs, assignment, nil)
	require.NoError(t, err)

	failures := prover.VerifyGates()
	require.Len(t, failures, 1)
	assert.Equal(t, 3, failures[0].Row)
}

func TestMockProver_Challenges(t *testing.T) {
	t.Parallel()

	cs := NewConstraintSystem()
	a := cs.AdviceColumn()
	r := cs.Challenge(FirstPhase)

	cs.CreateGate("challenge", []Constraint{
		{Name: "a = r", Poly: Sub(a.Cur(), r.Expr())},
	})

	assignment := NewAssignment(cs, 2)
	for i := 0; i < 2; i++ {
		require.NoError(t, assignment.Set(a, i, field.FromUint64(11)))
	}

	_, err := NewMockProver(cs, assignment, nil)
	require.Error(t, err)

	prover, err := NewMockProver(cs, assignment, []field.Element{field.FromUint64(11)})
	require.NoError(t, err)
	assert.NoError(t, prover.Verify())
}

func TestLayouter_TwoPasses(t *testing.T) {
	t.Parallel()

	cs := NewConstraintSystem()
	a := cs.AdviceColumn()
	assignment := NewAssignment(cs, 2)

	var passes []bool

	require.NoError(t, NewLayouter(cs, assignment).AssignRegion("r", func(region Region) error {
		_, shape := region.(shapeRegion)
		passes = append(passes, shape)

		return region.AssignAdvice("a", a, 1, field.FromUint64(5))
	}))

	assert.Equal(t, []bool{true, false}, passes)
	assert.Equal(t, field.FromUint64(5), assignment.Value(a, 1))

	err := NewLayouter(cs, assignment).AssignRegion("r", func(region Region) error {
		return region.AssignAdvice("a", a, 2, field.One)
	})
	assert.ErrorIs(t, err, ErrRowOutOfRange)
}

func TestExpression_Simplification(t *testing.T) {
	t.Parallel()

	cs := NewConstraintSystem()
	a := cs.AdviceColumn().Cur()

	assert.Same(t, a, Add(Zero(), a))
	assert.Same(t, a, Mul(One(), a))
	assert.True(t, IsConstantZero(Mul(a, Zero())))
	assert.Equal(t, 0, Sum().Degree())
	assert.Equal(t, 2, Mul(a, Add(a, One())).Degree())
}
