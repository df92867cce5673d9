package execution

import (
	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/evm-circuit/evmcircuit/challenge"
	"github.com/0xPolygon/evm-circuit/evmcircuit/constraint"
	"github.com/0xPolygon/evm-circuit/evmcircuit/param"
	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/evmcircuit/table"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// Config is the configured execution layer
type Config struct {
	logger   hclog.Logger
	features Features
	checkRw  bool

	qUsable    plonk.Column
	qStepFirst plonk.Column
	qStepLast  plonk.Column

	qStep          plonk.Column
	numRowsUntil   plonk.Column
	numRowsInverse plonk.Column

	advices    []plonk.Column
	step       *step.Step
	challenges challenge.Challenges
	tables     *table.Tables
	stitcher   *stitcher
	registry   *Registry
}

// Configure allocates the execution region and configures one gadget per
// execution state
func Configure(
	cs *plonk.ConstraintSystem,
	tables *table.Tables,
	challenges challenge.Challenges,
	opts Options,
) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	c := &Config{
		logger:     logger.Named("execution"),
		features:   opts.Features,
		checkRw:    opts.CheckRwLookups,
		challenges: challenges,
		tables:     tables,
		registry:   &Registry{},
	}

	c.qUsable = cs.Selector()
	c.qStepFirst = cs.Selector()
	c.qStepLast = cs.Selector()
	c.qStep = cs.AdviceColumn()
	c.numRowsUntil = cs.AdviceColumn()
	c.numRowsInverse = cs.AdviceColumn()

	for _, a := range []struct {
		col  plonk.Column
		name string
	}{
		{c.qUsable, "EVM_q_usable"},
		{c.qStepFirst, "EVM_q_step_first"},
		{c.qStepLast, "EVM_q_step_last"},
		{c.qStep, "EVM_q_step"},
		{c.numRowsUntil, "EVM_rows_until_next_step"},
		{c.numRowsInverse, "EVM_num_rows_inv"},
	} {
		cs.AnnotateColumn(a.col, a.name)
	}

	c.advices = step.AllocateColumns(cs)
	c.step = step.New(c.advices, 0)

	if err := c.step.CellManager.Err(); err != nil {
		return nil, err
	}

	c.configureAllocator(cs)
	c.configureStepState(cs)

	factories := opts.Gadgets
	if factories == nil {
		factories = DefaultGadgets()
	}

	for _, factory := range factories {
		if err := c.configureGadget(cs, factory); err != nil {
			return nil, err
		}
	}

	if err := c.checkRegistry(); err != nil {
		return nil, err
	}

	c.configureTransitions(cs)
	c.stitcher = configureStitcher(cs, c)
	c.configureLookups(cs)

	c.logger.Debug("configured",
		"gadgets", len(c.registry.States()),
		"gates", len(cs.Gates()),
		"lookups", len(cs.Lookups()),
	)

	return c, nil
}

// Registry returns the configured gadgets
func (c *Config) Registry() *Registry {
	return c.registry
}

// Advices returns the step columns
func (c *Config) Advices() []plonk.Column {
	return c.advices
}

// Features returns the enabled optional states
func (c *Config) Features() Features {
	return c.features
}

// StateAt decodes the execution state of the step starting at row of an
// assigned grid. It reports false when no configured state is selected.
func (c *Config) StateAt(a *plonk.Assignment, row int) (step.ExecutionState, bool) {
	ev := a.At(row, nil)

	for _, state := range c.registry.States() {
		if v := c.step.ExecutionStateSelector(state).Evaluate(ev); v.IsOne() {
			return state, true
		}
	}

	return 0, false
}

func (c *Config) newBuilder(state step.ExecutionState, nextOffset int) *constraint.Builder {
	return constraint.NewBuilder(c.step.Clone(), step.New(c.advices, nextOffset), c.challenges, state)
}

// configureGadget configures a gadget twice: the first pass measures its
// height with the next step parked at the maximum height, the second pass
// places the next step right after it and emits the gate
func (c *Config) configureGadget(cs *plonk.ConstraintSystem, factory Factory) error {
	trial := factory()
	state := trial.ExecutionState()

	if !c.features.Enabled(state) {
		return nil
	}

	if existing, err := c.registry.entry(state); err == nil {
		return duplicateError(state, existing.gadget.Name(), trial.Name())
	}

	cb := c.newBuilder(state, param.MaxStepHeight)
	trial.Configure(cb)

	measured, err := cb.Build()
	if err != nil {
		return err
	}

	height := measured.Height
	if height > param.MaxStepHeight {
		return heightError(state, height, param.MaxStepHeight)
	}

	g := factory()
	cb = c.newBuilder(state, height)
	g.Configure(cb)

	result, err := cb.Build()
	if err != nil {
		return err
	}

	if result.Height != height {
		return heightError(state, result.Height, height)
	}

	c.createGadgetGate(cs, g, result)

	return c.registry.register(g, result)
}

func (c *Config) createGadgetGate(cs *plonk.ConstraintSystem, g Gadget, result *constraint.Result) {
	qUsable := c.qUsable.Cur()
	qStep := c.qStep.Cur()
	selector := c.step.ExecutionStateSelector(g.ExecutionState())

	var polys []plonk.Constraint

	add := func(constraints []plonk.Constraint, gate plonk.Expression) {
		for _, con := range constraints {
			polys = append(polys, plonk.Constraint{
				Name: con.Name,
				Poly: plonk.Product(qUsable, selector, gate, con.Poly),
			})
		}
	}

	rows := plonk.Constraint{
		Name: "rows until next step",
		Poly: plonk.Sub(c.numRowsUntil.Next(), plonk.Const(uint64(result.Height-1))),
	}

	add(append(result.Constraints.Step[:len(result.Constraints.Step):len(result.Constraints.Step)], rows), qStep)
	add(result.Constraints.StepFirst, c.qStepFirst.Cur())
	add(result.Constraints.StepLast, c.qStepLast.Cur())
	add(result.Constraints.NotStepLast, plonk.Mul(qStep, plonk.Not(c.qStepLast.Cur())))

	cs.CreateGate(g.Name(), polys)
}

// checkRegistry verifies that every enabled state has a gadget and that the
// states closing a chunk fit one row
func (c *Config) checkRegistry() error {
	var missing []step.ExecutionState

	for _, state := range step.AllExecutionStates() {
		if c.features.Enabled(state) && !c.registry.Has(state) {
			missing = append(missing, state)
		}
	}

	if len(missing) > 0 {
		return missingError(missing)
	}

	for _, state := range []step.ExecutionState{step.Padding, step.EndChunk, step.EndBlock} {
		if h := c.registry.Height(state); h != 1 {
			return heightError(state, h, 1)
		}
	}

	return nil
}

// configureStepState constrains the state cells shared by every step
func (c *Config) configureStepState(cs *plonk.ConstraintSystem) {
	qUsable := c.qUsable.Cur()
	qStep := c.qStep.Cur()
	state := c.step.State

	var polys []plonk.Constraint

	for _, con := range state.ExecutionState.Constraints() {
		polys = append(polys, plonk.Constraint{
			Name: con.Name,
			Poly: plonk.Product(qUsable, qStep, con.Poly),
		})
	}

	for _, b := range []struct {
		name string
		expr plonk.Expression
	}{
		{"is_root is boolean", state.IsRoot.Expr()},
		{"is_create is boolean", state.IsCreate.Expr()},
	} {
		polys = append(polys, plonk.Constraint{
			Name: b.name,
			Poly: plonk.Product(qUsable, qStep, b.expr, plonk.Not(b.expr)),
		})
	}

	polys = append(polys, plonk.Constraint{
		Name: "first step inner rw counter is 1",
		Poly: plonk.Product(qUsable, c.qStepFirst.Cur(), plonk.Sub(state.InnerRwCounter.Expr(), plonk.One())),
	})

	cs.CreateGate("execution state", polys)
}
