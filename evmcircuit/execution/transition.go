package execution

import (
	"golang.org/x/exp/slices"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
	"github.com/0xPolygon/evm-circuit/plonk"
)

// TransitionRule lists the states allowed next to State. In an outgoing
// rule they are the states that may follow State, in an incoming rule the
// states that may precede it.
type TransitionRule struct {
	State   step.ExecutionState   `json:"state"`
	Allowed []step.ExecutionState `json:"allowed"`
}

// TransitionRules is the state machine between consecutive steps. States
// without a rule may be followed or preceded by anything.
type TransitionRules struct {
	Outgoing []TransitionRule `json:"outgoing"`
	Incoming []TransitionRule `json:"incoming"`
}

// Rules returns the transition rules of the circuit with features
func Rules(features Features) TransitionRules {
	withInvalidTx := func(states ...step.ExecutionState) []step.ExecutionState {
		if features.InvalidTx {
			states = append(states, step.InvalidTx)
		}

		return states
	}

	rules := TransitionRules{
		Outgoing: []TransitionRule{
			{step.EndTx, withInvalidTx(step.BeginTx, step.EndBlock, step.Padding, step.EndChunk)},
			{step.EndChunk, []step.ExecutionState{step.EndChunk}},
			{step.Padding, []step.ExecutionState{step.Padding, step.EndBlock, step.EndChunk}},
			{step.EndBlock, []step.ExecutionState{step.EndBlock}},
		},
		Incoming: []TransitionRule{
			{step.BeginTx, withInvalidTx(step.EndTx)},
			{step.EndTx, append(step.HaltingStates(), step.BeginTx)},
			{step.EndBlock, withInvalidTx(step.BeginChunk, step.EndTx, step.EndBlock, step.Padding)},
			{step.BeginChunk, []step.ExecutionState{step.BeginChunk}},
		},
	}

	if features.InvalidTx {
		rules.Incoming = append(rules.Incoming, TransitionRule{
			State:   step.InvalidTx,
			Allowed: []step.ExecutionState{step.EndTx, step.InvalidTx},
		})
	}

	return rules
}

func findRule(rules []TransitionRule, state step.ExecutionState) (TransitionRule, bool) {
	for _, r := range rules {
		if r.State == state {
			return r, true
		}
	}

	return TransitionRule{}, false
}

// Forbidden returns the states among candidates that may not follow from
func (r TransitionRules) Forbidden(from step.ExecutionState, candidates []step.ExecutionState) []step.ExecutionState {
	out, hasOut := findRule(r.Outgoing, from)

	var forbidden []step.ExecutionState

	for _, to := range candidates {
		if hasOut && !slices.Contains(out.Allowed, to) {
			forbidden = append(forbidden, to)

			continue
		}

		if in, ok := findRule(r.Incoming, to); ok && !slices.Contains(in.Allowed, from) {
			forbidden = append(forbidden, to)
		}
	}

	return forbidden
}

// Allowed reports whether to may follow from
func (r TransitionRules) Allowed(from, to step.ExecutionState) bool {
	return len(r.Forbidden(from, []step.ExecutionState{to})) == 0
}

// configureTransitions forbids, for every configured state, the next states
// the rules exclude. The constraint is off on the last block.
func (c *Config) configureTransitions(cs *plonk.ConstraintSystem) {
	rules := Rules(c.features)
	states := c.registry.States()

	gate := plonk.Product(c.qUsable.Cur(), c.qStep.Cur(), plonk.Not(c.qStepLast.Cur()))

	for _, from := range states {
		forbidden := rules.Forbidden(from, states)
		if len(forbidden) == 0 {
			continue
		}

		next := step.New(c.advices, c.registry.Height(from))

		cs.CreateGate("transition from "+from.String(), []plonk.Constraint{{
			Name: "next state is allowed",
			Poly: plonk.Product(gate, c.step.ExecutionStateSelector(from), next.ExecutionStateSelector(forbidden...)),
		}})
	}
}
