package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xPolygon/evm-circuit/evmcircuit/step"
)

func TestRules_Allowed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		features Features
		from     step.ExecutionState
		to       step.ExecutionState
		allowed  bool
	}{
		{"end tx to begin tx", Features{}, step.EndTx, step.BeginTx, true},
		{"end tx to end block", Features{}, step.EndTx, step.EndBlock, true},
		{"end tx to padding", Features{}, step.EndTx, step.Padding, true},
		{"end tx to end chunk", Features{}, step.EndTx, step.EndChunk, true},
		{"end tx to opcode", Features{}, step.EndTx, step.StateADD_SUB, false},
		{"end tx to invalid tx disabled", Features{}, step.EndTx, step.InvalidTx, false},
		{"end tx to invalid tx enabled", Features{InvalidTx: true}, step.EndTx, step.InvalidTx, true},
		{"invalid tx to invalid tx", Features{InvalidTx: true}, step.InvalidTx, step.InvalidTx, true},
		{"opcode to invalid tx", Features{InvalidTx: true}, step.StateADD_SUB, step.InvalidTx, false},
		{"padding to padding", Features{}, step.Padding, step.Padding, true},
		{"padding to begin tx", Features{}, step.Padding, step.BeginTx, false},
		{"end block loops", Features{}, step.EndBlock, step.EndBlock, true},
		{"end block to padding", Features{}, step.EndBlock, step.Padding, false},
		{"end chunk loops", Features{}, step.EndChunk, step.EndChunk, true},
		{"end chunk to begin tx", Features{}, step.EndChunk, step.BeginTx, false},
		{"opcode to end tx", Features{}, step.StateADD_SUB, step.EndTx, false},
		{"halting state to end tx", Features{}, step.StateSTOP, step.EndTx, true},
		{"error state to end tx", Features{}, step.ErrorInvalidOpcode, step.EndTx, true},
		{"begin tx to end tx", Features{}, step.BeginTx, step.EndTx, true},
		{"opcode to begin tx", Features{}, step.StateADD_SUB, step.BeginTx, false},
		{"begin chunk loops", Features{}, step.BeginChunk, step.BeginChunk, true},
		{"begin chunk to end block", Features{}, step.BeginChunk, step.EndBlock, true},
		{"opcode to begin chunk", Features{}, step.StateADD_SUB, step.BeginChunk, false},
		{"opcode to opcode", Features{}, step.StateADD_SUB, step.StateMUL_DIV_MOD, true},
		{"opcode to end block", Features{}, step.StateADD_SUB, step.EndBlock, false},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, c.allowed, Rules(c.features).Allowed(c.from, c.to))
		})
	}
}

func TestRules_Forbidden(t *testing.T) {
	t.Parallel()

	rules := Rules(Features{})

	forbidden := rules.Forbidden(step.Padding, []step.ExecutionState{
		step.Padding, step.BeginTx, step.EndBlock, step.StateADD_SUB, step.EndChunk,
	})

	assert.Equal(t, []step.ExecutionState{step.BeginTx, step.StateADD_SUB}, forbidden)
	assert.Empty(t, rules.Forbidden(step.StateADD_SUB, []step.ExecutionState{step.StateADD_SUB, step.StateSTOP}))
}

func TestRules_HaltingStatesReachEndTx(t *testing.T) {
	t.Parallel()

	rules := Rules(Features{})

	for _, state := range step.AllExecutionStates() {
		if state.IsInternal() {
			continue
		}

		assert.Equal(t, state.Halts(), rules.Allowed(state, step.EndTx), state.String())
	}
}
