package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionStepOrder(t *testing.T) {
	steps := QuestionSteps()
	require.Len(t, steps, TotalQuestions)
	assert.Equal(t, []State{
		StateIntro, StateTheory, StatePractical,
		StateAdvanced, StateAdvanced2, StateAdvanced3,
	}, steps)
}

func TestNextStepWalksTheSequence(t *testing.T) {
	steps := QuestionSteps()
	for i := 0; i < len(steps)-1; i++ {
		next, ok := NextStep(steps[i])
		require.True(t, ok, "step %s should have a successor", steps[i])
		assert.Equal(t, steps[i+1], next)
	}

	// The last step ends the question phase.
	_, ok := NextStep(StateAdvanced3)
	assert.False(t, ok)

	_, ok = NextStep(StateEvaluating)
	assert.False(t, ok)
	_, ok = NextStep(State("bogus"))
	assert.False(t, ok)
}

func TestStepNumber(t *testing.T) {
	assert.Equal(t, 1, StepNumber(StateIntro))
	assert.Equal(t, 4, StepNumber(StateAdvanced))
	assert.Equal(t, 6, StepNumber(StateAdvanced3))
	assert.Equal(t, 0, StepNumber(StateComplete))
}

func TestIsQuestionStepAndTerminal(t *testing.T) {
	assert.True(t, IsQuestionStep(StateIntro))
	assert.True(t, IsQuestionStep(StateAdvanced3))
	assert.False(t, IsQuestionStep(StateEvaluating))
	assert.False(t, IsQuestionStep(StateComplete))

	assert.True(t, IsTerminalState(StateComplete))
	assert.True(t, IsTerminalState(StateRejected))
	assert.False(t, IsTerminalState(StateAwaitingApproval))
}

func TestStepDimension(t *testing.T) {
	cases := map[State]Dimension{
		StateIntro:     DimensionCommunication,
		StateTheory:    DimensionTheory,
		StatePractical: DimensionPractical,
		StateAdvanced:  DimensionAdvanced,
		StateAdvanced2: DimensionAdvanced,
		StateAdvanced3: DimensionAdvanced,
	}
	for step, want := range cases {
		dim, err := StepDimension(step)
		require.NoError(t, err)
		assert.Equal(t, want, dim)
	}

	_, err := StepDimension(StateComplete)
	assert.Error(t, err)
}

func TestTransitionMap(t *testing.T) {
	// Every state is reachable and terminal states have no successors.
	for _, state := range AllStates() {
		assert.True(t, IsValidState(state))
	}

	assert.True(t, IsValidTransition(StateIntro, StateTheory))
	assert.True(t, IsValidTransition(StateAdvanced3, StateEvaluating))
	assert.True(t, IsValidTransition(StateAwaitingApproval, StateComplete))
	assert.True(t, IsValidTransition(StateAwaitingApproval, StateRejected))

	assert.False(t, IsValidTransition(StateIntro, StatePractical))
	assert.False(t, IsValidTransition(StateComplete, StateIntro))
	assert.Empty(t, ValidNextStates(StateComplete))
	assert.Empty(t, ValidNextStates(StateRejected))
}
