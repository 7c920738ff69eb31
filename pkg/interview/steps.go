package interview

import "fmt"

// State identifies where a session is in its lifecycle. The first six states
// are question steps; the remainder are pipeline and terminal states.
type State string

const (
	// Question steps, in interview order.
	StateIntro     State = "intro"
	StateTheory    State = "theory"
	StatePractical State = "practical"
	StateAdvanced  State = "advanced"
	StateAdvanced2 State = "advanced2"
	StateAdvanced3 State = "advanced3"

	// Pipeline states after the last answer is recorded.
	StateEvaluating       State = "evaluating"
	StateAwaitingApproval State = "awaiting_approval"

	// Terminal states.
	StateComplete State = "complete"
	StateRejected State = "rejected"
)

// TotalQuestions is the fixed number of question steps per session.
const TotalQuestions = 6

// questionSteps is the fixed interview order. Sessions walk this list front
// to back with no skips and no repeats.
//
//nolint:gochecknoglobals // Static step metadata
var questionSteps = []State{
	StateIntro,
	StateTheory,
	StatePractical,
	StateAdvanced,
	StateAdvanced2,
	StateAdvanced3,
}

// QuestionSteps returns the ordered question steps.
func QuestionSteps() []State {
	steps := make([]State, len(questionSteps))
	copy(steps, questionSteps)
	return steps
}

// IsQuestionStep reports whether s is one of the six question steps.
func IsQuestionStep(s State) bool {
	return stepIndex(s) >= 0
}

// IsTerminalState reports whether s is a terminal state.
func IsTerminalState(s State) bool {
	return s == StateComplete || s == StateRejected
}

func stepIndex(s State) int {
	for i, step := range questionSteps {
		if step == s {
			return i
		}
	}
	return -1
}

// StepNumber returns the 1-based question number for a question step, or 0
// for non-question states.
func StepNumber(s State) int {
	return stepIndex(s) + 1
}

// NextStep returns the question step following s, or false when s is the
// last step and the session should move to evaluation. Deterministic, no
// side effects.
func NextStep(s State) (State, bool) {
	idx := stepIndex(s)
	if idx < 0 || idx == len(questionSteps)-1 {
		return "", false
	}
	return questionSteps[idx+1], true
}

// Dimension is a weighted skill dimension fed by one or more question steps.
type Dimension string

const (
	DimensionTheory        Dimension = "theoretical_knowledge"
	DimensionPractical     Dimension = "practical_application"
	DimensionAdvanced      Dimension = "advanced_skills"
	DimensionCommunication Dimension = "communication_problem_solving"
)

// StepDimension maps a question step to the skill dimension its score feeds.
func StepDimension(s State) (Dimension, error) {
	switch s {
	case StateIntro:
		return DimensionCommunication, nil
	case StateTheory:
		return DimensionTheory, nil
	case StatePractical:
		return DimensionPractical, nil
	case StateAdvanced, StateAdvanced2, StateAdvanced3:
		return DimensionAdvanced, nil
	default:
		return "", fmt.Errorf("state %s has no skill dimension", s)
	}
}

// transitions is the canonical state transition map. A session moves through
// the question steps in order, then evaluating, awaiting_approval, and one
// of the terminal states. Terminal states have no successors.
//
//nolint:gochecknoglobals // Single source of truth for transitions
var transitions = map[State][]State{
	StateIntro:            {StateTheory},
	StateTheory:           {StatePractical},
	StatePractical:        {StateAdvanced},
	StateAdvanced:         {StateAdvanced2},
	StateAdvanced2:        {StateAdvanced3},
	StateAdvanced3:        {StateEvaluating},
	StateEvaluating:       {StateAwaitingApproval},
	StateAwaitingApproval: {StateComplete, StateRejected},
	StateComplete:         {},
	StateRejected:         {},
}

// ValidNextStates returns the allowed successor states for a given state.
func ValidNextStates(from State) []State {
	return transitions[from]
}

// IsValidTransition checks a transition against the canonical map.
func IsValidTransition(from, to State) bool {
	for _, state := range transitions[from] {
		if state == to {
			return true
		}
	}
	return false
}

// AllStates returns every valid state in lifecycle order.
func AllStates() []State {
	return []State{
		StateIntro, StateTheory, StatePractical,
		StateAdvanced, StateAdvanced2, StateAdvanced3,
		StateEvaluating, StateAwaitingApproval,
		StateComplete, StateRejected,
	}
}

// IsValidState checks that s is a known session state.
func IsValidState(s State) bool {
	_, ok := transitions[s]
	return ok
}
