package interviewer

import (
	"fmt"
	"strings"

	"interviewd/pkg/interview"
)

// DefaultTopic is the skill domain the interview assesses when the config
// names none.
const DefaultTopic = interview.DefaultTopic

// stepPrompt parametrizes one question step. Every step runs the same
// generate-question / evaluate-answer loop; only this configuration differs.
type stepPrompt struct {
	Focus    string // what the step probes
	Guidance string // instruction to the question generator
}

//nolint:gochecknoglobals // Static per-step prompt configuration
var stepPrompts = map[interview.State]stepPrompt{
	interview.StateIntro: {
		Focus:    "background and communication",
		Guidance: "Open the interview with a welcoming tone. Ask the candidate to describe their hands-on experience and the kinds of problems they have solved.",
	},
	interview.StateTheory: {
		Focus:    "theoretical knowledge",
		Guidance: "Ask one conceptual question that tests understanding of core concepts and terminology, appropriate for the candidate's level.",
	},
	interview.StatePractical: {
		Focus:    "practical application",
		Guidance: "Pose one realistic workplace scenario and ask how the candidate would solve it step by step.",
	},
	interview.StateAdvanced: {
		Focus:    "advanced features",
		Guidance: "Ask one question about advanced functionality that separates experienced practitioners from beginners.",
	},
	interview.StateAdvanced2: {
		Focus:    "advanced problem solving",
		Guidance: "Pose one challenging problem that requires combining several advanced features to solve.",
	},
	interview.StateAdvanced3: {
		Focus:    "optimization and best practices",
		Guidance: "Ask one question about performance, maintainability, or best practices when working at scale.",
	},
}

func (iv *Interviewer) questionSystemPrompt() string {
	return fmt.Sprintf(
		"You are a professional technical interviewer conducting a structured %s skills interview. "+
			"Ask exactly one clear question at a time. Do not evaluate or give feedback. "+
			"Do not number the question or add any preamble beyond a single short lead-in sentence.",
		iv.topic)
}

func (iv *Interviewer) questionUserPrompt(step interview.State, candidate interview.CandidateInfo, priorContext string) string {
	prompt := stepPrompts[step]

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate experience level: %s\n", candidate.ExperienceLevel)
	if candidate.Name != "" {
		fmt.Fprintf(&b, "Candidate name: %s\n", candidate.Name)
	}
	fmt.Fprintf(&b, "Interview stage: %s, question %d of %d, focus: %s\n",
		step, interview.StepNumber(step), interview.TotalQuestions, prompt.Focus)
	if priorContext != "" {
		fmt.Fprintf(&b, "\nEarlier exchanges in this interview:\n%s\n", priorContext)
	}
	fmt.Fprintf(&b, "\n%s", prompt.Guidance)
	return b.String()
}

func (iv *Interviewer) evaluationSystemPrompt() string {
	return fmt.Sprintf(
		"You are an expert %s interviewer scoring a candidate's answer. "+
			"Respond with a single JSON object and nothing else, using exactly these fields: "+
			`{"score": <number 0-10>, "feedback": "<2-3 sentences>", `+
			`"strengths": ["<short phrase>", ...], "improvements": ["<short phrase>", ...]}`,
		iv.topic)
}

func (iv *Interviewer) evaluationUserPrompt(step interview.State, question, answer string) string {
	prompt := stepPrompts[step]

	var b strings.Builder
	fmt.Fprintf(&b, "Interview stage: %s (focus: %s)\n\n", step, prompt.Focus)
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	fmt.Fprintf(&b, "Candidate's answer: %s\n\n", answer)
	b.WriteString("Score the answer and return the JSON object.")
	return b.String()
}
