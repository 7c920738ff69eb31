package interview

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultTopic is the skill domain assessed when configuration names none.
const DefaultTopic = "Excel"

// Band maps a minimum score to a visual indicator label. Bands are kept in
// descending Min order; the first band at or below the score wins.
type Band struct {
	Min   float64 `json:"min" yaml:"min"`
	Label string  `json:"label" yaml:"label"`
}

// ScoringPolicy is the configurable weighting and banding table applied by
// the aggregator.
type ScoringPolicy struct {
	Topic   string                `json:"topic" yaml:"topic"` // skill domain named in the rationale
	Weights map[Dimension]float64 `json:"weights" yaml:"weights"`
	Bands   []Band                `json:"bands" yaml:"bands"`
}

// DefaultScoringPolicy returns the standard dimension weights and indicator
// bands.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Topic: DefaultTopic,
		Weights: map[Dimension]float64{
			DimensionTheory:        0.25,
			DimensionPractical:     0.40,
			DimensionAdvanced:      0.20,
			DimensionCommunication: 0.15,
		},
		Bands: []Band{
			{Min: 8, Label: "🟢 Excellent"},
			{Min: 6, Label: "🟡 Good"},
			{Min: 4, Label: "🟠 Satisfactory"},
			{Min: 0, Label: "🔴 Needs Improvement"},
		},
	}
}

// Validate checks that the policy covers every dimension, that weights sum
// to 1, and that bands are non-empty and strictly descending.
func (p *ScoringPolicy) Validate() error {
	dims := []Dimension{DimensionTheory, DimensionPractical, DimensionAdvanced, DimensionCommunication}
	sum := 0.0
	for _, dim := range dims {
		weight, ok := p.Weights[dim]
		if !ok {
			return fmt.Errorf("scoring policy missing weight for dimension %s", dim)
		}
		if weight < 0 {
			return fmt.Errorf("scoring weight for %s is negative", dim)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights sum to %.4f, want 1.0", sum)
	}
	if len(p.Bands) == 0 {
		return fmt.Errorf("scoring policy has no indicator bands")
	}
	for i := 1; i < len(p.Bands); i++ {
		if p.Bands[i].Min >= p.Bands[i-1].Min {
			return fmt.Errorf("indicator bands must be in descending min order")
		}
	}
	if p.Bands[len(p.Bands)-1].Min > 0 {
		return fmt.Errorf("lowest indicator band must cover score 0")
	}
	return nil
}

// Indicator returns the label for a score.
func (p *ScoringPolicy) Indicator(score float64) string {
	for _, band := range p.Bands {
		if score >= band.Min {
			return band.Label
		}
	}
	return p.Bands[len(p.Bands)-1].Label
}

// Aggregate turns the per-step evaluations of a completed interview into a
// weighted propensity score and a structured report. Pure function of its
// inputs: recomputing from the same stored evaluations yields the same
// result.
//
// The report's internal structure is a contract with the presentation
// layer: one labeled section per step with fields in Question / Your
// Response / Score / Feedback order, followed by aggregated strengths and
// improvements.
func Aggregate(qaPairs []QAPair, evals map[State]Evaluation, candidate CandidateInfo, policy ScoringPolicy, reportDate time.Time) (*FinalResults, error) {
	if err := policy.Validate(); err != nil {
		return nil, NewValidationError("invalid scoring policy: %v", err)
	}
	steps := QuestionSteps()
	for _, step := range steps {
		if _, ok := evals[step]; !ok {
			return nil, NewValidationError("missing evaluation for step %s", step)
		}
	}
	if len(qaPairs) != len(steps) {
		return nil, NewValidationError("have %d answers, want %d", len(qaPairs), len(steps))
	}
	for i, pair := range qaPairs {
		if pair.Step != steps[i] {
			return nil, NewValidationError("answer %d is for step %s, want %s", i+1, pair.Step, steps[i])
		}
	}

	// Average each dimension's member steps, then apply the weights.
	sums := make(map[Dimension]float64)
	counts := make(map[Dimension]int)
	for _, step := range steps {
		dim, err := StepDimension(step)
		if err != nil {
			return nil, NewValidationError("%v", err)
		}
		sums[dim] += clampScore(evals[step].Score)
		counts[dim]++
	}

	weighted := 0.0
	for dim, weight := range policy.Weights {
		if counts[dim] == 0 {
			continue
		}
		weighted += weight * (sums[dim] / float64(counts[dim]))
	}
	score := math.Round(clampScore(weighted)*10) / 10

	topic := policy.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &FinalResults{
		PropensityScore: &PropensityScore{
			Score: score,
			Rationale: fmt.Sprintf("Based on comprehensive %s skill assessment covering "+
				"theoretical knowledge, practical application, and advanced features", topic),
			VisualIndicator: policy.Indicator(score),
		},
		OverallSummary: renderSummary(qaPairs, evals, candidate, policy, score),
		ReportDate:     reportDate,
	}, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// renderSummary builds the parseable report body.
func renderSummary(qaPairs []QAPair, evals map[State]Evaluation, candidate CandidateInfo, policy ScoringPolicy, score float64) string {
	var b strings.Builder

	b.WriteString("INTERVIEW REPORT\n")
	name := candidate.Name
	if name == "" {
		name = "Candidate"
	}
	fmt.Fprintf(&b, "Candidate: %s (%s)\n", name, candidate.ExperienceLevel)

	var strengths, improvements []string
	seenStrength := make(map[string]bool)
	seenImprovement := make(map[string]bool)

	for i, pair := range qaPairs {
		eval := evals[pair.Step]

		fmt.Fprintf(&b, "\n## %d. %s\n", i+1, pair.Step)
		fmt.Fprintf(&b, "Question: %s\n", pair.QuestionText)
		fmt.Fprintf(&b, "Your Response: %s\n", pair.AnswerText)
		fmt.Fprintf(&b, "Score: %.1f/10\n", clampScore(eval.Score))
		fmt.Fprintf(&b, "Feedback: %s\n", eval.Feedback)

		for _, s := range eval.Strengths {
			if s != "" && !seenStrength[s] {
				seenStrength[s] = true
				strengths = append(strengths, s)
			}
		}
		for _, s := range eval.Improvements {
			if s != "" && !seenImprovement[s] {
				seenImprovement[s] = true
				improvements = append(improvements, s)
			}
		}
	}

	b.WriteString("\n## Strengths\n")
	for _, s := range strengths {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	b.WriteString("\n## Areas for Improvement\n")
	for _, s := range improvements {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	fmt.Fprintf(&b, "\nOverall Score: %.1f/10 (%s)\n", score, policy.Indicator(score))
	return b.String()
}
