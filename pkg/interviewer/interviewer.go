// Package interviewer is the text-generation collaborator: it turns step
// metadata into LLM prompts and parses the model's output into question text
// and structured evaluations.
package interviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"

	"interviewd/pkg/interview"
	"interviewd/pkg/llm"
	"interviewd/pkg/logx"
)

// priorContextTokenBudget bounds how much earlier-exchange text is packed
// into a question prompt. Newest exchanges are kept first.
const priorContextTokenBudget = 1500

// Interviewer implements the engine's Generator interface on top of an
// llm.Client.
type Interviewer struct {
	client llm.Client
	topic  string
	codec  tokenizer.Codec // nil falls back to character estimation
	logger *logx.Logger
}

// New creates an interviewer for the given client and skill topic.
func New(client llm.Client, topic string) *Interviewer {
	if topic == "" {
		topic = DefaultTopic
	}

	// All supported providers tokenize close enough to GPT-4 encoding for a
	// context budget check.
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		logx.Warnf("tokenizer unavailable, using character-based estimation: %v", err)
		codec = nil
	}

	return &Interviewer{
		client: client,
		topic:  topic,
		codec:  codec,
		logger: logx.NewLogger("interviewer"),
	}
}

// GenerateQuestion produces the question text for a step, conditioned on the
// candidate's experience level and a token-bounded window of the prior
// exchanges.
func (iv *Interviewer) GenerateQuestion(ctx context.Context, step interview.State, candidate interview.CandidateInfo, prior []interview.QAPair) (string, error) {
	if _, ok := stepPrompts[step]; !ok {
		return "", fmt.Errorf("no prompt configured for step %s", step)
	}

	req := llm.NewRequest(
		llm.SystemMessage(iv.questionSystemPrompt()),
		llm.UserMessage(iv.questionUserPrompt(step, candidate, iv.packPriorContext(prior))),
	)

	resp, err := iv.client.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("question generation for step %s: %w", step, err)
	}

	question := strings.TrimSpace(resp.Content)
	if question == "" {
		return "", fmt.Errorf("question generation for step %s returned no text", step)
	}

	iv.logger.Debug("generated %s question (%d tokens of prior context)", step, iv.countTokens(iv.packPriorContext(prior)))
	return question, nil
}

// GenerateEvaluation scores one answer, parsing the model's JSON reply into
// a structured evaluation.
func (iv *Interviewer) GenerateEvaluation(ctx context.Context, step interview.State, question, answer string) (interview.Evaluation, error) {
	if _, ok := stepPrompts[step]; !ok {
		return interview.Evaluation{}, fmt.Errorf("no prompt configured for step %s", step)
	}

	req := llm.NewRequest(
		llm.SystemMessage(iv.evaluationSystemPrompt()),
		llm.UserMessage(iv.evaluationUserPrompt(step, question, answer)),
	)

	resp, err := iv.client.Complete(ctx, req)
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("evaluation for step %s: %w", step, err)
	}

	evaluation, err := parseEvaluation(resp.Content)
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("evaluation for step %s: %w", step, err)
	}
	return evaluation, nil
}

// packPriorContext renders the prior exchanges newest-first until the token
// budget is spent, then restores interview order.
func (iv *Interviewer) packPriorContext(prior []interview.QAPair) string {
	if len(prior) == 0 {
		return ""
	}

	var kept []string
	used := 0
	for i := len(prior) - 1; i >= 0; i-- {
		pair := &prior[i]
		block := fmt.Sprintf("Q (%s): %s\nA: %s", pair.Step, pair.QuestionText, pair.AnswerText)
		cost := iv.countTokens(block)
		if used+cost > priorContextTokenBudget && len(kept) > 0 {
			break
		}
		kept = append(kept, block)
		used += cost
	}

	// kept is newest-first; reverse back to interview order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n\n")
}

func (iv *Interviewer) countTokens(text string) int {
	if iv.codec == nil {
		return len(text) / 4
	}
	count, err := iv.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// evaluationPayload is the JSON shape the evaluator prompt requests.
type evaluationPayload struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// parseEvaluation extracts the first JSON object from model output. Models
// occasionally wrap the object in prose or a code fence despite
// instructions.
func parseEvaluation(content string) (interview.Evaluation, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return interview.Evaluation{}, fmt.Errorf("no JSON object in model output")
	}

	var payload evaluationPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return interview.Evaluation{}, fmt.Errorf("malformed evaluation JSON: %w", err)
	}
	if payload.Feedback == "" {
		return interview.Evaluation{}, fmt.Errorf("evaluation JSON missing feedback")
	}

	score := payload.Score
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	return interview.Evaluation{
		Score:        score,
		Feedback:     payload.Feedback,
		Strengths:    payload.Strengths,
		Improvements: payload.Improvements,
	}, nil
}
