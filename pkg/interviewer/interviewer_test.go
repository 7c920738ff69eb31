package interviewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewd/pkg/interview"
	"interviewd/pkg/llm"
)

// mockClient returns a canned response and records the last request.
type mockClient struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
}

func (m *mockClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return llm.CompletionResponse{}, m.err
	}
	return llm.CompletionResponse{Content: m.response}, nil
}

func (m *mockClient) ModelName() string { return "mock-model" }

func TestGenerateQuestion(t *testing.T) {
	client := &mockClient{response: "  What is a VLOOKUP?  \n"}
	iv := New(client, "Excel")

	question, err := iv.GenerateQuestion(context.Background(), interview.StateTheory,
		interview.CandidateInfo{Name: "Dana", ExperienceLevel: "Intermediate"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "What is a VLOOKUP?", question)

	system, messages, err := llm.SplitSystem(client.lastReq.Messages)
	require.NoError(t, err)
	assert.Contains(t, system, "Excel")
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Content, "Intermediate")
	assert.Contains(t, messages[0].Content, "question 2 of 6")
}

func TestGenerateQuestionIncludesPriorContext(t *testing.T) {
	client := &mockClient{response: "Next question?"}
	iv := New(client, "Excel")

	prior := []interview.QAPair{{
		Step:         interview.StateIntro,
		QuestionText: "Tell me about yourself.",
		AnswerText:   "I automate reports.",
	}}
	_, err := iv.GenerateQuestion(context.Background(), interview.StateTheory, interview.CandidateInfo{}, prior)
	require.NoError(t, err)

	_, messages, err := llm.SplitSystem(client.lastReq.Messages)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Content, "I automate reports.")
}

func TestGenerateQuestionErrors(t *testing.T) {
	iv := New(&mockClient{err: errors.New("rate limited")}, "")
	_, err := iv.GenerateQuestion(context.Background(), interview.StateIntro, interview.CandidateInfo{}, nil)
	require.Error(t, err)

	iv = New(&mockClient{response: "   "}, "")
	_, err = iv.GenerateQuestion(context.Background(), interview.StateIntro, interview.CandidateInfo{}, nil)
	require.Error(t, err)

	iv = New(&mockClient{response: "ok"}, "")
	_, err = iv.GenerateQuestion(context.Background(), interview.StateEvaluating, interview.CandidateInfo{}, nil)
	require.Error(t, err)
}

func TestGenerateEvaluation(t *testing.T) {
	client := &mockClient{response: `{"score": 7.5, "feedback": "Solid grasp.", "strengths": ["clarity"], "improvements": ["edge cases"]}`}
	iv := New(client, "Excel")

	eval, err := iv.GenerateEvaluation(context.Background(), interview.StateTheory, "Q?", "A.")
	require.NoError(t, err)
	assert.Equal(t, 7.5, eval.Score)
	assert.Equal(t, "Solid grasp.", eval.Feedback)
	assert.Equal(t, []string{"clarity"}, eval.Strengths)
	assert.Equal(t, []string{"edge cases"}, eval.Improvements)
}

func TestParseEvaluationToleratesWrapping(t *testing.T) {
	wrapped := "Here is my assessment:\n```json\n" +
		`{"score": 6, "feedback": "Good.", "strengths": [], "improvements": []}` +
		"\n```\nLet me know if you need more."

	eval, err := parseEvaluation(wrapped)
	require.NoError(t, err)
	assert.Equal(t, 6.0, eval.Score)
	assert.Equal(t, "Good.", eval.Feedback)
}

func TestParseEvaluationClampsScore(t *testing.T) {
	eval, err := parseEvaluation(`{"score": 14, "feedback": "f"}`)
	require.NoError(t, err)
	assert.Equal(t, 10.0, eval.Score)

	eval, err = parseEvaluation(`{"score": -2, "feedback": "f"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, eval.Score)
}

func TestParseEvaluationFailures(t *testing.T) {
	_, err := parseEvaluation("no json here")
	require.Error(t, err)

	_, err = parseEvaluation(`{"score": "seven", "feedback": "f"}`)
	require.Error(t, err)

	_, err = parseEvaluation(`{"score": 5}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing feedback")
}

func TestPackPriorContextBudget(t *testing.T) {
	iv := New(&mockClient{}, "Excel")

	long := strings.Repeat("word ", 3000)
	prior := []interview.QAPair{
		{Step: interview.StateIntro, QuestionText: "Q1", AnswerText: long},
		{Step: interview.StateTheory, QuestionText: "Q2", AnswerText: "short answer two"},
		{Step: interview.StatePractical, QuestionText: "Q3", AnswerText: "short answer three"},
	}

	packed := iv.packPriorContext(prior)

	// Newest exchanges survive; the oversized oldest one is dropped.
	assert.Contains(t, packed, "short answer three")
	assert.Contains(t, packed, "short answer two")
	assert.NotContains(t, packed, long)

	// Order is restored to interview order.
	assert.Less(t, strings.Index(packed, "Q2"), strings.Index(packed, "Q3"))
}

func TestPackPriorContextKeepsNewestEvenIfOverBudget(t *testing.T) {
	iv := New(&mockClient{}, "Excel")

	long := strings.Repeat("word ", 3000)
	packed := iv.packPriorContext([]interview.QAPair{
		{Step: interview.StateIntro, QuestionText: "Q1", AnswerText: long},
	})
	assert.Contains(t, packed, "Q1")
}

func TestDefaultTopicApplied(t *testing.T) {
	client := &mockClient{response: "question"}
	iv := New(client, "")

	_, err := iv.GenerateQuestion(context.Background(), interview.StateIntro, interview.CandidateInfo{}, nil)
	require.NoError(t, err)

	system, _, err := llm.SplitSystem(client.lastReq.Messages)
	require.NoError(t, err)
	assert.Contains(t, system, fmt.Sprintf("structured %s skills interview", DefaultTopic))
}
