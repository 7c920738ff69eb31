package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewd/pkg/approval"
	"interviewd/pkg/interview"
)

// memStore is an in-memory interview.Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*interview.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*interview.Session)}
}

func (m *memStore) Load(_ context.Context, id string) (*interview.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interview.ErrSessionNotFound, id)
	}
	return session.Clone(), nil
}

func (m *memStore) Save(_ context.Context, session *interview.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ConversationID] = session.Clone()
	return nil
}

func (m *memStore) List(_ context.Context) ([]interview.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := make([]interview.Summary, 0, len(m.sessions))
	for _, session := range m.sessions {
		summaries = append(summaries, interview.MakeSummary(session))
	}
	return summaries, nil
}

// stubGenerator returns canned questions and a fixed evaluation.
type stubGenerator struct{}

func (stubGenerator) GenerateQuestion(_ context.Context, step interview.State, _ interview.CandidateInfo, _ []interview.QAPair) (string, error) {
	return fmt.Sprintf("Question for %s?", step), nil
}

func (stubGenerator) GenerateEvaluation(_ context.Context, _ interview.State, _, _ string) (interview.Evaluation, error) {
	return interview.Evaluation{Score: 8, Feedback: "Solid answer."}, nil
}

func newTestServer(t *testing.T, timeout time.Duration) (*httptest.Server, *approval.Gate) {
	t.Helper()
	gate := approval.NewGate(approval.NewLogNotifier(), timeout)
	engine := interview.NewEngine(newMemStore(), stubGenerator{}, gate, interview.DefaultScoringPolicy())
	server := NewServer(":0", engine, gate)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, gate
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeSnapshot(t *testing.T, resp *http.Response) interview.Snapshot {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var snap interview.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestCreateSession(t *testing.T) {
	ts, _ := newTestServer(t, time.Minute)

	resp := postJSON(t, ts.URL+"/api/sessions", createSessionRequest{
		CandidateName:   "Dana",
		ExperienceLevel: "intermediate",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	snap := decodeSnapshot(t, resp)
	assert.NotEmpty(t, snap.ConversationID)
	assert.Equal(t, interview.StateIntro, snap.CurrentStep)
	assert.Equal(t, "Question for intro?", snap.Question)
	assert.Equal(t, 1, snap.CurrentQuestion)
	assert.Equal(t, 6, snap.TotalQuestions)
	assert.Equal(t, "Intermediate", snap.Candidate.ExperienceLevel)
}

func TestCreateSessionFromIntakeText(t *testing.T) {
	ts, _ := newTestServer(t, time.Minute)

	resp := postJSON(t, ts.URL+"/api/sessions", createSessionRequest{
		Intake: "Name: Dana, Experience Level: expert",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	snap := decodeSnapshot(t, resp)
	assert.Equal(t, "Dana", snap.Candidate.Name)
	assert.Equal(t, "Expert", snap.Candidate.ExperienceLevel)
}

func TestCreateSessionRejectsUnknownLevel(t *testing.T) {
	ts, _ := newTestServer(t, time.Minute)

	resp := postJSON(t, ts.URL+"/api/sessions", createSessionRequest{ExperienceLevel: "wizard"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSessionNotFound(t *testing.T) {
	ts, _ := newTestServer(t, time.Minute)

	resp, err := http.Get(ts.URL + "/api/sessions/ghost")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitAnswerWrongStep(t *testing.T) {
	ts, _ := newTestServer(t, time.Minute)

	created := decodeSnapshot(t, postJSON(t, ts.URL+"/api/sessions", createSessionRequest{}))

	resp := postJSON(t, ts.URL+"/api/sessions/"+created.ConversationID+"/answers", submitAnswerRequest{
		Step:   "theory",
		Answer: "Out of order.",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSubmitAnswerEmptyBody(t *testing.T) {
	ts, _ := newTestServer(t, time.Minute)

	created := decodeSnapshot(t, postJSON(t, ts.URL+"/api/sessions", createSessionRequest{}))

	resp := postJSON(t, ts.URL+"/api/sessions/"+created.ConversationID+"/answers", submitAnswerRequest{
		Step: "intro",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResolveReviewNoPending(t *testing.T) {
	ts, _ := newTestServer(t, time.Minute)

	resp := postJSON(t, ts.URL+"/api/reviews/ghost", resolveReviewRequest{Decision: "yes"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, time.Minute)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestFullInterviewWithApproval walks all six steps over HTTP while a
// reviewer goroutine approves the session when it appears in the review
// queue.
func TestFullInterviewWithApproval(t *testing.T) {
	ts, gate := newTestServer(t, time.Minute)

	created := decodeSnapshot(t, postJSON(t, ts.URL+"/api/sessions", createSessionRequest{
		CandidateName:   "Rae",
		ExperienceLevel: "Advanced",
	}))

	// Reviewer: approve as soon as the session suspends.
	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.After(10 * time.Second)
		for {
			select {
			case <-deadline:
				return
			case <-time.After(10 * time.Millisecond):
			}
			if len(gate.PendingIDs()) == 0 {
				continue
			}
			resp := postJSON(t, ts.URL+"/api/reviews/"+created.ConversationID, resolveReviewRequest{Decision: "yes"})
			_ = resp.Body.Close()
			return
		}
	}()

	var snap interview.Snapshot
	for _, step := range interview.QuestionSteps() {
		resp := postJSON(t, ts.URL+"/api/sessions/"+created.ConversationID+"/answers", submitAnswerRequest{
			Step:   string(step),
			Answer: "A considered answer.",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap = decodeSnapshot(t, resp)
	}
	<-done

	assert.Equal(t, interview.StateComplete, snap.CurrentStep)
	assert.True(t, snap.IsComplete)
	assert.True(t, snap.HumanApproved)
	require.NotNil(t, snap.FinalResults)
	require.NotNil(t, snap.FinalResults.PropensityScore)
	assert.Equal(t, 8.0, snap.FinalResults.PropensityScore.Score)
	assert.Equal(t, "🟢 Excellent", snap.FinalResults.PropensityScore.VisualIndicator)
}
