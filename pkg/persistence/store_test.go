package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewd/pkg/interview"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSession(id string, createdAt time.Time) *interview.Session {
	return &interview.Session{
		ConversationID:       id,
		CurrentStep:          interview.StateIntro,
		CurrentQuestionIndex: 1,
		TotalQuestions:       interview.TotalQuestions,
		Candidate:            interview.CandidateInfo{Name: "Dana", ExperienceLevel: "Intermediate"},
		Question:             "Tell me about your experience.",
		QAPairs:              []interview.QAPair{},
		Evaluations:          make(map[interview.State]interview.Evaluation),
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	session := testSession("conv-1", time.Now().UTC().Truncate(time.Second))
	session.QAPairs = append(session.QAPairs, interview.QAPair{
		Step:         interview.StateIntro,
		QuestionText: session.Question,
		AnswerText:   "I have used it daily for five years.",
		SubmittedAt:  session.CreatedAt,
	})
	session.Evaluations[interview.StateIntro] = interview.Evaluation{
		Score:     7.5,
		Feedback:  "Clear and specific.",
		Strengths: []string{"concrete examples"},
	}

	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, session.ConversationID, loaded.ConversationID)
	assert.Equal(t, session.CurrentStep, loaded.CurrentStep)
	assert.Equal(t, session.Candidate, loaded.Candidate)
	assert.Len(t, loaded.QAPairs, 1)
	assert.Equal(t, 7.5, loaded.Evaluations[interview.StateIntro].Score)
}

func TestStoreLoadNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Load(context.Background(), "no-such-conversation")
	require.Error(t, err)
	assert.ErrorIs(t, err, interview.ErrSessionNotFound)
}

func TestStoreSaveUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	session := testSession("conv-2", time.Now().UTC())
	require.NoError(t, store.Save(ctx, session))

	session.CurrentStep = interview.StateTheory
	session.CurrentQuestionIndex = 2
	session.Question = "What is a pivot table?"
	session.UpdatedAt = session.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, "conv-2")
	require.NoError(t, err)
	assert.Equal(t, interview.StateTheory, loaded.CurrentStep)
	assert.Equal(t, 2, loaded.CurrentQuestionIndex)

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
}

func TestStoreListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	older := testSession("conv-old", base.Add(-time.Hour))
	newer := testSession("conv-new", base)
	newer.CurrentStep = interview.StateComplete

	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "conv-new", summaries[0].ConversationID)
	assert.Equal(t, "conv-old", summaries[1].ConversationID)
	assert.True(t, summaries[0].IsComplete)
	assert.False(t, summaries[1].IsComplete)
}

func TestStoreListEmpty(t *testing.T) {
	store := openTestStore(t)

	summaries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
