// Package interview implements the interview orchestration core: the step
// sequencer, the per-session state machine, and the evaluation aggregator
// that turns per-step scores into a weighted propensity score.
package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"interviewd/pkg/approval"
	"interviewd/pkg/logx"
)

// Store is the persistence collaborator: a document store holding one
// session per conversation. Save must be atomic per call.
type Store interface {
	// Load returns the stored session or ErrSessionNotFound.
	Load(ctx context.Context, conversationID string) (*Session, error)
	// Save persists the whole session document in one atomic write.
	Save(ctx context.Context, session *Session) error
	// List returns summaries of all sessions, newest first.
	List(ctx context.Context) ([]Summary, error)
}

// Generator is the text-generation collaborator.
type Generator interface {
	// GenerateQuestion produces the question text for a step, conditioned on
	// the candidate and the prior exchanges.
	GenerateQuestion(ctx context.Context, step State, candidate CandidateInfo, prior []QAPair) (string, error)
	// GenerateEvaluation scores one answer.
	GenerateEvaluation(ctx context.Context, step State, question, answer string) (Evaluation, error)
}

// Approver suspends a flow until a human decision, a fault, or the wait
// bound resolves it.
type Approver interface {
	Await(conversationID, summary string) (approval.Outcome, error)
}

// Recorder receives engine metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordSessionCreated()
	RecordAnswer(step State)
	RecordGeneration(kind string, duration time.Duration, err error)
	RecordApproval(outcome approval.OutcomeKind, wait time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordSessionCreated()                              {}
func (nopRecorder) RecordAnswer(State)                                 {}
func (nopRecorder) RecordGeneration(string, time.Duration, error)      {}
func (nopRecorder) RecordApproval(approval.OutcomeKind, time.Duration) {}

// Engine is the session state machine. It owns all session mutation: it
// picks the next step, delegates text generation, records Q&A pairs,
// aggregates the final score, and drives the approval gate before
// finalizing.
//
// Concurrency: each conversation is a single logical flow. A submission
// arriving while another is in flight for the same conversation fails fast
// with ErrConflict rather than queueing; different conversations progress
// independently.
type Engine struct {
	store     Store
	generator Generator
	approver  Approver
	recorder  Recorder
	policy    ScoringPolicy
	logger    *logx.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// NewEngine wires the engine to its collaborators.
func NewEngine(store Store, generator Generator, approver Approver, policy ScoringPolicy) *Engine {
	return &Engine{
		store:     store,
		generator: generator,
		approver:  approver,
		recorder:  nopRecorder{},
		policy:    policy,
		logger:    logx.NewLogger("engine"),
		inflight:  make(map[string]bool),
	}
}

// SetRecorder installs a metrics recorder. Optional; the default is a no-op.
func (e *Engine) SetRecorder(r Recorder) {
	if r != nil {
		e.recorder = r
	}
}

// CreateSession starts a new interview for the candidate and returns the
// first question. The session is persisted only after the question has been
// generated, so a generation failure leaves no trace.
func (e *Engine) CreateSession(ctx context.Context, candidate CandidateInfo) (Snapshot, error) {
	if strings.TrimSpace(candidate.ExperienceLevel) == "" {
		candidate.ExperienceLevel = DefaultExperienceLevel
	} else {
		level, ok := NormalizeExperienceLevel(candidate.ExperienceLevel)
		if !ok {
			return Snapshot{}, NewValidationError("unknown experience level %q (expected one of %s)",
				candidate.ExperienceLevel, strings.Join(ExperienceLevels(), ", "))
		}
		candidate.ExperienceLevel = level
	}
	candidate.Name = strings.TrimSpace(candidate.Name)

	question, err := e.generateQuestion(ctx, StateIntro, candidate, nil)
	if err != nil {
		return Snapshot{}, err
	}

	now := time.Now().UTC()
	session := &Session{
		ConversationID:       uuid.NewString(),
		CurrentStep:          StateIntro,
		CurrentQuestionIndex: 1,
		TotalQuestions:       TotalQuestions,
		Candidate:            candidate,
		Question:             question,
		QAPairs:              []QAPair{},
		Evaluations:          make(map[State]Evaluation),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := e.save(ctx, session); err != nil {
		return Snapshot{}, err
	}

	e.recorder.RecordSessionCreated()
	e.logger.Info("session %s created for %q (level: %s)", session.ConversationID, candidate.Name, candidate.ExperienceLevel)
	return MakeSnapshot(session), nil
}

// SubmitAnswer records the answer for the session's current step and
// advances the state machine. On the last step it aggregates the final
// score, suspends for human approval, and finalizes.
//
// All mutation happens on a working copy committed with a single Save per
// step, so any failure leaves the stored session exactly as it was and the
// caller can retry the same step. The finalize tail commits twice
// (suspension, then outcome); if the outcome commit fails the session rests
// at awaiting_approval and retrying the last step re-enters the tail.
func (e *Engine) SubmitAnswer(ctx context.Context, conversationID string, step State, answer string) (Snapshot, error) {
	if strings.TrimSpace(answer) == "" {
		return Snapshot{}, NewValidationError("answer text is required")
	}
	if !IsQuestionStep(step) {
		return Snapshot{}, NewValidationError("%q is not a question step", step)
	}

	if !e.acquire(conversationID) {
		return Snapshot{}, ErrConflict
	}
	defer e.release(conversationID)

	session, err := e.load(ctx, conversationID)
	if err != nil {
		return Snapshot{}, err
	}
	if IsTerminalState(session.CurrentStep) {
		return Snapshot{}, NewProtocolViolation("session %s is already %s", conversationID, session.CurrentStep)
	}
	// An earlier finalize committed awaiting_approval but failed to commit
	// the outcome. Retrying the last step re-enters the approval tail; all
	// answers are already recorded, so nothing is re-evaluated. A wait still
	// in flight surfaces as a duplicate-wait protocol violation via the gate.
	if session.CurrentStep == StateAwaitingApproval && step == questionSteps[len(questionSteps)-1] {
		e.logger.Info("session %s re-entering approval pipeline", conversationID)
		return e.finalize(ctx, session.Clone())
	}
	if session.CurrentStep != step {
		return Snapshot{}, NewProtocolViolation("session %s is on step %s, got answer for %s",
			conversationID, session.CurrentStep, step)
	}

	work := session.Clone()
	now := time.Now().UTC()

	evaluation, err := e.generateEvaluation(ctx, step, work.Question, answer)
	if err != nil {
		return Snapshot{}, err
	}
	evaluation.Score = clampScore(evaluation.Score)

	work.QAPairs = append(work.QAPairs, QAPair{
		Step:         step,
		QuestionText: work.Question,
		AnswerText:   answer,
		SubmittedAt:  now,
	})
	work.Evaluations[step] = evaluation
	work.UpdatedAt = now
	e.recorder.RecordAnswer(step)

	next, ok := NextStep(step)
	if !ok {
		return e.finalize(ctx, work)
	}

	question, err := e.generateQuestion(ctx, next, work.Candidate, work.QAPairs)
	if err != nil {
		return Snapshot{}, err
	}
	work.CurrentStep = next
	work.CurrentQuestionIndex++
	work.Question = question

	if err := e.save(ctx, work); err != nil {
		return Snapshot{}, err
	}
	e.logger.Debug("session %s advanced to %s (question %d/%d)",
		conversationID, next, work.CurrentQuestionIndex, work.TotalQuestions)
	return MakeSnapshot(work), nil
}

// finalize runs the evaluating → awaiting_approval → terminal tail of the
// pipeline once the last answer is recorded.
func (e *Engine) finalize(ctx context.Context, work *Session) (Snapshot, error) {
	// The tail spans the human wait and may outlive the submitting request;
	// the outcome commit must not fail because the caller disconnected.
	ctx = context.WithoutCancel(ctx)

	work.CurrentStep = StateEvaluating
	work.Question = ""

	preliminary, err := Aggregate(work.QAPairs, work.Evaluations, work.Candidate, e.policy, time.Now().UTC())
	if err != nil {
		return Snapshot{}, err
	}

	// Persist awaiting_approval so status readers observe the suspension.
	work.CurrentStep = StateAwaitingApproval
	if err := e.save(ctx, work); err != nil {
		return Snapshot{}, err
	}
	e.logger.Info("session %s evaluated (score %.1f), awaiting human approval",
		work.ConversationID, preliminary.PropensityScore.Score)

	waitStart := time.Now()
	outcome, err := e.approver.Await(work.ConversationID, preliminary.OverallSummary)
	if err != nil {
		if errors.Is(err, approval.ErrDuplicateWait) {
			return Snapshot{}, NewProtocolViolation("%v", err)
		}
		return Snapshot{}, err
	}
	e.recorder.RecordApproval(outcome.Kind, time.Since(waitStart))

	decided := time.Now().UTC()
	work.UpdatedAt = decided
	switch outcome.Kind {
	case approval.OutcomeApproved:
		work.HumanApproval = &HumanApproval{Approved: true, DecidedAt: decided}
		work.CurrentStep = StateComplete
		work.FinalResults = preliminary
	case approval.OutcomeBypassed:
		work.HumanApproval = &HumanApproval{Bypassed: true, DecidedAt: decided}
		work.CurrentStep = StateComplete
		work.FinalResults = preliminary
	case approval.OutcomeRejected:
		work.HumanApproval = &HumanApproval{RejectionReason: outcome.Reason, DecidedAt: decided}
		work.CurrentStep = StateRejected
		// The report is released without a committed propensity score.
		work.FinalResults = &FinalResults{
			OverallSummary: preliminary.OverallSummary,
			ReportDate:     preliminary.ReportDate,
		}
	}

	if err := e.save(ctx, work); err != nil {
		return Snapshot{}, err
	}
	e.logger.Info("session %s finalized: %s", work.ConversationID, work.CurrentStep)
	return MakeSnapshot(work), nil
}

// HistoryEntry is one completed exchange with its evaluation, for the
// history read.
type HistoryEntry struct {
	Step        State       `json:"step"`
	Question    string      `json:"question"`
	Answer      string      `json:"answer"`
	Evaluation  *Evaluation `json:"evaluation,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// GetHistory returns the completed exchanges in interview order.
func (e *Engine) GetHistory(ctx context.Context, conversationID string) ([]HistoryEntry, error) {
	session, err := e.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(session.QAPairs))
	for _, pair := range session.QAPairs {
		entry := HistoryEntry{
			Step:        pair.Step,
			Question:    pair.QuestionText,
			Answer:      pair.AnswerText,
			SubmittedAt: pair.SubmittedAt,
		}
		if eval, ok := session.Evaluations[pair.Step]; ok {
			evalCopy := eval
			entry.Evaluation = &evalCopy
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetState returns a read-only snapshot without driving any transition.
func (e *Engine) GetState(ctx context.Context, conversationID string) (Snapshot, error) {
	session, err := e.load(ctx, conversationID)
	if err != nil {
		return Snapshot{}, err
	}
	return MakeSnapshot(session), nil
}

// ListSessions returns summaries of all sessions.
func (e *Engine) ListSessions(ctx context.Context) ([]Summary, error) {
	summaries, err := e.store.List(ctx)
	if err != nil {
		return nil, &StorageError{Err: err}
	}
	return summaries, nil
}

func (e *Engine) acquire(conversationID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[conversationID] {
		return false
	}
	e.inflight[conversationID] = true
	return true
}

func (e *Engine) release(conversationID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, conversationID)
}

func (e *Engine) load(ctx context.Context, conversationID string) (*Session, error) {
	session, err := e.store.Load(ctx, conversationID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, &StorageError{Err: err}
	}
	return session, nil
}

func (e *Engine) save(ctx context.Context, session *Session) error {
	if err := e.store.Save(ctx, session); err != nil {
		return &StorageError{Err: err}
	}
	return nil
}

func (e *Engine) generateQuestion(ctx context.Context, step State, candidate CandidateInfo, prior []QAPair) (string, error) {
	start := time.Now()
	question, err := e.generator.GenerateQuestion(ctx, step, candidate, prior)
	e.recorder.RecordGeneration("question", time.Since(start), err)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return question, nil
}

func (e *Engine) generateEvaluation(ctx context.Context, step State, question, answer string) (Evaluation, error) {
	start := time.Now()
	evaluation, err := e.generator.GenerateEvaluation(ctx, step, question, answer)
	e.recorder.RecordGeneration("evaluation", time.Since(start), err)
	if err != nil {
		return Evaluation{}, &GenerationError{Err: err}
	}
	return evaluation, nil
}
