// Package approval implements the human-approval checkpoint: a registry of
// pending review requests keyed by conversation ID, a notifier that hands the
// review summary to the signal source, and a bounded wait that fails open
// when no decision can be obtained.
package approval

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"interviewd/pkg/logx"
)

// AffirmativeToken is the decision text that approves a review. Any other
// token rejects.
const AffirmativeToken = "yes"

// DefaultTimeout bounds the wait for a reviewer decision. Waiting forever is
// not an acceptable production policy; on expiry the gate fails open.
const DefaultTimeout = 15 * time.Minute

// OutcomeKind classifies how a pending review was resolved.
type OutcomeKind string

const (
	// OutcomeApproved means the reviewer signed off.
	OutcomeApproved OutcomeKind = "approved"
	// OutcomeRejected means the reviewer declined; Reason carries their text.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeBypassed means no decision could be obtained and the pipeline
	// proceeded without review. Fail-open: reviewer unavailability must not
	// deadlock a session or destroy interview data.
	OutcomeBypassed OutcomeKind = "bypassed"
)

// Outcome is the result of one approval wait.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// ReviewRequest is handed to the signal source when a session suspends for
// review.
type ReviewRequest struct {
	ConversationID string    `json:"conversation_id"`
	Summary        string    `json:"summary"`
	RequestedAt    time.Time `json:"requested_at"`
}

// Decision is the reviewer event resolving a pending request.
type Decision struct {
	ConversationID string `json:"conversation_id"`
	DecisionText   string `json:"decision_text"`
	Reason         string `json:"reason,omitempty"`
}

// Notifier delivers a review request to the reviewer's signal source.
type Notifier interface {
	Notify(req ReviewRequest) error
}

var (
	// ErrDuplicateWait is returned when a second wait is started for a
	// session that already has a pending request. This indicates a caller
	// bug.
	ErrDuplicateWait = errors.New("approval request already pending for this session")

	// ErrNoPendingRequest is returned when a decision arrives for a session
	// with no pending request.
	ErrNoPendingRequest = errors.New("no pending approval request for this session")
)

// Gate owns the pending-request registry. It is created at process start and
// injected into the engine; entries are removed on resolution.
type Gate struct {
	mu       sync.Mutex
	pending  map[string]chan Decision
	notifier Notifier
	timeout  time.Duration
	logger   *logx.Logger
}

// NewGate creates a gate with the given notifier and wait bound. A
// non-positive timeout falls back to DefaultTimeout.
func NewGate(notifier Notifier, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{
		pending:  make(map[string]chan Decision),
		notifier: notifier,
		timeout:  timeout,
		logger:   logx.NewLogger("approval"),
	}
}

// Await registers a pending request for the session, notifies the signal
// source, and suspends the calling flow until a decision arrives or the
// wait bound expires. Other sessions are unaffected.
//
// The wait is deliberately not cancellable by the client: once a session is
// awaiting approval, only the reviewer's decision or the gate's own fault
// path (notifier failure or timeout, both resolving to bypassed) can end it.
func (g *Gate) Await(conversationID, summary string) (Outcome, error) {
	ch, err := g.register(conversationID)
	if err != nil {
		return Outcome{}, err
	}
	defer g.remove(conversationID)

	req := ReviewRequest{
		ConversationID: conversationID,
		Summary:        summary,
		RequestedAt:    time.Now().UTC(),
	}
	if err := g.notifier.Notify(req); err != nil {
		g.logger.Warn("reviewer signal source unavailable for %s, bypassing approval: %v", conversationID, err)
		return Outcome{Kind: OutcomeBypassed}, nil
	}

	g.logger.Info("session %s awaiting human approval (bound: %s)", conversationID, g.timeout)

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case decision := <-ch:
		return decide(decision), nil
	case <-timer.C:
		// Claim the registry entry before bypassing. If Resolve claimed it
		// first, a decision is already in flight and must be honored; a nil
		// return from Resolve always means the decision took effect.
		if !g.claim(conversationID) {
			return decide(<-ch), nil
		}
		g.logger.Warn("no reviewer decision for %s within %s, bypassing approval", conversationID, g.timeout)
		return Outcome{Kind: OutcomeBypassed}, nil
	}
}

// Resolve delivers a reviewer decision to the matching pending request.
func (g *Gate) Resolve(decision Decision) error {
	g.mu.Lock()
	ch, ok := g.pending[decision.ConversationID]
	if ok {
		// Claim the entry so a racing second decision gets ErrNoPendingRequest.
		delete(g.pending, decision.ConversationID)
	}
	g.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPendingRequest, decision.ConversationID)
	}

	ch <- decision
	return nil
}

// PendingIDs returns the conversation IDs currently awaiting review.
func (g *Gate) PendingIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]string, 0, len(g.pending))
	for id := range g.pending {
		ids = append(ids, id)
	}
	return ids
}

func (g *Gate) register(conversationID string) (chan Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.pending[conversationID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateWait, conversationID)
	}
	// Buffered so Resolve never blocks on a waiter that has timed out
	// between the registry claim and the send.
	ch := make(chan Decision, 1)
	g.pending[conversationID] = ch
	return ch, nil
}

func (g *Gate) remove(conversationID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, conversationID)
}

// claim removes the pending entry, reporting whether it was still present.
func (g *Gate) claim(conversationID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[conversationID]; !ok {
		return false
	}
	delete(g.pending, conversationID)
	return true
}

func decide(decision Decision) Outcome {
	token := strings.ToLower(strings.TrimSpace(decision.DecisionText))
	if token == AffirmativeToken {
		return Outcome{Kind: OutcomeApproved}
	}

	reason := decision.Reason
	if reason == "" {
		reason = decision.DecisionText
	}
	return Outcome{Kind: OutcomeRejected, Reason: reason}
}
