package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"interviewd/pkg/approval"
	"interviewd/pkg/interview"
)

func TestRecorderImplementsEngineInterface(t *testing.T) {
	var _ interview.Recorder = NewRecorder()
}

func TestRecorderObservations(t *testing.T) {
	r := NewRecorder()

	// Collectors are process-global; just exercise every path.
	assert.NotPanics(t, func() {
		r.RecordSessionCreated()
		r.RecordAnswer(interview.StateIntro)
		r.RecordGeneration("question", 250*time.Millisecond, nil)
		r.RecordGeneration("evaluation", time.Second, errors.New("boom"))
		r.RecordApproval(approval.OutcomeApproved, 3*time.Second)
		r.RecordApproval(approval.OutcomeBypassed, time.Minute)
	})
}
