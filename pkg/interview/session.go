package interview

import (
	"strings"
	"time"
)

// Experience levels accepted at session creation.
//
//nolint:gochecknoglobals // Fixed candidate level set
var experienceLevels = []string{"Beginner", "Basic", "Intermediate", "Advanced", "Expert"}

// DefaultExperienceLevel is used when intake text names no known level.
const DefaultExperienceLevel = "Intermediate"

// NormalizeExperienceLevel canonicalizes a level against the fixed set,
// case-insensitively. Returns false for unknown levels.
func NormalizeExperienceLevel(level string) (string, bool) {
	trimmed := strings.TrimSpace(level)
	for _, known := range experienceLevels {
		if strings.EqualFold(trimmed, known) {
			return known, true
		}
	}
	return "", false
}

// ExperienceLevels returns the accepted level set.
func ExperienceLevels() []string {
	levels := make([]string, len(experienceLevels))
	copy(levels, experienceLevels)
	return levels
}

// CandidateInfo is set once at session creation and immutable thereafter.
type CandidateInfo struct {
	Name            string `json:"name,omitempty"`
	ExperienceLevel string `json:"experience_level"`
}

// ParseCandidateInfo extracts candidate details from free-form intake text
// such as "Name: Dana, Experience Level: Advanced". Labeled fields win; when
// no level label is present, the first token matching a known level is used.
// Fields the text does not name are left empty.
func ParseCandidateInfo(text string) CandidateInfo {
	var info CandidateInfo

	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	for _, segment := range segments {
		label, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		label = strings.ToLower(strings.TrimSpace(label))
		value = strings.TrimSpace(value)
		switch label {
		case "name", "candidate", "candidate name":
			info.Name = value
		case "level", "experience", "experience level":
			if level, ok := NormalizeExperienceLevel(value); ok {
				info.ExperienceLevel = level
			}
		}
	}

	if info.ExperienceLevel == "" {
		for _, token := range strings.Fields(text) {
			if level, ok := NormalizeExperienceLevel(strings.Trim(token, ".,;:!?")); ok {
				info.ExperienceLevel = level
				break
			}
		}
	}
	return info
}

// QAPair records one completed question/answer exchange.
type QAPair struct {
	Step         State     `json:"step"`
	QuestionText string    `json:"question_text"`
	AnswerText   string    `json:"answer_text"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Evaluation is the generation collaborator's assessment of one answer.
type Evaluation struct {
	Score        float64  `json:"score"` // 0–10
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

// HumanApproval records the reviewer's decision, set at most once at the
// awaiting_approval → terminal transition.
type HumanApproval struct {
	Approved        bool      `json:"approved"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	Bypassed        bool      `json:"bypassed"`
	DecidedAt       time.Time `json:"decided_at"`
}

// PropensityScore is the weighted 0–10 assessment of overall skill.
type PropensityScore struct {
	Score           float64 `json:"score"`
	Rationale       string  `json:"rationale"`
	VisualIndicator string  `json:"visual_indicator"`
}

// FinalResults is set exactly once, only when a session reaches a terminal
// state. Rejected sessions carry a nil propensity score.
type FinalResults struct {
	PropensityScore *PropensityScore `json:"propensity_score,omitempty"`
	OverallSummary  string           `json:"overall_summary"`
	ReportDate      time.Time        `json:"report_date"`
}

// Session is one candidate's full interview lifecycle. It is mutated
// exclusively by the engine; everything handed to callers is a copy.
type Session struct {
	ConversationID       string               `json:"conversation_id"`
	CurrentStep          State                `json:"current_step"`
	CurrentQuestionIndex int                  `json:"current_question_index"`
	TotalQuestions       int                  `json:"total_questions"`
	Candidate            CandidateInfo        `json:"candidate_info"`
	Question             string               `json:"question,omitempty"` // pending question text
	QAPairs              []QAPair             `json:"qa_pairs"`
	Evaluations          map[State]Evaluation `json:"evaluations"`
	HumanApproval        *HumanApproval       `json:"human_approval,omitempty"`
	FinalResults         *FinalResults        `json:"final_results,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// Clone deep-copies a session so engine mutations never leak into stored or
// returned state before a step commits.
func (s *Session) Clone() *Session {
	clone := *s

	clone.QAPairs = make([]QAPair, len(s.QAPairs))
	copy(clone.QAPairs, s.QAPairs)

	clone.Evaluations = make(map[State]Evaluation, len(s.Evaluations))
	for step, eval := range s.Evaluations {
		evalCopy := eval
		evalCopy.Strengths = append([]string(nil), eval.Strengths...)
		evalCopy.Improvements = append([]string(nil), eval.Improvements...)
		clone.Evaluations[step] = evalCopy
	}

	if s.HumanApproval != nil {
		approval := *s.HumanApproval
		clone.HumanApproval = &approval
	}
	if s.FinalResults != nil {
		final := *s.FinalResults
		if s.FinalResults.PropensityScore != nil {
			score := *s.FinalResults.PropensityScore
			final.PropensityScore = &score
		}
		clone.FinalResults = &final
	}
	return &clone
}

// Snapshot is the consistent, fully-written view of a session returned to
// callers. Readers never observe a partially-updated step.
type Snapshot struct {
	ConversationID        string        `json:"conversation_id"`
	CurrentStep           State         `json:"current_step"`
	Question              string        `json:"question,omitempty"`
	PreviousResponse      string        `json:"previous_response,omitempty"`
	Evaluation            *Evaluation   `json:"evaluation,omitempty"`
	IsComplete            bool          `json:"is_complete"`
	CurrentQuestion       int           `json:"current_question"`
	TotalQuestions        int           `json:"total_questions"`
	QuestionsRemaining    int           `json:"questions_remaining"`
	Candidate             CandidateInfo `json:"candidate_info"`
	FinalResults          *FinalResults `json:"final_results,omitempty"`
	HumanApproved         bool          `json:"human_approved"`
	HumanRejected         bool          `json:"human_rejected"`
	RejectionReason       string        `json:"rejection_reason,omitempty"`
	HumanApprovalBypassed bool          `json:"human_approval_bypassed"`
}

// MakeSnapshot builds a caller-facing snapshot from a session.
func MakeSnapshot(s *Session) Snapshot {
	snap := Snapshot{
		ConversationID:     s.ConversationID,
		CurrentStep:        s.CurrentStep,
		Question:           s.Question,
		IsComplete:         IsTerminalState(s.CurrentStep),
		CurrentQuestion:    s.CurrentQuestionIndex,
		TotalQuestions:     s.TotalQuestions,
		QuestionsRemaining: s.TotalQuestions - s.CurrentQuestionIndex,
		Candidate:          s.Candidate,
	}

	if n := len(s.QAPairs); n > 0 {
		last := s.QAPairs[n-1]
		snap.PreviousResponse = last.AnswerText
		if eval, ok := s.Evaluations[last.Step]; ok {
			evalCopy := eval
			snap.Evaluation = &evalCopy
		}
	}

	if s.FinalResults != nil {
		final := *s.FinalResults
		if s.FinalResults.PropensityScore != nil {
			score := *s.FinalResults.PropensityScore
			final.PropensityScore = &score
		}
		snap.FinalResults = &final
	}
	if s.HumanApproval != nil {
		snap.HumanApproved = s.HumanApproval.Approved
		snap.HumanRejected = s.CurrentStep == StateRejected
		snap.RejectionReason = s.HumanApproval.RejectionReason
		snap.HumanApprovalBypassed = s.HumanApproval.Bypassed
	}
	return snap
}

// Summary is the list view of a session.
type Summary struct {
	ConversationID string    `json:"conversation_id"`
	CandidateName  string    `json:"candidate_name,omitempty"`
	Level          string    `json:"experience_level"`
	CurrentStep    State     `json:"current_step"`
	IsComplete     bool      `json:"is_complete"`
	AnswerCount    int       `json:"answer_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MakeSummary builds a list-view summary from a session.
func MakeSummary(s *Session) Summary {
	return Summary{
		ConversationID: s.ConversationID,
		CandidateName:  s.Candidate.Name,
		Level:          s.Candidate.ExperienceLevel,
		CurrentStep:    s.CurrentStep,
		IsComplete:     IsTerminalState(s.CurrentStep),
		AnswerCount:    len(s.QAPairs),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
