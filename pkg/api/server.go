// Package api exposes the interview engine over HTTP JSON: session intake,
// answer submission, status reads, and the reviewer decision endpoint that
// resolves pending approvals.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"interviewd/pkg/approval"
	"interviewd/pkg/interview"
	"interviewd/pkg/logx"
)

// Server is the HTTP front end. All session mutation goes through the
// engine; the server only translates requests and errors.
type Server struct {
	engine *interview.Engine
	gate   *approval.Gate
	http   *http.Server
	logger *logx.Logger
}

// NewServer builds the API server listening on addr.
func NewServer(addr string, engine *interview.Engine, gate *approval.Gate) *Server {
	s := &Server{
		engine: engine,
		gate:   gate,
		logger: logx.NewLogger("api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/sessions/{id}/answers", s.handleSubmitAnswer)
	mux.HandleFunc("GET /api/sessions/{id}/history", s.handleGetHistory)
	mux.HandleFunc("GET /api/reviews", s.handleListReviews)
	mux.HandleFunc("POST /api/reviews/{id}", s.handleResolveReview)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("🌐 API listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type createSessionRequest struct {
	CandidateName   string `json:"candidate_name"`
	ExperienceLevel string `json:"experience_level"`
	Intake          string `json:"intake,omitempty"` // free-text alternative to the structured fields
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, interview.NewValidationError("malformed request body: %v", err))
		return
	}

	candidate := interview.CandidateInfo{
		Name:            req.CandidateName,
		ExperienceLevel: req.ExperienceLevel,
	}
	if req.Intake != "" {
		parsed := interview.ParseCandidateInfo(req.Intake)
		if candidate.Name == "" {
			candidate.Name = parsed.Name
		}
		if candidate.ExperienceLevel == "" {
			candidate.ExperienceLevel = parsed.ExperienceLevel
		}
	}

	snapshot, err := s.engine.CreateSession(r.Context(), candidate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, snapshot)
}

type submitAnswerRequest struct {
	Step   string `json:"step"`
	Answer string `json:"answer"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, interview.NewValidationError("malformed request body: %v", err))
		return
	}

	snapshot, err := s.engine.SubmitAnswer(r.Context(), r.PathValue("id"), interview.State(req.Step), req.Answer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.engine.GetState(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.GetHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.engine.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func (s *Server) handleListReviews(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"pending": s.gate.PendingIDs()})
}

type resolveReviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

func (s *Server) handleResolveReview(w http.ResponseWriter, r *http.Request) {
	var req resolveReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, interview.NewValidationError("malformed request body: %v", err))
		return
	}
	if req.Decision == "" {
		s.writeError(w, interview.NewValidationError("decision text is required"))
		return
	}

	conversationID := r.PathValue("id")
	err := s.gate.Resolve(approval.Decision{
		ConversationID: conversationID,
		DecisionText:   req.Decision,
		Reason:         req.Reason,
	})
	if err != nil {
		if errors.Is(err, approval.ErrNoPendingRequest) {
			s.writeJSON(w, http.StatusNotFound, errorBody("not_found", err.Error()))
			return
		}
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"conversation_id": conversationID, "accepted": true})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	component := r.URL.Query().Get("component")

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, interview.NewValidationError("invalid since timestamp %q", v))
			return
		}
		since = parsed
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"logs": logx.RecentEntries(component, since)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func errorBody(kind, message string) map[string]string {
	return map[string]string{"error": kind, "message": message}
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		validation *interview.ValidationError
		protocol   *interview.ProtocolViolationError
		generation *interview.GenerationError
		storage    *interview.StorageError
	)

	switch {
	case errors.As(err, &validation):
		s.writeJSON(w, http.StatusBadRequest, errorBody("validation", validation.Reason))
	case errors.Is(err, interview.ErrSessionNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody("not_found", err.Error()))
	case errors.Is(err, interview.ErrConflict):
		s.writeJSON(w, http.StatusConflict, errorBody("conflict", err.Error()))
	case errors.As(err, &protocol):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody("protocol_violation", protocol.Reason))
	case errors.As(err, &generation):
		s.logger.Error("generation failure: %v", err)
		s.writeJSON(w, http.StatusBadGateway, errorBody("generation", "question or evaluation generation failed"))
	case errors.As(err, &storage):
		s.logger.Error("storage failure: %v", err)
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody("storage", "session store unavailable"))
	default:
		s.logger.Error("unhandled error: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody("internal", "internal error"))
	}
}
