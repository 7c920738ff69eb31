// Package persistence provides the SQLite-backed session document store.
// Each conversation is one row holding the whole session as a JSON document;
// a save is a single upsert, so writes are atomic per call and readers never
// observe a partially-updated session.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"interviewd/pkg/interview"
	"interviewd/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	conversation_id  TEXT PRIMARY KEY,
	current_step     TEXT NOT NULL,
	is_complete      INTEGER NOT NULL DEFAULT 0,
	candidate_name   TEXT NOT NULL DEFAULT '',
	experience_level TEXT NOT NULL DEFAULT '',
	answer_count     INTEGER NOT NULL DEFAULT 0,
	document         TEXT NOT NULL,
	created_at       TIMESTAMP NOT NULL,
	updated_at       TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at DESC);
`

// Store implements the engine's Store interface over SQLite.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens (creating if needed) the session database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("store")
	logger.Info("📦 session database ready: %s", dbPath)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Load returns the stored session, or interview.ErrSessionNotFound.
func (s *Store) Load(ctx context.Context, conversationID string) (*interview.Session, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM sessions WHERE conversation_id = ?`, conversationID,
	).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", interview.ErrSessionNotFound, conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", conversationID, err)
	}

	var session interview.Session
	if err := json.Unmarshal([]byte(document), &session); err != nil {
		return nil, fmt.Errorf("corrupt session document %s: %w", conversationID, err)
	}
	return &session, nil
}

// Save upserts the whole session document in one statement.
func (s *Store) Save(ctx context.Context, session *interview.Session) error {
	document, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.ConversationID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions
			(conversation_id, current_step, is_complete, candidate_name, experience_level, answer_count, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			current_step = excluded.current_step,
			is_complete = excluded.is_complete,
			candidate_name = excluded.candidate_name,
			experience_level = excluded.experience_level,
			answer_count = excluded.answer_count,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		session.ConversationID,
		string(session.CurrentStep),
		boolToInt(interview.IsTerminalState(session.CurrentStep)),
		session.Candidate.Name,
		session.Candidate.ExperienceLevel,
		len(session.QAPairs),
		string(document),
		session.CreatedAt.UTC(),
		session.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ConversationID, err)
	}
	return nil
}

// List returns summaries of all sessions, newest first.
func (s *Store) List(ctx context.Context) ([]interview.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation_id, current_step, is_complete, candidate_name, experience_level, answer_count, created_at, updated_at
		FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]interview.Summary, 0)
	for rows.Next() {
		var (
			summary   interview.Summary
			step      string
			complete  int
			createdAt time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(&summary.ConversationID, &step, &complete, &summary.CandidateName,
			&summary.Level, &summary.AnswerCount, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		summary.CurrentStep = interview.State(step)
		summary.IsComplete = complete != 0
		summary.CreatedAt = createdAt.UTC()
		summary.UpdatedAt = updatedAt.UTC()
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return summaries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
