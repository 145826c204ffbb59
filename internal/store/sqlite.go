package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes multi-statement writes to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		modality TEXT NOT NULL,
		status TEXT NOT NULL,
		industry TEXT NOT NULL,
		experience_level TEXT NOT NULL,
		interview_type TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		language TEXT NOT NULL,
		questions_json TEXT NOT NULL,
		total_questions INTEGER NOT NULL,
		questions_answered INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		answers_json TEXT,
		overall_score INTEGER,
		analysis_json TEXT,
		started_at INTEGER NOT NULL,
		completed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, started_at);

	CREATE TABLE IF NOT EXISTS session_answers (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		question_index INTEGER NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		score INTEGER NOT NULL,
		UNIQUE(session_id, question_index)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username, user.LastSeenAt.Unix(),
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// InsertSession creates an in_progress session row.
func (s *SQLiteStore) InsertSession(ctx context.Context, session *domain.Session) error {
	row, err := newSessionRow(session)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO sessions (
		id, user_id, modality, status, industry, experience_level, interview_type,
		duration_minutes, language, questions_json, total_questions, started_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, "InsertSession", func() error {
		_, err := s.db.ExecContext(ctx, query,
			row.ID, row.UserID, row.Modality, row.Status, row.Industry, row.ExperienceLevel,
			row.InterviewType, row.DurationMinutes, row.Language, row.QuestionsJSON,
			row.TotalQuestions, row.StartedAt,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

// CompleteSession flips an in_progress session to completed.
func (s *SQLiteStore) CompleteSession(ctx context.Context, sessionID string, c domain.Completion) error {
	answers, analysis, err := completionColumns(c)
	if err != nil {
		return err
	}

	return shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, "CompleteSession", func() error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		result, err := s.db.ExecContext(ctx, `
			UPDATE sessions SET
				status = ?, questions_answered = ?, duration_seconds = ?,
				answers_json = ?, overall_score = ?, analysis_json = ?, completed_at = ?
			WHERE id = ? AND status = ?`,
			string(domain.StatusCompleted), c.QuestionsAnswered, c.DurationSeconds,
			answers, c.Analysis.OverallScore, analysis, c.CompletedAt.Unix(),
			sessionID, string(domain.StatusInProgress),
		)
		if err != nil {
			return fmt.Errorf("complete session: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows > 0 {
			return nil
		}

		var status string
		err = s.db.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, sessionID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoRows
		}
		if err != nil {
			return fmt.Errorf("read session status: %w", err)
		}
		return ErrAlreadyCompleted
	})
}

// InsertAnswers stores per-question answer rows in one transaction.
func (s *SQLiteStore) InsertAnswers(ctx context.Context, answers []domain.AnswerRecord) error {
	if len(answers) == 0 {
		return nil
	}

	return shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, "InsertAnswers", func() error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin answers tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO session_answers (id, session_id, question_index, question, answer, score)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_id, question_index) DO UPDATE SET
				answer = excluded.answer,
				score = excluded.score`)
		if err != nil {
			return fmt.Errorf("prepare answer insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, a := range answers {
			if _, err := stmt.ExecContext(ctx, a.ID, a.SessionID, a.QuestionIndex, a.Question, a.Answer, a.Score); err != nil {
				return fmt.Errorf("insert answer %d: %w", a.QuestionIndex, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit answers: %w", err)
		}
		return nil
	})
}

const sessionColumns = `
	id, user_id, modality, status, industry, experience_level, interview_type,
	duration_minutes, language, questions_json, total_questions, questions_answered,
	duration_seconds, answers_json, overall_score, analysis_json, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSessionRow(sc rowScanner) (sessionRow, error) {
	var r sessionRow
	var answers, analysis sql.NullString
	var score, completedAt sql.NullInt64
	err := sc.Scan(
		&r.ID, &r.UserID, &r.Modality, &r.Status, &r.Industry, &r.ExperienceLevel,
		&r.InterviewType, &r.DurationMinutes, &r.Language, &r.QuestionsJSON,
		&r.TotalQuestions, &r.QuestionsAnswered, &r.DurationSeconds,
		&answers, &score, &analysis, &r.StartedAt, &completedAt,
	)
	if err != nil {
		return sessionRow{}, err
	}
	if answers.Valid {
		r.AnswersJSON = &answers.String
	}
	if analysis.Valid {
		r.AnalysisJSON = &analysis.String
	}
	if score.Valid {
		v := int(score.Int64)
		r.OverallScore = &v
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Int64
	}
	return r, nil
}

// GetSession retrieves one session with its result.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, sessionID)
	r, err := scanSessionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return r.toDomain()
}

// ListSessions returns a user's sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? ORDER BY started_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close sessions rows", "error", closeErr)
		}
	}()

	var sessions []*domain.Session
	for rows.Next() {
		r, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		session, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// GetAnswers returns the stored answer rows of a session in question order.
func (s *SQLiteStore) GetAnswers(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, question_index, question, answer, score
		FROM session_answers WHERE session_id = ? ORDER BY question_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close answers rows", "error", closeErr)
		}
	}()

	var answers []domain.AnswerRecord
	for rows.Next() {
		var a domain.AnswerRecord
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionIndex, &a.Question, &a.Answer, &a.Score); err != nil {
			return nil, fmt.Errorf("scan answer row: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return answers, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
