package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashureev/interview-labs/internal/domain"
)

// PostgresStore implements Repository using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
}

// NewPostgres creates a PostgreSQL-backed repository and ensures the schema exists.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 25
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 2
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at BIGINT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
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
		started_at BIGINT NOT NULL,
		completed_at BIGINT
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
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// GetUser retrieves a user by their user ID.
func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := s.pool.QueryRow(ctx, `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = $1`, userID).Scan(
		&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *PostgresStore) UpsertUser(ctx context.Context, user *domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			last_seen_at = EXCLUDED.last_seen_at,
			updated_at = EXCLUDED.updated_at`,
		user.UserID, user.Username, user.LastSeenAt.Unix(),
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *PostgresStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET last_seen_at = $1, updated_at = $2 WHERE user_id = $3`,
		lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last_seen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}
	return nil
}

// InsertSession creates an in_progress session row.
func (s *PostgresStore) InsertSession(ctx context.Context, session *domain.Session) error {
	row, err := newSessionRow(session)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (
			id, user_id, modality, status, industry, experience_level, interview_type,
			duration_minutes, language, questions_json, total_questions, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		row.ID, row.UserID, row.Modality, row.Status, row.Industry, row.ExperienceLevel,
		row.InterviewType, row.DurationMinutes, row.Language, row.QuestionsJSON,
		row.TotalQuestions, row.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// CompleteSession flips an in_progress session to completed.
func (s *PostgresStore) CompleteSession(ctx context.Context, sessionID string, c domain.Completion) error {
	answers, analysis, err := completionColumns(c)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET
			status = $1, questions_answered = $2, duration_seconds = $3,
			answers_json = $4, overall_score = $5, analysis_json = $6, completed_at = $7
		WHERE id = $8 AND status = $9`,
		string(domain.StatusCompleted), c.QuestionsAnswered, c.DurationSeconds,
		answers, c.Analysis.OverallScore, analysis, c.CompletedAt.Unix(),
		sessionID, string(domain.StatusInProgress),
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status string
	err = s.pool.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1`, sessionID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to read session status: %w", err)
	}
	return ErrAlreadyCompleted
}

// InsertAnswers stores per-question answer rows in one batch.
func (s *PostgresStore) InsertAnswers(ctx context.Context, answers []domain.AnswerRecord) error {
	if len(answers) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range answers {
		batch.Queue(`
			INSERT INTO session_answers (id, session_id, question_index, question, answer, score)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (session_id, question_index) DO UPDATE SET
				answer = EXCLUDED.answer,
				score = EXCLUDED.score`,
			a.ID, a.SessionID, a.QuestionIndex, a.Question, a.Answer, a.Score)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); closeErr != nil {
			slog.Warn("failed to close answer batch", "error", closeErr)
		}
	}()
	for _, a := range answers {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert answer %d: %w", a.QuestionIndex, err)
		}
	}
	return nil
}

func scanPostgresSession(row pgx.Row) (sessionRow, error) {
	var r sessionRow
	err := row.Scan(
		&r.ID, &r.UserID, &r.Modality, &r.Status, &r.Industry, &r.ExperienceLevel,
		&r.InterviewType, &r.DurationMinutes, &r.Language, &r.QuestionsJSON,
		&r.TotalQuestions, &r.QuestionsAnswered, &r.DurationSeconds,
		&r.AnswersJSON, &r.OverallScore, &r.AnalysisJSON, &r.StartedAt, &r.CompletedAt,
	)
	return r, err
}

// GetSession retrieves one session with its result.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	r, err := scanPostgresSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return r.toDomain()
}

// ListSessions returns a user's sessions, newest first.
func (s *PostgresStore) ListSessions(ctx context.Context, userID string, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY started_at DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		r, err := scanPostgresSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		session, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// GetAnswers returns the stored answer rows of a session in question order.
func (s *PostgresStore) GetAnswers(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, question_index, question, answer, score
		FROM session_answers WHERE session_id = $1 ORDER BY question_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.AnswerRecord
	for rows.Next() {
		var a domain.AnswerRecord
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionIndex, &a.Question, &a.Answer, &a.Score); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}
	return answers, nil
}
