// Package record persists session records: one create at start, exactly one
// completion at finalization, and read paths for past sessions.
package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/feed"
	"github.com/ashureev/interview-labs/internal/store"
)

// Manager is the single writer of session status.
type Manager struct {
	repo   store.Repository
	feed   feed.Publisher
	logger *slog.Logger
}

// NewManager creates a Manager. A nil publisher disables the completed feed.
func NewManager(repo store.Repository, pub feed.Publisher, logger *slog.Logger) *Manager {
	if pub == nil {
		pub = feed.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{repo: repo, feed: pub, logger: logger}
}

// Create persists a new in_progress record for s.
func (m *Manager) Create(ctx context.Context, s *domain.Session) error {
	if err := m.repo.InsertSession(ctx, s); err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrPersistenceFailure, s.ID, err)
	}
	m.logger.Info("session record created", "session_id", s.ID, "user_id", s.UserID, "modality", s.Modality)
	return nil
}

// Complete flips the record to completed with the final answers and analysis.
// Answer rows and the feed fact are written afterwards on a best-effort basis.
func (m *Manager) Complete(ctx context.Context, s domain.Session, c domain.Completion) error {
	err := m.repo.CompleteSession(ctx, s.ID, c)
	switch {
	case errors.Is(err, store.ErrAlreadyCompleted):
		return fmt.Errorf("%w: %s", domain.ErrDuplicateFinalization, s.ID)
	case errors.Is(err, store.ErrNoRows):
		return fmt.Errorf("%w: complete %s: %w", domain.ErrPersistenceFailure, s.ID, domain.ErrSessionNotFound)
	case err != nil:
		return fmt.Errorf("%w: complete %s: %w", domain.ErrPersistenceFailure, s.ID, err)
	}

	if rows := answerRecords(s, c); len(rows) > 0 {
		if err := m.repo.InsertAnswers(ctx, rows); err != nil {
			m.logger.Warn("failed to store answer rows", "session_id", s.ID, "error", err)
		}
	}

	fact := domain.CompletedFact{
		SessionID:       s.ID,
		UserID:          s.UserID,
		OverallScore:    c.Analysis.OverallScore,
		DurationSeconds: c.DurationSeconds,
		Modality:        s.Modality,
		CompletedAt:     c.CompletedAt,
	}
	if err := m.feed.Publish(ctx, fact); err != nil {
		m.logger.Warn("failed to publish completed session", "session_id", s.ID, "error", err)
	}

	m.logger.Info("session record completed",
		"session_id", s.ID,
		"questions_answered", c.QuestionsAnswered,
		"duration_seconds", c.DurationSeconds,
		"overall_score", c.Analysis.OverallScore,
		"fallback", c.Analysis.Fallback,
	)
	return nil
}

// Fetch returns a stored session or ErrSessionNotFound.
func (m *Manager) Fetch(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch session %s: %w", sessionID, err)
	}
	if s == nil {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// List returns a user's sessions, newest first.
func (m *Manager) List(ctx context.Context, userID string, limit int) ([]*domain.Session, error) {
	sessions, err := m.repo.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", userID, err)
	}
	return sessions, nil
}

// Answers returns the per-question answer rows of a session.
func (m *Manager) Answers(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error) {
	rows, err := m.repo.GetAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("answers for %s: %w", sessionID, err)
	}
	return rows, nil
}

func answerRecords(s domain.Session, c domain.Completion) []domain.AnswerRecord {
	rows := make([]domain.AnswerRecord, 0, len(s.Questions))
	for i, q := range s.Questions {
		var answer string
		if i < len(c.Answers) {
			answer = strings.TrimSpace(c.Answers[i])
		}
		var score int
		if i < len(c.Analysis.PerQuestionScores) {
			score = c.Analysis.PerQuestionScores[i]
		}
		rows = append(rows, domain.AnswerRecord{
			ID:            uuid.NewString(),
			SessionID:     s.ID,
			QuestionIndex: i,
			Question:      q,
			Answer:        answer,
			Score:         score,
		})
	}
	return rows
}
