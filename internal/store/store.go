// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
)

// Repository defines the interface for persisting users and practice sessions.
// Getters return (nil, nil) when the row does not exist.
type Repository interface {
	// GetUser retrieves a user by their user ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// InsertSession creates an in_progress session row.
	InsertSession(ctx context.Context, session *domain.Session) error

	// CompleteSession flips an in_progress session to completed.
	// It returns ErrAlreadyCompleted when the row was already completed
	// and ErrNoRows when it does not exist.
	CompleteSession(ctx context.Context, sessionID string, c domain.Completion) error

	// InsertAnswers stores per-question answer rows for a session.
	InsertAnswers(ctx context.Context, answers []domain.AnswerRecord) error

	// GetSession retrieves one session with its result.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// ListSessions returns a user's sessions, newest first.
	ListSessions(ctx context.Context, userID string, limit int) ([]*domain.Session, error)

	// GetAnswers returns the stored answer rows of a session in question order.
	GetAnswers(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

var (
	// ErrNoRows is returned by writes that target a missing session.
	ErrNoRows = errors.New("session row not found")
	// ErrAlreadyCompleted is returned when a completed session is completed again.
	ErrAlreadyCompleted = errors.New("session already completed")
)
