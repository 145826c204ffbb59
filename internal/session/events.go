package session

import (
	"github.com/ashureev/interview-labs/internal/domain"
)

// State is the orchestrator lifecycle position.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingStart State = "awaiting_start"
	StateActive        State = "active"
	StateFinalizing    State = "finalizing"
	StateCompleted     State = "completed"
)

// EventType identifies a session event.
type EventType string

const (
	EventState     EventType = "state"
	EventTurn      EventType = "turn"
	EventProgress  EventType = "progress"
	EventTick      EventType = "tick"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Event is published to subscribers as the session advances.
type Event struct {
	Type      EventType        `json:"type"`
	SessionID string           `json:"session_id"`
	State     State            `json:"state,omitempty"`
	Turn      *domain.Turn     `json:"turn,omitempty"`
	Progress  *Progress        `json:"progress,omitempty"`
	Remaining *int             `json:"remaining,omitempty"`
	Analysis  *domain.Analysis `json:"analysis,omitempty"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// Progress reports question progression.
type Progress struct {
	QuestionIndex     int    `json:"question_index"`
	TotalQuestions    int    `json:"total_questions"`
	QuestionsAnswered int    `json:"questions_answered"`
	NextQuestion      string `json:"next_question,omitempty"`
	Finished          bool   `json:"finished"`
}

// Listener receives terminal outcomes. Calls happen on the session's loop goroutine.
type Listener interface {
	OnCompleted(sessionID string, analysis domain.Analysis)
	OnError(sessionID string, kind domain.ErrorKind, err error)
}

// TerminationReason records which trigger ended a session.
type TerminationReason string

const (
	ReasonAllAnswered  TerminationReason = "all_answered"
	ReasonDeadline     TerminationReason = "deadline"
	ReasonStopPhrase   TerminationReason = "stop_phrase"
	ReasonConclusion   TerminationReason = "conclusion"
	ReasonUserStop     TerminationReason = "user_stop"
	ReasonDisconnected TerminationReason = "disconnected"
	ReasonShutdown     TerminationReason = "shutdown"
)
