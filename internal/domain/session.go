package domain

import (
	"time"
)

// SessionStatus is monotonic: in_progress -> completed, never reversed.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Speaker attributes a Turn.
type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

// Turn is one utterance in a session transcript.
type Turn struct {
	Speaker       Speaker   `json:"speaker"`
	Text          string    `json:"text"`
	SequenceIndex int       `json:"sequence_index"`
	Timestamp     time.Time `json:"timestamp"`
}

// Session represents one practice attempt.
type Session struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id,omitempty"`
	Config            InterviewConfig `json:"config"`
	Modality          Modality        `json:"modality"`
	Status            SessionStatus   `json:"status"`
	StartedAt         time.Time       `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	Questions         []string        `json:"questions"`
	TotalQuestions    int             `json:"total_questions"`
	QuestionsAnswered int             `json:"questions_answered"`
	DurationSeconds   int             `json:"duration_seconds"`
	Answers           []string        `json:"answers,omitempty"`
	Result            *Analysis       `json:"result,omitempty"`
}

// IsCompleted reports whether the session reached its terminal status.
func (s *Session) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// Skill keys of Analysis.SkillBreakdown.
const (
	SkillCommunication  = "communication"
	SkillTechnical      = "technical"
	SkillProblemSolving = "problemSolving"
	SkillConfidence     = "confidence"
)

// SkillKeys lists the fixed skill breakdown keys in display order.
var SkillKeys = []string{SkillCommunication, SkillTechnical, SkillProblemSolving, SkillConfidence}

// Analysis is the scored outcome of a completed session. It is never mutated
// after creation.
type Analysis struct {
	OverallScore      int            `json:"overall_score"`
	PerQuestionScores []int          `json:"per_question_scores"`
	Strengths         []string       `json:"strengths"`
	Weaknesses        []string       `json:"weaknesses"`
	Recommendations   []string       `json:"recommendations"`
	NarrativeFeedback string         `json:"narrative_feedback"`
	SkillBreakdown    map[string]int `json:"skill_breakdown"`
	Fallback          bool           `json:"fallback"`
}

// TranscriptData is the scoring request assembled at finalization.
// Answers is aligned with Questions; unanswered slots are empty strings.
type TranscriptData struct {
	SessionID string          `json:"session_id,omitempty"`
	Questions []string        `json:"questions"`
	Answers   []string        `json:"answers"`
	Industry  string          `json:"industry"`
	Level     ExperienceLevel `json:"level"`
	Modality  Modality        `json:"modality"`
	Language  Language        `json:"language"`
}

// AnswerRecord is a per-question answer row kept for detailed review.
type AnswerRecord struct {
	ID            string `json:"id"`
	SessionID     string `json:"session_id"`
	QuestionIndex int    `json:"question_index"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Score         int    `json:"score"`
}

// Completion carries the fields written when a session record flips to completed.
type Completion struct {
	CompletedAt       time.Time
	DurationSeconds   int
	QuestionsAnswered int
	Answers           []string
	Analysis          Analysis
}

// CompletedFact is appended to the completed-session feed for dashboard aggregation.
type CompletedFact struct {
	SessionID       string    `json:"session_id"`
	UserID          string    `json:"user_id"`
	OverallScore    int       `json:"overall_score"`
	DurationSeconds int       `json:"duration_seconds"`
	Modality        Modality  `json:"modality"`
	CompletedAt     time.Time `json:"completed_at"`
}
