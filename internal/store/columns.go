package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
)

// sessionRow is the column layout shared by the SQLite and Postgres stores.
// List-valued and nested fields are stored as JSON text.
type sessionRow struct {
	ID                string
	UserID            string
	Modality          string
	Status            string
	Industry          string
	ExperienceLevel   string
	InterviewType     string
	DurationMinutes   int
	Language          string
	QuestionsJSON     string
	TotalQuestions    int
	QuestionsAnswered int
	DurationSeconds   int
	AnswersJSON       *string
	OverallScore      *int
	AnalysisJSON      *string
	StartedAt         int64
	CompletedAt       *int64
}

func newSessionRow(s *domain.Session) (sessionRow, error) {
	questions, err := json.Marshal(nonNil(s.Questions))
	if err != nil {
		return sessionRow{}, fmt.Errorf("encode questions: %w", err)
	}
	return sessionRow{
		ID:              s.ID,
		UserID:          s.UserID,
		Modality:        string(s.Modality),
		Status:          string(domain.StatusInProgress),
		Industry:        s.Config.Industry,
		ExperienceLevel: string(s.Config.ExperienceLevel),
		InterviewType:   string(s.Config.InterviewType),
		DurationMinutes: s.Config.DurationMinutes,
		Language:        string(s.Config.Language),
		QuestionsJSON:   string(questions),
		TotalQuestions:  s.TotalQuestions,
		StartedAt:       s.StartedAt.Unix(),
	}, nil
}

// completionColumns encodes the JSON columns written by CompleteSession.
func completionColumns(c domain.Completion) (answers, analysis string, err error) {
	a, err := json.Marshal(nonNil(c.Answers))
	if err != nil {
		return "", "", fmt.Errorf("encode answers: %w", err)
	}
	r, err := json.Marshal(c.Analysis)
	if err != nil {
		return "", "", fmt.Errorf("encode analysis: %w", err)
	}
	return string(a), string(r), nil
}

func (r sessionRow) toDomain() (*domain.Session, error) {
	s := &domain.Session{
		ID:       r.ID,
		UserID:   r.UserID,
		Modality: domain.Modality(r.Modality),
		Status:   domain.SessionStatus(r.Status),
		Config: domain.InterviewConfig{
			Industry:        r.Industry,
			ExperienceLevel: domain.ExperienceLevel(r.ExperienceLevel),
			InterviewType:   domain.InterviewType(r.InterviewType),
			DurationMinutes: r.DurationMinutes,
			Language:        domain.Language(r.Language),
		},
		TotalQuestions:    r.TotalQuestions,
		QuestionsAnswered: r.QuestionsAnswered,
		DurationSeconds:   r.DurationSeconds,
		StartedAt:         time.Unix(r.StartedAt, 0),
	}
	if err := json.Unmarshal([]byte(r.QuestionsJSON), &s.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of %s: %w", r.ID, err)
	}
	if r.AnswersJSON != nil && *r.AnswersJSON != "" {
		if err := json.Unmarshal([]byte(*r.AnswersJSON), &s.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", r.ID, err)
		}
	}
	if r.AnalysisJSON != nil && *r.AnalysisJSON != "" {
		var a domain.Analysis
		if err := json.Unmarshal([]byte(*r.AnalysisJSON), &a); err != nil {
			return nil, fmt.Errorf("decode analysis of %s: %w", r.ID, err)
		}
		s.Result = &a
	}
	if r.CompletedAt != nil {
		ts := time.Unix(*r.CompletedAt, 0)
		s.CompletedAt = &ts
	}
	return s, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
