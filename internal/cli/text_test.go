package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/questions"
	"github.com/ashureev/interview-labs/internal/session"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, data domain.TranscriptData) domain.Analysis {
	scores := make([]int, len(data.Answers))
	for i, a := range data.Answers {
		if a != "" {
			scores[i] = 70
		}
	}
	return domain.Analysis{
		OverallScore:      70,
		PerQuestionScores: scores,
		Strengths:         []string{"Clear structure"},
	}
}

type memRecords struct {
	mu        sync.Mutex
	completed map[string]domain.Completion
}

func (m *memRecords) Create(context.Context, *domain.Session) error { return nil }

func (m *memRecords) Complete(_ context.Context, s domain.Session, c domain.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed[s.ID] = c
	return nil
}

func newTestService(t *testing.T) (*session.Service, *memRecords) {
	t.Helper()
	records := &memRecords{completed: make(map[string]domain.Completion)}
	svc := session.NewService(context.Background(),
		session.Deps{Analyzer: stubAnalyzer{}, Records: records},
		questions.Default(),
		session.ServiceConfig{QuestionsPerSession: 2},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc, records
}

var cliConfig = domain.InterviewConfig{
	Industry:        "software",
	ExperienceLevel: domain.LevelMid,
	InterviewType:   domain.TypeMixed,
	DurationMinutes: 10,
}

func TestRunInterviewAnswersEveryQuestion(t *testing.T) {
	t.Parallel()
	svc, records := newTestService(t)

	var out bytes.Buffer
	in := strings.NewReader("I start with the failing test.\n\n  \nI profile before changing anything.\n")
	if err := runInterview(context.Background(), svc, "user-1", cliConfig, in, &out); err != nil {
		t.Fatalf("runInterview: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Q1/2:", "Q2/2:", "Answered 2 of 2 questions.", "Overall score: 70", "Clear structure"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	records.mu.Lock()
	defer records.mu.Unlock()
	if len(records.completed) != 1 {
		t.Fatalf("completed records = %d, want 1", len(records.completed))
	}
	for _, c := range records.completed {
		if c.Answers[1] != "I profile before changing anything." {
			t.Errorf("second answer = %q", c.Answers[1])
		}
	}
}

func TestRunInterviewStopCommandEndsEarly(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	var out bytes.Buffer
	in := strings.NewReader("Only one answer.\n:stop\nnever read\n")
	if err := runInterview(context.Background(), svc, "user-1", cliConfig, in, &out); err != nil {
		t.Fatalf("runInterview: %v", err)
	}
	if !strings.Contains(out.String(), "Answered 1 of 2 questions.") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestRunInterviewEndOfInputStops(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	var out bytes.Buffer
	if err := runInterview(context.Background(), svc, "user-1", cliConfig, strings.NewReader(""), &out); err != nil {
		t.Fatalf("runInterview: %v", err)
	}
	if !strings.Contains(out.String(), "Answered 0 of 2 questions.") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestRunInterviewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	bad := cliConfig
	bad.DurationMinutes = 0
	err := runInterview(context.Background(), svc, "user-1", bad, strings.NewReader(""), io.Discard)
	if err == nil || !strings.Contains(err.Error(), "starting session") {
		t.Fatalf("err = %v", err)
	}
}

func TestPrintHistory(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printHistory(&out, nil)
	if !strings.Contains(out.String(), "No sessions found.") {
		t.Fatalf("empty history output = %q", out.String())
	}

	out.Reset()
	printHistory(&out, []*domain.Session{{
		ID: "s-1", Status: domain.StatusCompleted, Modality: domain.ModalityText,
		StartedAt: time.Now(), QuestionsAnswered: 3, TotalQuestions: 5,
		Result: &domain.Analysis{OverallScore: 61},
	}})
	if got := out.String(); !strings.Contains(got, "3/5") || !strings.Contains(got, "score 61") {
		t.Fatalf("history output = %q", got)
	}
}
