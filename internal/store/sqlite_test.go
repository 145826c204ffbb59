package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testSession(id, userID string, started time.Time) *domain.Session {
	return &domain.Session{
		ID:     id,
		UserID: userID,
		Config: domain.InterviewConfig{
			Industry:        "fintech",
			ExperienceLevel: domain.LevelSenior,
			InterviewType:   domain.TypeMixed,
			DurationMinutes: 15,
			Language:        domain.LanguageEN,
		},
		Modality:       domain.ModalityText,
		Status:         domain.StatusInProgress,
		StartedAt:      started,
		Questions:      []string{"Q1", "Q2"},
		TotalQuestions: 2,
	}
}

func TestSQLiteUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	got, err := repo.GetUser(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil) for missing user, got (%v, %v)", got, err)
	}

	now := time.Unix(1_700_000_000, 0)
	if err := repo.UpsertUser(ctx, &domain.User{UserID: "u1", Username: "guest", LastSeenAt: now, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	later := now.Add(time.Hour)
	if err := repo.UpdateLastSeen(ctx, "u1", later); err != nil {
		t.Fatalf("UpdateLastSeen: %v", err)
	}

	got, err = repo.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "guest" || !got.LastSeenAt.Equal(later) {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestSQLiteSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	started := time.Unix(1_700_000_000, 0)
	if err := repo.InsertSession(ctx, testSession("s1", "u1", started)); err != nil {
		t.Fatalf("InsertSession: %v", err)
	}

	got, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != domain.StatusInProgress || got.Result != nil || got.CompletedAt != nil {
		t.Fatalf("new session should be in progress without result: %+v", got)
	}
	if len(got.Questions) != 2 || got.Config.ExperienceLevel != domain.LevelSenior {
		t.Fatalf("config or questions not stored: %+v", got)
	}

	completion := domain.Completion{
		CompletedAt:       started.Add(5 * time.Minute),
		DurationSeconds:   300,
		QuestionsAnswered: 1,
		Answers:           []string{"an answer", ""},
		Analysis: domain.Analysis{
			OverallScore:      70,
			PerQuestionScores: []int{72, 0},
			Strengths:         []string{"a"},
			Weaknesses:        []string{"b"},
			Recommendations:   []string{"c"},
			NarrativeFeedback: "ok",
			SkillBreakdown:    map[string]int{domain.SkillTechnical: 65},
			Fallback:          true,
		},
	}
	if err := repo.CompleteSession(ctx, "s1", completion); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	got, err = repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !got.IsCompleted() || got.Result == nil || got.Result.OverallScore != 70 {
		t.Fatalf("session not completed with result: %+v", got)
	}
	if got.QuestionsAnswered != 1 || got.DurationSeconds != 300 || len(got.Answers) != 2 {
		t.Fatalf("completion fields not stored: %+v", got)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completion.CompletedAt) {
		t.Fatalf("completed_at = %v", got.CompletedAt)
	}

	if err := repo.CompleteSession(ctx, "s1", completion); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("second completion: expected ErrAlreadyCompleted, got %v", err)
	}
	if err := repo.CompleteSession(ctx, "nope", completion); !errors.Is(err, ErrNoRows) {
		t.Fatalf("missing session: expected ErrNoRows, got %v", err)
	}
}

func TestSQLiteListSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	base := time.Unix(1_700_000_000, 0)
	for i, id := range []string{"a", "b", "c"} {
		if err := repo.InsertSession(ctx, testSession(id, "u1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("InsertSession %s: %v", id, err)
		}
	}
	if err := repo.InsertSession(ctx, testSession("other", "u2", base)); err != nil {
		t.Fatalf("InsertSession: %v", err)
	}

	list, err := repo.ListSessions(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" {
		ids := make([]string, len(list))
		for i, s := range list {
			ids[i] = s.ID
		}
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestSQLiteAnswersUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	answers := []domain.AnswerRecord{
		{ID: "a1", SessionID: "s1", QuestionIndex: 1, Question: "Q2", Answer: "", Score: 0},
		{ID: "a0", SessionID: "s1", QuestionIndex: 0, Question: "Q1", Answer: "first", Score: 60},
	}
	if err := repo.InsertAnswers(ctx, answers); err != nil {
		t.Fatalf("InsertAnswers: %v", err)
	}
	answers[1].Score = 75
	if err := repo.InsertAnswers(ctx, answers[1:]); err != nil {
		t.Fatalf("InsertAnswers again: %v", err)
	}

	got, err := repo.GetAnswers(ctx, "s1")
	if err != nil {
		t.Fatalf("GetAnswers: %v", err)
	}
	if len(got) != 2 || got[0].QuestionIndex != 0 || got[0].Score != 75 {
		t.Fatalf("unexpected answers %+v", got)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "", PostgresConfig{}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
