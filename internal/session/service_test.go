package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
)

type staticSelector struct {
	mu   sync.Mutex
	last domain.InterviewConfig
	n    int
}

func (s *staticSelector) Select(cfg domain.InterviewConfig, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last, s.n = cfg, n
	return threeQuestions[:2]
}

func newTestService(t *testing.T) (*Service, *staticSelector, *fakeRecords) {
	t.Helper()
	sel := &staticSelector{}
	records := &fakeRecords{}
	svc := NewService(context.Background(), Deps{Analyzer: &fakeAnalyzer{}, Records: records}, sel, ServiceConfig{
		QuestionsPerSession: 4,
		DefaultLanguage:     domain.LanguageHI,
		Retention:           time.Minute,
	}, quiet())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc, sel, records
}

func TestServiceStartSessionNormalizesAndRegisters(t *testing.T) {
	t.Parallel()

	svc, sel, records := newTestService(t)
	cfg := domain.InterviewConfig{Industry: " retail ", ExperienceLevel: "Entry", InterviewType: "MIXED", DurationMinutes: 5}

	o, err := svc.StartSession(context.Background(), "user-9", cfg, domain.ModalityText)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if got, ok := svc.Get(o.ID()); !ok || got != o {
		t.Fatalf("session not registered")
	}
	if sel.n != 4 || sel.last.Language != domain.LanguageHI || sel.last.Industry != "retail" {
		t.Fatalf("selector saw cfg=%+v n=%d", sel.last, sel.n)
	}
	if snap := o.Snapshot(); snap.UserID != "user-9" || snap.TotalQuestions != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if created, _ := records.counts(); created != 1 {
		t.Fatalf("created %d records", created)
	}
}

func TestServiceStartSessionRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	svc, _, records := newTestService(t)
	_, err := svc.StartSession(context.Background(), "u", domain.InterviewConfig{Industry: "x", ExperienceLevel: "guru", InterviewType: "mixed", DurationMinutes: 5}, domain.ModalityText)
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Fatalf("got %v, want ErrConfigInvalid", err)
	}
	if svc.Len() != 0 {
		t.Fatalf("invalid session registered")
	}
	if created, _ := records.counts(); created != 0 {
		t.Fatalf("record created for invalid config")
	}
}

func TestServiceReapEvictsCompletedSessions(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	done, err := svc.StartSession(ctx, "u", testConfig(5), domain.ModalityText)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	live, err := svc.StartSession(ctx, "u", testConfig(5), domain.ModalityText)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := done.RequestStop(ctx); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}
	waitDone(t, done)

	var evicted []string
	svc.OnEvict(func(id string) { evicted = append(evicted, id) })

	if n := svc.reap(time.Now()); n != 0 {
		t.Fatalf("reaped %d sessions inside retention", n)
	}
	if n := svc.reap(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("reaped %d sessions, want 1", n)
	}
	if len(evicted) != 1 || evicted[0] != done.ID() {
		t.Fatalf("evicted = %v", evicted)
	}
	if _, ok := svc.Get(live.ID()); !ok {
		t.Fatalf("live session evicted")
	}
}

func TestServiceShutdownFinalizesLiveSessions(t *testing.T) {
	t.Parallel()

	svc, _, records := newTestService(t)
	o, err := svc.StartSession(context.Background(), "u", testConfig(5), domain.ModalityText)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, ok := o.Result(); !ok {
		t.Fatalf("session not finalized on shutdown")
	}
	if _, completed := records.counts(); completed != 1 {
		t.Fatalf("completed %d records", completed)
	}
}
