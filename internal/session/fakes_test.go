package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/voice"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// fakeClock is a manually advanced clock shared between a test and the loop.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []domain.TranscriptData
}

func (f *fakeAnalyzer) Analyze(_ context.Context, data domain.TranscriptData) domain.Analysis {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, data)
	per := make([]int, len(data.Answers))
	for i, a := range data.Answers {
		if a != "" {
			per[i] = 80
		}
	}
	return domain.Analysis{OverallScore: 80, PerQuestionScores: per, NarrativeFeedback: "ok"}
}

func (f *fakeAnalyzer) Calls() []domain.TranscriptData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TranscriptData(nil), f.calls...)
}

type fakeRecords struct {
	mu        sync.Mutex
	createErr error
	created   []domain.Session
	completed []domain.Completion
}

func (f *fakeRecords) Create(_ context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *s)
	return nil
}

func (f *fakeRecords) Complete(_ context.Context, _ domain.Session, c domain.Completion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, c)
	return nil
}

func (f *fakeRecords) lastCompletion() domain.Completion {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.completed) == 0 {
		return domain.Completion{}
	}
	return f.completed[len(f.completed)-1]
}

func (f *fakeRecords) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created), len(f.completed)
}

// fakeConn is a scripted voice connection. Stop replies with a disconnected
// event unless silentStop is set.
type fakeConn struct {
	events     chan voice.Event
	silentStop bool

	mu        sync.Mutex
	stops     int
	muted     []bool
	closed    bool
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan voice.Event, 32)}
}

func (c *fakeConn) Events() <-chan voice.Event { return c.events }

func (c *fakeConn) Stop(context.Context) error {
	c.mu.Lock()
	c.stops++
	c.mu.Unlock()
	if !c.silentStop {
		c.events <- voice.Event{Kind: voice.EventDisconnected}
	}
	return nil
}

func (c *fakeConn) SetMuted(muted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = append(c.muted, muted)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
	})
	return nil
}

func (c *fakeConn) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) say(speaker domain.Speaker, text string) {
	c.events <- voice.Event{Kind: voice.EventTurn, Speaker: speaker, Text: text, Final: true}
}

type fakeProvider struct {
	conn *fakeConn
	err  error
	spec voice.AssistantSpec
}

func (p *fakeProvider) Start(_ context.Context, spec voice.AssistantSpec) (voice.Connection, error) {
	p.spec = spec
	if p.err != nil {
		return nil, p.err
	}
	return p.conn, nil
}

type recordingListener struct {
	mu        sync.Mutex
	completed int
	kinds     []domain.ErrorKind
}

func (l *recordingListener) OnCompleted(string, domain.Analysis) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed++
}

func (l *recordingListener) OnError(_ string, kind domain.ErrorKind, _ error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.kinds = append(l.kinds, kind)
}

func (l *recordingListener) snapshot() (int, []domain.ErrorKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.completed, append([]domain.ErrorKind(nil), l.kinds...)
}

var errBoom = errors.New("boom")

func testConfig(minutes int) domain.InterviewConfig {
	return domain.InterviewConfig{
		Industry:        "software",
		ExperienceLevel: domain.LevelMid,
		InterviewType:   domain.TypeMixed,
		DurationMinutes: minutes,
		Language:        domain.LanguageEN,
	}
}

func waitDone(t *testing.T, o *Orchestrator) {
	t.Helper()
	select {
	case <-o.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("session %s did not complete, state %s", o.ID(), o.State())
	}
}
