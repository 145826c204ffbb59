package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
)

// QuestionSelector picks the questions for a new session.
type QuestionSelector interface {
	Select(cfg domain.InterviewConfig, n int) []string
}

// ServiceConfig tunes session creation and retention.
type ServiceConfig struct {
	QuestionsPerSession int
	DefaultLanguage     domain.Language
	Retention           time.Duration
	StopGrace           time.Duration
	StopTimeout         time.Duration
	ConnectTimeout      time.Duration
	Listener            Listener
}

// EvictCallback is called when the reaper drops a completed session.
type EvictCallback func(sessionID string)

// Service creates orchestrators and keeps a registry of live and recently
// completed sessions.
type Service struct {
	deps      Deps
	selector  QuestionSelector
	cfg       ServiceConfig
	logger    *slog.Logger
	now       func() time.Time
	baseCtx   context.Context
	cancelAll context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Orchestrator
	onEvict  []EvictCallback
}

// NewService creates a session service. Sessions outlive the request that
// started them and are bounded by ctx instead.
func NewService(ctx context.Context, deps Deps, selector QuestionSelector, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * time.Minute
	}
	baseCtx, cancel := context.WithCancel(ctx)
	return &Service{
		deps:      deps,
		selector:  selector,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		baseCtx:   baseCtx,
		cancelAll: cancel,
		sessions:  make(map[string]*Orchestrator),
	}
}

// OnEvict registers fn to run whenever a completed session is evicted.
func (s *Service) OnEvict(fn EvictCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = append(s.onEvict, fn)
}

// StartSession validates cfg, selects questions and starts a new session.
func (s *Service) StartSession(ctx context.Context, userID string, cfg domain.InterviewConfig, modality domain.Modality) (*Orchestrator, error) {
	cfg = cfg.Normalize(s.cfg.DefaultLanguage)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	questions := s.selector.Select(cfg, s.cfg.QuestionsPerSession)
	o := NewOrchestrator(userID, cfg, modality, questions, s.deps, Options{
		Logger:         s.logger,
		Listener:       s.cfg.Listener,
		BaseContext:    s.baseCtx,
		StopGrace:      s.cfg.StopGrace,
		StopTimeout:    s.cfg.StopTimeout,
		ConnectTimeout: s.cfg.ConnectTimeout,
	})
	if err := o.Start(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[o.ID()] = o
	s.mu.Unlock()

	return o, nil
}

// Get returns a registered session.
func (s *Service) Get(sessionID string) (*Orchestrator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.sessions[sessionID]
	return o, ok
}

// Len returns the number of registered sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown finalizes every live session and waits for them to complete or
// for ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancelAll()

	s.mu.RLock()
	live := make([]*Orchestrator, 0, len(s.sessions))
	for _, o := range s.sessions {
		live = append(live, o)
	}
	s.mu.RUnlock()

	for _, o := range live {
		select {
		case <-o.Done():
		case <-ctx.Done():
			s.logger.Warn("shutdown deadline reached before all sessions completed", "session_id", o.ID())
			return ctx.Err()
		}
	}
	return nil
}
