// Package session runs practice sessions. Each Orchestrator owns one session
// and serializes ticks, voice events and caller commands through a single
// event loop, converging every termination trigger on one finalization.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/interview-labs/internal/classifier"
	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/timer"
	"github.com/ashureev/interview-labs/internal/voice"
)

// Analyzer scores a finished session. Implementations must always return a
// populated Analysis.
type Analyzer interface {
	Analyze(ctx context.Context, data domain.TranscriptData) domain.Analysis
}

// RecordStore persists session records.
type RecordStore interface {
	Create(ctx context.Context, s *domain.Session) error
	Complete(ctx context.Context, s domain.Session, c domain.Completion) error
}

// Deps are the collaborators of an Orchestrator. Voice may be nil for text sessions.
type Deps struct {
	Analyzer Analyzer
	Records  RecordStore
	Voice    voice.Provider
}

// Options tune an Orchestrator. Zero values select defaults.
type Options struct {
	Logger   *slog.Logger
	Listener Listener

	// BaseContext bounds the session loop. Cancelling it finalizes the session.
	BaseContext context.Context

	// TickSource drives the countdown. Defaults to a one-second ticker.
	TickSource <-chan time.Time

	StopGrace      time.Duration
	StopTimeout    time.Duration
	ConnectTimeout time.Duration
	PersistTimeout time.Duration

	Now   func() time.Time
	NewID func() string
}

// Defaults for Options.
const (
	DefaultStopGrace      = 2 * time.Second
	DefaultStopTimeout    = 10 * time.Second
	DefaultConnectTimeout = 15 * time.Second
	DefaultPersistTimeout = 10 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.BaseContext == nil {
		o.BaseContext = context.Background()
	}
	if o.StopGrace <= 0 {
		o.StopGrace = DefaultStopGrace
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = DefaultStopTimeout
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = DefaultPersistTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

type commandKind int

const (
	cmdAnswer commandKind = iota
	cmdStop
	cmdMute
)

type command struct {
	kind  commandKind
	text  string
	muted bool
	reply chan commandResult
}

type commandResult struct {
	progress Progress
	err      error
}

// Orchestrator drives one session from start to its single finalization.
type Orchestrator struct {
	id        string
	cfg       domain.InterviewConfig
	modality  domain.Modality
	questions []string

	deps   Deps
	opts   Options
	logger *slog.Logger

	// Owned by the loop goroutine once Start returns.
	conn          voice.Connection
	countdown     *timer.Countdown
	pending       []voice.Event
	graceC        <-chan time.Time
	stopTimeoutC  <-chan time.Time
	deadlineHit   bool
	recordCreated bool
	finalized     bool
	reason        TerminationReason

	commands chan command
	done     chan struct{}

	mu                   sync.RWMutex
	state                State
	terminationRequested bool
	session              domain.Session
	turns                []domain.Turn
	answers              []string
	questionIndex        int

	subMu       sync.Mutex
	subscribers map[int]chan Event
	nextSub     int
	subsClosed  bool
}

// NewOrchestrator creates an idle orchestrator. Call Start to begin.
func NewOrchestrator(userID string, cfg domain.InterviewConfig, modality domain.Modality, questions []string, deps Deps, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	id := opts.NewID()
	qs := append([]string(nil), questions...)

	return &Orchestrator{
		id:        id,
		cfg:       cfg,
		modality:  modality,
		questions: qs,
		deps:      deps,
		opts:      opts,
		logger:    opts.Logger.With("session_id", id, "modality", modality),
		commands:  make(chan command),
		done:      make(chan struct{}),
		state:     StateIdle,
		session: domain.Session{
			ID:             id,
			UserID:         userID,
			Config:         cfg,
			Modality:       modality,
			Status:         domain.StatusInProgress,
			Questions:      qs,
			TotalQuestions: len(qs),
		},
		answers:     make([]string, len(qs)),
		subscribers: make(map[int]chan Event),
	}
}

// ID returns the session identifier.
func (o *Orchestrator) ID() string {
	return o.id
}

// UserID returns the owning user.
func (o *Orchestrator) UserID() string {
	return o.session.UserID
}

// Modality returns the interaction channel.
func (o *Orchestrator) Modality() domain.Modality {
	return o.modality
}

// Start validates the configuration, acquires the voice channel when needed,
// creates the session record and enters Active.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return fmt.Errorf("%w: session already started", domain.ErrSessionClosed)
	}
	o.mu.Unlock()

	if err := o.validate(); err != nil {
		return err
	}

	o.setState(StateAwaitingStart)

	if o.modality == domain.ModalityVoice {
		if err := o.connectVoice(ctx); err != nil {
			o.logger.Warn("voice channel unavailable", "error", err)
			o.setState(StateIdle)
			o.notifyError(domain.KindChannelUnavailable, err)
			return err
		}
	}

	o.mu.Lock()
	o.session.StartedAt = o.opts.Now()
	o.mu.Unlock()

	o.createRecord(ctx)

	o.countdown = timer.Start(o.cfg.MaxSeconds())
	o.countdown.OnDeadline(func() { o.deadlineHit = true })

	o.setState(StateActive)
	if o.modality == domain.ModalityText {
		o.addTurn(domain.SpeakerInterviewer, o.questions[0])
	}

	o.logger.Info("session started",
		"user_id", o.session.UserID,
		"questions", len(o.questions),
		"max_seconds", o.cfg.MaxSeconds(),
		"language", o.cfg.Language,
	)

	go o.run()
	return nil
}

func (o *Orchestrator) validate() error {
	if err := o.cfg.Validate(); err != nil {
		return err
	}
	if len(o.questions) == 0 {
		return fmt.Errorf("%w: no questions selected", domain.ErrConfigInvalid)
	}
	switch o.modality {
	case domain.ModalityText:
	case domain.ModalityVoice:
		if o.deps.Voice == nil {
			return fmt.Errorf("%w: voice is not configured", domain.ErrChannelUnavailable)
		}
	default:
		return fmt.Errorf("%w: unknown modality %q", domain.ErrConfigInvalid, o.modality)
	}
	if o.deps.Analyzer == nil {
		return errors.New("session: analyzer is required")
	}
	return nil
}

func (o *Orchestrator) connectVoice(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, o.opts.ConnectTimeout)
	defer cancel()

	conn, err := o.deps.Voice.Start(ctx, voice.NewAssistantSpec(o.cfg, o.questions))
	if err != nil {
		if errors.Is(err, domain.ErrChannelUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, err)
	}

	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				_ = conn.Close()
				return fmt.Errorf("%w: channel closed before connecting", domain.ErrChannelUnavailable)
			}
			switch ev.Kind {
			case voice.EventConnected:
				o.conn = conn
				return nil
			case voice.EventTurn:
				o.pending = append(o.pending, ev)
			case voice.EventError:
				_ = conn.Close()
				return fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, ev.Err)
			case voice.EventDisconnected:
				_ = conn.Close()
				return fmt.Errorf("%w: channel disconnected before connecting", domain.ErrChannelUnavailable)
			}
		case <-ctx.Done():
			_ = conn.Close()
			return fmt.Errorf("%w: waiting for connection: %v", domain.ErrChannelUnavailable, ctx.Err())
		}
	}
}

func (o *Orchestrator) createRecord(ctx context.Context) {
	if o.deps.Records == nil {
		return
	}
	snapshot := o.Snapshot()
	if err := o.deps.Records.Create(ctx, &snapshot); err != nil {
		o.logger.Warn("session record not created, continuing in memory", "kind", domain.KindPersistenceFailure, "error", err)
		o.notifyError(domain.KindPersistenceFailure, err)
		return
	}
	o.recordCreated = true
}

func (o *Orchestrator) run() {
	defer func() {
		o.closeSubscribers()
		close(o.done)
	}()

	tickC := o.opts.TickSource
	if tickC == nil {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		tickC = ticker.C
	}

	var voiceC <-chan voice.Event
	if o.conn != nil {
		voiceC = o.conn.Events()
	}

	for _, ev := range o.pending {
		o.handleVoiceEvent(ev)
	}
	o.pending = nil

	base := o.opts.BaseContext
	for !o.finalized {
		select {
		case <-base.Done():
			o.markTerminationRequested(ReasonShutdown)
			o.finalize()
		case <-tickC:
			o.handleTick()
		case ev, ok := <-voiceC:
			if !ok {
				voiceC = nil
				o.handleDisconnected()
				continue
			}
			o.handleVoiceEvent(ev)
		case cmd := <-o.commands:
			o.handleCommand(cmd)
		case <-o.graceC:
			o.graceC = nil
			o.issueStop()
		case <-o.stopTimeoutC:
			o.stopTimeoutC = nil
			o.logger.Warn("voice channel did not confirm stop, finalizing", "timeout", o.opts.StopTimeout)
			o.finalize()
		}
	}
}

func (o *Orchestrator) handleTick() {
	if o.TerminationRequested() {
		return
	}
	o.countdown.Tick()
	remaining := o.countdown.Remaining()
	o.publish(Event{Type: EventTick, Remaining: &remaining})

	if o.deadlineHit {
		o.deadlineHit = false
		o.logger.Info("session deadline reached")
		o.requestTermination(ReasonDeadline, false)
	}
}

func (o *Orchestrator) handleVoiceEvent(ev voice.Event) {
	switch ev.Kind {
	case voice.EventConnected:
	case voice.EventError:
		o.logger.Warn("voice channel error", "error", ev.Err)
		o.publish(Event{Type: EventError, ErrorKind: domain.KindChannelUnavailable, Message: errString(ev.Err)})
	case voice.EventDisconnected:
		o.handleDisconnected()
	case voice.EventTurn:
		if ev.Final {
			o.handleVoiceTurn(ev)
		}
	}
}

func (o *Orchestrator) handleVoiceTurn(ev voice.Event) {
	if o.TerminationRequested() {
		o.logger.Info("dropping turn received after termination was requested", "speaker", ev.Speaker)
		return
	}

	turn := o.addTurn(ev.Speaker, ev.Text)
	qi := o.currentIndex()
	res := classifier.Classify(turn, qi, len(o.questions), o.cfg.Language)

	switch turn.Speaker {
	case domain.SpeakerCandidate:
		if res.IsStopRequest {
			o.logger.Info("stop phrase detected", "phrase", classifier.MatchedStopPhrase(turn.Text, o.cfg.Language))
			o.requestTermination(ReasonStopPhrase, true)
			return
		}
		o.appendAnswer(qi, turn.Text)
	case domain.SpeakerInterviewer:
		if res.IsAdvanceCue {
			o.advance()
		}
		if res.IsConclusionCue {
			o.requestTermination(ReasonConclusion, true)
		}
	}
}

func (o *Orchestrator) handleDisconnected() {
	if o.finalized {
		return
	}
	if !o.TerminationRequested() {
		o.logger.Info("voice channel closed by remote side")
		o.markTerminationRequested(ReasonDisconnected)
	}
	o.finalize()
}

func (o *Orchestrator) handleCommand(cmd command) {
	if o.TerminationRequested() {
		cmd.reply <- commandResult{err: domain.ErrSessionClosed}
		return
	}

	switch cmd.kind {
	case cmdAnswer:
		progress, stop := o.answer(cmd.text)
		cmd.reply <- commandResult{progress: progress}
		switch {
		case stop:
			o.requestTermination(ReasonStopPhrase, false)
		case progress.Finished:
			o.requestTermination(ReasonAllAnswered, false)
		}
	case cmdStop:
		cmd.reply <- commandResult{progress: o.progress()}
		o.requestTermination(ReasonUserStop, true)
	case cmdMute:
		if o.conn == nil {
			cmd.reply <- commandResult{err: domain.ErrWrongModality}
			return
		}
		err := o.conn.SetMuted(cmd.muted)
		if err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, err)
		}
		cmd.reply <- commandResult{progress: o.progress(), err: err}
	}
}

// answer records a text answer and advances by exactly one question.
// A stop phrase ends the session without being recorded as an answer.
func (o *Orchestrator) answer(text string) (Progress, bool) {
	text = strings.TrimSpace(text)
	candidate := domain.Turn{Speaker: domain.SpeakerCandidate, Text: text}
	if classifier.Classify(candidate, o.currentIndex(), len(o.questions), o.cfg.Language).IsStopRequest {
		o.addTurn(domain.SpeakerCandidate, text)
		p := o.progress()
		p.Finished = true
		p.NextQuestion = ""
		return p, true
	}

	if text != "" {
		o.addTurn(domain.SpeakerCandidate, text)
	}

	o.mu.Lock()
	o.answers[o.questionIndex] = text
	o.questionIndex++
	o.session.QuestionsAnswered = countAnswered(o.answers)
	o.mu.Unlock()

	p := o.progress()
	o.publish(Event{Type: EventProgress, Progress: &p})
	if !p.Finished {
		o.addTurn(domain.SpeakerInterviewer, p.NextQuestion)
	}
	return p, false
}

func (o *Orchestrator) advance() {
	o.mu.Lock()
	if o.questionIndex < len(o.questions)-1 {
		o.questionIndex++
	}
	o.mu.Unlock()

	p := o.progress()
	o.logger.Debug("advanced to next question", "question_index", p.QuestionIndex)
	o.publish(Event{Type: EventProgress, Progress: &p})
}

func (o *Orchestrator) appendAnswer(qi int, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if qi >= len(o.answers) {
		return
	}
	if o.answers[qi] == "" {
		o.answers[qi] = text
	} else {
		o.answers[qi] += " " + text
	}
	o.session.QuestionsAnswered = countAnswered(o.answers)
}

func (o *Orchestrator) markTerminationRequested(reason TerminationReason) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.terminationRequested {
		return false
	}
	o.terminationRequested = true
	o.reason = reason
	return true
}

// requestTermination is the single entry for every termination trigger. Only
// the first trigger acts; later ones are ignored.
func (o *Orchestrator) requestTermination(reason TerminationReason, grace bool) {
	if !o.markTerminationRequested(reason) {
		o.logger.Debug("termination already requested", "trigger", reason, "first", o.reason)
		return
	}
	if o.countdown != nil {
		o.countdown.Cancel()
	}
	o.logger.Info("session termination requested", "reason", reason)

	if o.conn == nil {
		o.finalize()
		return
	}
	if grace {
		o.graceC = time.After(o.opts.StopGrace)
		return
	}
	o.issueStop()
}

func (o *Orchestrator) issueStop() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(o.opts.BaseContext), o.opts.StopTimeout)
	defer cancel()

	if err := o.conn.Stop(ctx); err != nil {
		o.logger.Warn("failed to stop voice channel, finalizing", "error", err)
		o.finalize()
		return
	}
	o.stopTimeoutC = time.After(o.opts.StopTimeout)
}

// finalize freezes the transcript, scores it and completes the record. It runs
// at most once; a second call is an invariant violation.
func (o *Orchestrator) finalize() {
	if o.finalized {
		err := fmt.Errorf("%w: %s", domain.ErrDuplicateFinalization, o.id)
		o.logger.Error("duplicate finalization attempt", "error", err)
		o.notifyError(domain.KindDuplicateFinalization, err)
		return
	}
	o.finalized = true
	o.graceC, o.stopTimeoutC = nil, nil
	if o.countdown != nil {
		o.countdown.Pause()
	}
	o.setState(StateFinalizing)

	o.mu.Lock()
	o.terminationRequested = true
	answers := append([]string(nil), o.answers...)
	o.mu.Unlock()

	data := domain.TranscriptData{
		SessionID: o.id,
		Questions: append([]string(nil), o.questions...),
		Answers:   answers,
		Industry:  o.cfg.Industry,
		Level:     o.cfg.ExperienceLevel,
		Modality:  o.modality,
		Language:  o.cfg.Language,
	}
	// Shutdown cancels the base context; scoring still runs, bounded by the
	// analyzer's own timeout.
	analysis := o.deps.Analyzer.Analyze(context.WithoutCancel(o.opts.BaseContext), data)

	now := o.opts.Now()
	completion := domain.Completion{
		CompletedAt:       now,
		DurationSeconds:   o.wallSeconds(now),
		QuestionsAnswered: countAnswered(answers),
		Answers:           answers,
		Analysis:          analysis,
	}

	if o.recordCreated {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(o.opts.BaseContext), o.opts.PersistTimeout)
		err := o.deps.Records.Complete(ctx, o.Snapshot(), completion)
		cancel()
		if err != nil {
			kind := domain.KindOf(err)
			if kind == domain.KindDuplicateFinalization {
				o.logger.Error("session record was already completed", "error", err)
			} else {
				o.logger.Warn("failed to complete session record", "kind", domain.KindPersistenceFailure, "error", err)
				kind = domain.KindPersistenceFailure
			}
			o.notifyError(kind, err)
		}
	}

	if o.conn != nil {
		if err := o.conn.Close(); err != nil {
			o.logger.Debug("failed to close voice channel", "error", err)
		}
	}

	o.mu.Lock()
	o.session.Status = domain.StatusCompleted
	o.session.CompletedAt = &now
	o.session.DurationSeconds = completion.DurationSeconds
	o.session.QuestionsAnswered = completion.QuestionsAnswered
	o.session.Answers = answers
	o.session.Result = &analysis
	o.state = StateCompleted
	o.mu.Unlock()

	o.publish(Event{Type: EventState, State: StateCompleted})
	o.publish(Event{Type: EventCompleted, Analysis: &analysis})
	if o.opts.Listener != nil {
		o.opts.Listener.OnCompleted(o.id, analysis)
	}

	o.logger.Info("session completed",
		"reason", o.reason,
		"questions_answered", completion.QuestionsAnswered,
		"duration_seconds", completion.DurationSeconds,
		"overall_score", analysis.OverallScore,
		"fallback", analysis.Fallback,
	)
}

// wallSeconds is the wall-clock time since start, capped at the configured window.
func (o *Orchestrator) wallSeconds(now time.Time) int {
	o.mu.RLock()
	started := o.session.StartedAt
	o.mu.RUnlock()
	if started.IsZero() {
		return 0
	}
	return min(max(int(now.Sub(started).Seconds()), 0), o.cfg.MaxSeconds())
}

// SubmitTextAnswer records the answer to the current question.
func (o *Orchestrator) SubmitTextAnswer(ctx context.Context, text string) (Progress, error) {
	if o.modality != domain.ModalityText {
		return Progress{}, domain.ErrWrongModality
	}
	return o.dispatch(ctx, command{kind: cmdAnswer, text: text})
}

// RequestStop ends the session as if the candidate said a stop phrase.
func (o *Orchestrator) RequestStop(ctx context.Context) error {
	_, err := o.dispatch(ctx, command{kind: cmdStop})
	return err
}

// SetMuted toggles the candidate microphone of a voice session.
func (o *Orchestrator) SetMuted(ctx context.Context, muted bool) error {
	if o.modality != domain.ModalityVoice {
		return domain.ErrWrongModality
	}
	_, err := o.dispatch(ctx, command{kind: cmdMute, muted: muted})
	return err
}

func (o *Orchestrator) dispatch(ctx context.Context, cmd command) (Progress, error) {
	switch o.State() {
	case StateIdle, StateAwaitingStart:
		return Progress{}, fmt.Errorf("%w: session not started", domain.ErrSessionClosed)
	}
	if o.TerminationRequested() {
		return Progress{}, domain.ErrSessionClosed
	}

	cmd.reply = make(chan commandResult, 1)
	select {
	case o.commands <- cmd:
	case <-o.done:
		return Progress{}, domain.ErrSessionClosed
	case <-ctx.Done():
		return Progress{}, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res.progress, res.err
	case <-ctx.Done():
		return Progress{}, ctx.Err()
	}
}

// State returns the lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// TerminationRequested reports whether any termination trigger has fired.
func (o *Orchestrator) TerminationRequested() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.terminationRequested
}

// Snapshot returns a copy of the session. Result is set iff Status is completed.
func (o *Orchestrator) Snapshot() domain.Session {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s := o.session
	s.Questions = append([]string(nil), o.session.Questions...)
	if s.Status == domain.StatusCompleted {
		s.Answers = append([]string(nil), o.session.Answers...)
		return s
	}
	s.Answers = append([]string(nil), o.answers...)
	if !s.StartedAt.IsZero() {
		s.DurationSeconds = min(max(int(o.opts.Now().Sub(s.StartedAt).Seconds()), 0), o.cfg.MaxSeconds())
	}
	return s
}

// Turns returns a copy of the transcript so far.
func (o *Orchestrator) Turns() []domain.Turn {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]domain.Turn(nil), o.turns...)
}

// CurrentQuestion returns the active question index and text.
func (o *Orchestrator) CurrentQuestion() (int, string) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.questionIndex >= len(o.questions) {
		return o.questionIndex, ""
	}
	return o.questionIndex, o.questions[o.questionIndex]
}

// Remaining returns the seconds left in the session window.
func (o *Orchestrator) Remaining() int {
	if o.countdown == nil {
		return o.cfg.MaxSeconds()
	}
	return o.countdown.Remaining()
}

// Done is closed once the session reached Completed.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Result returns the analysis once the session is completed.
func (o *Orchestrator) Result() (domain.Analysis, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.session.Result == nil {
		return domain.Analysis{}, false
	}
	return *o.session.Result, true
}

// Subscribe returns a stream of session events and a cancel func. The stream
// is closed after the completed event.
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	o.subMu.Lock()
	defer o.subMu.Unlock()
	if o.subsClosed {
		close(ch)
		return ch, func() {}
	}
	id := o.nextSub
	o.nextSub++
	o.subscribers[id] = ch

	return ch, func() {
		o.subMu.Lock()
		defer o.subMu.Unlock()
		if c, ok := o.subscribers[id]; ok {
			delete(o.subscribers, id)
			close(c)
		}
	}
}

func (o *Orchestrator) publish(ev Event) {
	ev.SessionID = o.id
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for _, ch := range o.subscribers {
		select {
		case ch <- ev:
		default:
			o.logger.Debug("dropping event for slow subscriber", "event", ev.Type)
		}
	}
}

func (o *Orchestrator) closeSubscribers() {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for id, ch := range o.subscribers {
		close(ch)
		delete(o.subscribers, id)
	}
	o.subsClosed = true
}

func (o *Orchestrator) notifyError(kind domain.ErrorKind, err error) {
	o.publish(Event{Type: EventError, ErrorKind: kind, Message: errString(err)})
	if o.opts.Listener != nil {
		o.opts.Listener.OnError(o.id, kind, err)
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.publish(Event{Type: EventState, State: s})
}

func (o *Orchestrator) addTurn(speaker domain.Speaker, text string) domain.Turn {
	o.mu.Lock()
	turn := domain.Turn{
		Speaker:       speaker,
		Text:          text,
		SequenceIndex: len(o.turns),
		Timestamp:     o.opts.Now(),
	}
	o.turns = append(o.turns, turn)
	o.mu.Unlock()

	o.publish(Event{Type: EventTurn, Turn: &turn})
	return turn
}

func (o *Orchestrator) currentIndex() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.questionIndex
}

func (o *Orchestrator) progress() Progress {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p := Progress{
		QuestionIndex:     o.questionIndex,
		TotalQuestions:    len(o.questions),
		QuestionsAnswered: countAnswered(o.answers),
		Finished:          o.questionIndex >= len(o.questions),
	}
	if !p.Finished {
		p.NextQuestion = o.questions[o.questionIndex]
	}
	return p
}

func countAnswered(answers []string) int {
	n := 0
	for _, a := range answers {
		if strings.TrimSpace(a) != "" {
			n++
		}
	}
	return n
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
