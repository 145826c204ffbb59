package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/identity"
	"github.com/ashureev/interview-labs/internal/session"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RecordReader reads persisted sessions.
type RecordReader interface {
	Fetch(ctx context.Context, sessionID string) (*domain.Session, error)
	List(ctx context.Context, userID string, limit int) ([]*domain.Session, error)
	Answers(ctx context.Context, sessionID string) ([]domain.AnswerRecord, error)
}

// SessionHandler serves the session lifecycle routes.
type SessionHandler struct {
	sessions   *session.Service
	records    RecordReader
	answerWait time.Duration
}

// NewSessionHandler creates a session handler. answerWait bounds how long the
// final answer request waits for the analysis.
func NewSessionHandler(sessions *session.Service, records RecordReader, answerWait time.Duration) *SessionHandler {
	if answerWait <= 0 {
		answerWait = 45 * time.Second
	}
	return &SessionHandler{sessions: sessions, records: records, answerWait: answerWait}
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/me", h.GetMe)
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/answers", h.Answer)
		r.Post("/{id}/stop", h.Stop)
		r.Post("/{id}/mute", h.Mute)
	})
}

type createRequest struct {
	Config   domain.InterviewConfig `json:"config"`
	Modality string                 `json:"modality"`
}

type createResponse struct {
	Session       domain.Session `json:"session"`
	QuestionIndex int            `json:"question_index"`
	Question      string         `json:"question"`
	Remaining     int            `json:"remaining"`
}

type liveResponse struct {
	Session   domain.Session `json:"session"`
	State     session.State  `json:"state"`
	Turns     []domain.Turn  `json:"turns"`
	Remaining int            `json:"remaining"`
	Live      bool           `json:"live"`
}

type storedResponse struct {
	Session       domain.Session        `json:"session"`
	AnswerRecords []domain.AnswerRecord `json:"answer_records,omitempty"`
	Live          bool                  `json:"live"`
}

type answerResponse struct {
	Progress session.Progress `json:"progress"`
	Analysis *domain.Analysis `json:"analysis,omitempty"`
}

// GetMe returns the anonymous identity of the caller.
func (h *SessionHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"user_id":  identity.UserIDFromContext(r.Context()),
		"username": identity.UsernameFromContext(r.Context()),
	})
}

// Create starts a new session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorFor(w, err)
		return
	}
	if strings.TrimSpace(req.Modality) == "" {
		req.Modality = string(domain.ModalityText)
	}
	modality, err := domain.ParseModality(req.Modality)
	if err != nil {
		ErrorFor(w, err)
		return
	}

	o, err := h.sessions.StartSession(r.Context(), userID, req.Config, modality)
	if err != nil {
		slog.Warn("Failed to start session", "user_id", userID, "modality", modality, "error", err)
		ErrorFor(w, err)
		return
	}

	idx, question := o.CurrentQuestion()
	JSON(w, http.StatusCreated, createResponse{
		Session:       o.Snapshot(),
		QuestionIndex: idx,
		Question:      question,
		Remaining:     o.Remaining(),
	})
}

// List returns the caller's past sessions, newest first.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	sessions, err := h.records.List(r.Context(), userID, limit)
	if err != nil {
		slog.Error("Failed to list sessions", "user_id", userID, "error", err)
		ErrorFor(w, err)
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Get returns a live snapshot when the session is still registered, otherwise
// the stored record.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if o, ok := h.live(userID, id); ok {
		JSON(w, http.StatusOK, liveResponse{
			Session:   o.Snapshot(),
			State:     o.State(),
			Turns:     o.Turns(),
			Remaining: o.Remaining(),
			Live:      true,
		})
		return
	}

	stored, err := h.records.Fetch(r.Context(), id)
	if err != nil {
		ErrorFor(w, err)
		return
	}
	if stored.UserID != userID {
		ErrorFor(w, domain.ErrSessionNotFound)
		return
	}

	answers, err := h.records.Answers(r.Context(), id)
	if err != nil {
		slog.Warn("Failed to load answer records", "session_id", id, "error", err)
	}
	JSON(w, http.StatusOK, storedResponse{Session: *stored, AnswerRecords: answers})
}

// Answer submits a text answer. The final answer waits for the analysis.
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	o, ok := h.live(identity.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		ErrorFor(w, domain.ErrSessionNotFound)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorFor(w, err)
		return
	}

	progress, err := o.SubmitTextAnswer(r.Context(), req.Text)
	if err != nil {
		ErrorFor(w, err)
		return
	}

	resp := answerResponse{Progress: progress}
	if progress.Finished {
		resp.Analysis = h.awaitResult(r.Context(), o)
	}
	JSON(w, http.StatusOK, resp)
}

// Stop ends the session. Stopping an already stopping session succeeds.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	o, ok := h.live(identity.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		ErrorFor(w, domain.ErrSessionNotFound)
		return
	}

	if err := o.RequestStop(r.Context()); err != nil && !errors.Is(err, domain.ErrSessionClosed) {
		ErrorFor(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"state":   o.State(),
		"session": o.Snapshot(),
	})
}

// Mute toggles the candidate microphone of a voice session.
func (h *SessionHandler) Mute(w http.ResponseWriter, r *http.Request) {
	o, ok := h.live(identity.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		ErrorFor(w, domain.ErrSessionNotFound)
		return
	}

	var req struct {
		Muted bool `json:"muted"`
	}
	if err := decodeJSON(r, &req); err != nil {
		ErrorFor(w, err)
		return
	}
	if err := o.SetMuted(r.Context(), req.Muted); err != nil {
		ErrorFor(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"muted": req.Muted})
}

func (h *SessionHandler) live(userID, sessionID string) (*session.Orchestrator, bool) {
	o, ok := h.sessions.Get(sessionID)
	if !ok || o.UserID() != userID {
		return nil, false
	}
	return o, true
}

func (h *SessionHandler) awaitResult(ctx context.Context, o *session.Orchestrator) *domain.Analysis {
	ctx, cancel := context.WithTimeout(ctx, h.answerWait)
	defer cancel()

	select {
	case <-o.Done():
	case <-ctx.Done():
		return nil
	}
	if a, ok := o.Result(); ok {
		return &a
	}
	return nil
}
