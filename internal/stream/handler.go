package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/identity"
	"github.com/ashureev/interview-labs/internal/session"
)

// Session is the live-session surface the stream drives.
type Session interface {
	ID() string
	UserID() string
	Snapshot() domain.Session
	Turns() []domain.Turn
	Remaining() int
	Subscribe() (<-chan session.Event, func())
	SubmitTextAnswer(ctx context.Context, text string) (session.Progress, error)
	RequestStop(ctx context.Context) error
	SetMuted(ctx context.Context, muted bool) error
}

// LookupFunc resolves a live session by ID.
type LookupFunc func(sessionID string) (Session, bool)

// Handler serves GET /ws/sessions/{id}.
type Handler struct {
	lookup        LookupFunc
	registry      *Registry
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a new stream handler.
func NewHandler(lookup LookupFunc, registry *Registry, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		lookup:        lookup,
		registry:      registry,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

type clientMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Muted *bool  `json:"muted,omitempty"`
}

type snapshotMessage struct {
	Type      string         `json:"type"`
	Session   domain.Session `json:"session"`
	Turns     []domain.Turn  `json:"turns"`
	Remaining int            `json:"remaining"`
}

type replyMessage struct {
	Type      string            `json:"type"`
	Progress  *session.Progress `json:"progress,omitempty"`
	ErrorKind domain.ErrorKind  `json:"error_kind,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "id")

	sess, ok := h.lookup(sessionID)
	if !ok || sess.UserID() != userID {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	h.registry.Register(sessionID, tabID, ws)
	defer h.registry.Unregister(sessionID, tabID, ws)
	slog.Info("Session stream connected", "session_id", sessionID, "tab_id", tabID, "remote_ip", identity.IPFromRequest(r))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before the snapshot so no event falls between the two.
	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	if err := writeJSON(ctx, ws, snapshotMessage{
		Type:      "snapshot",
		Session:   sess.Snapshot(),
		Turns:     sess.Turns(),
		Remaining: sess.Remaining(),
	}); err != nil {
		slog.Debug("Failed to send snapshot", "error", err, "session_id", sessionID)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)

	// Input loop: client commands -> session.
	go func() {
		defer wg.Done()
		defer cancel()
		h.inputLoop(ctx, ws, sess)
	}()

	// Output loop: session events -> client.
	go func() {
		defer wg.Done()
		defer cancel()
		h.outputLoop(ctx, ws, events, sessionID)
	}()

	wg.Wait()
	slog.Info("Session stream ended", "session_id", sessionID, "user_id", userID)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) inputLoop(ctx context.Context, ws *websocket.Conn, sess Session) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || ctx.Err() != nil {
				slog.Debug("WebSocket closed", "session_id", sess.ID())
			} else {
				slog.Warn("WebSocket read error", "error", err, "session_id", sess.ID())
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			_ = writeJSON(ctx, ws, replyMessage{Type: "error", ErrorKind: domain.KindInternal, Message: "malformed message"})
			continue
		}

		var reply replyMessage
		switch msg.Type {
		case "answer":
			progress, err := sess.SubmitTextAnswer(ctx, msg.Text)
			reply = replyFor("answered", &progress, err)
		case "stop":
			err := sess.RequestStop(ctx)
			if errors.Is(err, domain.ErrSessionClosed) {
				err = nil
			}
			reply = replyFor("stopping", nil, err)
		case "mute":
			muted := msg.Muted != nil && *msg.Muted
			reply = replyFor("muted", nil, sess.SetMuted(ctx, muted))
		case "ping":
			reply = replyMessage{Type: "pong"}
		default:
			reply = replyMessage{Type: "error", ErrorKind: domain.KindInternal, Message: "unknown message type " + msg.Type}
		}

		if err := writeJSON(ctx, ws, reply); err != nil {
			slog.Debug("Failed to send reply", "error", err, "session_id", sess.ID())
			return
		}
	}
}

func (h *Handler) outputLoop(ctx context.Context, ws *websocket.Conn, events <-chan session.Event, sessionID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				// Session completed; close before the input loop is cancelled.
				_ = ws.Close(websocket.StatusNormalClosure, "session completed")
				return
			}
			if err := writeJSON(ctx, ws, ev); err != nil {
				if ctx.Err() == nil {
					slog.Debug("WebSocket write error", "error", err, "session_id", sessionID)
				}
				return
			}
		}
	}
}

func replyFor(typ string, progress *session.Progress, err error) replyMessage {
	if err != nil {
		return replyMessage{Type: "error", ErrorKind: domain.KindOf(err), Message: err.Error()}
	}
	return replyMessage{Type: typ, Progress: progress}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
