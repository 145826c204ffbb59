package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ashureev/interview-labs/internal/domain"
)

// Config controls the voice service websocket.
type Config struct {
	URL    string
	APIKey string
}

// Client implements Provider over a JSON websocket protocol.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewClient creates a voice client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, dialer: websocket.DefaultDialer, logger: logger}
}

type clientMessage struct {
	Type      string         `json:"type"`
	Assistant *AssistantSpec `json:"assistant,omitempty"`
	Muted     *bool          `json:"muted,omitempty"`
}

type serverMessage struct {
	Type           string `json:"type"`
	Role           string `json:"role"`
	TranscriptType string `json:"transcriptType"`
	Transcript     string `json:"transcript"`
	Message        string `json:"message"`
}

// Start dials the voice service and sends the start request. The connected
// event arrives on Events once the service accepts the call.
func (c *Client) Start(ctx context.Context, spec AssistantSpec) (Connection, error) {
	if strings.TrimSpace(c.cfg.URL) == "" {
		return nil, fmt.Errorf("%w: VOICE_WS_URL is not configured", domain.ErrChannelUnavailable)
	}

	headers := http.Header{}
	if c.cfg.APIKey != "" {
		headers.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, headers)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to voice service: %v", domain.ErrChannelUnavailable, err)
	}

	call := &call{
		conn:   conn,
		events: make(chan Event, 64),
		out:    make(chan []byte, 8),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
		logger: c.logger,
	}

	start, err := json.Marshal(clientMessage{Type: "start", Assistant: &spec})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("encode start message: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, start); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: send start: %v", domain.ErrChannelUnavailable, err)
	}

	call.wg.Add(2)
	go call.readLoop()
	go call.writeLoop()
	go func() {
		call.wg.Wait()
		close(call.events)
		close(call.done)
		_ = conn.Close()
	}()

	return call, nil
}

type call struct {
	conn *websocket.Conn

	events chan Event
	out    chan []byte
	closed chan struct{}
	done   chan struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
	logger    *slog.Logger
}

func (c *call) Events() <-chan Event {
	return c.events
}

// Stop asks the service to end the call. The disconnected event follows.
func (c *call) Stop(ctx context.Context) error {
	return c.send(ctx, clientMessage{Type: "stop"})
}

// SetMuted toggles the candidate microphone on the service side.
func (c *call) SetMuted(muted bool) error {
	return c.send(context.Background(), clientMessage{Type: "mute", Muted: &muted})
}

// Close tears the connection down without waiting for the service.
func (c *call) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
	<-c.done
	return nil
}

func (c *call) send(ctx context.Context, msg clientMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	select {
	case c.out <- payload:
		return nil
	case <-c.closed:
		return errors.New("voice connection closed")
	case <-c.done:
		return errors.New("voice connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *call) writeLoop() {
	defer c.wg.Done()

	for {
		select {
		case payload := <-c.out:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("voice write failed", "error", err)
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *call) readLoop() {
	defer c.wg.Done()
	// Unblocks writeLoop once the read side ends.
	defer c.closeOnce.Do(func() { close(c.closed) })

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("voice read ended", "error", err)
			}
			c.emit(Event{Kind: EventDisconnected})
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "call-start":
			c.emit(Event{Kind: EventConnected})
		case "transcript":
			text := strings.TrimSpace(msg.Transcript)
			if text == "" {
				continue
			}
			c.emit(Event{
				Kind:    EventTurn,
				Speaker: speakerFor(msg.Role),
				Text:    text,
				Final:   msg.TranscriptType == "final",
			})
		case "call-end":
			c.emit(Event{Kind: EventDisconnected})
			return
		case "error":
			message := strings.TrimSpace(msg.Message)
			if message == "" {
				message = "voice service returned an unknown error"
			}
			c.emit(Event{Kind: EventError, Err: errors.New(message)})
		}
	}
}

// emit blocks until the event is consumed or the connection is closed locally.
func (c *call) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.closed:
	}
}

func speakerFor(role string) domain.Speaker {
	if role == "user" {
		return domain.SpeakerCandidate
	}
	return domain.SpeakerInterviewer
}
