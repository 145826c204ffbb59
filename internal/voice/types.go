// Package voice connects sessions to the external conversational-voice service.
package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/interview-labs/internal/domain"
)

// EventKind identifies a voice channel event.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventTurn         EventKind = "turn"
	EventDisconnected EventKind = "disconnected"
	EventError        EventKind = "error"
)

// Event is one notification from a voice connection.
// Turn events carry Speaker, Text and Final; error events carry Err.
type Event struct {
	Kind    EventKind
	Speaker domain.Speaker
	Text    string
	Final   bool
	Err     error
}

// AssistantSpec configures the remote interviewer for one session.
type AssistantSpec struct {
	FirstMessage       string          `json:"firstMessage"`
	SystemPrompt       string          `json:"systemPrompt"`
	Language           domain.Language `json:"language"`
	Questions          []string        `json:"questions"`
	MaxDurationSeconds int             `json:"maxDurationSeconds"`
}

// Provider opens voice connections.
type Provider interface {
	Start(ctx context.Context, spec AssistantSpec) (Connection, error)
}

// Connection is one live voice call. Events is closed after the
// disconnected event has been delivered.
type Connection interface {
	Events() <-chan Event
	Stop(ctx context.Context) error
	SetMuted(muted bool) error
	Close() error
}

// NewAssistantSpec builds the interviewer prompt from the session configuration.
func NewAssistantSpec(cfg domain.InterviewConfig, questions []string) AssistantSpec {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional interviewer conducting a %s interview for a %s-level candidate in the %s industry.\n",
		cfg.InterviewType, cfg.ExperienceLevel, cfg.Industry)
	b.WriteString("Ask the following questions one at a time, in order. Wait for the candidate to finish before moving on.\n")
	b.WriteString("Announce each new question (for example \"next question\") and when all questions are done, thank the candidate and say the interview is complete.\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	if cfg.Language == domain.LanguageHI {
		b.WriteString("Conduct the interview in Hindi.\n")
	}

	first := "Hello! Thanks for joining this practice interview. Let's begin with the first question."
	if cfg.Language == domain.LanguageHI {
		first = "नमस्ते! इस अभ्यास इंटरव्यू में आपका स्वागत है। चलिए पहले प्रश्न से शुरू करते हैं।"
	}

	return AssistantSpec{
		FirstMessage:       first,
		SystemPrompt:       b.String(),
		Language:           cfg.Language,
		Questions:          append([]string(nil), questions...),
		MaxDurationSeconds: cfg.MaxSeconds(),
	}
}
