// Package domain contains core domain types for interview practice sessions.
package domain

import (
	"fmt"
	"strings"
)

// ExperienceLevel is the seniority the candidate is practicing for.
type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelExecutive ExperienceLevel = "executive"
)

// InterviewType selects the question mix.
type InterviewType string

const (
	TypeBehavioral InterviewType = "behavioral"
	TypeTechnical  InterviewType = "technical"
	TypeMixed      InterviewType = "mixed"
)

// Modality is the interaction channel of a session.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityVoice Modality = "voice"
)

// Language selects phrase tables and localized question text.
type Language string

const (
	LanguageEN Language = "en"
	LanguageHI Language = "hi"
)

// InterviewConfig is fixed once a session starts.
type InterviewConfig struct {
	Industry        string          `json:"industry"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	InterviewType   InterviewType   `json:"interview_type"`
	DurationMinutes int             `json:"duration_minutes"`
	Language        Language        `json:"language,omitempty"`
}

// MaxDurationMinutes bounds InterviewConfig.DurationMinutes.
const MaxDurationMinutes = 24 * 60

// MaxSeconds returns the configured session window.
func (c InterviewConfig) MaxSeconds() int {
	return c.DurationMinutes * 60
}

// Normalize lowercases enum fields and fills the default language.
func (c InterviewConfig) Normalize(defaultLang Language) InterviewConfig {
	c.Industry = strings.TrimSpace(c.Industry)
	c.ExperienceLevel = ExperienceLevel(strings.ToLower(strings.TrimSpace(string(c.ExperienceLevel))))
	c.InterviewType = InterviewType(strings.ToLower(strings.TrimSpace(string(c.InterviewType))))
	c.Language = Language(strings.ToLower(strings.TrimSpace(string(c.Language))))
	if c.Language == "" {
		c.Language = defaultLang
	}
	if c.Language == "" {
		c.Language = LanguageEN
	}
	return c
}

// Validate reports a missing or malformed field as ErrConfigInvalid.
func (c InterviewConfig) Validate() error {
	if c.Industry == "" {
		return fmt.Errorf("%w: industry is required", ErrConfigInvalid)
	}
	switch c.ExperienceLevel {
	case LevelEntry, LevelMid, LevelSenior, LevelExecutive:
	default:
		return fmt.Errorf("%w: unknown experience level %q", ErrConfigInvalid, c.ExperienceLevel)
	}
	switch c.InterviewType {
	case TypeBehavioral, TypeTechnical, TypeMixed:
	default:
		return fmt.Errorf("%w: unknown interview type %q", ErrConfigInvalid, c.InterviewType)
	}
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of minutes", ErrConfigInvalid)
	}
	if c.DurationMinutes > MaxDurationMinutes {
		return fmt.Errorf("%w: duration must not exceed %d minutes", ErrConfigInvalid, MaxDurationMinutes)
	}
	switch c.Language {
	case LanguageEN, LanguageHI:
	default:
		return fmt.Errorf("%w: unsupported language %q", ErrConfigInvalid, c.Language)
	}
	return nil
}

// ParseModality converts user input to a Modality.
func ParseModality(s string) (Modality, error) {
	switch Modality(strings.ToLower(strings.TrimSpace(s))) {
	case ModalityText:
		return ModalityText, nil
	case ModalityVoice:
		return ModalityVoice, nil
	}
	return "", fmt.Errorf("%w: unknown modality %q", ErrConfigInvalid, s)
}
