package domain

import (
	"errors"
	"testing"
)

func TestInterviewConfigValidate(t *testing.T) {
	t.Parallel()

	valid := InterviewConfig{
		Industry:        "software",
		ExperienceLevel: LevelMid,
		InterviewType:   TypeMixed,
		DurationMinutes: 15,
		Language:        LanguageEN,
	}

	tests := []struct {
		name    string
		mutate  func(*InterviewConfig)
		wantErr bool
	}{
		{"valid", func(*InterviewConfig) {}, false},
		{"longest allowed", func(c *InterviewConfig) { c.DurationMinutes = MaxDurationMinutes }, false},
		{"missing industry", func(c *InterviewConfig) { c.Industry = "" }, true},
		{"unknown level", func(c *InterviewConfig) { c.ExperienceLevel = "wizard" }, true},
		{"unknown type", func(c *InterviewConfig) { c.InterviewType = "panel" }, true},
		{"zero duration", func(c *InterviewConfig) { c.DurationMinutes = 0 }, true},
		{"over a day", func(c *InterviewConfig) { c.DurationMinutes = MaxDurationMinutes + 1 }, true},
		{"overflowing duration", func(c *InterviewConfig) { c.DurationMinutes = 1 << 60 }, true},
		{"unsupported language", func(c *InterviewConfig) { c.Language = "fr" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfigInvalid) {
				t.Fatalf("Validate() = %v, want ErrConfigInvalid", err)
			}
			if err == nil && cfg.MaxSeconds() <= 0 {
				t.Fatalf("MaxSeconds() = %d for a valid config", cfg.MaxSeconds())
			}
		})
	}
}
