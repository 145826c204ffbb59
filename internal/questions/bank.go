// Package questions loads the interview question bank and selects the
// questions asked in a session.
package questions

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashureev/interview-labs/internal/domain"
)

// DefaultCount is the number of questions per session when none is configured.
const DefaultCount = 5

//go:embed default.yaml
var defaultBank []byte

// Question is one bank entry. Empty Levels or Industries match anything.
type Question struct {
	ID         string               `yaml:"id"`
	Type       domain.InterviewType `yaml:"type"`
	Levels     []string             `yaml:"levels"`
	Industries []string             `yaml:"industries"`
	Text       string               `yaml:"text"`
	TextHI     string               `yaml:"text_hi"`
}

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// Bank is an immutable question set.
type Bank struct {
	questions []Question
}

// Default returns the embedded bank.
func Default() *Bank {
	b, err := Parse(defaultBank)
	if err != nil {
		panic(fmt.Sprintf("embedded question bank: %v", err))
	}
	return b
}

// Load reads a bank from path. An empty path returns the embedded bank.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("question bank %s: %w", path, err)
	}
	slog.Info("question bank loaded", "path", path, "count", len(b.questions))
	return b, nil
}

// Parse decodes and validates a YAML bank.
func Parse(data []byte) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	for i, q := range f.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %d (%s): text is required", i, q.ID)
		}
		switch q.Type {
		case domain.TypeBehavioral, domain.TypeTechnical:
		default:
			return nil, fmt.Errorf("question %d (%s): type must be behavioral or technical, got %q", i, q.ID, q.Type)
		}
	}
	return &Bank{questions: f.Questions}, nil
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Select picks up to n questions for cfg. The result is deterministic and
// never empty. Industry-specific questions come before generic ones; a mixed
// interview alternates behavioral and technical, starting with behavioral.
func (b *Bank) Select(cfg domain.InterviewConfig, n int) []string {
	if n <= 0 {
		n = DefaultCount
	}

	behavioral := b.candidates(cfg, domain.TypeBehavioral)
	technical := b.candidates(cfg, domain.TypeTechnical)

	var picked []Question
	switch cfg.InterviewType {
	case domain.TypeBehavioral:
		picked = take(behavioral, n)
	case domain.TypeTechnical:
		picked = take(technical, n)
	default:
		picked = interleave(behavioral, technical, n)
	}

	if len(picked) == 0 {
		picked = take(b.questions, 1)
	}

	out := make([]string, len(picked))
	for i, q := range picked {
		out[i] = q.localized(cfg.Language)
	}
	return out
}

func (b *Bank) candidates(cfg domain.InterviewConfig, typ domain.InterviewType) []Question {
	industry := strings.ToLower(cfg.Industry)
	var specific, generic []Question
	for _, q := range b.questions {
		if q.Type != typ || !q.matchesLevel(cfg.ExperienceLevel) {
			continue
		}
		if len(q.Industries) == 0 {
			generic = append(generic, q)
			continue
		}
		if q.matchesIndustry(industry) {
			specific = append(specific, q)
		}
	}
	return append(specific, generic...)
}

func (q Question) matchesLevel(level domain.ExperienceLevel) bool {
	if len(q.Levels) == 0 {
		return true
	}
	for _, l := range q.Levels {
		if strings.EqualFold(l, string(level)) {
			return true
		}
	}
	return false
}

func (q Question) matchesIndustry(industry string) bool {
	for _, tag := range q.Industries {
		if tag != "" && strings.Contains(industry, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

func (q Question) localized(lang domain.Language) string {
	if lang == domain.LanguageHI && q.TextHI != "" {
		return q.TextHI
	}
	return q.Text
}

func take(qs []Question, n int) []Question {
	if len(qs) > n {
		return qs[:n]
	}
	return qs
}

func interleave(a, b []Question, n int) []Question {
	out := make([]Question, 0, n)
	for i := 0; len(out) < n && (i < len(a) || i < len(b)); i++ {
		if i < len(a) {
			out = append(out, a[i])
		}
		if len(out) < n && i < len(b) {
			out = append(out, b[i])
		}
	}
	return out
}
