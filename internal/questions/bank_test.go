package questions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/interview-labs/internal/domain"
)

func cfg(industry string, level domain.ExperienceLevel, typ domain.InterviewType, lang domain.Language) domain.InterviewConfig {
	return domain.InterviewConfig{
		Industry:        industry,
		ExperienceLevel: level,
		InterviewType:   typ,
		DurationMinutes: 10,
		Language:        lang,
	}
}

func TestDefaultBankParses(t *testing.T) {
	if Default().Len() == 0 {
		t.Fatal("embedded bank is empty")
	}
}

func TestSelectTechnicalPrefersIndustry(t *testing.T) {
	got := Default().Select(cfg("Software", domain.LevelMid, domain.TypeTechnical, domain.LanguageEN), 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(got))
	}
	if got[0] != "What do you look for when reviewing someone else's code?" {
		t.Fatalf("industry question should come first, got %q", got[0])
	}
	for _, q := range got {
		if strings.Contains(q, "payment system") {
			t.Fatalf("finance question selected for software: %q", q)
		}
	}
}

func TestSelectMixedAlternates(t *testing.T) {
	got := Default().Select(cfg("retail", domain.LevelEntry, domain.TypeMixed, domain.LanguageEN), 4)
	want := []string{
		"Tell me about a time you turned an unhappy customer into a satisfied one.",
		"Walk me through the most technically interesting problem you solved recently.",
		"Tell me about yourself and what drew you to this field.",
		"Describe a trade-off you made between speed of delivery and quality.",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d questions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("question %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSelectLocalizesHindi(t *testing.T) {
	got := Default().Select(cfg("software", domain.LevelEntry, domain.TypeBehavioral, domain.LanguageHI), 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "अपने बारे में") {
		t.Fatalf("expected hindi text, got %q", got[0])
	}
}

func TestSelectNeverEmpty(t *testing.T) {
	bank, err := Parse([]byte(`
questions:
  - id: only
    type: behavioral
    levels: [entry]
    text: Only question.
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := bank.Select(cfg("any", domain.LevelExecutive, domain.TypeTechnical, domain.LanguageEN), 3)
	if len(got) != 1 || got[0] != "Only question." {
		t.Fatalf("expected fallback question, got %v", got)
	}
}

func TestSelectDefaultCount(t *testing.T) {
	got := Default().Select(cfg("software", domain.LevelMid, domain.TypeMixed, domain.LanguageEN), 0)
	if len(got) != DefaultCount {
		t.Fatalf("expected %d questions, got %d", DefaultCount, len(got))
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":    "questions: []",
		"no text":  "questions:\n  - id: a\n    type: behavioral\n",
		"bad type": "questions:\n  - id: a\n    type: trivia\n    text: hi\n",
		"not yaml": "questions: [",
	}
	for name, doc := range tests {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	doc := "questions:\n  - id: a\n    type: technical\n    text: Custom question?\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	bank, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := bank.Select(cfg("x", domain.LevelMid, domain.TypeTechnical, domain.LanguageEN), 5)
	if len(got) != 1 || got[0] != "Custom question?" {
		t.Fatalf("unexpected selection %v", got)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
