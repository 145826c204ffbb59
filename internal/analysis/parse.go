package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/ashureev/interview-labs/internal/domain"
)

// maxListItems caps strengths, weaknesses and recommendations.
const maxListItems = 3

var errUnparseable = errors.New("analysis payload has no usable score")

var (
	defaultStrengths = []string{
		"Engaged with every question that was asked",
		"Kept answers focused on the question",
		"Showed willingness to share concrete experience",
	}
	defaultWeaknesses = []string{
		"Answers could include more specific examples",
		"Structure responses with a clear beginning and end",
		"Quantify the impact of your work where possible",
	}
	defaultRecommendations = []string{
		"Practice the STAR method for behavioral answers",
		"Prepare two or three stories you can adapt to many questions",
		"Record yourself and review pacing and filler words",
	}
)

const defaultNarrative = "Thanks for completing this practice session. Review the strengths and areas to improve below and try another round."

// parsePayload turns a raw scorer document into a clamped Analysis.
// totalQuestions sizes the per-question array; answers marks which slots are empty.
func parsePayload(p Payload, answers []string) (domain.Analysis, error) {
	if p == nil {
		return domain.Analysis{}, errUnparseable
	}
	if inner, ok := p["analysis"].(map[string]any); ok {
		p = inner
	}

	perQuestion := normalizePerQuestion(numberList(lookup(p, "perQuestionScores", "per_question_scores")), answers)

	overall, ok := number(lookup(p, "overallScore", "overall_score"))
	if !ok {
		mean, has := meanOfAnswered(perQuestion, answers)
		if !has {
			return domain.Analysis{}, errUnparseable
		}
		overall = mean
	}
	overallScore := clampScore(overall)

	skills := make(map[string]int, len(domain.SkillKeys))
	rawSkills, _ := lookup(p, "skillBreakdown", "skill_breakdown").(map[string]any)
	for _, key := range domain.SkillKeys {
		v, ok := number(lookup(rawSkills, key, snakeCase(key)))
		if !ok {
			skills[key] = overallScore
			continue
		}
		skills[key] = clampScore(v)
	}

	narrative := strings.TrimSpace(stringValue(lookup(p, "narrativeFeedback", "narrative_feedback")))
	if narrative == "" {
		narrative = defaultNarrative
	}

	return domain.Analysis{
		OverallScore:      overallScore,
		PerQuestionScores: perQuestion,
		Strengths:         stringList(lookup(p, "strengths"), defaultStrengths),
		Weaknesses:        stringList(lookup(p, "weaknesses"), defaultWeaknesses),
		Recommendations:   stringList(lookup(p, "recommendations"), defaultRecommendations),
		NarrativeFeedback: narrative,
		SkillBreakdown:    skills,
	}, nil
}

// lookup returns the first present key.
func lookup(m map[string]any, keys ...string) any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numberList(v any) []float64 {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, ok := number(item)
		if !ok {
			f = 0
		}
		out[i] = f
	}
	return out
}

// normalizePerQuestion returns exactly len(answers) scores. Unanswered slots score 0.
func normalizePerQuestion(raw []float64, answers []string) []int {
	out := make([]int, len(answers))
	for i := range out {
		if strings.TrimSpace(answers[i]) == "" {
			continue
		}
		if i < len(raw) {
			out[i] = clampScore(raw[i])
		}
	}
	return out
}

func meanOfAnswered(scores []int, answers []string) (float64, bool) {
	var sum, n int
	for i, s := range scores {
		if strings.TrimSpace(answers[i]) == "" {
			continue
		}
		sum += s
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// stringList keeps non-empty strings, truncated to maxListItems.
// A missing or empty list yields a copy of def.
func stringList(v any, def []string) []string {
	items, _ := v.([]any)
	out := make([]string, 0, maxListItems)
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxListItems {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

func clampScore(f float64) int {
	r := math.Round(f)
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return int(r)
}

func clampInt(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func snakeCase(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
