package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ashureev/interview-labs/internal/domain"
)

// Fallback heuristic parameters.
const (
	fallbackBase           = 50.0
	fallbackCompletionSpan = 30.0
	fallbackLengthSpan     = 20.0
	fallbackLengthTarget   = 200.0
	fallbackJitter         = 10

	technicalOffset  = -5
	confidenceOffset = -10
)

// lockedRand serializes access to a *rand.Rand, which is not safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) intN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Fallback computes a deterministic-shape Analysis from local heuristics.
// Only per-question jitter depends on the random source.
func Fallback(answers []string, rng *rand.Rand) domain.Analysis {
	return fallback(answers, &lockedRand{r: rng})
}

func fallback(answers []string, rng *lockedRand) domain.Analysis {
	total := len(answers)
	answered := 0
	totalLen := 0
	for _, a := range answers {
		if strings.TrimSpace(a) == "" {
			continue
		}
		answered++
		totalLen += utf8.RuneCountInString(a)
	}

	var completionRate, avgLen float64
	if total > 0 {
		completionRate = float64(answered) / float64(total)
		avgLen = float64(totalLen) / float64(total)
	}

	overall := clampScore(fallbackBase +
		completionRate*fallbackCompletionSpan +
		math.Min(avgLen/fallbackLengthTarget, 1)*fallbackLengthSpan)

	perQuestion := make([]int, total)
	for i, a := range answers {
		if strings.TrimSpace(a) == "" {
			continue
		}
		jitter := rng.intN(2*fallbackJitter+1) - fallbackJitter
		perQuestion[i] = clampInt(overall + jitter)
	}

	return domain.Analysis{
		OverallScore:      overall,
		PerQuestionScores: perQuestion,
		Strengths:         append([]string(nil), defaultStrengths...),
		Weaknesses:        append([]string(nil), defaultWeaknesses...),
		Recommendations:   append([]string(nil), defaultRecommendations...),
		NarrativeFeedback: fmt.Sprintf(
			"You answered %d of %d questions. Detailed scoring was unavailable, so this estimate is based on completion and answer length.",
			answered, total),
		SkillBreakdown: map[string]int{
			domain.SkillCommunication:  overall,
			domain.SkillTechnical:      clampInt(overall + technicalOffset),
			domain.SkillProblemSolving: overall,
			domain.SkillConfidence:     clampInt(overall + confidenceOffset),
		},
		Fallback: true,
	}
}
