// Package classifier flags stop, advance and conclusion cues in transcript turns.
//
// Matching is deliberately loose: a phrase matches when the lowercased turn
// text contains it anywhere, so "pretend" matches the closing keyword "end".
package classifier

import (
	"strings"

	"github.com/ashureev/interview-labs/internal/domain"
)

// Result holds the flags for one classified turn.
type Result struct {
	IsStopRequest   bool `json:"is_stop_request"`
	IsAdvanceCue    bool `json:"is_advance_cue"`
	IsConclusionCue bool `json:"is_conclusion_cue"`
}

// Any reports whether at least one flag is set.
func (r Result) Any() bool {
	return r.IsStopRequest || r.IsAdvanceCue || r.IsConclusionCue
}

// Classify inspects one turn. It has no side effects.
func Classify(turn domain.Turn, questionIndex, totalQuestions int, lang domain.Language) Result {
	phrases := Phrases(lang)
	text := strings.ToLower(turn.Text)

	var res Result
	switch turn.Speaker {
	case domain.SpeakerCandidate:
		res.IsStopRequest = containsAny(text, phrases.Stop)
	case domain.SpeakerInterviewer:
		res.IsAdvanceCue = questionIndex < totalQuestions-1 && containsAny(text, phrases.Advance)
		res.IsConclusionCue = containsAny(text, phrases.Closing) && containsAny(text, phrases.CompletionMarkers)
	}
	return res
}

// MatchedStopPhrase returns the first stop phrase found in text, or "".
func MatchedStopPhrase(text string, lang domain.Language) string {
	return firstMatch(strings.ToLower(text), Phrases(lang).Stop)
}

func containsAny(text string, phrases []string) bool {
	return firstMatch(text, phrases) != ""
}

func firstMatch(text string, phrases []string) string {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return p
		}
	}
	return ""
}
