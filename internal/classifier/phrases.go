package classifier

import "github.com/ashureev/interview-labs/internal/domain"

// PhraseSet is the fixed keyword table for one language. All entries are
// lowercase and matched by substring containment.
type PhraseSet struct {
	// Stop phrases spoken by the candidate to end the session early.
	Stop []string
	// Advance cues spoken by the interviewer when moving to another question.
	Advance []string
	// Closing topics that may appear in an interviewer's wrap-up.
	Closing []string
	// CompletionMarkers is the stricter subset that must also be present for a conclusion.
	CompletionMarkers []string
}

var phraseTables = map[domain.Language]PhraseSet{
	domain.LanguageEN: {
		Stop: []string{
			"stop interview",
			"end interview",
			"please stop",
			"stop the interview",
			"end the interview",
		},
		Advance: []string{
			"next question",
			"second question",
			"third question",
			"final question",
			"last question",
		},
		Closing: []string{
			"thank you",
			"interview",
			"complete",
			"conclude",
			"end",
		},
		CompletionMarkers: []string{
			"complete",
			"end",
			"conclude",
		},
	},
	domain.LanguageHI: {
		Stop: []string{
			"इंटरव्यू बंद करो",
			"इंटरव्यू बंद करें",
			"इंटरव्यू रोको",
			"इंटरव्यू रोकें",
			"कृपया रुकिए",
			"साक्षात्कार समाप्त करें",
		},
		Advance: []string{
			"अगला प्रश्न",
			"अगला सवाल",
			"दूसरा प्रश्न",
			"दूसरा सवाल",
			"तीसरा प्रश्न",
			"अंतिम प्रश्न",
			"आखिरी सवाल",
		},
		Closing: []string{
			"धन्यवाद",
			"इंटरव्यू",
			"साक्षात्कार",
			"समाप्त",
			"पूरा",
		},
		CompletionMarkers: []string{
			"समाप्त",
			"पूरा",
		},
	},
}

// Phrases returns the table for lang, falling back to English.
func Phrases(lang domain.Language) PhraseSet {
	if set, ok := phraseTables[lang]; ok {
		return set
	}
	return phraseTables[domain.LanguageEN]
}
