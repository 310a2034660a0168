package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// Markers are the text tokens that lower a record's confidence.
type Markers struct {
	Ellipsis      string `yaml:"ellipsis" json:"ellipsis"`
	Hesitation    string `yaml:"hesitation" json:"hesitation"`
	RhetoricalTag string `yaml:"rhetorical_tag" json:"rhetorical_tag"`
	Negation      string `yaml:"negation" json:"negation"`
}

// DefaultMarkers returns the Brazilian Portuguese marker set.
func DefaultMarkers() Markers {
	return Markers{
		Ellipsis:      "...",
		Hesitation:    "eh,",
		RhetoricalTag: "né?",
		Negation:      "Não",
	}
}

func contains(text, marker string) bool {
	return marker != "" && strings.Contains(text, marker)
}

// Score returns the confidence score of text in [60, 100].
func (m Markers) Score(text string) int {
	score := 95
	if contains(text, m.Ellipsis) {
		score -= 10
	}
	if contains(text, m.Hesitation) {
		score -= 5
	}
	if contains(text, m.RhetoricalTag) {
		score -= 3
	}
	if utf8.RuneCountInString(text) < 10 {
		score -= 15
	}
	if contains(text, m.Negation) {
		score -= 5
	}
	return min(max(score, 60), 100)
}

// Level returns the length-based confidence level of text. It is derived
// independently of Score and the two may disagree.
func (m Markers) Level(text string) transcript.ConfidenceLevel {
	n := utf8.RuneCountInString(text)
	switch {
	case n > 50 && !contains(text, m.Ellipsis) && !contains(text, m.Hesitation):
		return transcript.ConfidenceHigh
	case n > 20:
		return transcript.ConfidenceMedium
	default:
		return transcript.ConfidenceLow
	}
}

// LevelForScore maps a 0-1 score to a level for display (>=0.8 high,
// >=0.6 medium). Ingest does not use it.
func LevelForScore(score float64) transcript.ConfidenceLevel {
	switch {
	case score >= 0.8:
		return transcript.ConfidenceHigh
	case score >= 0.6:
		return transcript.ConfidenceMedium
	default:
		return transcript.ConfidenceLow
	}
}
