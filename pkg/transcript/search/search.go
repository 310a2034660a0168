// Package search finds terms in dialogue text and tracks a match cursor.
//
// Offsets and snippet widths count characters (runes), not bytes.
package search

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// SnippetRadius is the number of characters kept on each side of a match.
const SnippetRadius = 20

// Match is one occurrence of a term.
type Match struct {
	RecordIndex int    `json:"record_index" yaml:"record_index"`
	RecordID    int    `json:"record_id" yaml:"record_id"`
	Offset      int    `json:"offset" yaml:"offset"`
	Snippet     string `json:"snippet" yaml:"snippet"`
}

// Direction moves a cursor through matches.
type Direction int

const (
	Previous Direction = iota
	Next
)

func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

func hasPrefixAt(text, term []rune, at int) bool {
	for j := range term {
		if text[at+j] != term[j] {
			return false
		}
	}
	return true
}

// Search returns every case-insensitive occurrence of term, record by record
// and left to right. Scanning resumes one character after each match start,
// so overlapping occurrences are all reported. A blank term yields no matches.
func Search(records []transcript.Record, term string) []Match {
	matches := make([]Match, 0)
	if strings.TrimSpace(term) == "" {
		return matches
	}
	needle := lowerRunes(term)

	for idx, rec := range records {
		original := []rune(rec.Text)
		hay := lowerRunes(rec.Text)
		for pos := 0; pos+len(needle) <= len(hay); pos++ {
			if !hasPrefixAt(hay, needle, pos) {
				continue
			}
			start := max(0, pos-SnippetRadius)
			end := min(len(original), pos+len(needle)+SnippetRadius)
			matches = append(matches, Match{
				RecordIndex: idx,
				RecordID:    rec.ID,
				Offset:      pos,
				Snippet:     string(original[start:end]),
			})
		}
	}
	return matches
}

// Navigate moves current one step in dir, clamped to the match bounds.
func Navigate(matches []Match, current int, dir Direction) int {
	if len(matches) == 0 {
		return current
	}
	switch dir {
	case Previous:
		if current > 0 {
			current--
		}
	case Next:
		if current < len(matches)-1 {
			current++
		}
	}
	return min(max(current, 0), len(matches)-1)
}

// Highlight wraps every case-insensitive occurrence of term in text with open
// and close.
func Highlight(text, term, open, close string) string {
	if strings.TrimSpace(term) == "" {
		return text
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return open + m + close
	})
}

// CountRecords returns how many records contain term.
func CountRecords(records []transcript.Record, term string) int {
	if strings.TrimSpace(term) == "" {
		return 0
	}
	needle := strings.ToLower(term)
	n := 0
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Text), needle) {
			n++
		}
	}
	return n
}
