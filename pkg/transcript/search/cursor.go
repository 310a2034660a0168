package search

import "github.com/otherjamesbrown/audiencia-cli/pkg/transcript"

// Cursor holds the active term, its matches and the selected match.
type Cursor struct {
	term    string
	matches []Match
	pos     int
}

// Reset recomputes matches for term and selects the first one.
func (c *Cursor) Reset(records []transcript.Record, term string) []Match {
	c.term = term
	c.matches = Search(records, term)
	c.pos = 0
	return c.matches
}

// Refresh recomputes matches for the current term after an edit, keeping the
// selection in bounds.
func (c *Cursor) Refresh(records []transcript.Record) {
	c.matches = Search(records, c.term)
	if c.pos >= len(c.matches) {
		c.pos = max(0, len(c.matches)-1)
	}
}

// Clear drops the term and matches.
func (c *Cursor) Clear() {
	c.term = ""
	c.matches = nil
	c.pos = 0
}

// Term returns the active term.
func (c *Cursor) Term() string { return c.term }

// Matches returns the current matches.
func (c *Cursor) Matches() []Match { return c.matches }

// Position returns the selected match index.
func (c *Cursor) Position() int { return c.pos }

// Current returns the selected match.
func (c *Cursor) Current() (Match, bool) {
	if len(c.matches) == 0 {
		return Match{}, false
	}
	return c.matches[c.pos], true
}

// Next selects the following match, stopping at the last one.
func (c *Cursor) Next() (Match, bool) {
	c.pos = Navigate(c.matches, c.pos, Next)
	return c.Current()
}

// Previous selects the preceding match, stopping at the first one.
func (c *Cursor) Previous() (Match, bool) {
	c.pos = Navigate(c.matches, c.pos, Previous)
	return c.Current()
}
