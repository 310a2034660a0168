// Package contextfilter narrows a transcript to one speaker's utterances plus
// the records around them.
package contextfilter

import (
	"sort"
	"strings"

	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// DefaultWindow is the number of context records kept on each side of a run.
const DefaultWindow = 2

// Entry is a record in a filtered view.
type Entry struct {
	Record transcript.Record `json:"record" yaml:"record"`
	// Index is the record's position in the unfiltered sequence.
	Index int `json:"index" yaml:"index"`
	// IsContext is true when the record belongs to another speaker.
	IsContext bool `json:"is_context" yaml:"is_context"`
	// IsNewGroup marks the first entry of every group after the first.
	// Only overlapping windows share a group; adjacent ones do not.
	IsNewGroup bool `json:"is_new_group" yaml:"is_new_group"`
}

// Matches reports whether a record belongs to speaker. Names compare
// case-insensitively.
func Matches(r transcript.Record, speaker string) bool {
	return strings.EqualFold(r.Speaker, strings.TrimSpace(speaker))
}

type span struct{ from, to int }

// FilterBySpeaker returns the speaker's records together with up to window
// records before and after each run of consecutive utterances. Overlapping
// windows are merged so no record appears twice. The result is ordered by
// start time, ties by original position. An unknown speaker yields an empty
// slice.
func FilterBySpeaker(records []transcript.Record, speaker string, window int) []Entry {
	if window < 0 {
		window = 0
	}
	entries := make([]Entry, 0)

	var groups []span
	for i := 0; i < len(records); {
		if !Matches(records[i], speaker) {
			i++
			continue
		}
		runStart := i
		for i < len(records) && Matches(records[i], speaker) {
			i++
		}
		w := span{from: max(0, runStart-window), to: min(len(records)-1, i-1+window)}
		if n := len(groups); n > 0 && w.from <= groups[n-1].to {
			groups[n-1].to = max(groups[n-1].to, w.to)
			continue
		}
		groups = append(groups, w)
	}

	for g, grp := range groups {
		for i := grp.from; i <= grp.to; i++ {
			entries = append(entries, Entry{
				Record:     records[i],
				Index:      i,
				IsContext:  !Matches(records[i], speaker),
				IsNewGroup: g > 0 && i == grp.from,
			})
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].Record.StartSeconds != entries[b].Record.StartSeconds {
			return entries[a].Record.StartSeconds < entries[b].Record.StartSeconds
		}
		return entries[a].Index < entries[b].Index
	})
	return entries
}

// All wraps every record as a non-context entry.
func All(records []transcript.Record) []Entry {
	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{Record: r, Index: i}
	}
	return entries
}

// Toggle is the speaker filter of a transcript view. Selecting the active
// speaker again clears the filter.
type Toggle struct {
	active string
	window int
}

// NewToggle returns a Toggle using window context records.
func NewToggle(window int) *Toggle {
	return &Toggle{window: window}
}

// Apply toggles speaker and returns the resulting view. Cleared is true when
// the call removed the filter.
func (t *Toggle) Apply(records []transcript.Record, speaker string) (entries []Entry, cleared bool) {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" || strings.EqualFold(t.active, speaker) {
		t.active = ""
		return All(records), true
	}
	t.active = speaker
	return FilterBySpeaker(records, speaker, t.window), false
}

// View returns the view for the current filter state.
func (t *Toggle) View(records []transcript.Record) []Entry {
	if t.active == "" {
		return All(records)
	}
	return FilterBySpeaker(records, t.active, t.window)
}

// Rename follows a speaker rename so the filter stays attached.
func (t *Toggle) Rename(oldName, newName string) {
	if strings.EqualFold(t.active, oldName) {
		t.active = newName
	}
}

// Active returns the filtered speaker, or "" when no filter is set.
func (t *Toggle) Active() string { return t.active }

// Clear removes the filter.
func (t *Toggle) Clear() { t.active = "" }

// SpeakingTime sums the durations of the speaker's records in seconds.
func SpeakingTime(records []transcript.Record, speaker string) float64 {
	var total float64
	for _, r := range records {
		if Matches(r, speaker) {
			total += r.Duration()
		}
	}
	return total
}
