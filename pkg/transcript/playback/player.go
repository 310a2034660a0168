// Package playback drives segment playback on an external media player.
package playback

import (
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// SegmentPlayer is the media element the controller drives. Implementations
// own the media; the controller only seeks, plays, pauses and reads time.
type SegmentPlayer interface {
	SeekTo(seconds float64) error
	Play() error
	Pause() error
	CurrentTime() float64
	Duration() float64
}

// ActiveIndex returns the index of the record being spoken at seconds: the
// record whose [start, end) range contains it, otherwise the last record
// starting before it, otherwise -1.
func ActiveIndex(records []transcript.Record, seconds float64) int {
	last := -1
	for i, r := range records {
		if seconds >= r.StartSeconds && seconds < r.EndSeconds {
			return i
		}
		if r.StartSeconds <= seconds {
			last = i
		}
	}
	return last
}

// Progress returns current as a percentage of duration.
func Progress(current, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return min(max(current/duration*100, 0), 100)
}
