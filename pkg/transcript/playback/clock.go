package playback

import (
	"sync"
	"time"
)

// SkipStep is the jump used by SkipForward and SkipBack.
const SkipStep = 10.0

// Clock is a SegmentPlayer with no media behind it. Its position advances
// with wall-clock time while playing.
type Clock struct {
	mu       sync.Mutex
	duration float64
	position float64
	playing  bool
	since    time.Time
	volume   int
	now      func() time.Time
}

// NewClock returns a paused Clock of the given length in seconds.
func NewClock(duration float64) *Clock {
	return &Clock{duration: max(duration, 0), volume: 100, now: time.Now}
}

func (c *Clock) positionLocked() float64 {
	pos := c.position
	if c.playing {
		pos += c.now().Sub(c.since).Seconds()
	}
	return min(max(pos, 0), c.duration)
}

// SeekTo moves the position, clamped to [0, duration].
func (c *Clock) SeekTo(seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = min(max(seconds, 0), c.duration)
	c.since = c.now()
	return nil
}

// Play starts advancing the position.
func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		c.playing = true
		c.since = c.now()
	}
	return nil
}

// Pause freezes the position.
func (c *Clock) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = c.positionLocked()
	c.playing = false
	return nil
}

// CurrentTime returns the position in seconds.
func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// Duration returns the media length in seconds.
func (c *Clock) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// SetDuration changes the media length, clamping the position.
func (c *Clock) SetDuration(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = c.positionLocked()
	c.since = c.now()
	c.duration = max(seconds, 0)
	c.position = min(c.position, c.duration)
}

// Playing reports whether the clock is advancing.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// SkipForward jumps SkipStep seconds ahead.
func (c *Clock) SkipForward() error {
	return c.SeekTo(c.CurrentTime() + SkipStep)
}

// SkipBack jumps SkipStep seconds back.
func (c *Clock) SkipBack() error {
	return c.SeekTo(c.CurrentTime() - SkipStep)
}

// SetVolume sets the volume, clamped to [0, 100].
func (c *Clock) SetVolume(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = min(max(v, 0), 100)
}

// Volume returns the volume in [0, 100].
func (c *Clock) Volume() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}
