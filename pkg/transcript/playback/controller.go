package playback

import (
	"fmt"
	"sync"
	"time"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/logging"
	"github.com/otherjamesbrown/audiencia-cli/pkg/observability"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// Segment is the time range being played.
type Segment struct {
	RecordID int     `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Start    float64 `json:"start" yaml:"start"`
	End      float64 `json:"end" yaml:"end"`
}

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Controller plays one segment at a time. Each request arms a single
// auto-stop timer; a new request cancels and replaces the pending one.
// Timer callbacks run on their own goroutine, so state is mutex-guarded.
type Controller struct {
	mu      sync.Mutex
	player  SegmentPlayer
	after   AfterFunc
	timer   Timer
	gen     uint64
	active  *Segment
	logger  logging.Logger
	metrics *observability.Metrics
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithAfterFunc replaces time.AfterFunc, for tests.
func WithAfterFunc(f AfterFunc) ControllerOption {
	return func(c *Controller) { c.after = f }
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l logging.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithControllerMetrics records playback metrics.
func WithControllerMetrics(m *observability.Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// NewController returns a Controller driving player.
func NewController(player SegmentPlayer, opts ...ControllerOption) *Controller {
	c := &Controller{
		player: player,
		after:  stdAfterFunc,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlaySegment seeks to start, plays, and schedules a pause after end-start.
// It returns once playback has started.
func (c *Controller) PlaySegment(start, end float64) error {
	return c.play(Segment{Start: start, End: end})
}

// PlayRecord plays a record's time range.
func (c *Controller) PlayRecord(r transcript.Record) error {
	return c.play(Segment{RecordID: r.ID, Start: r.StartSeconds, End: r.EndSeconds})
}

// ToggleRecord stops playback when r is the segment playing, and plays r
// otherwise. It reports whether r is now playing.
func (c *Controller) ToggleRecord(r transcript.Record) (bool, error) {
	c.mu.Lock()
	same := c.active != nil && r.ID != 0 && c.active.RecordID == r.ID
	c.mu.Unlock()
	if same {
		return false, c.Stop()
	}
	return true, c.PlayRecord(r)
}

func (c *Controller) play(seg Segment) error {
	if seg.Start < 0 || seg.End <= seg.Start {
		return fmt.Errorf("segment %.3f-%.3f: %w", seg.Start, seg.End, auerrors.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	replaced := c.cancelLocked()
	if err := c.player.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	if err := c.player.SeekTo(seg.Start); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	if err := c.player.Play(); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	c.gen++
	gen := c.gen
	s := seg
	c.active = &s
	c.timer = c.after(time.Duration((seg.End-seg.Start)*float64(time.Second)), func() {
		c.expire(gen)
	})
	c.metrics.RecordSegment(replaced)
	c.logger.Debug("Segment playing",
		logging.F("record_id", seg.RecordID),
		logging.F("start", seg.Start),
		logging.F("end", seg.End),
		logging.F("replaced", replaced))
	return nil
}

// cancelLocked stops the pending timer and reports whether one was pending.
func (c *Controller) cancelLocked() bool {
	pending := c.timer != nil
	if pending {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	c.active = nil
	return pending
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	if err := c.player.Pause(); err != nil {
		c.logger.Warn("Auto-stop pause failed", logging.Err(err))
	}
	c.timer = nil
	c.active = nil
}

// Stop cancels the pending auto-stop and pauses.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	return c.player.Pause()
}

// Active returns the segment awaiting auto-stop.
func (c *Controller) Active() (Segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Segment{}, false
	}
	return *c.active, true
}

// Player returns the driven player.
func (c *Controller) Player() SegmentPlayer {
	return c.player
}

// Snapshot is a point-in-time view of a player.
type Snapshot struct {
	CurrentTime float64  `json:"current_time" yaml:"current_time"`
	Duration    float64  `json:"duration" yaml:"duration"`
	Progress    float64  `json:"progress" yaml:"progress"`
	Playing     bool     `json:"playing" yaml:"playing"`
	Active      *Segment `json:"active,omitempty" yaml:"active,omitempty"`
}

// Snapshot reports the controller's player state.
func (c *Controller) Snapshot() Snapshot {
	p := c.Player()
	s := Snapshot{CurrentTime: p.CurrentTime(), Duration: p.Duration()}
	s.Progress = Progress(s.CurrentTime, s.Duration)
	if seg, ok := c.Active(); ok {
		s.Active = &seg
		s.Playing = true
	}
	if clk, ok := p.(*Clock); ok {
		s.Playing = clk.Playing()
	}
	return s
}
