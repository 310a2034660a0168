package playback

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auerrors "github.com/otherjamesbrown/audiencia-cli/pkg/errors"
	"github.com/otherjamesbrown/audiencia-cli/pkg/observability"
	"github.com/otherjamesbrown/audiencia-cli/pkg/transcript"
)

// fakePlayer records calls in order.
type fakePlayer struct {
	mu       sync.Mutex
	calls    []string
	position float64
	playing  bool
	failPlay bool
}

func (p *fakePlayer) SeekTo(s float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "seek")
	p.position = s
	return nil
}

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failPlay {
		return errors.New("no media")
	}
	p.calls = append(p.calls, "play")
	p.playing = true
	return nil
}

func (p *fakePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "pause")
	p.playing = false
	return nil
}

func (p *fakePlayer) CurrentTime() float64 { return p.position }
func (p *fakePlayer) Duration() float64    { return 100 }

func (p *fakePlayer) isPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// fakeTimers captures scheduled callbacks so tests fire them by hand.
type fakeTimers struct {
	scheduled []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (ft *fakeTimers) after(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	ft.scheduled = append(ft.scheduled, t)
	return t
}

func TestPlaySegment_SeeksPlaysAndArmsTimer(t *testing.T) {
	p := &fakePlayer{}
	timers := &fakeTimers{}
	c := NewController(p, WithAfterFunc(timers.after))

	require.NoError(t, c.PlaySegment(5, 8.5))

	assert.Equal(t, []string{"pause", "seek", "play"}, p.calls)
	assert.Equal(t, 5.0, p.position)
	require.Len(t, timers.scheduled, 1)
	assert.Equal(t, 3500*time.Millisecond, timers.scheduled[0].d)

	seg, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, Segment{Start: 5, End: 8.5}, seg)

	timers.scheduled[0].f()
	assert.False(t, p.isPlaying())
	_, ok = c.Active()
	assert.False(t, ok)
}

func TestPlaySegment_ReplacesPendingTimer(t *testing.T) {
	p := &fakePlayer{}
	timers := &fakeTimers{}
	m := observability.NewMetrics(prometheus.NewRegistry())
	c := NewController(p, WithAfterFunc(timers.after), WithControllerMetrics(m))

	require.NoError(t, c.PlaySegment(0, 10))
	require.NoError(t, c.PlaySegment(20, 22))

	require.Len(t, timers.scheduled, 2)
	assert.True(t, timers.scheduled[0].stopped)
	assert.False(t, timers.scheduled[1].stopped)

	// A stale callback that already started must not stop the new segment.
	timers.scheduled[0].f()
	assert.True(t, p.isPlaying())
	seg, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, 20.0, seg.Start)

	timers.scheduled[1].f()
	assert.False(t, p.isPlaying())

	assert.Equal(t, float64(2), testutil.ToFloat64(m.SegmentsPlayed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SegmentsReplaced))
}

func TestPlaySegment_InvalidRange(t *testing.T) {
	c := NewController(&fakePlayer{})
	assert.True(t, auerrors.IsValidation(c.PlaySegment(5, 5)))
	assert.True(t, auerrors.IsValidation(c.PlaySegment(-1, 2)))
}

func TestPlaySegment_PlayerError(t *testing.T) {
	timers := &fakeTimers{}
	c := NewController(&fakePlayer{failPlay: true}, WithAfterFunc(timers.after))

	assert.Error(t, c.PlaySegment(0, 1))
	assert.Empty(t, timers.scheduled)
	_, ok := c.Active()
	assert.False(t, ok)
}

func TestStop(t *testing.T) {
	p := &fakePlayer{}
	timers := &fakeTimers{}
	c := NewController(p, WithAfterFunc(timers.after))

	require.NoError(t, c.PlaySegment(1, 3))
	require.NoError(t, c.Stop())

	assert.True(t, timers.scheduled[0].stopped)
	assert.False(t, p.isPlaying())
	_, ok := c.Active()
	assert.False(t, ok)
}

func TestToggleRecord(t *testing.T) {
	p := &fakePlayer{}
	timers := &fakeTimers{}
	c := NewController(p, WithAfterFunc(timers.after))
	rec := transcript.Record{ID: 4, StartSeconds: 10, EndSeconds: 12}

	playing, err := c.ToggleRecord(rec)
	require.NoError(t, err)
	assert.True(t, playing)

	playing, err = c.ToggleRecord(rec)
	require.NoError(t, err)
	assert.False(t, playing)
	assert.False(t, p.isPlaying())

	other := transcript.Record{ID: 5, StartSeconds: 12, EndSeconds: 15}
	_, _ = c.ToggleRecord(rec)
	playing, err = c.ToggleRecord(other)
	require.NoError(t, err)
	assert.True(t, playing)
	seg, _ := c.Active()
	assert.Equal(t, 5, seg.RecordID)
}

func TestController_RealTimerAutoStops(t *testing.T) {
	clk := NewClock(60)
	c := NewController(clk)

	require.NoError(t, c.PlaySegment(1, 1.02))
	assert.Eventually(t, func() bool { return !clk.Playing() }, time.Second, 5*time.Millisecond)
}

func TestClock(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	clk := NewClock(30)
	clk.now = func() time.Time { return now }

	assert.Equal(t, 0.0, clk.CurrentTime())
	require.NoError(t, clk.SeekTo(10))
	require.NoError(t, clk.Play())

	now = now.Add(5 * time.Second)
	assert.Equal(t, 15.0, clk.CurrentTime())

	require.NoError(t, clk.Pause())
	now = now.Add(5 * time.Second)
	assert.Equal(t, 15.0, clk.CurrentTime())

	require.NoError(t, clk.SkipForward())
	assert.Equal(t, 25.0, clk.CurrentTime())
	require.NoError(t, clk.SkipForward())
	assert.Equal(t, 30.0, clk.CurrentTime())
	require.NoError(t, clk.SeekTo(-4))
	assert.Equal(t, 0.0, clk.CurrentTime())
	require.NoError(t, clk.SkipBack())
	assert.Equal(t, 0.0, clk.CurrentTime())

	clk.SetVolume(140)
	assert.Equal(t, 100, clk.Volume())
	clk.SetVolume(-1)
	assert.Equal(t, 0, clk.Volume())

	clk.SetDuration(20)
	assert.Equal(t, 20.0, clk.Duration())
}

func TestSnapshot(t *testing.T) {
	clk := NewClock(50)
	timers := &fakeTimers{}
	c := NewController(clk, WithAfterFunc(timers.after))

	require.NoError(t, c.PlaySegment(25, 30))
	s := c.Snapshot()
	assert.True(t, s.Playing)
	require.NotNil(t, s.Active)
	assert.Equal(t, 25.0, s.Active.Start)
	assert.InDelta(t, 50.0, s.Progress, 1)
}

func TestActiveIndex(t *testing.T) {
	records := []transcript.Record{
		{StartSeconds: 0, EndSeconds: 5},
		{StartSeconds: 5, EndSeconds: 8},
		{StartSeconds: 10, EndSeconds: 12},
	}

	assert.Equal(t, 0, ActiveIndex(records, 0))
	assert.Equal(t, 1, ActiveIndex(records, 5))
	assert.Equal(t, 1, ActiveIndex(records, 9))
	assert.Equal(t, 2, ActiveIndex(records, 11))
	assert.Equal(t, 2, ActiveIndex(records, 99))
	assert.Equal(t, -1, ActiveIndex(records, -1))
	assert.Equal(t, -1, ActiveIndex(nil, 3))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.0, Progress(5, 0))
	assert.Equal(t, 50.0, Progress(5, 10))
	assert.Equal(t, 100.0, Progress(15, 10))
}
