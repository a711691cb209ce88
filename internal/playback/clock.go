/*
Package playback keeps the position of an audio track that is being played,
paused or seeked.

The Clock is the single source of truth for the cursor drawn over waveform
and spectrogram renderings. While playing, elapsed time is derived from a
reference start (now - offset) rather than accumulated per frame, so frame
jitter never drifts the cursor. Output devices plug in through Sink.
*/
package playback

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the transport state of a Clock.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

var (
	ErrDisposed    = errors.New("playback clock disposed")
	ErrLoopRunning = errors.New("frame loop already running")
)

// Sink renders audio from an offset. Start may be called while running; the
// Clock always calls Stop first.
type Sink interface {
	Start(offset time.Duration) error
	Stop() error
	Close() error
}

type nopSink struct{}

func (nopSink) Start(time.Duration) error { return nil }
func (nopSink) Stop() error               { return nil }
func (nopSink) Close() error              { return nil }

// Position is a snapshot of a Clock. 0 <= Elapsed <= Total.
type Position struct {
	State   State
	Elapsed time.Duration
	Total   time.Duration
}

// Fraction returns Elapsed/Total in [0, 1], or 0 for an empty track.
func (p Position) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Elapsed) / float64(p.Total)
	return min(max(f, 0), 1)
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow replaces the monotonic time source.
func WithNow(now func() time.Duration) Option {
	return func(c *Clock) { c.now = now }
}

// WithSink attaches an output device.
func WithSink(s Sink) Option {
	return func(c *Clock) { c.sink = s }
}

// Clock is safe for concurrent use.
type Clock struct {
	mu       sync.Mutex
	state    State
	total    time.Duration
	offset   time.Duration // Position while stopped or paused.
	refStart time.Duration // now() - offset at the last start.
	now      func() time.Duration
	sink     Sink

	running  bool
	disposed bool
	done     chan struct{}
}

// NewClock returns a stopped clock for a track of length total.
func NewClock(total time.Duration, opts ...Option) *Clock {
	origin := time.Now()
	c := &Clock{
		total: max(total, 0),
		now:   func() time.Duration { return time.Since(origin) },
		sink:  nopSink{},
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Play starts from the held offset. Playing an already playing clock is a
// no-op. If the sink fails to start the state is unchanged.
func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	if c.state == Playing {
		return nil
	}
	if c.offset >= c.total {
		c.offset = 0
	}
	if err := c.sink.Start(c.offset); err != nil {
		return err
	}
	c.refStart = c.now() - c.offset
	c.state = Playing
	return nil
}

// Resume is Play under the name the player controls use.
func (c *Clock) Resume() error {
	return c.Play()
}

// Pause holds the current position. It only acts on a playing clock.
func (c *Clock) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	if c.state != Playing {
		return nil
	}
	c.offset = c.elapsedLocked()
	c.state = Paused
	return c.sink.Stop()
}

// Toggle pauses a playing clock and plays otherwise.
func (c *Clock) Toggle() error {
	c.mu.Lock()
	playing := c.state == Playing
	c.mu.Unlock()
	if playing {
		return c.Pause()
	}
	return c.Play()
}

// Stop halts playback and rewinds to 0.
func (c *Clock) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	return c.stopLocked()
}

// Reset stops the clock and replaces the track length. Used when a new
// source is loaded.
func (c *Clock) Reset(total time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	err := c.stopLocked()
	c.total = max(total, 0)
	return err
}

// Seek moves to t, clamped to [0, total]. A playing clock restarts its sink
// at t and keeps playing; otherwise only the held offset changes.
func (c *Clock) Seek(t time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	t = min(max(t, 0), c.total)

	if c.state != Playing {
		c.offset = t
		return nil
	}
	if err := c.sink.Stop(); err != nil {
		return err
	}
	if err := c.sink.Start(t); err != nil {
		c.offset = t
		c.state = Paused
		return err
	}
	c.refStart = c.now() - t
	return nil
}

// SeekFraction seeks to fraction of the track.
func (c *Clock) SeekFraction(fraction float64) error {
	c.mu.Lock()
	total := c.total
	c.mu.Unlock()
	fraction = min(max(fraction, 0), 1)
	return c.Seek(time.Duration(fraction * float64(total)))
}

// Tick returns the current position. A playing clock that has reached the
// end reports Elapsed == Total once and moves to Stopped at offset 0.
func (c *Clock) Tick() Position {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Playing {
		elapsed := c.now() - c.refStart
		if elapsed >= c.total {
			_ = c.sink.Stop()
			c.state = Stopped
			c.offset = 0
			return Position{State: Stopped, Elapsed: c.total, Total: c.total}
		}
		return Position{State: Playing, Elapsed: max(elapsed, 0), Total: c.total}
	}
	return Position{State: c.state, Elapsed: c.offset, Total: c.total}
}

// Run calls onFrame every interval while the clock is playing, plus once for
// the frame that ends playback. It blocks until ctx is done or the clock is
// disposed. Only one Run may be active per clock.
func (c *Clock) Run(ctx context.Context, interval time.Duration, onFrame func(Position)) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if c.running {
		c.mu.Unlock()
		return ErrLoopRunning
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wasPlaying := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case <-ticker.C:
			pos := c.Tick()
			if pos.State == Playing || wasPlaying {
				onFrame(pos)
			}
			wasPlaying = pos.State == Playing
		}
	}
}

// Dispose stops the frame loop and closes the sink. It is idempotent.
func (c *Clock) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil
	}
	c.disposed = true
	close(c.done)
	c.state = Stopped
	c.offset = 0
	return c.sink.Close()
}

func (c *Clock) stopLocked() error {
	wasPlaying := c.state == Playing
	c.state = Stopped
	c.offset = 0
	if wasPlaying {
		return c.sink.Stop()
	}
	return nil
}

func (c *Clock) elapsedLocked() time.Duration {
	return min(max(c.now()-c.refStart, 0), c.total)
}
