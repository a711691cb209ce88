// Package transport publishes playback cursor frames to viewers outside the
// process.
package transport

import (
	"pelohub/internal/audio"
	"pelohub/internal/playback"
)

// Transport sends frames or events. Implementations are safe for concurrent
// use.
type Transport interface {
	Send(data any) error
	Close() error
}

// CursorFrame is the playback position broadcast to overlays.
type CursorFrame struct {
	Elapsed  float64 `json:"elapsed"` // Seconds.
	Total    float64 `json:"total"`   // Seconds.
	Fraction float64 `json:"fraction"`
	State    string  `json:"state"`
	Clock    string  `json:"clock"` // "m:ss / m:ss"
}

// NewCursorFrame converts a clock position into a frame.
func NewCursorFrame(pos playback.Position) CursorFrame {
	return CursorFrame{
		Elapsed:  pos.Elapsed.Seconds(),
		Total:    pos.Total.Seconds(),
		Fraction: pos.Fraction(),
		State:    pos.State.String(),
		Clock:    audio.FormatClock(pos.Elapsed) + " / " + audio.FormatClock(pos.Total),
	}
}

// FrameSink adapts t into a playback.Clock.Run callback.
func FrameSink(t Transport) func(playback.Position) {
	return func(pos playback.Position) {
		_ = t.Send(NewCursorFrame(pos))
	}
}

// Multi fans every Send out to several transports.
type Multi []Transport

func (m Multi) Send(data any) error {
	var first error
	for _, t := range m {
		if err := t.Send(data); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, t := range m {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Transport = Multi(nil)
