package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pelohub/internal/log"

	"github.com/gordonklaus/portaudio"
)

// stream is the subset of *portaudio.Stream the sink drives.
type stream interface {
	Start() error
	Stop() error
	Close() error
}

var openOutputStream = func(params portaudio.StreamParameters, cb func(out []float32)) (stream, error) {
	return portaudio.OpenStream(params, cb)
}

// DeviceSink plays a Signal through a PortAudio output device. Start and Stop
// follow the playback clock: every Start opens a fresh stream at the offset.
type DeviceSink struct {
	mu     sync.Mutex
	signal *Signal
	device *portaudio.DeviceInfo
	stream stream
	cursor atomic.Int64 // Next frame to render.
	closed bool
}

// NewDeviceSink prepares a sink for sig on the output device deviceID.
// PortAudio must be initialized for the lifetime of the sink.
func NewDeviceSink(sig *Signal, deviceID int) (*DeviceSink, error) {
	if sig == nil || sig.Frames() == 0 {
		return nil, fmt.Errorf("no signal to play")
	}
	dev, err := OutputDevice(deviceID)
	if err != nil {
		return nil, err
	}
	return &DeviceSink{signal: sig, device: dev}, nil
}

// Start begins output at offset, replacing any running stream.
func (s *DeviceSink) Start(offset time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sink closed")
	}
	if err := s.stopLocked(); err != nil {
		return err
	}

	s.cursor.Store(frameAt(offset, s.signal.SampleRate))
	channels := min(s.signal.ChannelCount(), 2)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Channels: channels,
			Device:   s.device,
			Latency:  s.device.DefaultHighOutputLatency,
		},
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
		SampleRate:      float64(s.signal.SampleRate),
	}

	st, err := openOutputStream(params, s.fill)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := st.Start(); err != nil {
		st.Close()
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	s.stream = st
	log.Debugf("Audio: output started at %s on %q", offset, s.device.Name)
	return nil
}

// Stop halts output. Stopping an idle sink is a no-op.
func (s *DeviceSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Close stops output and rejects later Starts.
func (s *DeviceSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.stopLocked()
}

func (s *DeviceSink) stopLocked() error {
	if s.stream == nil {
		return nil
	}
	st := s.stream
	s.stream = nil
	if err := st.Stop(); err != nil {
		st.Close()
		return err
	}
	return st.Close()
}

// fill is the PortAudio callback. out is interleaved by output channel.
func (s *DeviceSink) fill(out []float32) {
	channels := min(s.signal.ChannelCount(), 2)
	frames := s.signal.Frames()
	pos := int(s.cursor.Load())

	for i := 0; i+channels <= len(out); i += channels {
		for c := 0; c < channels; c++ {
			if pos < frames {
				out[i+c] = s.signal.Channels[c][pos]
			} else {
				out[i+c] = 0
			}
		}
		pos++
	}
	s.cursor.Store(int64(pos))
}

func frameAt(offset time.Duration, sampleRate int) int64 {
	if offset <= 0 {
		return 0
	}
	return int64(offset) * int64(sampleRate) / int64(time.Second)
}
