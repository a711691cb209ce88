// SPDX-License-Identifier: MIT
/*
Package capture records microphone input into 16-bit PCM WAV files.

The PortAudio callback runs on a dedicated OS thread and only converts and
encodes the buffer it is handed. Stream setup sits behind StreamOpener so the
recorder can be driven without hardware.
*/
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"pelohub/internal/apperr"
	"pelohub/internal/audio"
	"pelohub/internal/config"
	"pelohub/internal/log"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

// BitDepth of every recording.
const BitDepth = 16

var (
	ErrRecording    = errors.New("already recording")
	ErrNotRecording = errors.New("not recording")
)

// Stream is a started or stopped input stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// StreamOpener opens an input stream that delivers interleaved int32
// frames to cb.
type StreamOpener interface {
	OpenInput(cfg config.CaptureConfig, cb func(in []int32)) (Stream, error)
}

// PortAudioOpener opens streams on PortAudio devices. PortAudio must be
// initialized.
type PortAudioOpener struct{}

func (PortAudioOpener) OpenInput(cfg config.CaptureConfig, cb func(in []int32)) (Stream, error) {
	dev, err := audio.InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}
	latency := dev.DefaultHighInputLatency
	if cfg.LowLatency {
		latency = dev.DefaultLowInputLatency
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: cfg.Channels,
			Device:   dev,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      cfg.SampleRate,
	}
	log.Infof("Capture: opening %s (%d ch @ %.0f Hz, latency %s)", dev.Name, cfg.Channels, cfg.SampleRate, latency)
	return portaudio.OpenStream(params, cb)
}

// Recorder captures one recording at a time. It is safe for concurrent use.
type Recorder struct {
	cfg    config.CaptureConfig
	opener StreamOpener
	now    func() time.Time

	lifecycle sync.Mutex // Serializes Start and Stop.
	mu        sync.Mutex // Guards the encoder against the stream callback.

	path     string
	file     *os.File
	encoder  *wav.Encoder
	stream   Stream
	started  time.Time
	stopped  time.Duration // Length of the last finished recording.
	writeErr error

	recording atomic.Bool
	peak      atomic.Int32 // Peak |sample| of the latest buffer.
	sampleBuf *goaudio.IntBuffer
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithOpener replaces the PortAudio stream opener.
func WithOpener(o StreamOpener) Option {
	return func(r *Recorder) { r.opener = o }
}

// WithClock replaces the wall clock used for Elapsed.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder returns an idle recorder.
func NewRecorder(cfg config.CaptureConfig, opts ...Option) *Recorder {
	if cfg.Channels <= 0 {
		cfg.Channels = config.DefaultCaptureChannels
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = config.DefaultFramesPerBuffer
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = config.DefaultCaptureRate
	}
	r := &Recorder{cfg: cfg, opener: PortAudioOpener{}, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start opens the input stream and begins writing to path. A stream that
// cannot be opened or started yields an apperr.PermissionError.
func (r *Recorder) Start(path string) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	if r.recording.Load() {
		return ErrRecording
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	r.file = file
	r.path = path
	r.encoder = wav.NewEncoder(file, int(r.cfg.SampleRate), BitDepth, r.cfg.Channels, 1)
	r.sampleBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: r.cfg.Channels,
			SampleRate:  int(r.cfg.SampleRate),
		},
		SourceBitDepth: BitDepth,
		Data:           make([]int, r.cfg.FramesPerBuffer*r.cfg.Channels),
	}
	r.writeErr = nil
	r.peak.Store(0)

	stream, err := r.opener.OpenInput(r.cfg, r.process)
	if err == nil {
		if err = stream.Start(); err != nil {
			stream.Close()
		}
	}
	if err != nil {
		r.discardLocked()
		return &apperr.PermissionError{Device: deviceLabel(r.cfg.InputDevice), Err: err}
	}

	r.stream = stream
	r.started = r.now()
	r.recording.Store(true)
	log.Infof("Capture: recording to %s", path)
	return nil
}

// Stop halts the stream, finalizes the WAV header and returns the file path.
func (r *Recorder) Stop() (string, error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	if !r.recording.Load() {
		return "", ErrNotRecording
	}
	r.recording.Store(false)

	// The stream must stop without r.mu held: PortAudio waits for a running
	// callback, which may be waiting on r.mu.
	var errs []error
	if err := r.stream.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := r.stream.Close(); err != nil {
		errs = append(errs, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stream = nil
	r.stopped = r.now().Sub(r.started)

	if err := r.encoder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to finalize WAV: %w", err))
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if r.writeErr != nil {
		errs = append(errs, r.writeErr)
	}
	r.encoder, r.file = nil, nil

	log.Infof("Capture: stopped after %s", r.stopped.Round(time.Millisecond))
	return r.path, errors.Join(errs...)
}

// Record captures into path until ctx is done or maxDuration elapses, then
// stops and returns the path. A non-positive maxDuration waits for ctx only.
func (r *Recorder) Record(ctx context.Context, path string, maxDuration time.Duration) (string, error) {
	if err := r.Start(path); err != nil {
		return "", err
	}
	var limit <-chan time.Time
	if maxDuration > 0 {
		timer := time.NewTimer(maxDuration)
		defer timer.Stop()
		limit = timer.C
	}
	select {
	case <-ctx.Done():
	case <-limit:
	}
	return r.Stop()
}

// Recording reports whether a capture is running.
func (r *Recorder) Recording() bool {
	return r.recording.Load()
}

// Elapsed returns the running time of the current recording, or the length
// of the last one.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording.Load() {
		return r.now().Sub(r.started)
	}
	return r.stopped
}

// Level returns the peak amplitude of the most recent buffer in [0, 1].
func (r *Recorder) Level() float64 {
	return float64(r.peak.Load()) / float64(maxInt32)
}

// process is the stream callback.
func (r *Recorder) process(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !r.recording.Load() {
		return
	}
	r.peak.Store(Peak(in))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return
	}
	if cap(r.sampleBuf.Data) < len(in) {
		r.sampleBuf.Data = make([]int, len(in))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(in)]
	for i, sample := range in {
		r.sampleBuf.Data[i] = int(sample >> 16)
	}
	if err := r.encoder.Write(r.sampleBuf); err != nil && r.writeErr == nil {
		r.writeErr = fmt.Errorf("failed to write WAV: %w", err)
		log.Errorf("Capture: %v", r.writeErr)
	}
}

func (r *Recorder) discardLocked() {
	r.encoder = nil
	if r.file != nil {
		r.file.Close()
		os.Remove(r.path)
		r.file = nil
	}
}

func deviceLabel(id int) string {
	if id < 0 {
		return "default input"
	}
	return fmt.Sprintf("input #%d", id)
}
