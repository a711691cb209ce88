/*
Package session drives the live-prediction workflow: load a source, render
its waveform and spectrogram, play it back, and run one classification at a
time against the selected model.

Analysis state moves idle -> analyzing -> done. A failed analysis returns to
idle and keeps whatever result was shown before. Completed analyses are
reported through the OnAnalysisComplete callback, which is the only channel
to the analysis log.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"pelohub/internal/analysislog"
	"pelohub/internal/audio"
	"pelohub/internal/config"
	"pelohub/internal/inference"
	"pelohub/internal/log"
	"pelohub/internal/playback"
	"pelohub/internal/spectrogram"
	"pelohub/internal/waveform"

	"golang.org/x/sync/errgroup"
)

// Mode is where the session's audio comes from.
type Mode int

const (
	ModeUpload Mode = iota
	ModeRecord
)

func (m Mode) String() string {
	if m == ModeRecord {
		return "record"
	}
	return "upload"
}

func (m Mode) logSource() analysislog.Source {
	if m == ModeRecord {
		return analysislog.SourceRecord
	}
	return analysislog.SourceUpload
}

// State is the analysis state.
type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAnalyzing:
		return "analyzing"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

var (
	ErrNoSource   = errors.New("no audio loaded")
	ErrBusy       = errors.New("analysis already running")
	ErrSuperseded = errors.New("source or model changed during analysis")
	ErrClosed     = errors.New("session closed")
)

// Predictor classifies audio. *inference.Client implements it.
type Predictor interface {
	Predict(ctx context.Context, modelID, fileName string, data []byte) (inference.Result, error)
}

// ClockFactory builds the playback clock for a freshly loaded signal.
type ClockFactory func(sig *audio.Signal) (*playback.Clock, error)

// RenderOptions sizes the renderings built on load.
type RenderOptions struct {
	Buckets           int
	Width             int // Raster size in pixels.
	Height            int
	Steps             int // Frame size in cells; the raster is scaled from it.
	Bands             int
	SpectrogramSource string // config.SourceSTFT or config.SourceSynthetic.
	FFTSize           int
	Window            string // spectrogram.ParseWindowFunc name; empty means Hann.
}

// DefaultRenderOptions mirrors the configuration defaults.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Buckets:           config.DefaultWaveformBuckets,
		Width:             config.DefaultSpectrogramWidth,
		Height:            config.DefaultSpectrogramHeight,
		SpectrogramSource: config.DefaultSpectrogramSource,
		Steps:             config.DefaultSpectrogramSteps,
		Bands:             config.DefaultSpectrogramBands,
		FFTSize:           config.DefaultSpectrogramFFTSize,
		Window:            config.DefaultSpectrogramWindow,
	}
}

// Deps are the collaborators of a Session.
type Deps struct {
	Decoder            *audio.Decoder
	Predictor          Predictor
	OnAnalysisComplete func(analysislog.Entry)
	NewClock           ClockFactory
	Render             RenderOptions
	Model              string
}

// Source is a loaded recording and its renderings. It is immutable.
type Source struct {
	FileName string
	Data     []byte
	Signal   *audio.Signal
	Waveform waveform.Buckets
	Frame    spectrogram.Frame
	Raster   *image.RGBA // nil when the frame is empty.
}

// Session is safe for concurrent use.
type Session struct {
	deps Deps

	mu         sync.Mutex
	mode       Mode
	model      string
	state      State
	source     *Source
	result     *inference.Result
	clock      *playback.Clock
	generation uint64 // Bumped whenever source or model changes.
	closed     bool
}

// New returns an idle session in upload mode.
func New(deps Deps) *Session {
	if deps.Decoder == nil {
		deps.Decoder = audio.NewDecoder()
	}
	if deps.NewClock == nil {
		deps.NewClock = func(sig *audio.Signal) (*playback.Clock, error) {
			return playback.NewClock(sig.Duration), nil
		}
	}
	if deps.Render == (RenderOptions{}) {
		deps.Render = DefaultRenderOptions()
	}
	model := deps.Model
	if model == "" {
		model = config.DefaultModelID
	}
	return &Session{
		deps:  deps,
		model: model,
		clock: playback.NewClock(0),
	}
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the source mode and stops playback.
func (s *Session) SetMode(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	return s.clock.Stop()
}

func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel selects a model and clears the shown result.
func (s *Session) SetModel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.model {
		return
	}
	s.model = id
	s.result = nil
	s.state = StateIdle
	s.generation++
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the shown result, if any.
func (s *Session) Result() (inference.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return inference.Result{}, false
	}
	return *s.result, true
}

// Source returns the loaded source, or nil.
func (s *Session) Source() *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Clock returns the playback clock of the current source.
func (s *Session) Clock() *playback.Clock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// LoadSource decodes data and builds its renderings. On success the new
// source replaces the old one, the result is cleared and the clock is reset
// to the new duration. On failure nothing of the new source is kept.
func (s *Session) LoadSource(ctx context.Context, data []byte, fileName string) error {
	if s.isClosed() {
		return ErrClosed
	}

	sig, err := s.deps.Decoder.Decode(data, fileName)
	if err != nil {
		s.clearSource()
		return err
	}

	src := &Source{FileName: fileName, Data: data, Signal: sig}
	opts := s.deps.Render

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		src.Waveform = waveform.Summarize(sig.Primary(), opts.Buckets)
		return gctx.Err()
	})
	g.Go(func() error {
		frame, err := buildFrame(sig, opts)
		if err != nil {
			return err
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		src.Frame = frame
		src.Raster = spectrogram.Render(frame, opts.Width, opts.Height)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.clearSource()
		return fmt.Errorf("failed to render %s: %w", fileName, err)
	}

	clock, err := s.deps.NewClock(sig)
	if err != nil {
		s.clearSource()
		return fmt.Errorf("failed to prepare playback: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = clock.Dispose()
		return ErrClosed
	}
	old := s.clock
	s.clock = clock
	s.source = src
	s.result = nil
	s.state = StateIdle
	s.generation++
	s.mu.Unlock()

	if err := old.Dispose(); err != nil {
		log.Warnf("Session: disposing previous clock: %v", err)
	}
	log.Infof("Session: loaded %s (%s, %s)", fileName, sig.Format, audio.FormatClock(sig.Duration))
	return nil
}

// Analyze classifies the loaded source with the selected model, starting
// playback if it is not already running. It makes exactly one attempt.
func (s *Session) Analyze(ctx context.Context) (inference.Result, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return inference.Result{}, ErrClosed
	case s.source == nil:
		s.mu.Unlock()
		return inference.Result{}, ErrNoSource
	case s.state == StateAnalyzing:
		s.mu.Unlock()
		return inference.Result{}, ErrBusy
	}
	src, model, mode, gen, clock := s.source, s.model, s.mode, s.generation, s.clock
	s.state = StateAnalyzing
	s.mu.Unlock()

	if clock.Tick().State != playback.Playing {
		if err := clock.Play(); err != nil {
			log.Warnf("Session: could not start playback: %v", err)
		}
	}

	fileName := src.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("recording_%d.wav", time.Now().UnixMilli())
	}
	result, err := s.deps.Predictor.Predict(ctx, model, fileName, src.Data)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		if err != nil {
			return inference.Result{}, err
		}
		return inference.Result{}, ErrSuperseded
	}
	if err != nil {
		s.state = StateIdle
		s.mu.Unlock()
		log.Warnf("Session: analysis of %s failed: %v", fileName, err)
		return inference.Result{}, err
	}
	s.result = &result
	s.state = StateDone
	s.mu.Unlock()

	if s.deps.OnAnalysisComplete != nil {
		s.deps.OnAnalysisComplete(analysislog.NewEntry(mode.logSource(), fileName, src.Signal, result, inference.ModelName(model)))
	}
	return result, nil
}

// Close disposes the clock and the decoder. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clock := s.clock
	s.mu.Unlock()

	return errors.Join(clock.Dispose(), s.deps.Decoder.Close())
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) clearSource() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return
	}
	s.source = nil
	s.result = nil
	s.state = StateIdle
	s.generation++
	_ = s.clock.Reset(0)
}

func buildFrame(sig *audio.Signal, opts RenderOptions) (spectrogram.Frame, error) {
	steps, bands := opts.Steps, opts.Bands
	if steps <= 0 || bands <= 0 {
		steps, bands = opts.Width, opts.Height
	}
	if steps <= 0 || bands <= 0 {
		return spectrogram.Frame{}, nil
	}
	if opts.SpectrogramSource == config.SourceSynthetic {
		return spectrogram.Synthesize(sig.Primary(), steps, bands), nil
	}
	window := spectrogram.Hann
	if opts.Window != "" {
		w, err := spectrogram.ParseWindowFunc(opts.Window)
		if err != nil {
			return spectrogram.Frame{}, err
		}
		window = w
	}
	return spectrogram.Compute(sig.Primary(), sig.SampleRate, opts.FFTSize, steps, bands,
		spectrogram.WithWindow(window))
}
