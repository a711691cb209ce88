// SPDX-License-Identifier: MIT
package spectrogram

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"pelohub/internal/log"
	"pelohub/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	MinFFTSize = 64
	MaxFFTSize = 8192

	floorDB = -120.0 // Magnitudes below this are treated as silence.
)

// WindowFunc selects the taper applied before each FFT.
type WindowFunc int

const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// Pre-allocated buffers for one STFT column.
type stftWorkspace struct {
	input     []float64    // Windowed input block.
	fftOutput []complex128 // FFT coefficients.
	magnitude []float64    // |coefficients|, fftSize/2+1 entries.
	window    []float64    // Window coefficients.
}

// STFT computes magnitude spectra of fixed-size blocks. It is not safe for
// concurrent use; give each goroutine its own.
type STFT struct {
	fft        *fourier.FFT
	fftSize    int
	sampleRate float64
	workspace  stftWorkspace
}

// NewSTFT returns an analyser for blocks of fftSize samples. fftSize must be
// a power of 2.
func NewSTFT(fftSize int, sampleRate float64, windowType WindowFunc) (*STFT, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	coeffs := make([]float64, fftSize)
	applyWindow(coeffs, windowType)
	bins := fftSize/2 + 1

	return &STFT{
		fft:        fourier.NewFFT(fftSize),
		fftSize:    fftSize,
		sampleRate: sampleRate,
		workspace: stftWorkspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, bins),
			magnitude: make([]float64, bins),
			window:    coeffs,
		},
	}, nil
}

// Magnitudes windows block, zero-padding it to the FFT size, and returns the
// magnitude spectrum. The returned slice is reused by the next call.
func (s *STFT) Magnitudes(block []float32) []float64 {
	ws := &s.workspace
	for i := 0; i < s.fftSize; i++ {
		if i < len(block) {
			ws.input[i] = float64(block[i]) * ws.window[i]
		} else {
			ws.input[i] = 0
		}
	}
	s.fft.Coefficients(ws.fftOutput, ws.input)
	for i, c := range ws.fftOutput {
		ws.magnitude[i] = cmplx.Abs(c)
	}
	return ws.magnitude
}

// FrequencyForBin returns the centre frequency (Hz) of bin.
func (s *STFT) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= len(s.workspace.magnitude) {
		return 0
	}
	return float64(bin) * s.sampleRate / float64(s.fftSize)
}

// Size returns the FFT length.
func (s *STFT) Size() int {
	return s.fftSize
}

// ComputeOption tunes Compute.
type ComputeOption func(*computeSettings)

type computeSettings struct {
	window WindowFunc
}

// WithWindow selects the taper applied to every column. The default is Hann.
func WithWindow(w WindowFunc) ComputeOption {
	return func(s *computeSettings) { s.window = w }
}

// Compute builds a steps x bands log-magnitude frame from samples. fftSize is
// rounded up to a power of 2 within [MinFFTSize, MaxFFTSize]. Frequency bins
// are pooled linearly into bands and the result is min-max normalized.
func Compute(samples []float32, sampleRate, fftSize, steps, bands int, opts ...ComputeOption) (Frame, error) {
	if len(samples) == 0 {
		return Frame{}, errors.New("no samples")
	}
	if steps <= 0 || bands <= 0 {
		return Frame{}, fmt.Errorf("invalid frame size %dx%d", steps, bands)
	}

	settings := computeSettings{window: Hann}
	for _, opt := range opts {
		opt(&settings)
	}

	size := bitint.FitPowerOfTwo(fftSize, MinFFTSize, MaxFFTSize)
	stft, err := NewSTFT(size, float64(sampleRate), settings.window)
	if err != nil {
		return Frame{}, err
	}
	nbins := size/2 + 1
	if bands > nbins {
		bands = nbins
	}

	bins := make([][]float64, bands)
	for b := range bins {
		bins[b] = make([]float64, steps)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for x := 0; x < steps; x++ {
		start := x * len(samples) / steps
		end := min(start+size, len(samples))
		mags := stft.Magnitudes(samples[start:end])

		for b := 0; b < bands; b++ {
			from := b * nbins / bands
			to := max((b+1)*nbins/bands, from+1)
			var sum float64
			for _, m := range mags[from:to] {
				sum += m
			}
			db := 20 * math.Log10(sum/float64(to-from)+1e-12)
			db = max(db, floorDB)
			bins[b][x] = db
			lo = min(lo, db)
			hi = max(hi, db)
		}
	}

	span := hi - lo
	for _, row := range bins {
		for x, v := range row {
			if span <= 0 {
				row[x] = 0
			} else {
				row[x] = (v - lo) / span
			}
		}
	}

	log.Debugf("Spectrogram: STFT %d-point %s, %d steps x %d bands", size, settings.window, steps, bands)
	return Frame{Bins: bins, Origin: OriginSTFT}, nil
}

func (w WindowFunc) String() string {
	switch w {
	case BartlettHann:
		return "bartletthann"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Hamming:
		return "hamming"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	default:
		return "hann"
	}
}

// ParseWindowFunc converts a case-insensitive name to a WindowFunc. Unknown
// names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown window %q", name)
	}
}

// applyWindow fills coeffs with the selected window. gonum multiplies in
// place, so the slice starts at 1.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}
