package spectrogram

import (
	"errors"
	"math"

	"pelohub/pkg/bitint"
)

// FrequencyBand is a named frequency range and its mean energy.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
	Energy float64 // Mean magnitude over the signal, 0..1 after scaling.
}

// SpeechBands returns the ranges reported by inspect: voicing, the first two
// formant regions and fricative noise.
func SpeechBands() []FrequencyBand {
	return []FrequencyBand{
		{Name: "voicing", LowHz: 60, HighHz: 300},
		{Name: "formant1", LowHz: 300, HighHz: 1000},
		{Name: "formant2", LowHz: 1000, HighHz: 3000},
		{Name: "fricative", LowHz: 3000, HighHz: 8000},
	}
}

// BandEnergies averages the magnitude spectrum of consecutive fftSize blocks
// and sums it into bands. Bands above Nyquist keep zero energy.
func BandEnergies(samples []float32, sampleRate, fftSize int, bands []FrequencyBand) ([]FrequencyBand, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples")
	}
	size := bitint.FitPowerOfTwo(fftSize, MinFFTSize, MaxFFTSize)
	stft, err := NewSTFT(size, float64(sampleRate), Hann)
	if err != nil {
		return nil, err
	}

	out := make([]FrequencyBand, len(bands))
	copy(out, bands)
	counts := make([]int, len(out))

	for start := 0; start < len(samples); start += size {
		mags := stft.Magnitudes(samples[start:min(start+size, len(samples))])
		for i, m := range mags {
			freq := stft.FrequencyForBin(i)
			for b := range out {
				if freq >= out[b].LowHz && freq < out[b].HighHz {
					out[b].Energy += m * m
					counts[b]++
					break
				}
			}
		}
	}

	for b := range out {
		if counts[b] == 0 {
			continue
		}
		rms := math.Sqrt(out[b].Energy / float64(counts[b]))
		// A full-scale sine under a Hann window peaks near size/4.
		out[b].Energy = math.Min(1, rms/(float64(size)/4))
	}
	return out, nil
}
