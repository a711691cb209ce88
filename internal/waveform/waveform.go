// Package waveform reduces a PCM channel to a fixed number of amplitude bars.
package waveform

import "math"

const (
	// DefaultBuckets is the bar count of the live prediction view.
	DefaultBuckets = 100

	// gain maps a mean absolute amplitude onto the 0-100 display scale.
	gain     = 300.0
	maxLevel = 100.0
)

// Buckets holds one envelope value per bar, each within [0, 100].
type Buckets []float64

// Summarize splits samples into n equal blocks of floor(len/n) samples and
// returns the scaled mean absolute amplitude of each. Trailing samples that
// do not fill a block are ignored. When there are fewer samples than bars,
// each sample becomes one bar and the remaining bars stay at zero.
func Summarize(samples []float32, n int) Buckets {
	if n <= 0 {
		return Buckets{}
	}
	out := make(Buckets, n)
	if len(samples) == 0 {
		return out
	}

	block := len(samples) / n
	if block == 0 {
		for i, s := range samples {
			out[i] = level(math.Abs(float64(s)))
		}
		return out
	}

	for i := range out {
		var sum float64
		for _, s := range samples[i*block : (i+1)*block] {
			sum += math.Abs(float64(s))
		}
		out[i] = level(sum / float64(block))
	}
	return out
}

func level(meanAbs float64) float64 {
	v := meanAbs * gain
	if v > maxLevel {
		return maxLevel
	}
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// CursorIndex maps a playback fraction in [0, 1] to the bar under the cursor.
func (b Buckets) CursorIndex(fraction float64) int {
	if len(b) == 0 {
		return -1
	}
	if fraction <= 0 || math.IsNaN(fraction) {
		return 0
	}
	idx := int(fraction * float64(len(b)))
	if idx >= len(b) {
		idx = len(b) - 1
	}
	return idx
}

// Peak returns the largest bar value.
func (b Buckets) Peak() float64 {
	var peak float64
	for _, v := range b {
		peak = math.Max(peak, v)
	}
	return peak
}
