package spectrogram

import "math"

const (
	syntheticChunk  = 512   // Longest slice read per column.
	syntheticGain   = 500.0 // Mean |x| to intensity.
	syntheticHeight = 200.0 // Reference canvas height of the heuristic.
)

// Synthesize builds a steps x bands frame from per-column energy alone. It
// is not a spectral analysis: every band shows the same energy, attenuated
// towards the top. The result is deterministic and tagged OriginSynthetic.
func Synthesize(samples []float32, steps, bands int) Frame {
	if len(samples) == 0 || steps <= 0 || bands <= 0 {
		return Frame{Origin: OriginSynthetic}
	}

	stride := max(len(samples)/steps, 1)
	chunk := min(stride, syntheticChunk)

	bins := make([][]float64, bands)
	for b := range bins {
		bins[b] = make([]float64, steps)
	}

	for x := 0; x < steps; x++ {
		start := x * stride
		if start >= len(samples) {
			break
		}
		part := samples[start:min(start+chunk, len(samples))]
		var sum float64
		for _, s := range part {
			sum += math.Abs(float64(s))
		}
		intensity := sum / float64(len(part)) * syntheticGain

		for b := 0; b < bands; b++ {
			y := float64(b) * syntheticHeight / float64(bands)
			v := intensity * (255 - y*2) / 100
			bins[b][x] = min(max(v, 0), 255) / 255
		}
	}
	return Frame{Bins: bins, Origin: OriginSynthetic}
}
