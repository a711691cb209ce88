/*
Package spectrogram turns time-frequency intensity grids into RGB rasters.

A Frame is indexed [band][step] with values in [0, 1]. Frames come from the
inference backend, from a local STFT, or from a cheap energy heuristic; the
Origin tag records which, so synthetic data is never shown as measured data.
Rendering puts band 0 at the bottom of the image and time on the x axis.
*/
package spectrogram

// Origin records where a Frame's intensities came from.
type Origin int

const (
	OriginBackend Origin = iota
	OriginSTFT
	OriginSynthetic
)

func (o Origin) String() string {
	switch o {
	case OriginBackend:
		return "backend"
	case OriginSTFT:
		return "stft"
	case OriginSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// Frame is a normalized intensity grid indexed [band][step].
type Frame struct {
	Bins   [][]float64
	Origin Origin
}

// FromBackend wraps a [freq][time] array received from the inference API.
func FromBackend(bins [][]float64) Frame {
	return Frame{Bins: bins, Origin: OriginBackend}
}

// Bands returns the number of frequency rows.
func (f Frame) Bands() int {
	return len(f.Bins)
}

// Steps returns the length of the longest row.
func (f Frame) Steps() int {
	steps := 0
	for _, row := range f.Bins {
		steps = max(steps, len(row))
	}
	return steps
}

// Empty reports whether the frame has no cells to draw.
func (f Frame) Empty() bool {
	return f.Bands() == 0 || f.Steps() == 0
}

// At returns the cell at (band, step) and whether it exists. Ragged rows
// have missing cells.
func (f Frame) At(band, step int) (float64, bool) {
	if band < 0 || band >= len(f.Bins) {
		return 0, false
	}
	row := f.Bins[band]
	if step < 0 || step >= len(row) {
		return 0, false
	}
	return row[step], true
}
