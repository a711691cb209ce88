package spectrogram

import (
	"image/color"
	"math"
)

var (
	rampLow  = [3]float64{0, 0, 0}
	rampMid  = [3]float64{120, 20, 120}
	rampHigh = [3]float64{255, 255, 0}
)

// Ramp maps an intensity to the black, purple, yellow heat colour scale.
// v is clamped to [0, 1]; NaN is treated as 0.
func Ramp(v float64) color.RGBA {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	from, to, t := rampLow, rampMid, v/0.5
	if v >= 0.5 {
		from, to, t = rampMid, rampHigh, (v-0.5)/0.5
	}
	return color.RGBA{
		R: lerp(from[0], to[0], t),
		G: lerp(from[1], to[1], t),
		B: lerp(from[2], to[2], t),
		A: 0xff,
	}
}

func lerp(a, b, t float64) uint8 {
	return uint8(math.Round(a + (b-a)*t))
}
