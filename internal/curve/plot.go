package curve

// Plot maps between chart pixels and unit data space. Padding is applied on
// every side.
type Plot struct {
	Width   float64
	Height  float64
	Padding float64
}

func (p Plot) innerWidth() float64  { return p.Width - 2*p.Padding }
func (p Plot) innerHeight() float64 { return p.Height - 2*p.Padding }

// ToData converts a pointer x (pixels from the chart's left edge) into a
// data x in [0, 1].
func (p Plot) ToData(px float64) float64 {
	w := p.innerWidth()
	if w <= 0 {
		return 0
	}
	return clampUnit((px - p.Padding) / w)
}

// ScaleX converts a data x to a pixel column.
func (p Plot) ScaleX(x float64) float64 {
	return p.Padding + x*p.innerWidth()
}

// ScaleY converts a data y to a pixel row; y = 1 is at the top.
func (p Plot) ScaleY(y float64) float64 {
	return p.Height - p.Padding - y*p.innerHeight()
}
