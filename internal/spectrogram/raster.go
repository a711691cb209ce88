package spectrogram

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

var (
	background  = color.RGBA{A: 0xff}
	cursorColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xb0}
)

// Rasterize draws frame into a width x height image. Each pixel samples the
// cell at step x*steps/width and band (height-1-y)*bands/height. Missing cells
// render black. Empty frames and non-positive sizes yield nil.
func Rasterize(frame Frame, width, height int) *image.RGBA {
	if frame.Empty() || width <= 0 || height <= 0 {
		return nil
	}
	bands, steps := frame.Bands(), frame.Steps()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		band := (height - 1 - y) * bands / height
		for x := 0; x < width; x++ {
			step := x * steps / width
			if v, ok := frame.At(band, step); ok {
				img.SetRGBA(x, y, Ramp(v))
			} else {
				img.SetRGBA(x, y, background)
			}
		}
	}
	return img
}

// DrawCursor composites a translucent vertical playhead at fraction of the
// image width. img is modified in place.
func DrawCursor(img *image.RGBA, fraction float64) {
	if img == nil {
		return
	}
	b := img.Bounds()
	if b.Dx() == 0 {
		return
	}
	fraction = min(max(fraction, 0), 1)
	x := b.Min.X + int(fraction*float64(b.Dx()-1))
	line := image.Rect(x, b.Min.Y, min(x+2, b.Max.X), b.Max.Y)
	draw.Draw(img, line, image.NewUniform(cursorColor), image.Point{}, draw.Over)
}

// Scale resizes a raster with Catmull-Rom interpolation.
func Scale(src image.Image, width, height int) *image.RGBA {
	if src == nil || width <= 0 || height <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Render draws frame at one pixel per cell and scales the result to
// width x height.
func Render(frame Frame, width, height int) *image.RGBA {
	native := Rasterize(frame, frame.Steps(), frame.Bands())
	if native == nil {
		return nil
	}
	if b := native.Bounds(); b.Dx() == width && b.Dy() == height {
		return native
	}
	return Scale(native, width, height)
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if img == nil {
		return fmt.Errorf("nothing to encode")
	}
	return png.Encode(w, img)
}

// SavePNG writes img to path, creating parent directories as needed.
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
