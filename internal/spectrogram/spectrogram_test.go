package spectrogram

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"pelohub/pkg/utils"
)

var (
	black  = color.RGBA{A: 0xff}
	yellow = color.RGBA{R: 255, G: 255, A: 0xff}
)

func TestRamp(t *testing.T) {
	tests := []struct {
		v    float64
		want color.RGBA
	}{
		{0, black},
		{0.25, color.RGBA{R: 60, G: 10, B: 60, A: 0xff}},
		{0.5, color.RGBA{R: 120, G: 20, B: 120, A: 0xff}},
		{0.75, color.RGBA{R: 188, G: 138, B: 60, A: 0xff}},
		{1, yellow},
		{-3, black},
		{7, yellow},
		{math.NaN(), black},
	}
	for _, tt := range tests {
		if got := Ramp(tt.v); got != tt.want {
			t.Errorf("Ramp(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestRasterize(t *testing.T) {
	// Band 0 is the bottom row of the image.
	frame := FromBackend([][]float64{
		{0, 1},
		{1, 0},
	})
	img := Rasterize(frame, 4, 4)
	if img == nil {
		t.Fatal("Rasterize() = nil")
	}
	checks := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 3, black},  // band 0, step 0
		{3, 3, yellow}, // band 0, step 1
		{0, 0, yellow}, // band 1, step 0
		{3, 0, black},  // band 1, step 1
	}
	for _, c := range checks {
		if got := img.RGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestRasterize_Ragged(t *testing.T) {
	frame := FromBackend([][]float64{
		{1},
		{1, 1},
	})
	img := Rasterize(frame, 2, 2)
	if got := img.RGBAAt(1, 1); got != black {
		t.Errorf("missing cell rendered %v, want black", got)
	}
	if got := img.RGBAAt(0, 1); got != yellow {
		t.Errorf("present cell rendered %v, want yellow", got)
	}
}

func TestRasterize_Empty(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		w, h  int
	}{
		{"No bands", Frame{}, 10, 10},
		{"Empty rows", FromBackend([][]float64{{}, {}}), 10, 10},
		{"Zero width", FromBackend([][]float64{{1}}), 0, 10},
		{"Negative height", FromBackend([][]float64{{1}}), 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if img := Rasterize(tt.frame, tt.w, tt.h); img != nil {
				t.Errorf("Rasterize() = %v, want nil", img.Bounds())
			}
		})
	}
}

func TestSynthesize(t *testing.T) {
	samples := utils.GenerateComplexWave(16000, 16000)
	a := Synthesize(samples, 50, 40)
	b := Synthesize(samples, 50, 40)

	if a.Origin != OriginSynthetic {
		t.Errorf("Origin = %v, want synthetic", a.Origin)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Synthesize() is not deterministic")
	}
	if a.Bands() != 40 || a.Steps() != 50 {
		t.Fatalf("size = %dx%d, want 40x50", a.Bands(), a.Steps())
	}
	for _, row := range a.Bins {
		for _, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("value %v out of [0,1]", v)
			}
		}
	}
	// Intensity falls off towards the top.
	if a.Bins[0][10] < a.Bins[39][10] {
		t.Errorf("bottom band %v below top band %v", a.Bins[0][10], a.Bins[39][10])
	}

	if !Synthesize(nil, 10, 10).Empty() {
		t.Error("Synthesize(nil) should be empty")
	}
}

func TestCompute(t *testing.T) {
	samples := utils.GenerateSineWave(16000, 16000, 1000, 0.5)
	frame, err := Compute(samples, 16000, 500, 20, 64)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if frame.Origin != OriginSTFT {
		t.Errorf("Origin = %v, want stft", frame.Origin)
	}
	if frame.Bands() != 64 || frame.Steps() != 20 {
		t.Fatalf("size = %dx%d, want 64x20", frame.Bands(), frame.Steps())
	}

	peak, peakBand := -1.0, -1
	for b := range frame.Bins {
		v := frame.Bins[b][10]
		if v < 0 || v > 1 {
			t.Fatalf("value %v out of [0,1]", v)
		}
		if v > peak {
			peak, peakBand = v, b
		}
	}
	// 1 kHz sits in bin 32 of a 512-point FFT at 16 kHz, pooled into band 8.
	if peakBand < 6 || peakBand > 10 {
		t.Errorf("peak band = %d, want about 8", peakBand)
	}
}

func TestSTFTMagnitudes(t *testing.T) {
	stft, err := NewSTFT(512, 16000, Hann)
	if err != nil {
		t.Fatalf("NewSTFT() error = %v", err)
	}
	samples := utils.GenerateSineWave(512, 16000, 1000, 0.5)
	mags := stft.Magnitudes(samples)

	bin := utils.FindPeakBin(mags, 1, len(mags)-1)
	if bin != 32 {
		t.Errorf("peak bin = %d, want 32", bin)
	}
	if f := stft.FrequencyForBin(bin); f != 1000 {
		t.Errorf("FrequencyForBin(%d) = %v, want 1000", bin, f)
	}
}

func TestCompute_Silence(t *testing.T) {
	frame, err := Compute(utils.GenerateSilence(4096), 16000, 256, 8, 8)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for _, row := range frame.Bins {
		for _, v := range row {
			if v != 0 {
				t.Fatalf("silence produced %v", v)
			}
		}
	}
}

func TestCompute_Errors(t *testing.T) {
	if _, err := Compute(nil, 16000, 512, 10, 10); err == nil {
		t.Error("expected error for empty samples")
	}
	if _, err := Compute(utils.GenerateSilence(10), 16000, 512, 0, 10); err == nil {
		t.Error("expected error for zero steps")
	}
	if _, err := Compute(utils.GenerateSilence(10), 0, 512, 10, 10); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestCompute_Window(t *testing.T) {
	// Off-bin tone so the tapers leak differently into neighbouring bands.
	samples := utils.GenerateSineWave(8000, 16000, 1030, 0.5)

	hann, err := Compute(samples, 16000, 512, 8, 128)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	explicit, err := Compute(samples, 16000, 512, 8, 128, WithWindow(Hann))
	if err != nil {
		t.Fatalf("Compute(Hann) error = %v", err)
	}
	if !reflect.DeepEqual(hann, explicit) {
		t.Error("default window is not Hann")
	}

	nuttall, err := Compute(samples, 16000, 512, 8, 128, WithWindow(Nuttall))
	if err != nil {
		t.Fatalf("Compute(Nuttall) error = %v", err)
	}
	if reflect.DeepEqual(hann, nuttall) {
		t.Error("Nuttall window produced the same frame as Hann")
	}
}

func TestParseWindowFunc(t *testing.T) {
	for _, w := range []WindowFunc{BartlettHann, Blackman, BlackmanNuttall, Hann, Hamming, Lanczos, Nuttall} {
		if got, err := ParseWindowFunc(w.String()); err != nil || got != w {
			t.Errorf("ParseWindowFunc(%q) = %v, %v", w.String(), got, err)
		}
	}

	if w, err := ParseWindowFunc("Hanning"); err != nil || w != Hann {
		t.Errorf("ParseWindowFunc(Hanning) = %v, %v", w, err)
	}
	if w, err := ParseWindowFunc("blackman"); err != nil || w != Blackman {
		t.Errorf("ParseWindowFunc(blackman) = %v, %v", w, err)
	}
	if w, err := ParseWindowFunc("kaiser"); err == nil || w != Hann {
		t.Errorf("ParseWindowFunc(kaiser) = %v, %v; want Hann and error", w, err)
	}
}

func TestBandEnergies(t *testing.T) {
	samples := utils.GenerateSineWave(16000, 16000, 500, 0.8)
	bands, err := BandEnergies(samples, 16000, 512, SpeechBands())
	if err != nil {
		t.Fatalf("BandEnergies() error = %v", err)
	}
	loudest := 0
	for i, b := range bands {
		if b.Energy < 0 || b.Energy > 1 {
			t.Errorf("%s energy %v out of [0,1]", b.Name, b.Energy)
		}
		if b.Energy > bands[loudest].Energy {
			loudest = i
		}
	}
	if bands[loudest].Name != "formant1" {
		t.Errorf("loudest band = %s, want formant1", bands[loudest].Name)
	}
}

func TestDrawCursorAndScale(t *testing.T) {
	img := Rasterize(FromBackend([][]float64{{0, 0, 0, 0, 0}}), 10, 4)
	DrawCursor(img, 0.5)
	if got := img.RGBAAt(4, 0); got == black {
		t.Error("cursor not drawn at x=4")
	}
	if got := img.RGBAAt(0, 0); got != black {
		t.Errorf("pixel away from cursor = %v, want black", got)
	}
	DrawCursor(nil, 0.5)

	scaled := Scale(img, 20, 8)
	if b := scaled.Bounds(); b.Dx() != 20 || b.Dy() != 8 {
		t.Errorf("Scale() bounds = %v, want 20x8", b)
	}
	if Scale(img, 0, 8) != nil {
		t.Error("Scale() with zero width should be nil")
	}
}

func TestRender(t *testing.T) {
	frame := FromBackend([][]float64{
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	})

	img := Render(frame, 120, 40)
	if img == nil {
		t.Fatal("Render() = nil")
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 40 {
		t.Fatalf("Render() bounds = %v, want 120x40", b)
	}
	if b := img.Bounds(); b.Dx() == frame.Steps() || b.Dy() == frame.Bands() {
		t.Errorf("Render() kept the native %dx%d size", frame.Steps(), frame.Bands())
	}
	if got := img.RGBAAt(2, 20); got != black {
		t.Errorf("left edge = %v, want black", got)
	}
	if got := img.RGBAAt(117, 20); got != yellow {
		t.Errorf("right edge = %v, want yellow", got)
	}

	native := Render(frame, 4, 2)
	if want := Rasterize(frame, 4, 2); !reflect.DeepEqual(native, want) {
		t.Error("Render() at native size should equal Rasterize()")
	}
	if Render(Frame{}, 10, 10) != nil {
		t.Error("Render() of an empty frame should be nil")
	}
}

func TestWritePNG(t *testing.T) {
	img := Rasterize(FromBackend([][]float64{{0.2, 0.9}}), 6, 3)

	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}

	if err := WritePNG(&buf, nil); err == nil {
		t.Error("expected error for nil image")
	}

	path := filepath.Join(t.TempDir(), "nested", "out.png")
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG() error = %v", err)
	}
}
