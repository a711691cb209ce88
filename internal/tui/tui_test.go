package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pelohub/internal/analysislog"
	"pelohub/internal/audio"
	"pelohub/internal/i18n"
	"pelohub/internal/inference"
	"pelohub/internal/playback"
	"pelohub/internal/waveform"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestPlayer(t *testing.T) (PlayerModel, *playback.Clock, *time.Duration) {
	t.Helper()
	now := new(time.Duration)
	clock := playback.NewClock(10*time.Second, playback.WithNow(func() time.Duration { return *now }))
	t.Cleanup(func() { clock.Dispose() })
	buckets := waveform.Summarize(make([]float32, 1000), 20)
	sig := &audio.Signal{SampleRate: 16000, Format: audio.FormatWAV, BitDepthLabel: "16-bit", Channels: [][]float32{{0}}}
	return NewPlayerModel("word.wav", sig, buckets, clock, i18n.New("en")), clock, now
}

func near(got, want time.Duration) bool {
	d := got - want
	return d > -time.Microsecond && d < time.Microsecond
}

func update(m PlayerModel, msg tea.Msg) PlayerModel {
	next, _ := m.Update(msg)
	return next.(PlayerModel)
}

func TestPlayerKeys(t *testing.T) {
	m, clock, now := newTestPlayer(t)

	m = update(m, keyMsg(" "))
	if m.Position().State != playback.Playing {
		t.Fatalf("space: state = %v", m.Position().State)
	}

	*now = 2 * time.Second
	m = update(m, keyMsg(" "))
	if pos := m.Position(); pos.State != playback.Paused || pos.Elapsed != 2*time.Second {
		t.Fatalf("pause: %+v", pos)
	}

	m = update(m, keyMsg("right"))
	if got := clock.Tick().Elapsed; !near(got, 2500*time.Millisecond) {
		t.Errorf("right: elapsed = %v, want 2.5s", got)
	}
	m = update(m, keyMsg("left"))
	m = update(m, keyMsg("left"))
	if got := clock.Tick().Elapsed; !near(got, 1500*time.Millisecond) {
		t.Errorf("left x2: elapsed = %v, want 1.5s", got)
	}

	m = update(m, keyMsg("7"))
	if got := clock.Tick().Elapsed; !near(got, 7*time.Second) {
		t.Errorf("7: elapsed = %v, want 7s", got)
	}

	m = update(m, keyMsg("s"))
	if pos := m.Position(); pos.State != playback.Stopped || pos.Elapsed != 0 {
		t.Errorf("stop: %+v", pos)
	}

	if _, cmd := m.Update(keyMsg("q")); cmd == nil {
		t.Error("q did not quit")
	}
}

func TestPlayerFrameAndView(t *testing.T) {
	m, _, _ := newTestPlayer(t)
	m = update(m, FrameMsg{State: playback.Playing, Elapsed: 5 * time.Second, Total: 10 * time.Second})
	if m.Position().Fraction() != 0.5 {
		t.Errorf("fraction = %v", m.Position().Fraction())
	}
	view := m.View()
	for _, want := range []string{"word.wav", "0:05 / 0:10", "Playing", "16000 Hz", "Mono"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}

	m.err = errors.New("device lost")
	if !strings.Contains(m.View(), "device lost") {
		t.Error("error not shown")
	}
}

func TestWaveformLine(t *testing.T) {
	if WaveformLine(nil, 0.5, true) != "" {
		t.Error("empty buckets rendered")
	}
	line := WaveformLine(waveform.Buckets{0, 50, 100, 1}, 0, false)
	for _, g := range []string{" ", "▄", "█", "▁"} {
		if !strings.Contains(line, g) {
			t.Errorf("line %q lacks %q", line, g)
		}
	}
}

func TestRenderLogs(t *testing.T) {
	tr := i18n.New("en")
	if out := RenderLogs(nil, tr); !strings.Contains(out, "No analysis history yet") {
		t.Errorf("empty state missing:\n%s", out)
	}

	sig := &audio.Signal{Channels: [][]float32{{0}, {0}}, SampleRate: 44100, Duration: 3 * time.Second, Format: audio.FormatMP3, BitDepthLabel: "Compressed"}
	e := analysislog.NewEntry(analysislog.SourceRecord, "take.mp3", sig, inference.Result{
		Label:      inference.LabelNonDysarthric,
		Confidence: 0.88,
		Features:   inference.Features{Jitter: "--", Shimmer: "--", HNR: "--"},
	}, "VGG-16")
	out := RenderLogs([]analysislog.Entry{e}, tr)
	for _, want := range []string{"VGG-16", "take.mp3", "Microphone", "0:03", "44100 Hz", "Stereo", "Non-Dysarthric", "88.0%", "None"} {
		if !strings.Contains(out, want) {
			t.Errorf("log table lacks %q:\n%s", want, out)
		}
	}
}

func TestRenderEvaluation(t *testing.T) {
	acc := 0.95
	eval := &inference.Evaluation{
		Summary: []inference.ModelSummary{
			{Model: "CNN-STFT", Dataset: "UASpeech", Accuracy: &acc},
			{Model: "VGG-16", Dataset: "UASpeech"},
		},
		Efficiency: map[string]inference.Efficiency{"CNN-STFT": {Params: "1.2M", Size: "4.8MB"}},
	}
	out := RenderEvaluation(eval, i18n.New("en"))
	for _, want := range []string{"CNN-STFT", "95.00%", "1.2M", "VGG-16", "N/A"} {
		if !strings.Contains(out, want) {
			t.Errorf("evaluation lacks %q:\n%s", want, out)
		}
	}
}

func TestRenderConfusion(t *testing.T) {
	if got := RenderConfusion(inference.ModelDetail{}); !strings.Contains(got, "N/A") {
		t.Errorf("empty matrix = %q", got)
	}
	out := RenderConfusion(inference.ModelDetail{ConfusionMatrix: [][]int{{40, 10}, {5, 45}}})
	for _, want := range []string{"40", "45", "class 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("matrix lacks %q:\n%s", want, out)
		}
	}
}

func TestDeviceSelection(t *testing.T) {
	m := NewDeviceListModel()
	m.devices = []audio.Device{{ID: 0, Name: "Mic", MaxInputChannels: 1, DefaultSampleRate: 48000}}

	if sel := m.Selection(); sel.Confirmed {
		t.Error("selection confirmed before enter")
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("confirm did not quit")
	}
	sel := next.(DeviceListModel).Selection()
	if !sel.Confirmed || sel.Device.Name != "Mic" || sel.SampleRate != captureRates[1] || sel.Channels != 1 {
		t.Errorf("selection = %+v", sel)
	}
}

func TestDeviceSelectionChannels(t *testing.T) {
	tests := []struct {
		name        string
		maxChannels int
		want        int
	}{
		{"stereo device", 2, 2},
		{"mono device", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDeviceListModel()
			m.devices = []audio.Device{{ID: 3, Name: "Interface", MaxInputChannels: tt.maxChannels}}

			var next tea.Model = m
			for _, k := range []tea.KeyType{tea.KeyEnter, tea.KeyRight, tea.KeyEnter} {
				next, _ = next.Update(tea.KeyMsg{Type: k})
			}
			sel := next.(DeviceListModel).Selection()
			if sel.Channels != tt.want || sel.SampleRate != 16000 {
				t.Errorf("selection = %+v, want %d channels at 16 kHz", sel, tt.want)
			}
		})
	}
}

func TestDeviceSelectionQuit(t *testing.T) {
	m := NewDeviceListModel()
	m.devices = []audio.Device{{ID: 0, Name: "Mic", MaxInputChannels: 1}}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q did not quit")
	}
	if next.(DeviceListModel).Selection().Confirmed {
		t.Error("quitting confirmed a selection")
	}
}
