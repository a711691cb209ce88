package tui

import (
	"fmt"
	"strings"
	"time"

	"pelohub/internal/audio"
	"pelohub/internal/i18n"
	"pelohub/internal/playback"
	"pelohub/internal/waveform"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	seekStep   = 0.05
	barLevels  = 8
	idleReload = 250 * time.Millisecond
)

var barGlyphs = []rune(" ▁▂▃▄▅▆▇█")

type playerKeys struct {
	toggle, back, forward, stop, quit key.Binding
}

var keys = playerKeys{
	toggle:  key.NewBinding(key.WithKeys(" ", "p")),
	back:    key.NewBinding(key.WithKeys("left", "h")),
	forward: key.NewBinding(key.WithKeys("right", "l")),
	stop:    key.NewBinding(key.WithKeys("s")),
	quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
}

// FrameMsg carries a clock frame into the player. Send it from the clock's
// frame loop with tea.Program.Send.
type FrameMsg playback.Position

// PlayerModel shows a waveform with a playback cursor and drives the clock
// from the keyboard.
type PlayerModel struct {
	title   string
	signal  *audio.Signal
	buckets waveform.Buckets
	clock   *playback.Clock
	tr      *i18n.Translator
	pos     playback.Position
	width   int
	err     error
}

// NewPlayerModel returns a player for sig. buckets is its waveform summary.
func NewPlayerModel(title string, sig *audio.Signal, buckets waveform.Buckets, clock *playback.Clock, tr *i18n.Translator) PlayerModel {
	return PlayerModel{
		title:   title,
		signal:  sig,
		buckets: buckets,
		clock:   clock,
		tr:      tr,
		pos:     clock.Tick(),
	}
}

type reloadMsg struct{}

func reloadCmd() tea.Cmd {
	return tea.Tick(idleReload, func(time.Time) tea.Msg { return reloadMsg{} })
}

// Init refreshes slowly so a paused view still notices external changes.
func (m PlayerModel) Init() tea.Cmd {
	return reloadCmd()
}

func (m PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case FrameMsg:
		m.pos = playback.Position(msg)

	case reloadMsg:
		m.pos = m.clock.Tick()
		return m, reloadCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.quit):
			return m, tea.Quit
		case key.Matches(msg, keys.toggle):
			m.err = m.clock.Toggle()
		case key.Matches(msg, keys.back):
			m.err = m.clock.SeekFraction(m.pos.Fraction() - seekStep)
		case key.Matches(msg, keys.forward):
			m.err = m.clock.SeekFraction(m.pos.Fraction() + seekStep)
		case key.Matches(msg, keys.stop):
			m.err = m.clock.Stop()
		default:
			if s := msg.String(); len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
				m.err = m.clock.SeekFraction(float64(s[0]-'0') / 10)
			}
		}
		m.pos = m.clock.Tick()
	}
	return m, nil
}

// Position returns the last position the view rendered.
func (m PlayerModel) Position() playback.Position {
	return m.pos
}

func (m PlayerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	if m.signal != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s • %s • %d Hz • %s",
			m.signal.Format, m.signal.BitDepthLabel, m.signal.SampleRate, m.signal.ChannelLabel())))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderWaveform())
	b.WriteString("\n")
	b.WriteString(m.renderSeekBar())
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s  %s / %s",
		highlightStyle.Render(m.stateText()),
		audio.FormatClock(m.pos.Elapsed),
		audio.FormatClock(m.pos.Total)))
	if m.err != nil {
		b.WriteString("  " + alertStyle.Render(m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(m.tr.T("player.help")))
	b.WriteString("\n")
	return b.String()
}

func (m PlayerModel) stateText() string {
	switch m.pos.State {
	case playback.Playing:
		return m.tr.T("player.playing")
	case playback.Paused:
		return m.tr.T("player.paused")
	default:
		return m.tr.T("player.stopped")
	}
}

// renderWaveform draws one glyph per bucket; bars left of the cursor are
// highlighted.
func (m PlayerModel) renderWaveform() string {
	return WaveformLine(m.buckets, m.pos.Fraction(), m.pos.State != playback.Stopped || m.pos.Elapsed > 0)
}

func (m PlayerModel) renderSeekBar() string {
	n := len(m.buckets)
	if n == 0 {
		return ""
	}
	cursor := m.buckets.CursorIndex(m.pos.Fraction())
	return dimStyle.Render(strings.Repeat("─", cursor)) +
		cursorStyle.Render("●") +
		dimStyle.Render(strings.Repeat("─", max(n-cursor-1, 0)))
}

// WaveformLine renders buckets as block glyphs. With showCursor set, bars up
// to the cursor are drawn in the accent color.
func WaveformLine(buckets waveform.Buckets, fraction float64, showCursor bool) string {
	if len(buckets) == 0 {
		return ""
	}
	cursor := -1
	if showCursor {
		cursor = buckets.CursorIndex(fraction)
	}
	var played, rest strings.Builder
	for i, v := range buckets {
		level := int(v / 100 * barLevels)
		if v > 0 && level == 0 {
			level = 1
		}
		g := barGlyphs[min(max(level, 0), barLevels)]
		if i <= cursor {
			played.WriteRune(g)
		} else {
			rest.WriteRune(g)
		}
	}
	return barStyle.Render(played.String()) + dimStyle.Render(rest.String())
}
