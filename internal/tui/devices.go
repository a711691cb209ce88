package tui

import (
	"fmt"
	"strings"

	"pelohub/internal/audio"
	"pelohub/internal/config"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// captureRates are offered on the configuration screen. 16 kHz is what the
// classifiers were trained on.
var captureRates = []float64{16000, 22050, 44100, 48000}

// listInputDevices is replaced in tests.
var listInputDevices = func() ([]audio.Device, error) {
	devices, err := audio.GetDevices()
	if err != nil {
		return nil, err
	}
	inputs := devices[:0]
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return inputs, nil
}

// Selection is the outcome of the device picker.
type Selection struct {
	Device     audio.Device
	SampleRate float64
	Channels   int
	Confirmed  bool // False when the user quit without choosing.
}

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

type pickerKeys struct {
	up, down, less, more, confirm, back, quit key.Binding
}

var picker = pickerKeys{
	up:      key.NewBinding(key.WithKeys("up", "k")),
	down:    key.NewBinding(key.WithKeys("down", "j")),
	less:    key.NewBinding(key.WithKeys("left", "h")),
	more:    key.NewBinding(key.WithKeys("right", "l")),
	confirm: key.NewBinding(key.WithKeys("enter")),
	back:    key.NewBinding(key.WithKeys("esc")),
	quit:    key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// DeviceListModel is the Bubble Tea model for choosing a capture device.
type DeviceListModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	rateIndex int
	channels  int
	confirmed bool
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

func (m DeviceListModel) Init() tea.Cmd {
	return fetchDevices
}

func fetchDevices() tea.Msg {
	devices, err := listInputDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = msg.devices
		m.selectedIndex = 0

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, picker.quit) {
			return m, tea.Quit
		}
		if m.activeScreen == ListScreen {
			m = m.updateList(msg)
		} else {
			var done bool
			if m, done = m.updateConfig(msg); done {
				return m, tea.Quit
			}
		}
	}

	m.refresh()
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DeviceListModel) updateList(msg tea.KeyMsg) DeviceListModel {
	switch {
	case key.Matches(msg, picker.up):
		m.selectedIndex = max(m.selectedIndex-1, 0)
	case key.Matches(msg, picker.down):
		m.selectedIndex = max(min(m.selectedIndex+1, len(m.devices)-1), 0)
	case key.Matches(msg, picker.confirm):
		if len(m.devices) > 0 {
			m.activeScreen = ConfigScreen
			m.rateIndex = 0
			m.channels = config.DefaultCaptureChannels
		}
	}
	return m
}

// updateConfig reports true once the user confirmed the configuration.
func (m DeviceListModel) updateConfig(msg tea.KeyMsg) (DeviceListModel, bool) {
	switch {
	case key.Matches(msg, picker.confirm):
		m.confirmed = true
		return m, true
	case key.Matches(msg, picker.back):
		m.activeScreen = ListScreen
	case key.Matches(msg, picker.up):
		m.rateIndex = max(m.rateIndex-1, 0)
	case key.Matches(msg, picker.down):
		m.rateIndex = min(m.rateIndex+1, len(captureRates)-1)
	case key.Matches(msg, picker.less):
		m.channels = 1
	case key.Matches(msg, picker.more):
		m.channels = min(2, max(m.devices[m.selectedIndex].MaxInputChannels, 1))
	}
	return m, false
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ListScreen {
		m.viewport.SetContent(m.renderDevices())
	} else {
		m.viewport.SetContent(m.renderDeviceConfig())
	}
}

func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	title := titleStyle.Render("Input Devices")
	help := infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	if m.activeScreen == ConfigScreen {
		title = titleStyle.Render("Capture Configuration")
		help = infoStyle.Render("↑/↓: Sample rate • ←/→: Channels • Enter: Record • Esc: Back • q: Quit")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		line := fmt.Sprintf("%s [%d] %s\n      %d ch, %.0f Hz native\n",
			marker(i == m.selectedIndex), d.ID, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
		if i == m.selectedIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	d := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Record from: %s\n\n", d.Name)
	sb.WriteString("Sample Rate:\n")
	for i, rate := range captureRates {
		line := fmt.Sprintf("  %s %.0f Hz", marker(i == m.rateIndex), rate)
		if rate == config.DefaultCaptureRate {
			line += dimStyle.Render("  (model rate)")
		}
		if i == m.rateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}

	layout := "Mono"
	if m.channels == 2 {
		layout = "Stereo"
	}
	fmt.Fprintf(&sb, "\nChannels: %s\n", highlightStyle.Render("◀ "+layout+" ▶"))
	return sb.String()
}

func marker(selected bool) string {
	if selected {
		return "▶"
	}
	return " "
}

// NewDeviceListModel returns a picker that loads devices on Init.
func NewDeviceListModel() DeviceListModel {
	return DeviceListModel{
		activeScreen: ListScreen,
		channels:     config.DefaultCaptureChannels,
	}
}

// Selection returns what the user picked.
func (m DeviceListModel) Selection() Selection {
	if !m.confirmed || len(m.devices) == 0 {
		return Selection{}
	}
	return Selection{
		Device:     m.devices[m.selectedIndex],
		SampleRate: captureRates[m.rateIndex],
		Channels:   m.channels,
		Confirmed:  true,
	}
}

// StartDeviceListUI runs the device picker and returns the chosen input
// device, sample rate and channel layout.
func StartDeviceListUI() (Selection, error) {
	p := tea.NewProgram(
		NewDeviceListModel(),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return Selection{}, err
	}
	m, ok := final.(DeviceListModel)
	if !ok {
		return Selection{}, fmt.Errorf("unexpected model %T", final)
	}
	if m.err != nil {
		return Selection{}, m.err
	}
	return m.Selection(), nil
}
