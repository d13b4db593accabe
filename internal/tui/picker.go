// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"slices"
	"strings"

	"chords/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ScreenType defines which picker screen is active.
type ScreenType int

const (
	ListScreen ScreenType = iota
	RateScreen
)

// CommonSampleRates are offered on the rate screen alongside the device's
// own default.
var CommonSampleRates = []float64{44100, 48000, 88200, 96000}

// Selection is the outcome of the picker.
type Selection struct {
	Device     audio.Device
	SampleRate float64
}

// PickerModel lets the user choose a capture device and a sample rate.
// Devices without input channels are not offered.
type PickerModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	activeScreen  ScreenType

	rates     []float64
	rateIndex int

	selection *Selection
}

// NewPickerModel returns a picker over the capture-capable devices.
func NewPickerModel(devices []audio.Device) PickerModel {
	inputs := make([]audio.Device, 0, len(devices))
	for _, d := range devices {
		if d.CanCapture() {
			inputs = append(inputs, d)
		}
	}
	m := PickerModel{devices: inputs}
	if i := slices.IndexFunc(inputs, func(d audio.Device) bool { return d.DefaultInput }); i >= 0 {
		m.selectedIndex = i
	}
	return m
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles navigation between the device list and the rate screen.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-4, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-4, 1)
		}
		m.render()

	case tea.KeyMsg:
		if key.Matches(msg, quitKey) {
			return m, tea.Quit
		}
		if m.activeScreen == ListScreen {
			return m.updateList(msg)
		}
		return m.updateRates(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m PickerModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, upKey):
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case key.Matches(msg, downKey):
		if m.selectedIndex < len(m.devices)-1 {
			m.selectedIndex++
		}
	case key.Matches(msg, enterKey):
		if len(m.devices) == 0 {
			return m, nil
		}
		m.activeScreen = RateScreen
		m.rates = sampleRatesFor(m.devices[m.selectedIndex])
		m.rateIndex = slices.Index(m.rates, m.devices[m.selectedIndex].DefaultSampleRate)
		m.rateIndex = max(m.rateIndex, 0)
	}
	m.render()
	return m, nil
}

func (m PickerModel) updateRates(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, backKey):
		m.activeScreen = ListScreen
	case key.Matches(msg, upKey):
		if m.rateIndex > 0 {
			m.rateIndex--
		}
	case key.Matches(msg, downKey):
		if m.rateIndex < len(m.rates)-1 {
			m.rateIndex++
		}
	case key.Matches(msg, enterKey):
		m.selection = &Selection{
			Device:     m.devices[m.selectedIndex],
			SampleRate: m.rates[m.rateIndex],
		}
		return m, tea.Quit
	}
	m.render()
	return m, nil
}

// sampleRatesFor returns the common rates plus the device default, sorted.
func sampleRatesFor(d audio.Device) []float64 {
	rates := slices.Clone(CommonSampleRates)
	if d.DefaultSampleRate > 0 && !slices.Contains(rates, d.DefaultSampleRate) {
		rates = append(rates, d.DefaultSampleRate)
		slices.Sort(rates)
	}
	return rates
}

// Selection returns the confirmed choice, or nil if the user quit.
func (m PickerModel) Selection() *Selection {
	return m.selection
}

func (m *PickerModel) render() {
	if !m.ready {
		return
	}
	if m.activeScreen == ListScreen {
		m.viewport.SetContent(m.renderDevices())
	} else {
		m.viewport.SetContent(m.renderRates())
	}
}

// View renders the UI.
func (m PickerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = helpLine(upKey, downKey, enterKey, quitKey)
	} else {
		title = titleStyle.Render("Sample Rate")
		help = helpLine(upKey, downKey, enterKey, backKey, quitKey)
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m PickerModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		entry := fmt.Sprintf("[%d] %s (%d ch)\n", d.ID, d.Name, d.MaxInputChannels)
		entry += fmt.Sprintf("    %s, default %.0f Hz, latency %.1f-%.1f ms\n",
			d.HostAPI, d.DefaultSampleRate,
			d.LowInputLatency.Seconds()*1000, d.HighInputLatency.Seconds()*1000)
		if d.DefaultInput {
			entry += "    system default\n"
		}
		if i == m.selectedIndex {
			entry = highlightStyle.Render(entry)
		}
		sb.WriteString(entry)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m PickerModel) renderRates() string {
	var sb strings.Builder
	d := m.devices[m.selectedIndex]
	fmt.Fprintf(&sb, "Capture from: %s\n\n", d.Name)

	for i, rate := range m.rates {
		marker := " "
		if i == m.rateIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", marker, rate)
		if i == m.rateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// RunPicker shows the picker and returns the selection, or nil if the user
// quit without choosing.
func RunPicker(devices []audio.Device) (*Selection, error) {
	p := tea.NewProgram(NewPickerModel(devices), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(PickerModel).Selection(), nil
}
