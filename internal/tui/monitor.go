// SPDX-License-Identifier: MIT
/*
Package tui implements the terminal front ends: a live note monitor and an
input device picker. Both are Bubble Tea models.

The monitor never touches the audio thread directly. It polls the notes
mailbox on a timer, reads engine counters through atomics, and renders the
diagnostic journal that the logger writes into while the UI owns the
screen.
*/
package tui

import (
	"fmt"
	"strings"
	"time"

	"chords/internal/analysis"
	"chords/internal/log"
	"chords/internal/transport"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultRefresh matches the publisher's polling interval.
const DefaultRefresh = transport.DefaultInterval

// Controls is the part of a running engine the monitor can drive.
type Controls interface {
	ToggleGate() bool
	GateEnabled() bool
	GetGateThreshold() float64
	IsRecording() bool
	StartRecording(filename string) error
	StopRecording() error
	Callbacks() uint64
	LastBlockSize() int
}

// MonitorOptions configures a MonitorModel. Notes is required.
type MonitorOptions struct {
	Notes   analysis.NotesProvider
	Engine  Controls     // Optional; disables the gate and record keys when nil.
	Journal *log.Journal // Optional diagnostic log pane.

	Title      string
	Device     string
	SampleRate float64
	BlockSize  int
	WindowSize int
	Hop        int

	// RecordingName returns the file for a new recording.
	RecordingName func(time.Time) string

	Refresh time.Duration
	Now     func() time.Time
}

type tickMsg time.Time

// MonitorModel shows the most recent note set with engine status and the
// tail of the journal.
type MonitorModel struct {
	opts MonitorOptions

	notes    []string
	seq      uint64
	updated  time.Time
	status   string
	err      error
	viewport viewport.Model
	ready    bool
}

// NewMonitorModel returns a monitor reading from opts.Notes.
func NewMonitorModel(opts MonitorOptions) MonitorModel {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Title == "" {
		opts.Title = "Note Monitor"
	}
	return MonitorModel{
		opts:  opts,
		notes: make([]string, 0, 16),
	}
}

// Init starts the refresh timer.
func (m MonitorModel) Init() tea.Cmd {
	return m.tick()
}

func (m MonitorModel) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles timer ticks, resizes and key presses.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-12, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refreshJournal()

	case tickMsg:
		m.poll()
		m.refreshJournal()
		cmds = append(cmds, m.tick())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, quitKey):
			return m, tea.Quit

		case key.Matches(msg, gateKey):
			if m.opts.Engine != nil {
				if m.opts.Engine.ToggleGate() {
					m.status = fmt.Sprintf("Gate enabled at %.3f", m.opts.Engine.GetGateThreshold())
				} else {
					m.status = "Gate disabled"
				}
			}

		case key.Matches(msg, recordKey):
			if m.opts.Engine != nil {
				m.toggleRecording()
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// poll copies the latest snapshot when the sequence has moved.
func (m *MonitorModel) poll() {
	if m.opts.Notes == nil {
		return
	}
	notes, seq := m.opts.Notes.Load(m.notes)
	m.notes = notes
	if seq != m.seq {
		m.seq = seq
		m.updated = m.opts.Now()
	}
}

func (m *MonitorModel) toggleRecording() {
	e := m.opts.Engine
	if e.IsRecording() {
		if err := e.StopRecording(); err != nil {
			m.err = err
			return
		}
		m.status = "Recording stopped"
		return
	}

	if m.opts.RecordingName == nil {
		m.status = "Recording is not configured"
		return
	}
	name := m.opts.RecordingName(m.opts.Now())
	if err := e.StartRecording(name); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = "Recording to " + name
}

func (m *MonitorModel) refreshJournal() {
	if !m.ready || m.opts.Journal == nil {
		return
	}
	m.viewport.SetContent(strings.Join(m.opts.Journal.Tail(m.viewport.Height), "\n"))
	m.viewport.GotoBottom()
}

// Notes returns the note set currently displayed.
func (m MonitorModel) Notes() []string {
	return m.notes
}

// View renders the monitor.
func (m MonitorModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.opts.Title))
	sb.WriteString("\n\n")
	sb.WriteString(notesStyle.Render(transport.FormatNotes(m.notes)))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(m.renderPassInfo()))
	sb.WriteString("\n\n")
	sb.WriteString(infoStyle.Render(m.renderStream()))
	sb.WriteString("\n")
	if e := m.opts.Engine; e != nil {
		sb.WriteString(infoStyle.Render(m.renderEngine(e)))
		sb.WriteString("\n")
	}

	switch {
	case m.err != nil:
		sb.WriteString(alertStyle.Render("Error: " + m.err.Error()))
		sb.WriteString("\n")
	case m.status != "":
		sb.WriteString(highlightStyle.Render(m.status))
		sb.WriteString("\n")
	}

	if m.ready && m.opts.Journal != nil {
		sb.WriteString("\n")
		sb.WriteString(m.viewport.View())
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if m.opts.Engine != nil {
		sb.WriteString(helpLine(gateKey, recordKey, quitKey))
	} else {
		sb.WriteString(helpLine(quitKey))
	}
	return sb.String()
}

func (m MonitorModel) renderPassInfo() string {
	if m.seq == 0 {
		return "waiting for the first full window"
	}
	return fmt.Sprintf("pass #%d at %s", m.seq, m.updated.Format("15:04:05.000"))
}

func (m MonitorModel) renderStream() string {
	parts := make([]string, 0, 4)
	if m.opts.Device != "" {
		parts = append(parts, "Device: "+m.opts.Device)
	}
	if m.opts.SampleRate > 0 {
		parts = append(parts, fmt.Sprintf("Sample rate: %.0f Hz", m.opts.SampleRate))
	}
	if m.opts.WindowSize > 0 {
		parts = append(parts, fmt.Sprintf("Window: %d (hop %d)", m.opts.WindowSize, m.opts.Hop))
	}
	if m.opts.BlockSize > 0 {
		parts = append(parts, fmt.Sprintf("Block: %d frames", m.opts.BlockSize))
	}
	return strings.Join(parts, " • ")
}

func (m MonitorModel) renderEngine(e Controls) string {
	gate := "off"
	if e.GateEnabled() {
		gate = fmt.Sprintf("on (%.3f)", e.GetGateThreshold())
	}
	rec := "off"
	if e.IsRecording() {
		rec = "on"
	}
	return fmt.Sprintf("Gate: %s • Recording: %s • Callbacks: %d • Last block: %d frames",
		gate, rec, e.Callbacks(), e.LastBlockSize())
}

// RunMonitor runs the monitor on the alternate screen until the user quits.
func RunMonitor(opts MonitorOptions) error {
	p := tea.NewProgram(NewMonitorModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
