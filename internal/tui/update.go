package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loop.wait())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case postedMsg:
		msg.fn()
		m.status = ""
		return m, m.loop.wait()

	case spinner.TickMsg:
		if m.widget.InFlight() == 0 {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if err := m.Close(); err != nil {
			m.log.Warn("close widget", zap.Error(err))
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Complete):
		m.completeOption()
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	// Enter belongs to the widget and never reaches the input field.
	if m.widget.HandleKey(msg.String()) {
		return m, m.afterSubmit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
		if z := m.zones.Get(sendZoneID); z != nil && z.InBounds(msg) {
			m.widget.Submit()
			return m.afterSubmit()
		}
		return nil
	}
	if tea.MouseEvent(msg).IsWheel() {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// afterSubmit starts the spinner when an exchange is outstanding.
func (m *Model) afterSubmit() tea.Cmd {
	if m.widget.InFlight() == 0 || m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) completeOption() {
	opt, ok := closestOption(m.input.Value(), m.transcript.LastOptions())
	if !ok {
		m.status = "no options offered"
		return
	}
	m.status = ""
	m.input.SetValue(opt)
	m.input.CursorEnd()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width

	frameW, frameH := transcriptStyle.GetFrameSize()
	vpW := max(1, width-frameW)
	vpH := max(1, height-chromeRows-frameH)
	m.viewport.Width = vpW
	m.viewport.Height = vpH

	// the input gets whatever the prompt, gap and send button leave
	m.input.Width = max(1, width-lipgloss.Width(promptText)-lipgloss.Width(sendLabel)-4)

	if m.opts.Markdown && m.rendererWidth != vpW {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.opts.MarkdownStyle),
			glamour.WithWordWrap(vpW),
		)
		if err != nil {
			m.log.Warn("markdown renderer unavailable", zap.Error(err))
			r = nil
		}
		m.renderer = r
		m.rendererWidth = vpW
	}

	m.ready = true
	m.refresh()
	m.viewport.GotoBottom()
}
