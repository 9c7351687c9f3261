package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jask/casechat/internal/transcript"
	"github.com/jask/casechat/internal/widget"
)

const (
	promptText = "› "
	sendLabel  = "Send"

	snippetWidth = 32
)

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		transcriptStyle.Render(m.viewport.View()),
		m.renderStatus(),
		m.renderInputRow(),
		m.help.View(m.keys),
	)
	return m.zones.Scan(body)
}

// refresh re-renders the transcript into the viewport. The scroll offset is
// left alone; the widget decides when to scroll.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
}

func (m *Model) renderHeader() string {
	title := headerStyle.Render(m.opts.Title)
	meta := headerMetaStyle.Render(m.opts.Endpoint)
	gap := max(0, m.width-lipgloss.Width(title)-lipgloss.Width(meta))
	return title + headerMetaStyle.Render(strings.Repeat(" ", gap)) + meta
}

func (m *Model) renderStatus() string {
	if n := m.widget.InFlight(); n > 0 {
		word := "reply"
		if n > 1 {
			word = "replies"
		}
		return statusStyle.Render(fmt.Sprintf("%s waiting for %d %s", m.spinner.View(), n, word))
	}
	if m.status != "" {
		return warnStyle.Render(m.status)
	}
	if opts := m.transcript.LastOptions(); len(opts) > 0 {
		return optionsStyle.Render("options: " + strings.Join(sanitizeAll(opts), " | ") + "  (tab to pick)")
	}
	return ""
}

func (m *Model) renderInputRow() string {
	btn := sendBtnIdle
	if widget.TrimDraft(m.input.Value()) != "" {
		btn = sendBtnStyle
	}
	return promptStyle.Render(promptText) +
		m.input.View() + "  " +
		m.zones.Mark(sendZoneID, btn.Render(sendLabel))
}

func (m *Model) renderTranscript() string {
	entries := m.transcript.Entries()
	if len(entries) == 0 {
		return emptyHintText.Render("No messages yet.")
	}
	width := max(1, m.viewport.Width)
	blocks := make([]string, 0, len(entries))
	for i, e := range entries {
		blocks = append(blocks, m.renderEntry(i, e, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderEntry(i int, e widget.Entry, width int) string {
	var head strings.Builder
	switch e.Role {
	case widget.RoleUser:
		head.WriteString(userLabelStyle.Render(m.opts.UserLabel))
	case widget.RoleBot:
		head.WriteString(botLabelStyle.Render(m.opts.BotLabel))
	default:
		head.WriteString(errorLabelStyle.Render("Error"))
	}
	if m.opts.ShowTimestamps && !e.At.IsZero() {
		head.WriteString(" " + timeStyle.Render(e.At.Format("15:04:05")))
	}
	if origin, ok := m.transcript.Origin(i); ok {
		head.WriteString(" " + attribStyle.Render(fmt.Sprintf("re: %q", transcript.Snippet(origin.Text, snippetWidth))))
	}

	text := transcript.Sanitize(e.Text)
	var body string
	switch {
	case e.Role == widget.RoleBot && m.renderer != nil:
		body = m.renderMarkdown(text, width)
	case e.Role == widget.RoleError:
		body = errorBodyStyle.Width(width).Render(text)
	default:
		body = bodyStyle.Width(width).Render(text)
	}
	return head.String() + "\n" + body
}

// renderMarkdown falls back to plain text when glamour fails or panics on
// odd input.
func (m *Model) renderMarkdown(text string, width int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn("markdown render panicked", zap.Any("panic", r))
			out = bodyStyle.Width(width).Render(text)
		}
	}()
	rendered, err := m.renderer.Render(text)
	if err != nil {
		m.log.Debug("markdown render failed", zap.Error(err))
		return bodyStyle.Width(width).Render(text)
	}
	return strings.Trim(rendered, "\n")
}

func sanitizeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = transcript.Sanitize(s)
	}
	return out
}
