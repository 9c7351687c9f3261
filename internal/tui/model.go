// Package tui hosts the chat widget in a bubbletea terminal UI: a text input
// for drafts, a scrolling viewport for the transcript and a clickable send
// button.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	zone "github.com/lrstanley/bubblezone"
	"go.uber.org/zap"

	"github.com/jask/casechat/internal/transcript"
	"github.com/jask/casechat/internal/widget"
)

const (
	sendZoneID = "casechat-send"
	inputLimit = 4000

	// header, status, input row, help
	chromeRows = 4
)

// Options configure the terminal host.
type Options struct {
	Title          string
	Endpoint       string
	UserLabel      string
	BotLabel       string
	Markdown       bool
	MarkdownStyle  string
	ShowTimestamps bool
	Logger         *zap.Logger
}

// Model is the bubbletea model. It is used by pointer: the widget keeps
// handles to the model's input and viewport.
type Model struct {
	opts Options
	log  *zap.Logger

	keys     keyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	spinning bool

	transcript *transcript.Transcript
	widget     *widget.Widget
	loop       *teaLoop
	zones      *zone.Manager

	renderer      *glamour.TermRenderer
	rendererWidth int

	width  int
	height int
	ready  bool
	closed bool
	status string
}

// inputField exposes the textinput to the widget.
type inputField struct{ m *Model }

func (f inputField) Value() string { return f.m.input.Value() }

func (f inputField) SetValue(v string) {
	f.m.input.SetValue(v)
	f.m.input.CursorEnd()
}

// surface exposes the transcript viewport to the widget.
type surface struct{ m *Model }

func (s surface) Append(e widget.Entry) {
	s.m.transcript.Append(e)
	s.m.refresh()
}

func (s surface) ScrollToBottom() { s.m.viewport.GotoBottom() }

// New builds the model and binds a widget to it.
func New(service widget.Service, opts Options) (*Model, error) {
	if opts.Title == "" {
		opts.Title = "casechat"
	}
	if opts.UserLabel == "" {
		opts.UserLabel = "You"
	}
	if opts.BotLabel == "" {
		opts.BotLabel = "Bot"
	}
	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = "dark"
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	in := textinput.New()
	in.Placeholder = "Type a message and press Enter"
	in.CharLimit = inputLimit
	in.Prompt = ""
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	m := &Model{
		opts:       opts,
		log:        log,
		keys:       newKeyMap(),
		help:       help.New(),
		input:      in,
		viewport:   viewport.New(0, 0),
		spinner:    sp,
		transcript: transcript.New(),
		loop:       newTeaLoop(),
		zones:      zone.New(),
	}

	w, err := widget.New(inputField{m}, surface{m}, service,
		widget.WithLoop(m.loop),
		widget.WithLogger(log.Named("widget")),
	)
	if err != nil {
		m.zones.Close()
		return nil, fmt.Errorf("bind widget: %w", err)
	}
	m.widget = w
	return m, nil
}

// Transcript returns the entries shown so far.
func (m *Model) Transcript() *transcript.Transcript { return m.transcript }

// Close detaches the widget and stops background work. It is safe to call
// more than once and after the program has exited.
func (m *Model) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.loop.stop()
	err := m.widget.Close()
	m.zones.Close()
	return err
}
