package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// postedMsg carries widget work onto the bubbletea loop.
type postedMsg struct{ fn func() }

// teaLoop implements widget.Loop. Posted funcs wait in ch until Update picks
// them up through wait(); once stopped, Post drops work instead of blocking.
type teaLoop struct {
	ch   chan func()
	done chan struct{}
	once sync.Once
}

func newTeaLoop() *teaLoop {
	return &teaLoop{ch: make(chan func(), 16), done: make(chan struct{})}
}

func (l *teaLoop) Post(fn func()) {
	select {
	case l.ch <- fn:
	case <-l.done:
	}
}

func (l *teaLoop) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case fn := <-l.ch:
			return postedMsg{fn: fn}
		case <-l.done:
			return nil
		}
	}
}

func (l *teaLoop) stop() {
	l.once.Do(func() { close(l.done) })
}
