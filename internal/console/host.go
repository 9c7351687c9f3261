// Package console hosts the chat widget on plain line-oriented streams, for
// pipes, scripts and one-shot sends.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jask/casechat/internal/transcript"
	"github.com/jask/casechat/internal/widget"
)

const snippetWidth = 32

// Labels name the speakers in printed lines.
type Labels struct {
	User  string
	Bot   string
	Error string
}

// DefaultLabels give the familiar "You:" / "Bot:" prefixes.
var DefaultLabels = Labels{User: "You", Bot: "Bot", Error: "Error"}

// Host is both the widget's input field and its display surface. Entries
// are printed as they are appended; the stream is always at its bottom.
type Host struct {
	mu     sync.Mutex
	out    io.Writer
	labels Labels
	echo   bool
	draft  string
	log    *transcript.Transcript
	lastID string
	err    error
}

// NewHost prints to out. When echo is false user entries are recorded but
// not printed, which suits interactive terminals that already show typing.
func NewHost(out io.Writer, labels Labels, echo bool) *Host {
	if labels.User == "" {
		labels.User = DefaultLabels.User
	}
	if labels.Bot == "" {
		labels.Bot = DefaultLabels.Bot
	}
	if labels.Error == "" {
		labels.Error = DefaultLabels.Error
	}
	return &Host{out: out, labels: labels, echo: echo, log: transcript.New()}
}

func (h *Host) Value() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.draft
}

func (h *Host) SetValue(v string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draft = v
}

// Append records e and prints it.
func (h *Host) Append(e widget.Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.lastID
	h.log.Append(e)
	h.lastID = e.ID
	if e.Role == widget.RoleUser && !h.echo {
		return
	}
	line := h.format(e, prev)
	if _, err := io.WriteString(h.out, line); err != nil && h.err == nil {
		h.err = err
	}
}

// ScrollToBottom is a no-op: a stream never scrolls away from its end.
func (h *Host) ScrollToBottom() {}

// Transcript exposes everything appended so far.
func (h *Host) Transcript() *transcript.Transcript { return h.log }

// Err returns the first write error, if any.
func (h *Host) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// format renders e. prev is the ID of the entry appended just before it; a
// reply directly under its message needs no attribution.
func (h *Host) format(e widget.Entry, prev string) string {
	label := h.labels.User
	switch e.Role {
	case widget.RoleBot:
		label = h.labels.Bot
	case widget.RoleError:
		label = h.labels.Error
	}
	if e.IsReply() && e.ReplyTo != prev {
		if origin, ok := h.log.Lookup(e.ReplyTo); ok {
			label = fmt.Sprintf("%s (re: %q)", label, transcript.Snippet(origin.Text, snippetWidth))
		}
	}
	body := transcript.Sanitize(e.Text)
	var b strings.Builder
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(strings.ReplaceAll(body, "\n", "\n  "))
	b.WriteByte('\n')
	if e.Role == widget.RoleBot && len(e.Options) > 0 {
		opts := make([]string, len(e.Options))
		for i, o := range e.Options {
			opts[i] = transcript.Sanitize(o)
		}
		b.WriteString("  options: ")
		b.WriteString(strings.Join(opts, " | "))
		b.WriteByte('\n')
	}
	return b.String()
}

// RunOptions tune Run.
type RunOptions struct {
	// Sequential waits for each reply before reading the next line. Without
	// it lines are submitted as fast as they arrive and replies interleave.
	Sequential bool
}

// Run feeds every line of r to the widget as if it were typed and followed
// by Enter. At EOF it waits for outstanding replies. Blank lines are passed
// through and ignored by the widget.
func Run(ctx context.Context, r io.Reader, w *widget.Widget, h *Host, opts RunOptions) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.SetValue(sc.Text())
		w.HandleKey(widget.KeyEnter)
		if opts.Sequential {
			if err := wait(ctx, w); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := wait(ctx, w); err != nil {
		return err
	}
	return h.Err()
}

// Send delivers message as a single draft, newlines included, and waits for
// its reply.
func Send(ctx context.Context, w *widget.Widget, h *Host, message string) error {
	h.SetValue(message)
	w.HandleKey(widget.KeyEnter)
	if err := wait(ctx, w); err != nil {
		return err
	}
	return h.Err()
}

func wait(ctx context.Context, w *widget.Widget) error {
	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
