package console

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/jask/casechat/internal/chatservice"
	"github.com/jask/casechat/internal/widget"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newConsole(t *testing.T, svc widget.Service, echo bool) (*widget.Widget, *Host, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	h := NewHost(&out, DefaultLabels, echo)
	w, err := widget.New(h, h, svc, widget.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, h, &out
}

func echoService(prefix string) widget.Service {
	return widget.ServiceFunc(func(ctx context.Context, message string) (chatservice.Reply, error) {
		return chatservice.Reply{Text: prefix + message}, nil
	})
}

func TestRunPrintsExchange(t *testing.T) {
	w, h, out := newConsole(t, widget.ServiceFunc(func(ctx context.Context, message string) (chatservice.Reply, error) {
		return chatservice.Reply{Text: "hi there"}, nil
	}), true)

	err := Run(context.Background(), strings.NewReader("  hello  \n\n   \n"), w, h, RunOptions{})
	require.NoError(t, err)

	require.Equal(t, "You: hello\nBot: hi there\n", out.String())
	require.Equal(t, 2, h.Transcript().Len())
	// the trailing blank draft was ignored, so nothing cleared it
	require.Equal(t, "   ", h.Value())
}

func TestSendKeepsMultilineDraftWhole(t *testing.T) {
	var mu sync.Mutex
	var got []string
	w, h, out := newConsole(t, widget.ServiceFunc(func(ctx context.Context, message string) (chatservice.Reply, error) {
		mu.Lock()
		got = append(got, message)
		mu.Unlock()
		return chatservice.Reply{Text: "noted"}, nil
	}), true)

	err := Send(context.Background(), w, h, "- pricing\n- churn")
	require.NoError(t, err)

	require.Equal(t, []string{"- pricing\n- churn"}, got)
	require.Equal(t, "You: - pricing\n  - churn\nBot: noted\n", out.String())
	require.Empty(t, h.Value())
}

func TestRunSequentialKeepsPairs(t *testing.T) {
	w, h, out := newConsole(t, echoService("re: "), true)

	err := Run(context.Background(), strings.NewReader("one\ntwo\nthree\n"), w, h, RunOptions{Sequential: true})
	require.NoError(t, err)

	want := "You: one\nBot: re: one\nYou: two\nBot: re: two\nYou: three\nBot: re: three\n"
	require.Equal(t, want, out.String())
}

func TestRunConcurrentDeliversEveryReply(t *testing.T) {
	w, h, _ := newConsole(t, echoService("re: "), false)

	err := Run(context.Background(), strings.NewReader("a\nb\nc\nd\n"), w, h, RunOptions{})
	require.NoError(t, err)

	entries := h.Transcript().Entries()
	require.Len(t, entries, 8)
	users := 0
	for _, e := range entries {
		if e.Role == widget.RoleUser {
			users++
			continue
		}
		origin, ok := h.Transcript().Lookup(e.ReplyTo)
		require.True(t, ok)
		require.Equal(t, "re: "+origin.Text, e.Text)
	}
	require.Equal(t, 4, users)
}

func TestRunReportsFailureAsErrorLine(t *testing.T) {
	svc := widget.ServiceFunc(func(ctx context.Context, message string) (chatservice.Reply, error) {
		return chatservice.Reply{}, &chatservice.StatusError{Code: http.StatusInternalServerError, Status: "500 Internal Server Error"}
	})
	w, h, out := newConsole(t, svc, true)

	err := Run(context.Background(), strings.NewReader("hello\n"), w, h, RunOptions{})
	require.NoError(t, err)

	require.Equal(t, "You: hello\nError: Message not delivered: the chat service answered 500 Internal Server Error.\n", out.String())
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	w, h, out := newConsole(t, echoService(""), true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, strings.NewReader("hello\n"), w, h, RunOptions{})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, out.String())
}

func TestHostNoEchoHidesUserLines(t *testing.T) {
	w, h, out := newConsole(t, echoService("ok "), false)

	require.NoError(t, Run(context.Background(), strings.NewReader("ping\n"), w, h, RunOptions{}))
	require.Equal(t, "Bot: ok ping\n", out.String())
}

func TestHostAttributesDetachedReplies(t *testing.T) {
	var out bytes.Buffer
	h := NewHost(&out, Labels{User: "Me", Bot: "Casebot"}, true)

	h.Append(widget.Entry{ID: "u1", Role: widget.RoleUser, Text: "first question"})
	h.Append(widget.Entry{ID: "u2", Role: widget.RoleUser, Text: "second"})
	h.Append(widget.Entry{ID: "b2", ReplyTo: "u2", Role: widget.RoleBot, Text: "answer two"})
	h.Append(widget.Entry{ID: "b1", ReplyTo: "u1", Role: widget.RoleBot, Text: "answer one"})

	want := strings.Join([]string{
		"Me: first question",
		"Me: second",
		"Casebot: answer two",
		`Casebot (re: "first question"): answer one`,
		"",
	}, "\n")
	require.Equal(t, want, out.String())
}

func TestHostSanitizesAndIndents(t *testing.T) {
	var out bytes.Buffer
	h := NewHost(&out, DefaultLabels, true)

	h.Append(widget.Entry{ID: "b1", Role: widget.RoleBot, Text: "\x1b[2J**Summary**\r\nline two\x07", Options: []string{"English", "\x1b[31mFrench"}})

	want := "Bot: **Summary**\n  line two\n  options: English | French\n"
	require.Equal(t, want, out.String())
	require.NotContains(t, out.String(), "\x1b")
}
