package chatservice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestSendPostsJSONMessage(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"reply":"hi there"}`)
	})

	reply, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "hi there", reply.Text)
	require.Empty(t, reply.Options)
	require.Equal(t, map[string]any{"message": "hello"}, gotBody)
}

func TestSendDecodesLanguageOptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"reply":"What language?","language_options":["English"," Spanish ",""]}`)
	})

	reply, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, []string{"English", "Spanish"}, reply.Options)
}

func TestSendKeepsSessionCookie(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			_, _ = io.WriteString(w, `{"reply":"first"}`)
			return
		}
		ck, err := r.Cookie("session")
		if err != nil || ck.Value != "abc" {
			http.Error(w, "no session", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"reply":"second"}`)
	})

	_, err := c.Send(context.Background(), "one")
	require.NoError(t, err)
	reply, err := c.Send(context.Background(), "two")
	require.NoError(t, err)
	require.Equal(t, "second", reply.Text)
}

func TestSendBasePathPrefix(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = io.WriteString(w, `{"reply":"ok"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/bot/")
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, "/bot/chat", path)
}

func TestSendMalformedReplies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>oops</html>`},
		{name: "missing reply", body: `{"message":"hi"}`},
		{name: "null reply", body: `{"reply":null}`},
		{name: "blank reply", body: `{"reply":"   "}`},
		{name: "wrong type", body: `{"reply":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Send(context.Background(), "hi")
			require.ErrorIs(t, err, ErrMalformedReply)
		})
	}
}

func TestSendStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.Send(context.Background(), "hi")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.Code)
	require.Equal(t, "upstream exploded", se.Body)
	require.NotErrorIs(t, err, ErrMalformedReply)
}

func TestSendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "hi")
	require.ErrorIs(t, err, ErrTransport)
}

func TestSendCancelledContext(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Send(ctx, "hi")
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrTransport)
}

func TestSendTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(30*time.Millisecond))
	defer close(release)

	_, err := c.Send(context.Background(), "hi")
	require.ErrorIs(t, err, ErrTransport)
}

func TestWithTimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{}

	c, err := New("http://chat.test", WithHTTPClient(shared), WithTimeout(time.Second))
	require.NoError(t, err)

	require.Zero(t, shared.Timeout)
	require.Equal(t, time.Second, c.http.Timeout)
	require.NotSame(t, shared, c.http)
}

func TestWithHTTPClientKeptWithoutTimeout(t *testing.T) {
	shared := &http.Client{Timeout: 5 * time.Second}

	c, err := New("http://chat.test", WithHTTPClient(shared))
	require.NoError(t, err)
	require.Same(t, shared, c.http)
}

func TestSendUserAgent(t *testing.T) {
	var ua string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ua = r.UserAgent()
		_, _ = io.WriteString(w, `{"reply":"ok"}`)
	}, WithUserAgent("casechat-test"))

	_, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)
	require.Equal(t, "casechat-test", ua)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "ftp://example.com", "/chat", "http://"} {
		_, err := New(raw)
		require.Error(t, err, "base url %q", raw)
	}
}

func TestUploadSendsMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "logo", r.FormValue("type"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "logo.png", hdr.Filename)
		require.Equal(t, "png-bytes", string(data))
		_, _ = io.WriteString(w, `{"message":"Logo uploaded successfully!"}`)
	})

	msg, err := c.Upload(context.Background(), "logo", path)
	require.NoError(t, err)
	require.Equal(t, "Logo uploaded successfully!", msg)
}

func TestUploadErrorBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"No file received."}`)
	})

	_, err := c.Upload(context.Background(), "", path)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadRequest, se.Code)
	require.Equal(t, "No file received.", se.Body)
}

func TestUploadErrorWithSuccessStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"Unsupported upload type."}`)
	})

	_, err := c.Upload(context.Background(), "poster", path)
	require.ErrorIs(t, err, ErrRejected)
	require.NotErrorIs(t, err, ErrMalformedReply)
	require.Contains(t, err.Error(), "Unsupported upload type.")
}

func TestUploadMissingFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.Upload(context.Background(), "logo", filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}
