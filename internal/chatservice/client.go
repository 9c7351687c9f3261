// Package chatservice is the HTTP client for the chat backend: one JSON
// request per message, one JSON reply back.
package chatservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

const (
	chatPath   = "/chat"
	uploadPath = "/upload"

	maxBodyBytes    = 1 << 20
	maxExcerptBytes = 256
)

var (
	// ErrTransport wraps failures to reach the service at all.
	ErrTransport = errors.New("chatservice: transport failure")
	// ErrMalformedReply is returned when a 2xx body cannot be used as a reply.
	ErrMalformedReply = errors.New("chatservice: malformed reply")
	// ErrRejected carries an error message the service sent with a 2xx status.
	ErrRejected = errors.New("chatservice: rejected")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chatservice: http %s", e.Status)
	}
	return fmt.Sprintf("chatservice: http %s: %s", e.Status, e.Body)
}

// Reply is one decoded answer from the service.
type Reply struct {
	Text    string
	Options []string
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply   *string  `json:"reply"`
	Options []string `json:"language_options,omitempty"`
}

// Client talks to a single chat service base URL.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	log       *zap.Logger

	timeout    time.Duration
	hasTimeout bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Jar is kept as given.
// The client is never modified; options that need a different setting work on
// a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout, c.hasTimeout = d, true }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = strings.TrimSpace(ua) }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a client for baseURL, which must be an absolute http(s) URL.
// The default http.Client carries a cookie jar so session-keyed services keep
// their conversation state between requests.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q: want absolute http(s) url", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		base: u,
		http: &http.Client{Jar: jar},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hasTimeout && c.http.Timeout != c.timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// Send posts message to /chat and decodes the reply.
func (c *Client) Send(ctx context.Context, message string) (Reply, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return Reply{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(chatPath), bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	raw, err := c.do(req)
	if err != nil {
		return Reply{}, err
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if out.Reply == nil {
		return Reply{}, fmt.Errorf("%w: missing reply field", ErrMalformedReply)
	}
	if strings.TrimSpace(*out.Reply) == "" {
		return Reply{}, fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}
	return Reply{Text: *out.Reply, Options: cleanOptions(out.Options)}, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// a cancelled caller is not a transport problem
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	c.log.Debug("chat service responded",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: excerpt(raw)}
	}
	return raw, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = c.base.Path + path
	return u.String()
}

func cleanOptions(in []string) []string {
	var out []string
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func excerpt(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxExcerptBytes {
		s = strings.ToValidUTF8(s[:maxExcerptBytes], "") + "…"
	}
	return s
}
