// Package widget implements the chat widget: it turns the text in an input
// control into a user entry, sends it to the chat service and appends the
// reply to a display surface.
//
// The widget owns no UI. Hosts hand it an Input and a Surface at
// construction and, when they run their own event loop, a Loop onto which
// reply handling is posted. All Input and Surface calls made by the widget
// are serialized.
package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jask/casechat/internal/chatservice"
)

var (
	ErrNoInput   = errors.New("widget: input control is required")
	ErrNoSurface = errors.New("widget: display surface is required")
	ErrNoService = errors.New("widget: chat service is required")
)

// KeyEnter is the key name that submits the draft.
const KeyEnter = "enter"

// Input is the message-entry field.
type Input interface {
	Value() string
	SetValue(string)
}

// Surface is the append-only message list.
type Surface interface {
	Append(Entry)
	ScrollToBottom()
}

// Service sends one message and returns the reply.
type Service interface {
	Send(ctx context.Context, message string) (chatservice.Reply, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, message string) (chatservice.Reply, error)

func (f ServiceFunc) Send(ctx context.Context, message string) (chatservice.Reply, error) {
	return f(ctx, message)
}

// Loop runs fn on the host's UI loop. Post must not block indefinitely once
// the host has stopped.
type Loop interface {
	Post(fn func())
}

type directLoop struct{}

func (directLoop) Post(fn func()) { fn() }

// Widget is a live chat widget bound to one input and one surface.
type Widget struct {
	input   Input
	surface Surface
	service Service
	loop    Loop
	log     *zap.Logger
	newID   func() string
	now     func() time.Time

	// mu serializes Input/Surface access and guards closed.
	mu       sync.Mutex
	closed   bool
	inflight int
	idle     *sync.Cond

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Widget.
type Option func(*Widget)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Widget) {
		if l != nil {
			w.log = l
		}
	}
}

// WithLoop routes reply handling through the host's loop. Without it replies
// are applied on the goroutine that received them.
func WithLoop(l Loop) Option {
	return func(w *Widget) {
		if l != nil {
			w.loop = l
		}
	}
}

// WithIDGenerator replaces the correlation id source.
func WithIDGenerator(fn func() string) Option {
	return func(w *Widget) {
		if fn != nil {
			w.newID = fn
		}
	}
}

// WithClock replaces the entry timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(w *Widget) {
		if fn != nil {
			w.now = fn
		}
	}
}

// New binds a widget to its host elements. A missing input, surface or
// service is a configuration error.
func New(input Input, surface Surface, service Service, opts ...Option) (*Widget, error) {
	if input == nil {
		return nil, ErrNoInput
	}
	if surface == nil {
		return nil, ErrNoSurface
	}
	if service == nil {
		return nil, ErrNoService
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		input:   input,
		surface: surface,
		service: service,
		loop:    directLoop{},
		log:     zap.NewNop(),
		newID:   uuid.NewString,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	w.idle = sync.NewCond(&w.mu)
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// TrimDraft strips the outer whitespace Submit ignores. A byte order mark
// counts as whitespace.
func TrimDraft(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// HandleKey reports whether the widget consumed key. Enter submits the draft
// and must not reach the input control; every other key is left alone.
func (w *Widget) HandleKey(key string) bool {
	if key != KeyEnter {
		return false
	}
	w.Submit()
	return true
}

// Submit sends the current draft. Whitespace-only drafts are ignored without
// touching the input. The user entry is appended and the input cleared before
// the request starts; the reply, or an error entry, follows when it resolves.
// Overlapping submits are allowed and their replies land in completion order,
// each carrying the ID of the entry it answers.
func (w *Widget) Submit() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	text := TrimDraft(w.input.Value())
	if text == "" {
		w.mu.Unlock()
		return
	}

	entry := Entry{ID: w.newID(), Role: RoleUser, Text: text, At: w.now()}
	w.surface.Append(entry)
	w.input.SetValue("")
	w.surface.ScrollToBottom()

	w.inflight++
	w.wg.Add(1)
	w.mu.Unlock()

	w.log.Debug("message submitted", zap.String("id", entry.ID), zap.Int("len", len(text)))
	go w.exchange(entry)
}

func (w *Widget) exchange(sent Entry) {
	defer w.wg.Done()

	start := time.Now()
	reply, err := w.service.Send(w.ctx, sent.Text)
	if w.ctx.Err() != nil {
		w.log.Debug("exchange abandoned", zap.String("id", sent.ID))
		w.finish()
		return
	}

	var next Entry
	if err != nil {
		w.log.Warn("message not delivered", zap.String("id", sent.ID), zap.Error(err))
		next = Entry{ID: w.newID(), ReplyTo: sent.ID, Role: RoleError, Text: describeFailure(err), At: w.now()}
	} else {
		w.log.Debug("reply received", zap.String("id", sent.ID), zap.Duration("elapsed", time.Since(start)))
		next = Entry{ID: w.newID(), ReplyTo: sent.ID, Role: RoleBot, Text: reply.Text, Options: reply.Options, At: w.now()}
	}

	w.loop.Post(func() {
		w.mu.Lock()
		if !w.closed {
			w.surface.Append(next)
			w.surface.ScrollToBottom()
		}
		w.mu.Unlock()
	})
	w.finish()
}

func (w *Widget) finish() {
	w.mu.Lock()
	w.inflight--
	if w.inflight == 0 {
		w.idle.Broadcast()
	}
	w.mu.Unlock()
}

// InFlight returns the number of exchanges still waiting on the service.
func (w *Widget) InFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inflight
}

// Wait blocks until no exchange is in flight. With a host loop, Wait returns
// once every reply has been posted, not necessarily applied.
func (w *Widget) Wait() {
	w.mu.Lock()
	for w.inflight > 0 {
		w.idle.Wait()
	}
	w.mu.Unlock()
}

// Close detaches the widget from its host. In-flight requests are cancelled
// and append nothing; later Submits are no-ops. Close is idempotent.
func (w *Widget) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	return nil
}
