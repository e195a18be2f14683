// Package listsync keeps a local collection in step with the server. The
// collection is only ever replaced wholesale by a fresh fetch; mutations go
// to the server and are followed by a refresh.
package listsync

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"medibook-console/internal/exceptions"
	"medibook-console/internal/model"
)

var (
	ErrSuperseded = errors.New("listsync: response superseded by a newer refresh")
	ErrClosed     = errors.New("listsync: controller closed")
)

type State int

const (
	Idle State = iota
	Loading
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "idle"
}

type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a point-in-time copy of a controller.
type Snapshot[T any] struct {
	State   State
	Items   []T
	Message *model.Message
	Err     error
}

type Option func(*options)

type options struct {
	timeout  time.Duration
	failText string
	log      *zap.Logger
}

// WithTimeout bounds every fetch and mutation issued by the controller.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithFailureText sets the message shown when a refresh fails without a
// server-supplied reason.
func WithFailureText(s string) Option { return func(o *options) { o.failText = s } }

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

type Controller[T any] struct {
	mu      sync.Mutex
	fetch   Fetcher[T]
	state   State
	items   []T
	msg     *model.Message
	loadMsg bool
	err     error
	issued  uint64
	closed  bool

	life   context.Context
	cancel context.CancelFunc
	opts   options
}

func New[T any](fetch Fetcher[T], opts ...Option) *Controller[T] {
	o := options{failText: "Failed to load data.", log: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	life, cancel := context.WithCancel(context.Background())
	return &Controller[T]{fetch: fetch, life: life, cancel: cancel, opts: o}
}

// Refresh fetches and replaces the collection. A failed fetch keeps the
// previous items. If a newer Refresh started meanwhile the result is dropped
// and ErrSuperseded returned.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.issued++
	tok := c.issued
	c.state = Loading
	fetch := c.fetch
	c.mu.Unlock()

	rctx, done := c.requestContext(ctx)
	items, err := fetch(rctx)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return ErrClosed
	case tok != c.issued:
		c.opts.log.Debug("Controller.Refresh discarded stale response",
			zap.Uint64("token", tok),
			zap.Uint64("latest", c.issued),
		)
		return ErrSuperseded
	}

	if err != nil {
		c.state = Error
		c.err = err
		if !exceptions.IsUnauthorized(err) {
			c.msg = model.Failure(exceptions.Message(err, c.opts.failText))
			c.loadMsg = true
		}
		c.opts.log.Warn("Controller.Refresh failed", zap.Error(err))
		return err
	}

	c.items = items
	c.state = Success
	c.err = nil
	if c.loadMsg {
		c.msg, c.loadMsg = nil, false
	}
	c.opts.log.Debug("Controller.Refresh succeeded", zap.Int("items", len(items)))
	return nil
}

// Mutate runs op against the server. On failure the error is shown and no
// refresh happens; on success okText is shown and the collection refreshed.
func (c *Controller[T]) Mutate(ctx context.Context, op func(context.Context) error, okText, failText string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	rctx, done := c.requestContext(ctx)
	err := op(rctx)
	done()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		if !exceptions.IsUnauthorized(err) {
			c.msg, c.loadMsg = model.Failure(exceptions.Message(err, failText)), false
		}
		c.mu.Unlock()
		c.opts.log.Warn("Controller.Mutate failed", zap.Error(err))
		return err
	}
	c.msg, c.loadMsg = model.Success(okText), false
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Reload swaps the fetcher, typically after a filter change, and refreshes.
func (c *Controller[T]) Reload(ctx context.Context, fetch Fetcher[T]) error {
	c.mu.Lock()
	c.fetch = fetch
	c.mu.Unlock()
	return c.Refresh(ctx)
}

func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	var msg *model.Message
	if c.msg != nil {
		m := *c.msg
		msg = &m
	}
	return Snapshot[T]{State: c.state, Items: slices.Clone(c.items), Message: msg, Err: c.err}
}

// Notify replaces the current message, e.g. with a local validation failure.
func (c *Controller[T]) Notify(m *model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg, c.loadMsg = m, false
}

func (c *Controller[T]) DismissMessage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msg, c.loadMsg = nil, false
}

// Close aborts in-flight requests. Anything resolving afterwards is ignored.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// requestContext ties a request to both the caller and the controller's
// lifetime, bounded by the configured timeout.
func (c *Controller[T]) requestContext(ctx context.Context) (context.Context, func()) {
	rctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.life, cancel)
	if c.opts.timeout <= 0 {
		return rctx, func() { stop(); cancel() }
	}
	tctx, tcancel := context.WithTimeout(rctx, c.opts.timeout)
	return tctx, func() { tcancel(); stop(); cancel() }
}
