package signout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/pkg/broadcast"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Signal is the payload carried on the auth channel.
type Signal string

// SignalSignOut is the only recognised signal.
const SignalSignOut Signal = "signOut"

// DefaultChannelName names the broadcast channel shared by all tabs.
const DefaultChannelName = "auth"

// Handler runs when another tab signs out.
type Handler func(ctx context.Context)

// Channel is one tab's end of the cross-tab sign-out channel.
type Channel struct {
	bus    broadcast.Broadcaster[Signal]
	sub    broadcast.Subscriber[Signal]
	tabID  string
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[uint64]Handler
	nextID   uint64

	// pending holds at most one undelivered sign-out; bursts coalesce.
	pending   chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures a Channel.
type Option func(*Channel)

// WithTabID overrides the generated tab identifier.
func WithTabID(id string) Option {
	return func(c *Channel) {
		if id != "" {
			c.tabID = id
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// Open subscribes to bus and starts delivering sign-out signals from other
// tabs. The subscription lives until Close or until ctx is cancelled.
func Open(ctx context.Context, bus broadcast.Broadcaster[Signal], opts ...Option) *Channel {
	c := &Channel{
		bus:      bus,
		tabID:    uuid.NewString(),
		logger:   logger.Discard(),
		handlers: make(map[uint64]Handler),
		pending:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("signout"), logger.TabID(c.tabID))

	ctx, c.cancel = context.WithCancel(ctx)
	c.sub = bus.Subscribe(ctx)
	c.wg.Add(2)
	go c.listen(ctx)
	go c.dispatch(ctx)

	return c
}

// TabID identifies this end of the channel.
func (c *Channel) TabID() string {
	return c.tabID
}

// AnnounceSignOut tells every other tab to sign out.
func (c *Channel) AnnounceSignOut(ctx context.Context) error {
	c.logger.DebugContext(ctx, "announcing sign-out")
	return c.bus.Broadcast(ctx, broadcast.Message[Signal]{
		Data:   SignalSignOut,
		Source: c.tabID,
	})
}

// OnSignOut registers fn and returns a function that removes it.
func (c *Channel) OnSignOut(fn Handler) (unregister func()) {
	if fn == nil {
		return func() {}
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

// Close stops delivery and releases the subscription. Handlers must not call
// Close.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.sub.Close()
		c.wg.Wait()
	})
	return err
}

// listen drains the subscription without running handlers, so a slow
// handler never lets the broadcaster drop this tab.
func (c *Channel) listen(ctx context.Context) {
	defer c.wg.Done()

	for msg := range c.sub.Receive(ctx) {
		if msg.Source == c.tabID {
			continue
		}
		if msg.Data != SignalSignOut {
			c.logger.DebugContext(ctx, "ignoring unknown signal", logger.Event(string(msg.Data)))
			continue
		}

		c.logger.InfoContext(ctx, "sign-out received", slog.String("source", msg.Source))
		select {
		case c.pending <- struct{}{}:
		default:
		}
	}

	if ctx.Err() == nil {
		c.logger.WarnContext(ctx, "sign-out channel closed by broadcaster")
	}
}

func (c *Channel) dispatch(ctx context.Context) {
	defer c.wg.Done()

	tabCtx := ContextWithTabID(ctx, c.tabID)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.pending:
			for _, fn := range c.snapshot() {
				fn(tabCtx)
			}
		}
	}
}

func (c *Channel) snapshot() []Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Handler, 0, len(c.handlers))
	for _, fn := range c.handlers {
		out = append(out, fn)
	}
	return out
}
