package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/logger"
	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/STTM-NSU/pricefeed/internal/protocol"
	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
)

const (
	_backoffDefault          = 3 * time.Second
	_handshakeTimeoutDefault = 10 * time.Second
	_readTimeoutDefault      = 10 * time.Second
	_pongWriteTimeout        = time.Second
)

var EmptyURLError = errors.New("feed url is empty")

// Handler receives everything the push channel delivers. OnQuotes gets the
// complete quote set for both initial state and updates.
type Handler interface {
	OnQuotes(batch model.Batch)
	OnAlert(a model.Alert)
}

type Config struct {
	URL              string
	Backoff          time.Duration
	HandshakeTimeout time.Duration
	// ReadTimeout is how long the channel may stay silent before the
	// connection is treated as lost. The server ticks far more often.
	ReadTimeout time.Duration
}

func (c *Config) Setup() error {
	if c.URL == "" {
		return EmptyURLError
	}
	if c.Backoff <= 0 {
		c.Backoff = _backoffDefault
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = _handshakeTimeoutDefault
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = _readTimeoutDefault
	}
	return nil
}

// Consumer keeps a push connection open and reconnects after a fixed backoff.
// Stop cancels it for good, including a reconnect that is already scheduled.
type Consumer struct {
	cfg     Config
	handler Handler
	dialer  *websocket.Dialer
	clock   clock.Clock
	logger  logger.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	mu        sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
}

type Option func(*Consumer)

func WithClock(c clock.Clock) Option {
	return func(cons *Consumer) {
		cons.clock = c
	}
}

func NewConsumer(cfg Config, handler Handler, logger logger.Logger, opts ...Option) (*Consumer, error) {
	if err := cfg.Setup(); err != nil {
		return nil, fmt.Errorf("%w: can't setup feed consumer", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		cfg:     cfg,
		handler: handler,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		clock:  clock.New(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run blocks until ctx is done or Stop is called.
func (c *Consumer) Run(ctx context.Context) error {
	unlink := context.AfterFunc(ctx, c.Stop)
	defer unlink()

	for {
		err := c.session()
		if c.ctx.Err() != nil {
			return nil
		}
		c.logger.Warnf("%s: feed channel lost, reconnecting in %s", err, c.cfg.Backoff)

		timer := c.clock.Timer(c.cfg.Backoff)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if c.ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Consumer) Connected() bool {
	return c.connected.Load()
}

func (c *Consumer) session() error {
	conn, _, err := c.dialer.DialContext(c.ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("%w: can't dial %s", err, c.cfg.URL)
	}
	if !c.attach(conn) {
		_ = conn.Close()
		return context.Canceled
	}
	defer c.detach()

	conn.SetPingHandler(func(appData string) error {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			return err
		}
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(_pongWriteTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	c.connected.Store(true)
	c.logger.Infof("feed connected to %s", c.cfg.URL)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			return fmt.Errorf("%w: can't set read deadline", err)
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("%w: can't read feed", err)
		}
		msg, err := protocol.Decode(raw)
		if err != nil {
			c.logger.Debugf("%s: feed message discarded", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Consumer) dispatch(msg protocol.Message) {
	switch msg.Type {
	case protocol.InitialState, protocol.Update:
		c.handler.OnQuotes(msg.Quotes)
	case protocol.Notification:
		c.handler.OnAlert(msg.Alert)
	}
}

// attach publishes conn for Stop unless the consumer is already stopped.
func (c *Consumer) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil {
		return false
	}
	c.conn = conn
	return true
}

func (c *Consumer) detach() {
	c.connected.Store(false)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
