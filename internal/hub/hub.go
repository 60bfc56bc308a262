package hub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/logger"
	"github.com/STTM-NSU/pricefeed/internal/market"
	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/STTM-NSU/pricefeed/internal/protocol"
	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"go.uber.org/ratelimit"
)

const (
	_intervalDefault     = 1 * time.Second
	_writeTimeoutDefault = 10 * time.Second
	_pingPeriodDefault   = 30 * time.Second
	_outboxLimitDefault  = 64
	_maxInboundSize      = 512
)

type Config struct {
	Interval            time.Duration
	WriteTimeout        time.Duration
	PingPeriod          time.Duration
	HandshakesPerSecond int
	OutboxLimit         int
}

func (c *Config) Setup() {
	if c.Interval <= 0 {
		c.Interval = _intervalDefault
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = _writeTimeoutDefault
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = _pingPeriodDefault
	}
	if c.OutboxLimit <= 0 {
		c.OutboxLimit = _outboxLimitDefault
	}
}

// Hub owns the generator and fans every tick out to the connected subscribers.
// Run is the only caller of the generator, so quote state has a single writer.
type Hub struct {
	gen      *market.Generator
	cfg      Config
	logger   logger.Logger
	clock    clock.Clock
	upgrader websocket.Upgrader
	limiter  ratelimit.Limiter

	mu           sync.RWMutex
	latest       model.Batch
	initialFrame []byte
	subscribers  map[*subscriber]struct{}
	nextID       uint64
}

type Option func(*Hub)

func WithClock(c clock.Clock) Option {
	return func(h *Hub) {
		h.clock = c
	}
}

func New(gen *market.Generator, cfg Config, logger logger.Logger, opts ...Option) (*Hub, error) {
	cfg.Setup()
	h := &Hub{
		gen:    gen,
		cfg:    cfg,
		logger: logger,
		clock:  clock.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subscribers: make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	if cfg.HandshakesPerSecond > 0 {
		h.limiter = ratelimit.New(cfg.HandshakesPerSecond, ratelimit.WithClock(h.clock))
	} else {
		h.limiter = ratelimit.NewUnlimited()
	}

	if err := h.setLatest(gen.Snapshot()); err != nil {
		return nil, err
	}

	return h, nil
}

// Run ticks the generator on a fixed interval until ctx is done. Each tick is
// broadcast before the next one is computed.
func (h *Hub) Run(ctx context.Context) error {
	ticker := h.clock.Ticker(h.cfg.Interval)
	defer ticker.Stop()
	defer h.Close()

	h.logger.Infof("tick loop started, interval %s", h.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			h.logger.Infof("tick loop stopped")
			return nil
		case <-ticker.C:
			h.Step()
		}
	}
}

// Step generates one tick and dispatches it to every subscriber.
func (h *Hub) Step() {
	batch, alerts := h.gen.Tick()
	h.broadcast(batch, alerts)
}

func (h *Hub) broadcast(batch model.Batch, alerts []model.Alert) {
	update, err := protocol.EncodeUpdate(batch)
	if err != nil {
		h.logger.Errorf("%s: can't encode update, tick skipped", err)
		return
	}
	alertFrames := make([][]byte, 0, len(alerts))
	for _, a := range alerts {
		frame, err := protocol.EncodeNotification(a)
		if err != nil {
			h.logger.Errorf("%s: can't encode alert %s", err, a.ID)
			continue
		}
		alertFrames = append(alertFrames, frame)
	}
	initial, err := protocol.EncodeInitialState(batch)
	if err != nil {
		h.logger.Errorf("%s: can't encode initial state", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = batch
	h.initialFrame = initial
	for sub := range h.subscribers {
		sub.out.pushTick(update, alertFrames)
	}
	if len(alertFrames) > 0 {
		h.logger.Debugf("tick broadcast with %d alerts to %d subscribers", len(alertFrames), len(h.subscribers))
	}
}

// Publish sends an out-of-band alert (account, system) to every subscriber.
func (h *Hub) Publish(a model.Alert) error {
	frame, err := protocol.EncodeNotification(a)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers {
		sub.out.push(frame)
	}
	return nil
}

// Snapshot returns the quote set of the last broadcast tick.
func (h *Hub) Snapshot() model.Batch {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest.Clone()
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
		delete(h.subscribers, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.limiter.Take()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("%s: can't upgrade connection from %s", err, r.RemoteAddr)
		return
	}

	sub, initial := h.register(conn)
	h.logger.Debugf("subscriber %d connected from %s", sub.id, r.RemoteAddr)

	go sub.writeLoop(initial)
	sub.readLoop()
}

// register adds the subscriber and captures the initial state under the same
// lock, so every update it receives later is newer than its initial state.
func (h *Hub) register(conn *websocket.Conn) (*subscriber, []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := newSubscriber(h.nextID, conn, h)
	h.subscribers[sub] = struct{}{}
	return sub, h.initialFrame
}

func (h *Hub) remove(sub *subscriber, reason error) {
	h.mu.Lock()
	_, ok := h.subscribers[sub]
	delete(h.subscribers, sub)
	h.mu.Unlock()

	if ok {
		h.logger.Debugf("subscriber %d removed: %v (dropped frames %d)", sub.id, reason, sub.out.droppedCount())
	}
	sub.close()
}

func (h *Hub) setLatest(batch model.Batch) error {
	initial, err := protocol.EncodeInitialState(batch)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = batch
	h.initialFrame = initial
	return nil
}
