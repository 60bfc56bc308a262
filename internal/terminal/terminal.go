package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/history"
	"github.com/STTM-NSU/pricefeed/internal/liquidation"
	"github.com/STTM-NSU/pricefeed/internal/logger"
	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/STTM-NSU/pricefeed/internal/notify"
	"github.com/STTM-NSU/pricefeed/internal/portfolio"
	"github.com/STTM-NSU/pricefeed/internal/valuation"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

const (
	_tradeIDPrefix  = "th-"
	_historyTimeout = 5 * time.Second
)

var NoQuoteError = errors.New("no quote for symbol")

// Terminal is one client session: the local quote mirror, the positions valued
// against it, and the manual trading actions. A quote batch is applied,
// valued and liquidated under one lock, so manual actions never interleave
// with a valuation pass.
type Terminal struct {
	mu     sync.Mutex
	quotes model.Batch
	index  map[string]model.Quote

	portfolio *portfolio.Portfolio
	history   history.Sink
	alerts    *notify.Store
	trigger   *liquidation.Trigger

	clock  clock.Clock
	logger logger.Logger
}

type Option func(*Terminal)

func WithClock(c clock.Clock) Option {
	return func(t *Terminal) {
		t.clock = c
	}
}

func New(p *portfolio.Portfolio, h history.Sink, alerts *notify.Store, logger logger.Logger, opts ...Option) *Terminal {
	t := &Terminal{
		index:     make(map[string]model.Quote),
		portfolio: p,
		history:   h,
		alerts:    alerts,
		clock:     clock.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.trigger = liquidation.NewTrigger(p, h, alerts, logger.Named("liquidation"), liquidation.WithClock(t.clock))
	return t
}

// OnQuotes replaces the quote mirror with batch, revalues every position and
// liquidates the ones whose stop-loss was hit.
func (t *Terminal) OnQuotes(batch model.Batch) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.quotes = batch.Clone()
	t.index = batch.Index()

	updated, breaches := valuation.Evaluate(batch, t.portfolio.Positions())
	t.portfolio.Apply(updated)

	if len(breaches) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), _historyTimeout)
	defer cancel()
	t.trigger.Liquidate(ctx, breaches)
}

func (t *Terminal) OnAlert(a model.Alert) {
	t.alerts.Add(a)
}

// Buy executes a market buy at the mirrored ltp.
func (t *Terminal) Buy(ctx context.Context, symbol string, qty int64, stopLoss *float64) (model.Trade, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	q, ok := t.index[symbol]
	if !ok {
		return model.Trade{}, fmt.Errorf("%w: %s", NoQuoteError, symbol)
	}
	if _, err := t.portfolio.Buy(q, qty, stopLoss); err != nil {
		return model.Trade{}, fmt.Errorf("%w: can't buy %s", err, symbol)
	}
	return t.record(ctx, symbol, model.Buy, q.LTP, qty), nil
}

// Sell executes a market sell at the mirrored ltp. Selling more than is held
// closes the position.
func (t *Terminal) Sell(ctx context.Context, symbol string, qty int64, stopLoss *float64) (model.Trade, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	q, ok := t.index[symbol]
	if !ok {
		return model.Trade{}, fmt.Errorf("%w: %s", NoQuoteError, symbol)
	}
	_, sold, err := t.portfolio.Sell(symbol, qty, q.LTP, stopLoss)
	if err != nil {
		return model.Trade{}, fmt.Errorf("%w: can't sell %s", err, symbol)
	}
	return t.record(ctx, symbol, model.Sell, q.LTP, sold), nil
}

// SetStopLoss checks against the position's ltp, which OnQuotes keeps equal
// to the mirrored quote under the same lock.
func (t *Terminal) SetStopLoss(symbol string, stopLoss float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.portfolio.SetStopLoss(symbol, stopLoss)
}

func (t *Terminal) ClearStopLoss(symbol string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.portfolio.ClearStopLoss(symbol)
}

func (t *Terminal) Quotes() model.Batch {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.quotes.Clone()
}

func (t *Terminal) Positions() []model.Position {
	return t.portfolio.Positions()
}

func (t *Terminal) Summary() portfolio.Summary {
	return t.portfolio.Summary()
}

func (t *Terminal) Alerts() []model.Alert {
	return t.alerts.List()
}

func (t *Terminal) History(ctx context.Context, limit int) ([]model.Trade, error) {
	return t.history.List(ctx, limit)
}

func (t *Terminal) record(ctx context.Context, symbol string, side model.Side, price float64, qty int64) model.Trade {
	trade := model.Trade{
		ID:        _tradeIDPrefix + uuid.NewString(),
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Status:    model.Completed,
		Timestamp: t.clock.Now().UTC(),
	}
	if err := t.history.Append(ctx, trade); err != nil {
		t.logger.Errorf("%s: can't record trade %s", err, trade.ID)
	}
	t.logger.Infof("%s %s %d @ %v", side, symbol, qty, price)
	return trade
}
