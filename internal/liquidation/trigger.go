package liquidation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/logger"
	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

const (
	_tradeIDPrefix = "sl-"
	_alertIDPrefix = "stoploss_"
	_alertTitle    = "Stop-Loss Triggered"
)

type PositionRemover interface {
	Remove(symbol string) (model.Position, bool)
}

type TradeSink interface {
	Append(ctx context.Context, t model.Trade) error
}

type AlertSink interface {
	Add(a model.Alert) model.Alert
}

// Trigger closes breached positions in full with a synthetic market sell.
type Trigger struct {
	positions PositionRemover
	trades    TradeSink
	alerts    AlertSink
	clock     clock.Clock
	logger    logger.Logger
}

type Option func(*Trigger)

func WithClock(c clock.Clock) Option {
	return func(t *Trigger) {
		t.clock = c
	}
}

func NewTrigger(positions PositionRemover, trades TradeSink, alerts AlertSink, logger logger.Logger, opts ...Option) *Trigger {
	t := &Trigger{
		positions: positions,
		trades:    trades,
		alerts:    alerts,
		clock:     clock.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Liquidate removes every breached position and records a completed SELL for
// its whole quantity at the triggering ltp. A position that is already gone
// is skipped, so a breach acts at most once. One alert covers the whole tick.
func (t *Trigger) Liquidate(ctx context.Context, breaches []model.Breach) []model.Trade {
	if len(breaches) == 0 {
		return nil
	}
	now := t.clock.Now().UTC()

	trades := make([]model.Trade, 0, len(breaches))
	for _, b := range breaches {
		pos, ok := t.positions.Remove(b.Position.Symbol)
		if !ok {
			t.logger.Debugf("position %s already closed, breach skipped", b.Position.Symbol)
			continue
		}

		trade := model.Trade{
			ID:        _tradeIDPrefix + uuid.NewString(),
			Symbol:    pos.Symbol,
			Side:      model.Sell,
			Price:     b.LTP,
			Quantity:  pos.Quantity,
			Status:    model.Completed,
			Timestamp: now,
			Auto:      true,
		}
		if pos.StopLoss != nil {
			trade.Note = "stop-loss " + formatPrice(*pos.StopLoss)
		}
		if err := t.trades.Append(ctx, trade); err != nil {
			t.logger.Errorf("%s: can't record liquidation trade %s", err, trade.ID)
		}
		t.logger.Infof("stop-loss liquidation: %s %d @ %s", trade.Symbol, trade.Quantity, formatPrice(trade.Price))
		trades = append(trades, trade)
	}

	if len(trades) > 0 {
		t.alerts.Add(liquidationAlert(trades, now))
	}
	return trades
}

func liquidationAlert(trades []model.Trade, now time.Time) model.Alert {
	a := model.Alert{
		ID:        _alertIDPrefix + strconv.FormatInt(now.UnixMilli(), 10),
		Type:      model.TradeAlert,
		Title:     _alertTitle,
		Timestamp: now,
	}
	if len(trades) == 1 {
		tr := trades[0]
		a.Message = fmt.Sprintf("%s auto-sold: %d at %s.", tr.Symbol, tr.Quantity, formatPrice(tr.Price))
		return a
	}

	parts := make([]string, 0, len(trades))
	for _, tr := range trades {
		parts = append(parts, fmt.Sprintf("%s %d at %s", tr.Symbol, tr.Quantity, formatPrice(tr.Price)))
	}
	a.Title = fmt.Sprintf("%s (%d positions)", _alertTitle, len(trades))
	a.Message = fmt.Sprintf("%d positions auto-sold: %s.", len(trades), strings.Join(parts, ", "))
	return a
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
