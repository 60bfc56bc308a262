package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/STTM-NSU/pricefeed/internal/history"
	"github.com/STTM-NSU/pricefeed/internal/logger"
	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/STTM-NSU/pricefeed/internal/notify"
	"github.com/STTM-NSU/pricefeed/internal/portfolio"
	"github.com/STTM-NSU/pricefeed/internal/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	p, err := portfolio.New(nil)
	require.NoError(t, err)
	alerts := notify.NewStore(0)
	term := terminal.New(p, history.NewMemory(), alerts, logger.Nop())
	term.OnQuotes(model.Batch{
		{Symbol: "EUR/USD", Name: "Euro / US Dollar", Exchange: model.Forex, LTP: 1.0845, IsUp: true},
	})

	out := &bytes.Buffer{}
	return &console{term: term, alerts: alerts, out: out}, out
}

func TestConsoleTrading(t *testing.T) {
	c, out := newConsole(t)
	ctx := context.Background()

	require.NoError(t, c.exec(ctx, "buy eur/usd 1000 1.08"))
	assert.Contains(t, out.String(), "BUY EUR/USD 1000 @ 1.0845")

	pos := c.term.Positions()
	require.Len(t, pos, 1)
	assert.Equal(t, 1.08, *pos[0].StopLoss)

	assert.ErrorIs(t, c.exec(ctx, "sl EUR/USD 1.09"), portfolio.InvalidStopLossError)
	require.NoError(t, c.exec(ctx, "sl EUR/USD off"))
	assert.Nil(t, c.term.Positions()[0].StopLoss)

	out.Reset()
	require.NoError(t, c.exec(ctx, "sell EUR/USD 400"))
	assert.Contains(t, out.String(), "SELL EUR/USD 400 @ 1.0845")
	assert.Equal(t, int64(600), c.term.Positions()[0].Quantity)

	out.Reset()
	require.NoError(t, c.exec(ctx, "history 1"))
	assert.Contains(t, out.String(), "SELL")
}

func TestConsoleErrors(t *testing.T) {
	c, _ := newConsole(t)
	ctx := context.Background()

	assert.NoError(t, c.exec(ctx, "   "))
	assert.ErrorIs(t, c.exec(ctx, "short EUR/USD 1"), UnknownCommandError)
	assert.Error(t, c.exec(ctx, "buy EUR/USD"))
	assert.Error(t, c.exec(ctx, "buy EUR/USD ten"))
	assert.ErrorIs(t, c.exec(ctx, "buy GBP/USD 1"), terminal.NoQuoteError)
	assert.ErrorIs(t, c.exec(ctx, "buy EUR/USD 0"), portfolio.InvalidQuantityError)
}

func TestConsoleAlerts(t *testing.T) {
	c, out := newConsole(t)
	ctx := context.Background()

	c.term.OnAlert(model.Alert{ID: "a", Type: model.SystemAlert, Title: "Maintenance", Message: "restart at 02:00"})
	require.NoError(t, c.exec(ctx, "alerts"))
	assert.Contains(t, out.String(), "restart at 02:00")
	assert.Contains(t, out.String(), "1 unread")

	require.NoError(t, c.exec(ctx, "read"))
	assert.Zero(t, c.alerts.UnreadCount())

	require.NoError(t, c.exec(ctx, "alerts clear"))
	assert.Empty(t, c.alerts.List())
}
