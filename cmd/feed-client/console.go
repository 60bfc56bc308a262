package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/STTM-NSU/pricefeed/internal/notify"
	"github.com/STTM-NSU/pricefeed/internal/terminal"
)

const consoleHelp = `commands:
  buy SYMBOL QTY [STOP]    market buy at the live price
  sell SYMBOL QTY [STOP]   market sell at the live price
  sl SYMBOL PRICE|off      set or clear a stop-loss
  positions | p            open positions and P&L
  quotes | q               live quotes
  alerts [clear]           notifications, newest first, or drop them all
  read                     mark all notifications read
  history [N]              last N trades
  help`

var UnknownCommandError = errors.New("unknown command")

// syncWriter serialises output from the feed goroutine and the console.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type console struct {
	term   *terminal.Terminal
	alerts *notify.Store
	out    io.Writer
}

func (c *console) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "buy", "sell":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: %s SYMBOL QTY [STOP]", fields[0])
		}
		symbol := strings.ToUpper(args[0])
		qty, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid quantity", err)
		}
		var stop *float64
		if len(args) == 3 {
			v, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("%w: invalid stop-loss", err)
			}
			stop = &v
		}

		trade, err := c.trade(ctx, strings.ToLower(fields[0]), symbol, qty, stop)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s %s %d @ %s\n", trade.Side, trade.Symbol, trade.Quantity, strconv.FormatFloat(trade.Price, 'f', -1, 64))
	case "sl":
		if len(args) != 2 {
			return errors.New("usage: sl SYMBOL PRICE|off")
		}
		symbol := strings.ToUpper(args[0])
		if strings.EqualFold(args[1], "off") {
			return c.term.ClearStopLoss(symbol)
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("%w: invalid stop-loss", err)
		}
		if err := c.term.SetStopLoss(symbol, v); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "stop-loss for %s set to %s\n", symbol, args[1])
	case "positions", "p":
		fmt.Fprintln(c.out, renderPositions(c.term.Positions(), c.term.Summary()))
	case "quotes", "q":
		fmt.Fprintln(c.out, renderQuotes(c.term.Quotes()))
	case "alerts":
		if len(args) == 1 && strings.EqualFold(args[0], "clear") {
			c.alerts.Clear()
			return nil
		}
		for _, a := range c.alerts.List() {
			fmt.Fprintln(c.out, renderAlert(a))
		}
		fmt.Fprintf(c.out, "%d unread\n", c.alerts.UnreadCount())
	case "read":
		c.alerts.MarkAllRead()
	case "history":
		limit := 20
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: invalid limit", err)
			}
			limit = n
		}
		trades, err := c.term.History(ctx, limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, renderTrades(trades))
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	default:
		return fmt.Errorf("%w: %s", UnknownCommandError, fields[0])
	}
	return nil
}

func (c *console) trade(ctx context.Context, side, symbol string, qty int64, stop *float64) (model.Trade, error) {
	if side == "buy" {
		return c.term.Buy(ctx, symbol, qty, stop)
	}
	return c.term.Sell(ctx, symbol, qty, stop)
}
