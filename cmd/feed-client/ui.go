package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/STTM-NSU/pricefeed/internal/portfolio"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
)

func directional(up bool, s string) string {
	if up {
		return upStyle.Render(s)
	}
	return downStyle.Render(s)
}

func price(v float64, precision int32) string {
	return strconv.FormatFloat(v, 'f', int(precision), 64)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func renderQuotes(batch model.Batch) string {
	t := newTable("SYMBOL", "NAME", "EXCHANGE", "LTP", "CHANGE", "%")
	for _, q := range batch {
		p := q.Precision()
		t.Row(
			q.Symbol,
			q.Name,
			string(q.Exchange),
			price(q.LTP, p),
			directional(q.IsUp, price(q.Change, p)),
			directional(q.IsUp, price(q.PercentChange, 2)),
		)
	}
	return t.String()
}

func renderPositions(positions []model.Position, s portfolio.Summary) string {
	if len(positions) == 0 {
		return mutedStyle.Render("no open positions")
	}
	t := newTable("SYMBOL", "QTY", "AVG", "LTP", "VALUE", "P&L", "STOP-LOSS")
	for _, pos := range positions {
		p := model.PricePrecision(pos.Symbol, pos.Exchange)
		stop := "-"
		if pos.HasStopLoss() {
			stop = price(*pos.StopLoss, p)
		}
		t.Row(
			pos.Symbol,
			strconv.FormatInt(pos.Quantity, 10),
			price(pos.AvgPrice, p),
			price(pos.LTP, p),
			price(pos.CurrentValue, 2),
			directional(pos.PnL >= 0, price(pos.PnL, 2)),
			stop,
		)
	}
	summary := fmt.Sprintf("invested %s  value %s  P&L %s (%s%%)",
		price(s.Invested, 2),
		price(s.CurrentValue, 2),
		directional(s.PnL >= 0, price(s.PnL, 2)),
		directional(s.PnL >= 0, price(s.PnLPercent, 2)),
	)
	return t.String() + "\n" + summary
}

func renderTrades(trades []model.Trade) string {
	if len(trades) == 0 {
		return mutedStyle.Render("no trades")
	}
	t := newTable("TIME", "SYMBOL", "SIDE", "QTY", "PRICE", "STATUS", "NOTE")
	for _, tr := range trades {
		note := tr.Note
		if tr.Auto {
			note = strings.TrimSpace("auto " + note)
		}
		t.Row(
			tr.Timestamp.Local().Format("2006-01-02 15:04:05"),
			tr.Symbol,
			directional(tr.Side == model.Buy, string(tr.Side)),
			strconv.FormatInt(tr.Quantity, 10),
			strconv.FormatFloat(tr.Price, 'f', -1, 64),
			string(tr.Status),
			note,
		)
	}
	return t.String()
}

func renderAlert(a model.Alert) string {
	return fmt.Sprintf("%s %s %s",
		mutedStyle.Render(a.Timestamp.Local().Format("15:04:05")),
		alertStyle.Render("["+string(a.Type)+"] "+a.Title),
		a.Message,
	)
}
