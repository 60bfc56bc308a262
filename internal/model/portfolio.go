package model

import "time"

type Position struct {
	Symbol        string   `json:"symbol" yaml:"symbol"`
	Name          string   `json:"name" yaml:"name"`
	Exchange      Exchange `json:"exchange" yaml:"exchange"`
	Quantity      int64    `json:"quantity" yaml:"quantity"`
	AvgPrice      float64  `json:"avgPrice" yaml:"avg_price"`
	InvestedValue float64  `json:"investedValue" yaml:"-"`
	LTP           float64  `json:"ltp" yaml:"ltp"`
	CurrentValue  float64  `json:"currentValue" yaml:"-"`
	PnL           float64  `json:"totalPnL" yaml:"-"`
	IsUp          bool     `json:"isUp" yaml:"-"`
	StopLoss      *float64 `json:"stopLoss,omitempty" yaml:"stop_loss"`
}

func (p Position) HasStopLoss() bool {
	return p.StopLoss != nil && *p.StopLoss > 0
}

// Revalue recomputes the derived fields from quantity, invested value and ltp.
func (p *Position) Revalue(ltp float64) {
	p.LTP = ltp
	p.CurrentValue = ltp * float64(p.Quantity)
	p.PnL = p.CurrentValue - p.InvestedValue
}

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type TradeStatus string

const (
	Completed TradeStatus = "COMPLETED"
)

type Trade struct {
	ID        string      `json:"id" db:"id"`
	Symbol    string      `json:"symbol" db:"symbol"`
	Side      Side        `json:"type" db:"side"`
	Price     float64     `json:"price" db:"price"`
	Quantity  int64       `json:"quantity" db:"quantity"`
	Status    TradeStatus `json:"status" db:"status"`
	Timestamp time.Time   `json:"time" db:"ts"`
	Auto      bool        `json:"auto,omitempty" db:"auto"` // stop-loss exit
	Note      string      `json:"note,omitempty" db:"note"`
}

// Breach is a position whose stop-loss was hit by the sampled ltp of a tick.
type Breach struct {
	Position Position
	LTP      float64
}
