package model

import "strings"

type Exchange string

const (
	Forex  Exchange = "FOREX"
	Crypto Exchange = "CRYPTO"
)

type Quote struct {
	Symbol        string   `json:"symbol" yaml:"symbol"`
	Name          string   `json:"name" yaml:"name"`
	Exchange      Exchange `json:"exchange" yaml:"exchange"`
	LTP           float64  `json:"ltp" yaml:"ltp"`
	Change        float64  `json:"change" yaml:"change"`
	PercentChange float64  `json:"percentChange" yaml:"percent_change"`
	IsUp          bool     `json:"isUp" yaml:"-"`
}

// Precision is the number of decimals a quote's prices are stored with:
// 2 for yen and crypto pairs, 5 for everything else.
func (q Quote) Precision() int32 {
	return PricePrecision(q.Symbol, q.Exchange)
}

func PricePrecision(symbol string, exchange Exchange) int32 {
	if exchange == Crypto || strings.Contains(symbol, "JPY") || strings.Contains(symbol, "BTC") {
		return 2
	}
	return 5
}

// Batch is the complete quote set of one generation instant.
type Batch []Quote

func (b Batch) Clone() Batch {
	if b == nil {
		return nil
	}
	out := make(Batch, len(b))
	copy(out, b)
	return out
}

func (b Batch) Index() map[string]Quote {
	idx := make(map[string]Quote, len(b))
	for _, q := range b {
		idx[q.Symbol] = q
	}
	return idx
}
