package market

import "github.com/STTM-NSU/pricefeed/internal/model"

// DefaultInstruments is the instrument list the feed is seeded with when the
// config names none.
func DefaultInstruments() model.Batch {
	return model.Batch{
		{Symbol: "EUR/USD", Name: "Euro / US Dollar", Exchange: model.Forex, LTP: 1.0845, Change: 0.0012, PercentChange: 0.11},
		{Symbol: "GBP/USD", Name: "British Pound / US Dollar", Exchange: model.Forex, LTP: 1.2634, Change: -0.0045, PercentChange: -0.35},
		{Symbol: "USD/JPY", Name: "US Dollar / Japanese Yen", Exchange: model.Forex, LTP: 150.12, Change: 0.42, PercentChange: 0.28},
		{Symbol: "AUD/USD", Name: "Australian Dollar / US Dollar", Exchange: model.Forex, LTP: 0.6542, Change: -0.0018, PercentChange: -0.27},
		{Symbol: "USD/CAD", Name: "US Dollar / Canadian Dollar", Exchange: model.Forex, LTP: 1.3521, Change: 0.0008, PercentChange: 0.06},
		{Symbol: "USD/CHF", Name: "US Dollar / Swiss Franc", Exchange: model.Forex, LTP: 0.8812, Change: -0.0022, PercentChange: -0.25},
		{Symbol: "EUR/JPY", Name: "Euro / Japanese Yen", Exchange: model.Forex, LTP: 162.85, Change: 0.15, PercentChange: 0.09},
		{Symbol: "BTC/USD", Name: "Bitcoin / US Dollar", Exchange: model.Crypto, LTP: 62450.00, Change: -840.40, PercentChange: -1.33},
	}
}
