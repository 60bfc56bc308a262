package market

import (
	"testing"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func hasAtMostDecimals(v float64, places int32) bool {
	d := decimal.NewFromFloat(v)
	return d.Equal(d.Round(places))
}

func TestTickShape(t *testing.T) {
	g, err := NewGenerator(DefaultInstruments(), NewSource(42))
	require.NoError(t, err)

	for i := 0; i < 2000; i++ {
		batch, _ := g.Tick()
		require.Len(t, batch, 8)
		for _, q := range batch {
			p := q.Precision()
			require.Truef(t, hasAtMostDecimals(q.LTP, p), "%s ltp %v has more than %d decimals", q.Symbol, q.LTP, p)
			require.Truef(t, hasAtMostDecimals(q.Change, p), "%s change %v has more than %d decimals", q.Symbol, q.Change, p)
			require.Truef(t, hasAtMostDecimals(q.PercentChange, 2), "%s percent %v", q.Symbol, q.PercentChange)
			require.Greater(t, q.LTP, 0.0)
			require.Equal(t, q.Change >= 0, q.IsUp)
		}
	}
}

func TestPrecisionByInstrument(t *testing.T) {
	assert.EqualValues(t, 2, model.PricePrecision("USD/JPY", model.Forex))
	assert.EqualValues(t, 2, model.PricePrecision("BTC/USD", model.Crypto))
	assert.EqualValues(t, 2, model.PricePrecision("ETH/USD", model.Crypto))
	assert.EqualValues(t, 5, model.PricePrecision("EUR/USD", model.Forex))
}

func TestPriceStaysPositive(t *testing.T) {
	g, err := NewGenerator(model.Batch{
		{Symbol: "TST/USD", Exchange: model.Forex, LTP: 0.00001},
		{Symbol: "TST/JPY", Exchange: model.Forex, LTP: 0.01},
	}, constSource(0))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		batch, _ := g.Tick()
		assert.Equal(t, 0.00001, batch[0].LTP)
		assert.Equal(t, 0.01, batch[1].LTP)
		assert.False(t, batch[0].IsUp)
	}
}

func TestDriftIsBoundedByPrecision(t *testing.T) {
	seed := model.Batch{
		{Symbol: "EUR/USD", Exchange: model.Forex, LTP: 1.0845},
		{Symbol: "USD/JPY", Exchange: model.Forex, LTP: 150.12},
	}
	g, err := NewGenerator(seed, NewSource(7))
	require.NoError(t, err)

	prev := g.Snapshot()
	for i := 0; i < 500; i++ {
		batch, _ := g.Tick()
		// half a unit of the second-to-last decimal plus rounding slack
		assert.InDelta(t, prev[0].LTP, batch[0].LTP, 0.00006)
		assert.InDelta(t, prev[1].LTP, batch[1].LTP, 0.06)
		prev = batch
	}
}

func TestSameSeedSameWalk(t *testing.T) {
	a, err := NewGenerator(DefaultInstruments(), NewSource(99))
	require.NoError(t, err)
	b, err := NewGenerator(DefaultInstruments(), NewSource(99))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		ba, _ := a.Tick()
		bb, _ := b.Tick()
		require.Equal(t, ba, bb)
	}
}

func TestMovementAlert(t *testing.T) {
	mock := clock.NewMock()
	now := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	mock.Set(now)

	g, err := NewGenerator(model.Batch{
		{Symbol: "EUR/USD", Name: "Euro / US Dollar", Exchange: model.Forex, LTP: 1.0845},
	}, constSource(0.999), WithClock(mock), WithAlertThreshold(0.001))
	require.NoError(t, err)

	batch, alerts := g.Tick()
	require.Len(t, alerts, 1)
	assert.Equal(t, 1.08455, batch[0].LTP)
	assert.Equal(t, model.MarketAlert, alerts[0].Type)
	assert.Equal(t, "Market Movement", alerts[0].Title)
	assert.Equal(t, "EUR/USD is surging! Current price: 1.08455", alerts[0].Message)
	assert.Equal(t, "market_1771581600000_EUR/USD", alerts[0].ID)
	assert.True(t, now.Equal(alerts[0].Timestamp))
}

func TestNoAlertBelowThreshold(t *testing.T) {
	g, err := NewGenerator(DefaultInstruments(), constSource(0.999))
	require.NoError(t, err)

	_, alerts := g.Tick()
	assert.Empty(t, alerts)
}

func TestSnapshotIsCopy(t *testing.T) {
	g, err := NewGenerator(DefaultInstruments(), NewSource(1))
	require.NoError(t, err)

	snap := g.Snapshot()
	snap[0].LTP = 999
	assert.NotEqual(t, 999.0, g.Snapshot()[0].LTP)

	batch, _ := g.Tick()
	batch[0].LTP = 999
	assert.NotEqual(t, 999.0, g.Snapshot()[0].LTP)
}

func TestNewGeneratorValidation(t *testing.T) {
	_, err := NewGenerator(nil, nil)
	assert.ErrorIs(t, err, NoInstrumentsError)

	_, err = NewGenerator(model.Batch{{Symbol: "A", LTP: 1}, {Symbol: "A", LTP: 2}}, nil)
	assert.ErrorIs(t, err, DuplicateSymbolError)

	_, err = NewGenerator(model.Batch{{Symbol: "A", LTP: 0}}, nil)
	assert.ErrorIs(t, err, NonPositivePriceError)

	_, err = NewGenerator(model.Batch{{LTP: 1}}, nil)
	assert.ErrorIs(t, err, EmptySymbolError)
}
