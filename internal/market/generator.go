package market

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/model"
	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
)

const (
	_alertThresholdDefault = 0.05 // percent, single tick
	_percentPrecision      = 2
)

var (
	NoInstrumentsError    = errors.New("no instruments to generate")
	DuplicateSymbolError  = errors.New("duplicate instrument symbol")
	NonPositivePriceError = errors.New("instrument price must be positive")
	EmptySymbolError      = errors.New("instrument symbol is empty")
)

// Source is the random stream drifts are drawn from. Float64 returns a value in [0, 1).
type Source interface {
	Float64() float64
}

// NewSource returns a seeded source. Seed 0 picks a time based seed.
func NewSource(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generator advances a bounded random walk over an owned quote set.
// It is not safe for concurrent use; the tick loop is its only caller.
type Generator struct {
	quotes         model.Batch
	src            Source
	clock          clock.Clock
	alertThreshold float64
}

type Option func(*Generator)

func WithClock(c clock.Clock) Option {
	return func(g *Generator) {
		g.clock = c
	}
}

func WithAlertThreshold(percent float64) Option {
	return func(g *Generator) {
		if percent > 0 {
			g.alertThreshold = percent
		}
	}
}

func NewGenerator(seed model.Batch, src Source, opts ...Option) (*Generator, error) {
	if len(seed) == 0 {
		return nil, NoInstrumentsError
	}
	if src == nil {
		src = NewSource(0)
	}

	quotes := make(model.Batch, 0, len(seed))
	seen := make(map[string]struct{}, len(seed))
	for _, q := range seed {
		if q.Symbol == "" {
			return nil, EmptySymbolError
		}
		if _, ok := seen[q.Symbol]; ok {
			return nil, fmt.Errorf("%w: %s", DuplicateSymbolError, q.Symbol)
		}
		if q.LTP <= 0 {
			return nil, fmt.Errorf("%w: %s", NonPositivePriceError, q.Symbol)
		}
		seen[q.Symbol] = struct{}{}

		p := q.Precision()
		q.LTP = math.Max(round(q.LTP, p), floor(p))
		q.Change = round(q.Change, p)
		q.PercentChange = round(q.PercentChange, _percentPrecision)
		q.IsUp = q.Change >= 0
		quotes = append(quotes, q)
	}

	g := &Generator{
		quotes:         quotes,
		src:            src,
		clock:          clock.New(),
		alertThreshold: _alertThresholdDefault,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Snapshot returns a copy of the current quote set.
func (g *Generator) Snapshot() model.Batch {
	return g.quotes.Clone()
}

// Tick moves every instrument by one drift and returns the new quote set
// together with the market-movement alerts of this tick.
func (g *Generator) Tick() (model.Batch, []model.Alert) {
	now := g.clock.Now().UTC()

	var alerts []model.Alert
	for i := range g.quotes {
		q := &g.quotes[i]
		p := q.Precision()

		drift := (g.src.Float64() - 0.5) * math.Pow10(-int(p-1))
		prev := q.LTP
		percent := drift / prev * 100

		q.LTP = math.Max(round(prev+drift, p), floor(p))
		q.Change = round(q.Change+drift, p)
		q.PercentChange = round(q.PercentChange+percent, _percentPrecision)
		q.IsUp = q.Change >= 0

		if math.Abs(percent) > g.alertThreshold {
			alerts = append(alerts, movementAlert(*q, percent, now))
		}
	}

	return g.quotes.Clone(), alerts
}

func movementAlert(q model.Quote, percent float64, now time.Time) model.Alert {
	direction := "dropping"
	if percent > 0 {
		direction = "surging"
	}
	return model.Alert{
		ID:        fmt.Sprintf("market_%d_%s", now.UnixMilli(), q.Symbol),
		Type:      model.MarketAlert,
		Title:     "Market Movement",
		Message:   fmt.Sprintf("%s is %s! Current price: %s", q.Symbol, direction, strconv.FormatFloat(q.LTP, 'f', int(q.Precision()), 64)),
		Timestamp: now,
	}
}

// round is the canonical representation of prices: later drifts compound on it.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func floor(places int32) float64 {
	return math.Pow10(-int(places))
}
