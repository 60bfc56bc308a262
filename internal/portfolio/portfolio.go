package portfolio

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/STTM-NSU/pricefeed/internal/model"
)

var (
	InvalidQuantityError  = errors.New("quantity must be positive")
	InvalidPriceError     = errors.New("price must be positive")
	InvalidStopLossError  = errors.New("stop-loss must be lower than the current market price")
	PositionNotFoundError = errors.New("position not found")
)

// Portfolio is the active position set, keyed by symbol.
type Portfolio struct {
	mu        sync.RWMutex
	positions map[string]model.Position
}

// New seeds the portfolio with holdings. Invested value defaults to
// avg price * quantity, ltp to the avg price.
func New(holdings []model.Position) (*Portfolio, error) {
	p := &Portfolio{
		positions: make(map[string]model.Position, len(holdings)),
	}
	for _, h := range holdings {
		if h.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s", InvalidQuantityError, h.Symbol)
		}
		if h.AvgPrice <= 0 {
			return nil, fmt.Errorf("%w: %s", InvalidPriceError, h.Symbol)
		}
		if h.InvestedValue <= 0 {
			h.InvestedValue = h.AvgPrice * float64(h.Quantity)
		}
		if h.LTP <= 0 {
			h.LTP = h.AvgPrice
		}
		if h.HasStopLoss() {
			if *h.StopLoss >= h.LTP {
				return nil, fmt.Errorf("%w: %s", InvalidStopLossError, h.Symbol)
			}
			h.StopLoss = ptr(*h.StopLoss)
		} else {
			h.StopLoss = nil
		}
		h.Revalue(h.LTP)
		h.IsUp = h.PnL >= 0
		p.positions[h.Symbol] = h
	}
	return p, nil
}

// Buy adds qty at the quote's ltp, opening the position if needed. A non-nil
// stopLoss replaces the current one.
func (p *Portfolio) Buy(q model.Quote, qty int64, stopLoss *float64) (model.Position, error) {
	if qty <= 0 {
		return model.Position{}, InvalidQuantityError
	}
	if q.LTP <= 0 {
		return model.Position{}, InvalidPriceError
	}
	if err := validateStopLoss(stopLoss, q.LTP); err != nil {
		return model.Position{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[q.Symbol]
	if !ok {
		pos = model.Position{
			Symbol:   q.Symbol,
			Name:     q.Name,
			Exchange: q.Exchange,
		}
	}
	pos.Quantity += qty
	pos.InvestedValue += float64(qty) * q.LTP
	pos.AvgPrice = pos.InvestedValue / float64(pos.Quantity)
	if stopLoss != nil {
		pos.StopLoss = ptr(*stopLoss)
	}
	pos.Revalue(q.LTP)
	pos.IsUp = q.IsUp

	p.positions[q.Symbol] = pos
	return pos, nil
}

// Sell reduces the position by qty at ltp, scaling the invested value by the
// remaining share. Selling everything (or more) closes the position; the
// returned position then has zero quantity. sold is the quantity actually sold.
func (p *Portfolio) Sell(symbol string, qty int64, ltp float64, stopLoss *float64) (pos model.Position, sold int64, err error) {
	if qty <= 0 {
		return model.Position{}, 0, InvalidQuantityError
	}
	if ltp <= 0 {
		return model.Position{}, 0, InvalidPriceError
	}
	if err := validateStopLoss(stopLoss, ltp); err != nil {
		return model.Position{}, 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[symbol]
	if !ok {
		return model.Position{}, 0, fmt.Errorf("%w: %s", PositionNotFoundError, symbol)
	}

	sold = min(qty, pos.Quantity)
	remaining := pos.Quantity - sold
	if remaining == 0 {
		delete(p.positions, symbol)
		pos.Quantity = 0
		pos.InvestedValue = 0
		pos.Revalue(ltp)
		return pos, sold, nil
	}

	pos.InvestedValue *= float64(remaining) / float64(pos.Quantity)
	pos.Quantity = remaining
	if stopLoss != nil {
		pos.StopLoss = ptr(*stopLoss)
	}
	pos.Revalue(ltp)

	p.positions[symbol] = pos
	return pos, sold, nil
}

// SetStopLoss sets the trigger price of a position. It must be positive and
// strictly below the position's current ltp; otherwise nothing changes.
func (p *Portfolio) SetStopLoss(symbol string, stopLoss float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", PositionNotFoundError, symbol)
	}
	if err := validateStopLoss(&stopLoss, pos.LTP); err != nil {
		return err
	}
	pos.StopLoss = ptr(stopLoss)
	p.positions[symbol] = pos
	return nil
}

func (p *Portfolio) ClearStopLoss(symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", PositionNotFoundError, symbol)
	}
	pos.StopLoss = nil
	p.positions[symbol] = pos
	return nil
}

// Remove takes the position out of the set. Only the first call for a given
// position reports ok.
func (p *Portfolio) Remove(symbol string) (model.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[symbol]
	if ok {
		delete(p.positions, symbol)
	}
	return pos, ok
}

// Apply stores revalued positions. Symbols no longer held are ignored so a
// stale valuation can't resurrect a closed position.
func (p *Portfolio) Apply(positions []model.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pos := range positions {
		cur, ok := p.positions[pos.Symbol]
		if !ok {
			continue
		}
		cur.LTP = pos.LTP
		cur.CurrentValue = pos.CurrentValue
		cur.PnL = pos.PnL
		cur.IsUp = pos.IsUp
		p.positions[pos.Symbol] = cur
	}
}

func (p *Portfolio) Get(symbol string) (model.Position, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pos, ok := p.positions[symbol]
	return pos, ok
}

// Positions returns a copy of the set ordered by symbol.
func (p *Portfolio) Positions() []model.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()

	positions := make([]model.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		positions = append(positions, pos)
	}
	slices.SortFunc(positions, func(a, b model.Position) int {
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return positions
}

func (p *Portfolio) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.positions)
}

type Summary struct {
	Positions    int     `json:"positions"`
	Invested     float64 `json:"invested"`
	CurrentValue float64 `json:"currentValue"`
	PnL          float64 `json:"totalPnL"`
	PnLPercent   float64 `json:"pnlPercent"`
}

func (p *Portfolio) Summary() Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var s Summary
	for _, pos := range p.positions {
		s.Positions++
		s.Invested += pos.InvestedValue
		s.CurrentValue += pos.CurrentValue
	}
	s.PnL = s.CurrentValue - s.Invested
	if s.Invested > 0 {
		s.PnLPercent = s.PnL / s.Invested * 100
	}
	return s
}

func validateStopLoss(stopLoss *float64, ltp float64) error {
	if stopLoss == nil {
		return nil
	}
	if *stopLoss <= 0 || *stopLoss >= ltp {
		return fmt.Errorf("%w: stop-loss %v, ltp %v", InvalidStopLossError, *stopLoss, ltp)
	}
	return nil
}

func ptr(v float64) *float64 {
	return &v
}
