package history

import (
	"context"
	"sync"

	"github.com/STTM-NSU/pricefeed/internal/model"
)

// Sink is the append-only trade history. List returns the most recently
// appended trades first; limit <= 0 means everything.
type Sink interface {
	Append(ctx context.Context, t model.Trade) error
	List(ctx context.Context, limit int) ([]model.Trade, error)
}

type Memory struct {
	mu     sync.RWMutex
	trades []model.Trade
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, t model.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, t)
	return nil
}

func (m *Memory) List(_ context.Context, limit int) ([]model.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.trades)
	if limit > 0 && limit < n {
		n = limit
	}
	trades := make([]model.Trade, 0, n)
	for i := len(m.trades) - 1; i >= 0 && len(trades) < n; i-- {
		trades = append(trades, m.trades[i])
	}
	return trades, nil
}
