// Package quote provides market price sources for the live session.
package quote

import (
	"context"
	"sync"

	"github.com/openfund/livetrader/internal/core"
)

// Source supplies real-time quotes for symbols.
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (*core.Quote, error)
}

// Static is an in-memory quote source with fixed prices, used by the
// paper trader when no live feed is configured.
type Static struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStatic creates a Static source seeded with the given prices.
func NewStatic(prices map[string]float64) *Static {
	p := make(map[string]float64, len(prices))
	for k, v := range prices {
		p[k] = v
	}
	return &Static{prices: p}
}

func (s *Static) Name() string {
	return "static"
}

// SetPrice sets or updates the price for a symbol.
func (s *Static) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// Fetch returns the fixed quote for a symbol.
func (s *Static) Fetch(ctx context.Context, symbol string) (*core.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[symbol]
	if !ok {
		return nil, core.ErrNoMarketPrice
	}
	return &core.Quote{
		Symbol: symbol,
		Market: core.DetectMarket(symbol),
		Price:  price,
		Source: s.Name(),
	}, nil
}
