package executor

import (
	"context"
	"sync"
	"time"

	"github.com/openfund/livetrader/internal/trader"
)

// PositionTracker maintains an in-memory view of positions that can be
// synced from the trading provider and updated locally on fills. The local
// view keeps the decision loop consistent with what the broker actually holds.
type PositionTracker struct {
	trader    trader.Trader
	positions map[string]*trader.Position
	lastSync  time.Time
	mu        sync.RWMutex
}

// NewPositionTracker creates a tracker backed by the given trader.
func NewPositionTracker(t trader.Trader) *PositionTracker {
	return &PositionTracker{
		trader:    t,
		positions: make(map[string]*trader.Position),
	}
}

// Sync replaces the local cache with the provider's current positions.
func (pt *PositionTracker) Sync(ctx context.Context) error {
	positions, err := pt.trader.Positions(ctx)
	if err != nil {
		return err
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.positions = make(map[string]*trader.Position)
	for i := range positions {
		pos := positions[i]
		pt.positions[pos.Symbol] = &pos
	}
	pt.lastSync = time.Now()

	return nil
}

// GetPosition returns the current position for a symbol, or an empty
// position with zero quantity when none is held.
func (pt *PositionTracker) GetPosition(symbol string) *trader.Position {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	if pos, exists := pt.positions[symbol]; exists {
		posCopy := *pos
		return &posCopy
	}

	return &trader.Position{
		Symbol:    symbol,
		Quantity:  0,
		UpdatedAt: time.Now(),
	}
}

// GetAllPositions returns all non-zero positions.
func (pt *PositionTracker) GetAllPositions() []trader.Position {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	positions := make([]trader.Position, 0, len(pt.positions))
	for _, pos := range pt.positions {
		if pos.Quantity != 0 {
			positions = append(positions, *pos)
		}
	}
	return positions
}

// UpdateOnFill folds an order fill into the local position book.
// Closing fills realize P&L against the average cost; opening fills
// extend the position at a weighted average cost. Entries that go flat
// are kept so their realized P&L still counts toward the totals.
func (pt *PositionTracker) UpdateOnFill(order *trader.Order) {
	if order == nil || order.FilledQuantity == 0 {
		return
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	pos, exists := pt.positions[order.Symbol]
	if !exists {
		pos = &trader.Position{
			Symbol:    order.Symbol,
			Market:    order.Market,
			UpdatedAt: time.Now(),
		}
		pt.positions[order.Symbol] = pos
	}

	qty := order.FilledQuantity
	if order.Side == trader.OrderSideSell {
		qty = -qty
	}
	pos.ApplyFill(qty, order.AverageFillPrice)
}

// LastSyncTime returns the time of the last successful sync.
func (pt *PositionTracker) LastSyncTime() time.Time {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return pt.lastSync
}

// TotalUnrealizedPL sums unrealized P&L across all positions.
func (pt *PositionTracker) TotalUnrealizedPL() float64 {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	var total float64
	for _, pos := range pt.positions {
		total += pos.UnrealizedPL
	}
	return total
}

// TotalRealizedPL sums realized P&L across all positions.
func (pt *PositionTracker) TotalRealizedPL() float64 {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	var total float64
	for _, pos := range pt.positions {
		total += pos.RealizedPL
	}
	return total
}
