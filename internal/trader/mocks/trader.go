// Package mocks provides a mock implementation of the trader
// interface for testing.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/trader"
)

// MockTrader implements the trader.Trader interface for testing.
// It fills market orders immediately and exposes setters for account
// state, prices, and failure injection.
type MockTrader struct {
	mu sync.RWMutex

	connected bool

	orders  map[string]*trader.Order
	orderID int64

	positions map[string]*trader.Position
	account   *trader.AccountInfo
	prices    map[string]float64

	failSubmit  bool
	failMessage string
}

// New creates a new MockTrader with a healthy demo account.
func New() *MockTrader {
	return &MockTrader{
		orders:    make(map[string]*trader.Order),
		positions: make(map[string]*trader.Position),
		prices:    map[string]float64{"AAPL": 175.50},
		account: &trader.AccountInfo{
			AccountID:   "MOCK_ACCOUNT",
			TotalAssets: 100000.00,
			Cash:        50000.00,
			MarketValue: 50000.00,
			BuyingPower: 50000.00,
		},
	}
}

// SetAccount overrides the mock account info.
func (m *MockTrader) SetAccount(info *trader.AccountInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.account = info
}

// SetPrice sets the quote for a symbol.
func (m *MockTrader) SetPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = price
}

// SetPosition seeds a position.
func (m *MockTrader) SetPosition(pos trader.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[pos.Symbol] = &pos
}

// FailSubmissions makes subsequent SubmitOrder calls fail.
func (m *MockTrader) FailSubmissions(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSubmit = true
	m.failMessage = message
}

// SubmittedOrders returns every order seen so far.
func (m *MockTrader) SubmittedOrders() []trader.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]trader.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out
}

// Name returns the backend identifier.
func (m *MockTrader) Name() string {
	return "mock"
}

// SupportedMarkets returns the supported markets.
func (m *MockTrader) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketUS, core.MarketCNA, core.MarketHK}
}

// Connect establishes the mock connection.
func (m *MockTrader) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		return trader.ErrAlreadyConnected
	}
	m.connected = true
	return nil
}

// Disconnect closes the mock connection.
func (m *MockTrader) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return trader.ErrNotConnected
	}
	m.connected = false
	return nil
}

// IsConnected returns connection status.
func (m *MockTrader) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// AccountInfo returns the mock account summary.
func (m *MockTrader) AccountInfo(ctx context.Context) (*trader.AccountInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil, trader.ErrNotConnected
	}
	cp := *m.account
	return &cp, nil
}

// Positions returns the seeded positions.
func (m *MockTrader) Positions(ctx context.Context) ([]trader.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil, trader.ErrNotConnected
	}
	out := make([]trader.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, *p)
	}
	return out, nil
}

// MarketPrice returns the seeded quote for a symbol.
func (m *MockTrader) MarketPrice(ctx context.Context, symbol string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return 0, trader.ErrNotConnected
	}
	price, ok := m.prices[symbol]
	if !ok {
		return 0, core.ErrNoMarketPrice
	}
	return price, nil
}

// SubmitOrder fills a valid order immediately at the seeded price.
func (m *MockTrader) SubmitOrder(ctx context.Context, req trader.OrderRequest) (*trader.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, trader.ErrNotConnected
	}
	if m.failSubmit {
		return nil, fmt.Errorf("mock: %s", m.failMessage)
	}

	price, ok := m.prices[req.Symbol]
	if !ok {
		price = req.Price
	}

	m.orderID++
	now := time.Now()
	order := &trader.Order{
		OrderID:          fmt.Sprintf("mock-%d", m.orderID),
		Symbol:           req.Symbol,
		Market:           req.Market,
		Side:             req.Side,
		Type:             req.Type,
		Quantity:         req.Quantity,
		Price:            req.Price,
		Status:           trader.OrderStatusFilled,
		FilledQuantity:   req.Quantity,
		AverageFillPrice: price,
		SubmittedAt:      now,
		UpdatedAt:        now,
	}
	m.orders[order.OrderID] = order
	return order, nil
}

// CancelOrder cancels an open order.
func (m *MockTrader) CancelOrder(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return trader.ErrNotConnected
	}
	order, ok := m.orders[orderID]
	if !ok {
		return trader.ErrOrderNotFound
	}
	if order.IsTerminal() {
		return trader.ErrOrderNotCancellable
	}
	order.Status = trader.OrderStatusCancelled
	return nil
}

// GetOrder returns a previously submitted order.
func (m *MockTrader) GetOrder(ctx context.Context, orderID string) (*trader.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil, trader.ErrNotConnected
	}
	order, ok := m.orders[orderID]
	if !ok {
		return nil, trader.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}
