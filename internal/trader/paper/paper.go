// Package paper implements a dry-run trading backend. Orders are
// filled immediately at the quoted market price against a simulated
// account, so a full session can run without touching a broker.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/quote"
	"github.com/openfund/livetrader/internal/trader"
)

// Config holds paper trader settings.
type Config struct {
	// InitialCash is the simulated starting cash balance.
	InitialCash float64
	// Commission is the flat fee charged per filled order.
	Commission float64
	// EnableShortSelling allows sells beyond the held quantity.
	EnableShortSelling bool
}

// DefaultConfig mirrors the demo account the legacy dry-run mode used.
func DefaultConfig() Config {
	return Config{
		InitialCash: 50000.0,
		Commission:  1.0,
	}
}

// Trader is the paper trading backend.
type Trader struct {
	cfg    Config
	quotes quote.Source

	mu        sync.RWMutex
	connected bool
	cash      float64
	realized  float64
	positions map[string]*trader.Position
	orders    map[string]*trader.Order
}

// New creates a paper trader backed by the given quote source.
func New(cfg Config, quotes quote.Source) *Trader {
	return &Trader{
		cfg:       cfg,
		quotes:    quotes,
		cash:      cfg.InitialCash,
		positions: make(map[string]*trader.Position),
		orders:    make(map[string]*trader.Order),
	}
}

// Name returns the backend identifier.
func (t *Trader) Name() string {
	return "paper"
}

// SupportedMarkets returns the supported markets.
func (t *Trader) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketUS, core.MarketHK, core.MarketCNA}
}

// Connect marks the simulated session as open.
func (t *Trader) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return trader.ErrAlreadyConnected
	}
	t.connected = true
	return nil
}

// Disconnect closes the simulated session.
func (t *Trader) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	return nil
}

// IsConnected returns connection status.
func (t *Trader) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// AccountInfo returns the simulated account summary.
func (t *Trader) AccountInfo(ctx context.Context) (*trader.AccountInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.connected {
		return nil, trader.ErrNotConnected
	}

	var marketValue, unrealized float64
	for _, p := range t.positions {
		marketValue += p.MarketValue
		unrealized += p.UnrealizedPL
	}

	return &trader.AccountInfo{
		AccountID:    "PAPER_ACCOUNT",
		TotalAssets:  t.cash + marketValue,
		Cash:         t.cash,
		MarketValue:  marketValue,
		UnrealizedPL: unrealized,
		RealizedPL:   t.realized,
		BuyingPower:  t.cash,
	}, nil
}

// Positions returns all non-zero simulated positions.
func (t *Trader) Positions(ctx context.Context) ([]trader.Position, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.connected {
		return nil, trader.ErrNotConnected
	}

	out := make([]trader.Position, 0, len(t.positions))
	for _, p := range t.positions {
		if p.Quantity != 0 {
			out = append(out, *p)
		}
	}
	return out, nil
}

// MarketPrice returns the current quote price for a symbol.
func (t *Trader) MarketPrice(ctx context.Context, symbol string) (float64, error) {
	if !t.IsConnected() {
		return 0, trader.ErrNotConnected
	}
	q, err := t.quotes.Fetch(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if !q.IsValid() {
		return 0, core.ErrNoMarketPrice
	}
	return q.Price, nil
}

// SubmitOrder validates and immediately fills a market order at the
// quoted price. Limit orders fill at their limit price when the quote
// is at or better than it, otherwise they are rejected outright; the
// simulation has no resting order book.
func (t *Trader) SubmitOrder(ctx context.Context, req trader.OrderRequest) (*trader.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !t.IsConnected() {
		return nil, trader.ErrNotConnected
	}

	price, err := t.MarketPrice(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("paper: getting fill price: %w", err)
	}

	fillPrice := price
	if req.Type == trader.OrderTypeLimit {
		if (req.Side == trader.OrderSideBuy && price > req.Price) ||
			(req.Side == trader.OrderSideSell && price < req.Price) {
			return t.reject(req, fmt.Sprintf("limit price %.2f not marketable against quote %.2f", req.Price, price)), nil
		}
		fillPrice = req.Price
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	order := &trader.Order{
		OrderID:     uuid.NewString(),
		Symbol:      req.Symbol,
		Market:      req.Market,
		Side:        req.Side,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Status:      trader.OrderStatusSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	cost := float64(req.Quantity)*fillPrice + t.cfg.Commission

	switch req.Side {
	case trader.OrderSideBuy:
		if cost > t.cash {
			order.Status = trader.OrderStatusRejected
			order.ErrorMessage = trader.ErrInsufficientFunds.Error()
			t.orders[order.OrderID] = order
			return order, nil
		}
		t.cash -= cost
		t.applyFill(order, fillPrice)

	case trader.OrderSideSell:
		held := int64(0)
		if p, ok := t.positions[req.Symbol]; ok {
			held = p.Quantity
		}
		if held < req.Quantity && !t.cfg.EnableShortSelling {
			order.Status = trader.OrderStatusRejected
			order.ErrorMessage = trader.ErrInsufficientShares.Error()
			t.orders[order.OrderID] = order
			return order, nil
		}
		t.cash += float64(req.Quantity)*fillPrice - t.cfg.Commission
		t.applyFill(order, fillPrice)
	}

	t.orders[order.OrderID] = order
	return order, nil
}

// applyFill marks the order filled and updates the position book.
// Caller holds the lock.
func (t *Trader) applyFill(order *trader.Order, fillPrice float64) {
	order.Status = trader.OrderStatusFilled
	order.FilledQuantity = order.Quantity
	order.AverageFillPrice = fillPrice
	order.Commission = t.cfg.Commission
	order.UpdatedAt = time.Now()

	pos, ok := t.positions[order.Symbol]
	if !ok {
		pos = &trader.Position{
			Symbol: order.Symbol,
			Market: order.Market,
		}
		t.positions[order.Symbol] = pos
	}

	// Flat positions are kept so accumulated RealizedPL survives round
	// trips; Positions filters them out.
	qty := order.FilledQuantity
	if order.Side == trader.OrderSideSell {
		qty = -qty
	}
	t.realized += pos.ApplyFill(qty, fillPrice)
}

// reject builds a terminal rejected order without touching the book.
func (t *Trader) reject(req trader.OrderRequest, reason string) *trader.Order {
	now := time.Now()
	order := &trader.Order{
		OrderID:      uuid.NewString(),
		Symbol:       req.Symbol,
		Market:       req.Market,
		Side:         req.Side,
		Type:         req.Type,
		Quantity:     req.Quantity,
		Price:        req.Price,
		Status:       trader.OrderStatusRejected,
		ErrorMessage: reason,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}

	t.mu.Lock()
	t.orders[order.OrderID] = order
	t.mu.Unlock()
	return order
}

// CancelOrder cancels an order. Paper orders fill synchronously so
// there is never anything cancellable.
func (t *Trader) CancelOrder(ctx context.Context, orderID string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.connected {
		return trader.ErrNotConnected
	}
	order, ok := t.orders[orderID]
	if !ok {
		return trader.ErrOrderNotFound
	}
	if order.IsTerminal() {
		return trader.ErrOrderNotCancellable
	}
	return nil
}

// GetOrder returns a previously submitted order.
func (t *Trader) GetOrder(ctx context.Context, orderID string) (*trader.Order, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.connected {
		return nil, trader.ErrNotConnected
	}
	order, ok := t.orders[orderID]
	if !ok {
		return nil, trader.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}
