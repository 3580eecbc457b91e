// Package trader provides types and interfaces for trading backends.
package trader

import (
	"context"
	"errors"
	"time"

	"github.com/openfund/livetrader/internal/core"
)

// Trader-specific errors.
var (
	// ErrNotConnected indicates the trader is not connected.
	ErrNotConnected = errors.New("trader: not connected")
	// ErrAlreadyConnected indicates the trader is already connected.
	ErrAlreadyConnected = errors.New("trader: already connected")
	// ErrOrderNotFound indicates the order was not found.
	ErrOrderNotFound = errors.New("trader: order not found")
	// ErrInvalidSymbol indicates an invalid or empty symbol.
	ErrInvalidSymbol = errors.New("trader: invalid symbol")
	// ErrInvalidQuantity indicates an invalid quantity.
	ErrInvalidQuantity = errors.New("trader: invalid quantity")
	// ErrInvalidPrice indicates an invalid price for limit orders.
	ErrInvalidPrice = errors.New("trader: invalid price for limit order")
	// ErrInvalidStopPrice indicates an invalid stop price for stop orders.
	ErrInvalidStopPrice = errors.New("trader: invalid stop price for stop order")
	// ErrOrderNotCancellable indicates the order cannot be cancelled.
	ErrOrderNotCancellable = errors.New("trader: order cannot be cancelled")
	// ErrInsufficientFunds indicates insufficient funds for the order.
	ErrInsufficientFunds = errors.New("trader: insufficient funds")
	// ErrInsufficientShares indicates insufficient shares to sell.
	ErrInsufficientShares = errors.New("trader: insufficient shares to sell")
	// ErrShortSellingDisabled indicates short selling is not enabled.
	ErrShortSellingDisabled = errors.New("trader: short selling disabled")
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	// OrderSideBuy represents a buy order.
	OrderSideBuy OrderSide = "BUY"
	// OrderSideSell represents a sell order.
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of order execution.
type OrderType string

const (
	// OrderTypeMarket executes at current market price.
	OrderTypeMarket OrderType = "MARKET"
	// OrderTypeLimit executes at specified price or better.
	OrderTypeLimit OrderType = "LIMIT"
	// OrderTypeStop triggers when stop price is reached.
	OrderTypeStop OrderType = "STOP"
)

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

const (
	// OrderStatusPending indicates order is awaiting submission.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusSubmitted indicates order was accepted by the broker.
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	// OrderStatusFilled indicates order has been completely filled.
	OrderStatusFilled OrderStatus = "FILLED"
	// OrderStatusPartial indicates order has been partially filled.
	OrderStatusPartial OrderStatus = "PARTIALLY_FILLED"
	// OrderStatusCancelled indicates order was cancelled.
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusRejected indicates order was rejected by broker.
	OrderStatusRejected OrderStatus = "REJECTED"
	// OrderStatusFailed indicates order submission failed.
	OrderStatusFailed OrderStatus = "FAILED"
)

// OrderRequest represents a request to place a new order.
type OrderRequest struct {
	// Symbol is the ticker symbol (e.g., "AAPL", "00700").
	Symbol string `json:"symbol"`
	// Market identifies which market the symbol trades on.
	Market core.Market `json:"market"`
	// Side indicates buy or sell.
	Side OrderSide `json:"side"`
	// Type specifies the order execution type.
	Type OrderType `json:"type"`
	// Quantity is the number of shares/units to trade.
	Quantity int64 `json:"quantity"`
	// Price is the limit price (required for LIMIT orders).
	Price float64 `json:"price,omitempty"`
	// StopPrice is the trigger price (required for STOP orders).
	StopPrice float64 `json:"stop_price,omitempty"`
	// TimeInForce specifies how long the order remains active.
	TimeInForce string `json:"time_in_force,omitempty"`
}

// Validate checks if the order request has valid required fields.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return ErrInvalidSymbol
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.Type == OrderTypeLimit && r.Price <= 0 {
		return ErrInvalidPrice
	}
	if r.Type == OrderTypeStop && r.StopPrice <= 0 {
		return ErrInvalidStopPrice
	}
	return nil
}

// Order represents an order in the trading system.
type Order struct {
	// OrderID is the broker-assigned unique identifier.
	OrderID string `json:"order_id"`
	// Symbol is the ticker symbol.
	Symbol string `json:"symbol"`
	// Market identifies which market the symbol trades on.
	Market core.Market `json:"market"`
	// Side indicates buy or sell.
	Side OrderSide `json:"side"`
	// Type specifies the order execution type.
	Type OrderType `json:"type"`
	// Quantity is the total order quantity.
	Quantity int64 `json:"quantity"`
	// Price is the limit price for limit orders.
	Price float64 `json:"price,omitempty"`
	// Status is the current order status.
	Status OrderStatus `json:"status"`
	// FilledQuantity is the number of shares filled.
	FilledQuantity int64 `json:"filled_quantity"`
	// AverageFillPrice is the average execution price.
	AverageFillPrice float64 `json:"average_fill_price"`
	// Commission is the total commission charged.
	Commission float64 `json:"commission"`
	// SubmittedAt is when the order was submitted.
	SubmittedAt time.Time `json:"submitted_at"`
	// UpdatedAt is when the order was last updated.
	UpdatedAt time.Time `json:"updated_at"`
	// ErrorMessage contains the reason if order was rejected or failed.
	ErrorMessage string `json:"error_message,omitempty"`
}

// IsFilled returns true if the order is completely filled.
func (o Order) IsFilled() bool {
	return o.Status == OrderStatusFilled
}

// IsTerminal returns true if the order is in a final state.
func (o Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusFailed:
		return true
	}
	return false
}

// Succeeded returns true if the order filled fully or partially.
func (o Order) Succeeded() bool {
	return o.Status == OrderStatusFilled || o.Status == OrderStatusPartial
}

// Position represents a holding in a security.
type Position struct {
	// Symbol is the ticker symbol.
	Symbol string `json:"symbol"`
	// Market identifies which market the symbol trades on.
	Market core.Market `json:"market"`
	// Quantity is the number of shares held (negative for short).
	Quantity int64 `json:"quantity"`
	// AverageCost is the average cost basis per share.
	AverageCost float64 `json:"average_cost"`
	// CurrentPrice is the latest market price.
	CurrentPrice float64 `json:"current_price"`
	// MarketValue is the current market value of the position.
	MarketValue float64 `json:"market_value"`
	// UnrealizedPL is the unrealized profit/loss.
	UnrealizedPL float64 `json:"unrealized_pl"`
	// RealizedPL is the realized profit/loss from closed trades.
	RealizedPL float64 `json:"realized_pl"`
	// UpdatedAt is when the position was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLong returns true if this is a long position.
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// IsShort returns true if this is a short position.
func (p Position) IsShort() bool {
	return p.Quantity < 0
}

// ApplyFill folds a signed fill (positive buy, negative sell) into the
// position and returns the realized P&L. A fill against the held side
// closes up to the held quantity at the average cost; only the remainder
// opens or extends a position at the fill price, so selling through zero
// opens a short with its own cost basis and a buy against a short
// realizes the cover. Price fields are refreshed from the fill price.
func (p *Position) ApplyFill(qty int64, fillPrice float64) float64 {
	var realized float64

	switch {
	case p.Quantity > 0 && qty < 0:
		closed := min(-qty, p.Quantity)
		realized = (fillPrice - p.AverageCost) * float64(closed)
		p.Quantity -= closed
		qty += closed
	case p.Quantity < 0 && qty > 0:
		closed := min(qty, -p.Quantity)
		realized = (p.AverageCost - fillPrice) * float64(closed)
		p.Quantity += closed
		qty -= closed
	}

	if qty != 0 {
		if p.Quantity == 0 {
			p.AverageCost = fillPrice
		} else {
			held := absQty(p.Quantity)
			total := float64(held)*p.AverageCost + float64(absQty(qty))*fillPrice
			p.AverageCost = total / float64(held+absQty(qty))
		}
		p.Quantity += qty
	}

	p.RealizedPL += realized
	p.CurrentPrice = fillPrice
	p.MarketValue = float64(p.Quantity) * fillPrice
	p.UnrealizedPL = float64(p.Quantity) * (fillPrice - p.AverageCost)
	p.UpdatedAt = time.Now()
	return realized
}

func absQty(q int64) int64 {
	if q < 0 {
		return -q
	}
	return q
}

// AccountInfo represents account summary.
type AccountInfo struct {
	AccountID     string  `json:"account_id"`
	TotalAssets   float64 `json:"total_assets"`
	Cash          float64 `json:"cash"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPL  float64 `json:"unrealized_pl"`
	RealizedPL    float64 `json:"realized_pl"`
	BuyingPower   float64 `json:"buying_power"`
}

// Trader defines the interface for trading backend integrations.
type Trader interface {
	// Name returns the backend identifier (e.g., "paper", "futu").
	Name() string
	// SupportedMarkets returns the markets supported by this backend.
	SupportedMarkets() []core.Market

	// Connection management
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	// Account operations
	AccountInfo(ctx context.Context) (*AccountInfo, error)
	Positions(ctx context.Context) ([]Position, error)

	// Market data
	MarketPrice(ctx context.Context, symbol string) (float64, error)

	// Order operations
	SubmitOrder(ctx context.Context, request OrderRequest) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}
