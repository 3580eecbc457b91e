// Package executor bridges advisor decisions to a trading provider.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/risk"
	"github.com/openfund/livetrader/internal/trader"
	"go.uber.org/zap"
)

// Result describes the outcome of executing a single decision.
type Result struct {
	// Decision is the decision that was executed.
	Decision core.Decision
	// Order is the resulting order, nil when nothing was submitted.
	Order *trader.Order
	// Skipped is true for hold decisions and zero quantities.
	Skipped bool
	// RiskRejected is true when the risk manager blocked the order.
	RiskRejected bool
	// RiskLevel is the level the risk manager attached to the decision.
	RiskLevel risk.Level
	// Reason explains a skip or rejection.
	Reason string
}

// FailedTrade records a trade that could not be executed.
type FailedTrade struct {
	Timestamp time.Time   `json:"timestamp"`
	Ticker    string      `json:"ticker"`
	Action    core.Action `json:"action"`
	Quantity  int64       `json:"quantity"`
	Price     float64     `json:"price"`
	Error     string      `json:"error"`
}

// Report summarizes execution activity since the executor was created.
type Report struct {
	TotalTrades      int           `json:"total_trades"`
	SuccessfulTrades int           `json:"successful_trades"`
	FailedTrades     int           `json:"failed_trades"`
	SuccessRate      float64       `json:"success_rate"`
	ExecutedValue    float64       `json:"executed_value"`
	TotalCommission  float64       `json:"total_commission"`
	RecentFailures   []FailedTrade `json:"recent_failures"`
}

// Executor turns decisions into orders, gated by the risk manager, and
// keeps the local position book in sync with fills.
type Executor struct {
	trader  trader.Trader
	risk    *risk.Manager
	tracker *PositionTracker
	logger  *zap.Logger

	mu         sync.Mutex
	total      int
	successful int
	executed   []trader.Order
	failures   []FailedTrade
}

// New creates an Executor. A nil risk manager disables risk gating.
func New(t trader.Trader, riskMgr *risk.Manager, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		trader:  t,
		risk:    riskMgr,
		tracker: NewPositionTracker(t),
		logger:  logger,
	}
}

// Tracker exposes the executor's position book.
func (e *Executor) Tracker() *PositionTracker {
	return e.tracker
}

// ExecuteDecision applies a single decision. Hold decisions and zero
// quantities are skipped. Orders blocked by the risk manager come back as
// RiskRejected results, not errors; errors mean the provider itself failed.
func (e *Executor) ExecuteDecision(ctx context.Context, d core.Decision, price float64) (*Result, error) {
	req, ok := trader.OrderFromAction(d.Ticker, d.Action, d.Quantity, price)
	if !ok || d.Quantity <= 0 {
		return &Result{Decision: d, Skipped: true, Reason: "nothing to execute"}, nil
	}

	e.mu.Lock()
	e.total++
	e.mu.Unlock()

	if e.risk != nil {
		account, err := e.trader.AccountInfo(ctx)
		if err != nil {
			e.recordFailure(d, price, err)
			return nil, core.WrapError(core.ErrOrderFailed, err)
		}
		allowed, reason, level := e.risk.ValidateOrder(req, account, e.tracker.GetAllPositions())
		if !allowed {
			e.logger.Warn("decision blocked by risk manager",
				zap.String("ticker", d.Ticker),
				zap.String("action", string(d.Action)),
				zap.String("reason", reason))
			return &Result{Decision: d, RiskRejected: true, RiskLevel: level, Reason: reason}, nil
		}
		if level != risk.LevelLow {
			e.logger.Info("executing with elevated risk level",
				zap.String("ticker", d.Ticker),
				zap.String("level", string(level)))
		}
	}

	e.logger.Info("executing decision",
		zap.String("ticker", d.Ticker),
		zap.String("action", string(d.Action)),
		zap.Int64("quantity", d.Quantity),
		zap.Float64("price", price))

	order, err := e.trader.SubmitOrder(ctx, req)
	if err != nil {
		e.recordFailure(d, price, err)
		return nil, core.WrapError(core.ErrOrderFailed, err)
	}

	result := &Result{Decision: d, Order: order}
	if !order.Succeeded() {
		e.recordFailure(d, price, nil)
		result.Reason = order.ErrorMessage
		e.logger.Warn("order not filled",
			zap.String("ticker", d.Ticker),
			zap.String("status", string(order.Status)),
			zap.String("message", order.ErrorMessage))
		return result, nil
	}

	e.tracker.UpdateOnFill(order)
	if e.risk != nil {
		e.risk.RecordTrade(order.Symbol, order.Side, order.FilledQuantity, order.AverageFillPrice)
	}

	e.mu.Lock()
	e.successful++
	e.executed = append(e.executed, *order)
	e.mu.Unlock()

	e.logger.Info("order filled",
		zap.String("ticker", d.Ticker),
		zap.Int64("filled", order.FilledQuantity),
		zap.Float64("avg_price", order.AverageFillPrice))

	return result, nil
}

// ValidateSession checks that the provider is ready to take orders.
func (e *Executor) ValidateSession(ctx context.Context) error {
	if !e.trader.IsConnected() {
		return trader.ErrNotConnected
	}

	account, err := e.trader.AccountInfo(ctx)
	if err != nil {
		return core.WrapError(core.ErrTraderDisconnected, err)
	}
	if account.BuyingPower <= 0 {
		return core.ErrNoBuyingPower
	}
	return nil
}

// GetReport summarizes execution activity so far.
func (e *Executor) GetReport() Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	var value, commission float64
	for _, o := range e.executed {
		value += o.AverageFillPrice * float64(o.FilledQuantity)
		commission += o.Commission
	}

	failures := e.failures
	if len(failures) > 10 {
		failures = failures[len(failures)-10:]
	}
	recent := make([]FailedTrade, len(failures))
	copy(recent, failures)

	total := e.total
	if total == 0 {
		total = 1
	}
	return Report{
		TotalTrades:      e.total,
		SuccessfulTrades: e.successful,
		FailedTrades:     len(e.failures),
		SuccessRate:      float64(e.successful) / float64(total),
		ExecutedValue:    value,
		TotalCommission:  commission,
		RecentFailures:   recent,
	}
}

func (e *Executor) recordFailure(d core.Decision, price float64, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	e.mu.Lock()
	e.failures = append(e.failures, FailedTrade{
		Timestamp: time.Now(),
		Ticker:    d.Ticker,
		Action:    d.Action,
		Quantity:  d.Quantity,
		Price:     price,
		Error:     msg,
	})
	e.mu.Unlock()
	if err != nil {
		e.logger.Error("trade execution failed",
			zap.String("ticker", d.Ticker),
			zap.String("action", string(d.Action)),
			zap.Error(err))
	}
}
