// Package risk enforces trading limits before orders reach a broker.
package risk

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/openfund/livetrader/internal/trader"
	"go.uber.org/zap"
)

// Level grades the severity of a risk check outcome.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// rank orders levels so the manager can keep the worst one seen.
func (l Level) rank() int {
	switch l {
	case LevelCritical:
		return 3
	case LevelHigh:
		return 2
	case LevelMedium:
		return 1
	default:
		return 0
	}
}

// Max returns the more severe of two levels.
func (l Level) Max(other Level) Level {
	if other.rank() > l.rank() {
		return other
	}
	return l
}

// Limits defines the hard caps the manager enforces.
type Limits struct {
	// MaxPositionSize is the maximum dollar value of a single order.
	MaxPositionSize float64
	// MaxPortfolioValue is the maximum total portfolio value.
	MaxPortfolioValue float64
	// MaxDailyLoss halts trading for the day once exceeded.
	MaxDailyLoss float64
	// MaxPositionConcentration is the maximum fraction of the portfolio in one symbol.
	MaxPositionConcentration float64
	// MaxDailyTrades caps the number of executions per trading day.
	MaxDailyTrades int
	// MinCashReserve is the cash buffer that must remain after a buy.
	MinCashReserve float64
}

// DefaultLimits returns conservative limits suitable for a small account.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize:          5000.0,
		MaxPortfolioValue:        50000.0,
		MaxDailyLoss:             2000.0,
		MaxPositionConcentration: 0.15,
		MaxDailyTrades:           20,
		MinCashReserve:           1000.0,
	}
}

// warningThreshold is the utilization fraction that escalates a check to HIGH.
const warningThreshold = 0.8

// CheckResult is the outcome of a single risk check.
type CheckResult struct {
	// Allowed indicates whether the order is permitted by this check.
	Allowed bool
	// Level is the severity attached to the outcome.
	Level Level
	// Message explains the outcome.
	Message string
}

// Event records a failed check for later inspection.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
}

// TradeRecord captures an execution for daily tracking.
type TradeRecord struct {
	Timestamp time.Time        `json:"timestamp"`
	Symbol    string           `json:"symbol"`
	Side      trader.OrderSide `json:"side"`
	Quantity  int64            `json:"quantity"`
	Price     float64          `json:"price"`
}

// Summary is a point-in-time view of the manager's state.
type Summary struct {
	CircuitBreakerActive bool    `json:"circuit_breaker_active"`
	DailyPnL             float64 `json:"daily_pnl"`
	DailyTrades          int     `json:"daily_trades"`
	TotalVolume          float64 `json:"total_volume"`
	Limits               Limits  `json:"limits"`
	RecentEvents         []Event `json:"recent_events"`
	LastReset            string  `json:"last_reset"`
}

// Manager validates orders against configured limits and tracks daily state.
// A daily loss beyond MaxDailyLoss trips a circuit breaker that rejects all
// further orders until the next trading day or a manual reset.
type Manager struct {
	mu     sync.Mutex
	limits Limits
	logger *zap.Logger

	dailyPnL      float64
	dailyTrades   int
	trades        []TradeRecord
	events        []Event
	breakerActive bool
	lastReset     time.Time

	now func() time.Time
}

// NewManager creates a Manager with the given limits.
func NewManager(limits Limits, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		limits:    limits,
		logger:    logger,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// ValidateOrder runs every risk check against the order. It returns whether
// the order may proceed, a combined reason string, and the worst level seen.
func (m *Manager) ValidateOrder(req trader.OrderRequest, account *trader.AccountInfo, positions []trader.Position) (bool, string, Level) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeResetDaily()

	if m.breakerActive {
		return false, "circuit breaker active - trading halted", LevelCritical
	}

	checks := []CheckResult{
		m.checkPositionSize(req),
		m.checkCashReserve(req, account),
		m.checkDailyLoss(),
		m.checkTradingFrequency(),
		m.checkConcentration(req, account, positions),
	}

	level := LevelLow
	var failures []string
	for _, c := range checks {
		level = level.Max(c.Level)
		if !c.Allowed {
			failures = append(failures, c.Message)
			m.recordEvent(req, c)
		}
	}

	if len(failures) > 0 {
		reason := strings.Join(failures, "; ")
		m.logger.Warn("order rejected by risk checks",
			zap.String("symbol", req.Symbol),
			zap.String("reason", reason))
		return false, reason, level
	}

	if level != LevelLow {
		m.logger.Info("order passed risk checks with elevated level",
			zap.String("symbol", req.Symbol),
			zap.String("level", string(level)))
	}
	return true, "all risk checks passed", level
}

func (m *Manager) checkPositionSize(req trader.OrderRequest) CheckResult {
	price := req.Price
	if price <= 0 {
		// No limit price on a market order; assume a round figure so an
		// oversized quantity still trips the check.
		price = 100.0
	}
	value := float64(req.Quantity) * price

	switch {
	case value > m.limits.MaxPositionSize:
		return CheckResult{false, LevelCritical,
			fmt.Sprintf("position size $%.2f exceeds limit $%.2f", value, m.limits.MaxPositionSize)}
	case value > m.limits.MaxPositionSize*warningThreshold:
		return CheckResult{true, LevelHigh, "position size approaching limit"}
	default:
		return CheckResult{true, LevelLow, "position size ok"}
	}
}

func (m *Manager) checkCashReserve(req trader.OrderRequest, account *trader.AccountInfo) CheckResult {
	if req.Side == trader.OrderSideSell {
		return CheckResult{true, LevelLow, "sell order increases cash"}
	}
	if account == nil {
		return CheckResult{true, LevelLow, "no account info"}
	}

	required := float64(req.Quantity) * req.Price
	remaining := account.Cash - required

	switch {
	case remaining < m.limits.MinCashReserve:
		return CheckResult{false, LevelCritical,
			fmt.Sprintf("insufficient cash reserve: $%.2f < $%.2f", remaining, m.limits.MinCashReserve)}
	case remaining < m.limits.MinCashReserve*1.5:
		return CheckResult{true, LevelMedium, "cash reserve low"}
	default:
		return CheckResult{true, LevelLow, "cash reserve ok"}
	}
}

func (m *Manager) checkDailyLoss() CheckResult {
	maxLoss := m.limits.MaxDailyLoss

	switch {
	case m.dailyPnL < -maxLoss:
		m.breakerActive = true
		return CheckResult{false, LevelCritical,
			fmt.Sprintf("daily loss limit exceeded: $%.2f", -m.dailyPnL)}
	case m.dailyPnL < -maxLoss*warningThreshold:
		return CheckResult{true, LevelHigh, "approaching daily loss limit"}
	default:
		return CheckResult{true, LevelLow, "daily pnl within limits"}
	}
}

func (m *Manager) checkTradingFrequency() CheckResult {
	maxTrades := m.limits.MaxDailyTrades

	switch {
	case m.dailyTrades >= maxTrades:
		return CheckResult{false, LevelCritical,
			fmt.Sprintf("daily trade limit reached: %d", m.dailyTrades)}
	case float64(m.dailyTrades) >= float64(maxTrades)*0.9:
		return CheckResult{true, LevelMedium, "approaching daily trade limit"}
	default:
		return CheckResult{true, LevelLow, "trading frequency ok"}
	}
}

func (m *Manager) checkConcentration(req trader.OrderRequest, account *trader.AccountInfo, positions []trader.Position) CheckResult {
	if account == nil || account.TotalAssets <= 0 {
		return CheckResult{true, LevelLow, "no portfolio value to check"}
	}

	var held int64
	var heldValue float64
	for _, p := range positions {
		if p.Symbol == req.Symbol {
			held = p.Quantity
			heldValue = p.MarketValue
			break
		}
	}

	newQty := held + req.Quantity
	if req.Side == trader.OrderSideSell {
		newQty = held - req.Quantity
	}

	price := req.Price
	if price <= 0 && held > 0 {
		price = heldValue / float64(held)
	}
	newValue := float64(newQty) * price
	if newValue < 0 {
		newValue = -newValue
	}

	concentration := newValue / account.TotalAssets
	limit := m.limits.MaxPositionConcentration

	switch {
	case concentration > limit:
		return CheckResult{false, LevelHigh,
			fmt.Sprintf("position concentration %.1f%% exceeds limit %.1f%%", concentration*100, limit*100)}
	case concentration > limit*warningThreshold:
		return CheckResult{true, LevelMedium, "position concentration approaching limit"}
	default:
		return CheckResult{true, LevelLow, "position concentration ok"}
	}
}

// RecordTrade counts an execution toward the daily totals.
func (m *Manager) RecordTrade(symbol string, side trader.OrderSide, quantity int64, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dailyTrades++
	m.trades = append(m.trades, TradeRecord{
		Timestamp: m.now(),
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
	})
}

// UpdatePnL adjusts the daily P&L and trips the circuit breaker when the
// loss limit is breached.
func (m *Manager) UpdatePnL(change float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dailyPnL += change
	if m.dailyPnL < -m.limits.MaxDailyLoss && !m.breakerActive {
		m.breakerActive = true
		m.logger.Error("circuit breaker activated",
			zap.Float64("daily_loss", -m.dailyPnL),
			zap.Float64("limit", m.limits.MaxDailyLoss))
	}
}

// CircuitBreakerActive reports whether trading is currently halted.
func (m *Manager) CircuitBreakerActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.breakerActive
}

// ResetCircuitBreaker clears a tripped breaker. Use with care.
func (m *Manager) ResetCircuitBreaker() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Warn("circuit breaker manually reset")
	m.breakerActive = false
}

// GetSummary returns a snapshot of daily state and recent risk events.
func (m *Manager) GetSummary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	var volume float64
	for _, t := range m.trades {
		volume += float64(t.Quantity) * t.Price
	}

	events := m.events
	if len(events) > 10 {
		events = events[len(events)-10:]
	}
	recent := make([]Event, len(events))
	copy(recent, events)

	return Summary{
		CircuitBreakerActive: m.breakerActive,
		DailyPnL:             m.dailyPnL,
		DailyTrades:          m.dailyTrades,
		TotalVolume:          volume,
		Limits:               m.limits,
		RecentEvents:         recent,
		LastReset:            m.lastReset.Format("2006-01-02"),
	}
}

// maybeResetDaily zeroes the daily counters when the date rolls over.
// Caller holds the lock.
func (m *Manager) maybeResetDaily() {
	now := m.now()
	y1, m1, d1 := m.lastReset.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return
	}

	m.logger.Info("resetting daily risk counters",
		zap.Float64("previous_pnl", m.dailyPnL),
		zap.Int("previous_trades", m.dailyTrades))
	m.dailyPnL = 0
	m.dailyTrades = 0
	m.breakerActive = false
	m.lastReset = now
}

func (m *Manager) recordEvent(req trader.OrderRequest, c CheckResult) {
	m.events = append(m.events, Event{
		Timestamp: m.now(),
		Symbol:    req.Symbol,
		Side:      string(req.Side),
		Message:   c.Message,
		Level:     c.Level,
	})
}
