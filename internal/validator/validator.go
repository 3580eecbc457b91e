// Package validator runs pre-flight checks against the trading setup
// before a live session is allowed to start.
package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openfund/livetrader/internal/config"
	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/risk"
	"github.com/openfund/livetrader/internal/trader"
)

// CheckResult is the outcome of a single validation check.
type CheckResult struct {
	Name      string    `json:"name"`
	Passed    bool      `json:"passed"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Report aggregates check results with recommendations.
type Report struct {
	TotalChecks     int           `json:"total_checks"`
	Passed          int           `json:"passed"`
	Failed          int           `json:"failed"`
	SuccessRate     float64       `json:"success_rate"`
	Results         []CheckResult `json:"results"`
	Recommendations []string      `json:"recommendations"`
	GeneratedAt     time.Time     `json:"generated_at"`
}

// Ready returns true when every check passed.
func (r Report) Ready() bool {
	return r.Failed == 0
}

// Validator checks configuration, connectivity and risk controls
// against a trading provider.
type Validator struct {
	cfg    *config.Config
	trader trader.Trader
	logger *zap.Logger

	results []CheckResult
	now     func() time.Time
}

// New creates a Validator for the given configuration and provider.
func New(cfg *config.Config, t trader.Trader, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		cfg:    cfg,
		trader: t,
		logger: logger,
		now:    time.Now,
	}
}

// RunFull executes the complete check suite and returns the report.
func (v *Validator) RunFull(ctx context.Context) Report {
	v.logger.Info("starting full validation")
	v.results = nil

	v.checkConfiguration()
	v.checkConnection(ctx)
	v.checkMarketData(ctx)
	v.checkRiskControls()
	v.checkOrderManagement(ctx)

	return v.report()
}

// RunQuick executes only the configuration and connection checks.
// It returns true when both pass.
func (v *Validator) RunQuick(ctx context.Context) bool {
	v.logger.Info("starting quick validation")
	v.results = nil

	v.checkConfiguration()
	v.checkConnection(ctx)

	for _, r := range v.results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func (v *Validator) checkConfiguration() {
	if err := v.cfg.Validate(); err != nil {
		v.record("configuration", false, fmt.Sprintf("invalid configuration: %v", err))
		return
	}
	v.record("configuration", true, "configuration valid")

	port := v.cfg.Trading.Futu.Port
	if v.cfg.Trading.Provider == "futu" && (port < 1 || port > 65535) {
		v.record("futu port", false, fmt.Sprintf("invalid port number: %d", port))
	} else if v.cfg.Trading.Provider == "futu" {
		v.record("futu port", true, fmt.Sprintf("port configuration valid: %d", port))
	}

	if v.cfg.Risk.MaxPositionSize <= 0 {
		v.record("risk limits", false, "invalid max position size")
	} else {
		v.record("risk limits", true, "risk limits configuration valid")
	}
}

// connect tolerates providers that were connected by the caller.
func (v *Validator) connect(ctx context.Context) error {
	err := v.trader.Connect(ctx)
	if errors.Is(err, trader.ErrAlreadyConnected) {
		return nil
	}
	return err
}

func (v *Validator) checkConnection(ctx context.Context) {
	if err := v.connect(ctx); err != nil {
		v.record("provider connection", false,
			fmt.Sprintf("failed to connect to %s: %v", v.trader.Name(), err))
		return
	}
	v.record("provider connection", true,
		fmt.Sprintf("connected to %s", v.trader.Name()))

	account, err := v.trader.AccountInfo(ctx)
	if err != nil {
		v.record("account info", false, fmt.Sprintf("account info error: %v", err))
	} else {
		v.record("account info", true,
			fmt.Sprintf("retrieved account %s, buying power $%.2f",
				account.AccountID, account.BuyingPower))
	}

	if err := v.trader.Disconnect(); err != nil {
		v.logger.Warn("disconnect after connection check failed", zap.Error(err))
	}
}

func (v *Validator) checkMarketData(ctx context.Context) {
	if err := v.connect(ctx); err != nil {
		v.record("market data", false, fmt.Sprintf("connection error: %v", err))
		return
	}
	defer v.trader.Disconnect()

	price, err := v.trader.MarketPrice(ctx, referenceSymbol)
	switch {
	case err != nil:
		v.record("market data", false, fmt.Sprintf("market data error: %v", err))
	case price <= 0:
		v.record("market data", false, "retrieved price is not positive")
	default:
		v.record("market data", true,
			fmt.Sprintf("retrieved %s price: $%.2f", referenceSymbol, price))
	}

	positions, err := v.trader.Positions(ctx)
	if err != nil {
		v.record("positions", false, fmt.Sprintf("position retrieval error: %v", err))
	} else {
		v.record("positions", true,
			fmt.Sprintf("retrieved %d positions", len(positions)))
	}
}

func (v *Validator) checkRiskControls() {
	limits := risk.Limits{
		MaxPositionSize:          v.cfg.Risk.MaxPositionSize,
		MaxPortfolioValue:        v.cfg.Risk.MaxPortfolioValue,
		MaxDailyLoss:             v.cfg.Risk.MaxDailyLoss,
		MaxPositionConcentration: v.cfg.Risk.MaxPositionConcentration,
		MaxDailyTrades:           v.cfg.Risk.MaxDailyTrades,
		MinCashReserve:           v.cfg.Risk.MinCashReserve,
	}
	mgr := risk.NewManager(limits, v.logger)

	summary := mgr.GetSummary()
	if summary.Limits != limits {
		v.record("risk manager", false, "risk limits did not initialize")
		return
	}

	req := trader.OrderRequest{
		Symbol:   referenceSymbol,
		Market:   core.MarketUS,
		Side:     trader.OrderSideBuy,
		Type:     trader.OrderTypeMarket,
		Quantity: 1,
	}
	account := &trader.AccountInfo{
		AccountID:   "validation",
		TotalAssets: 50000,
		Cash:        25000,
		BuyingPower: 25000,
	}
	_, _, level := mgr.ValidateOrder(req, account, nil)
	v.record("risk manager", true,
		fmt.Sprintf("trade validation completed at level %s", level))
}

// checkOrderManagement submits a one-share order. Only runs in dry-run
// mode; in live mode the check is skipped for safety.
func (v *Validator) checkOrderManagement(ctx context.Context) {
	if !v.cfg.Trading.DryRun {
		v.record("order management", true, "skipped order checks in live mode")
		return
	}

	if err := v.connect(ctx); err != nil {
		v.record("order management", false, fmt.Sprintf("connection error: %v", err))
		return
	}
	defer v.trader.Disconnect()

	order, err := v.trader.SubmitOrder(ctx, trader.OrderRequest{
		Symbol:   referenceSymbol,
		Market:   core.MarketUS,
		Side:     trader.OrderSideBuy,
		Type:     trader.OrderTypeMarket,
		Quantity: 1,
	})
	if err != nil {
		v.record("order management", false, fmt.Sprintf("order submission error: %v", err))
		return
	}

	switch order.Status {
	case trader.OrderStatusFilled, trader.OrderStatusSubmitted:
		v.record("order management", true,
			fmt.Sprintf("order submitted: %s (%s)", order.OrderID, order.Status))
	default:
		v.record("order management", false,
			fmt.Sprintf("order submission failed: %s: %s", order.Status, order.ErrorMessage))
	}
}

// referenceSymbol is the liquid symbol used for market data and order checks.
const referenceSymbol = "AAPL"

func (v *Validator) record(name string, passed bool, message string) {
	v.results = append(v.results, CheckResult{
		Name:      name,
		Passed:    passed,
		Message:   message,
		Timestamp: v.now(),
	})
	if passed {
		v.logger.Info("check passed", zap.String("check", name), zap.String("message", message))
	} else {
		v.logger.Warn("check failed", zap.String("check", name), zap.String("message", message))
	}
}

func (v *Validator) report() Report {
	passed := 0
	for _, r := range v.results {
		if r.Passed {
			passed++
		}
	}
	total := len(v.results)
	rate := 0.0
	if total > 0 {
		rate = float64(passed) / float64(total)
	}

	results := make([]CheckResult, len(v.results))
	copy(results, v.results)

	return Report{
		TotalChecks:     total,
		Passed:          passed,
		Failed:          total - passed,
		SuccessRate:     rate,
		Results:         results,
		Recommendations: v.recommendations(),
		GeneratedAt:     v.now(),
	}
}

func (v *Validator) recommendations() []string {
	var failed []CheckResult
	for _, r := range v.results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return []string{"all checks passed, system ready for trading"}
	}

	recs := []string{"address failed checks before live trading"}
	for _, r := range failed {
		switch r.Name {
		case "provider connection":
			recs = append(recs, "ensure the trading gateway is running and reachable")
		case "configuration", "futu port":
			recs = append(recs, "review and correct the trading configuration")
		case "risk limits", "risk manager":
			recs = append(recs, "review risk control settings")
		}
	}
	return recs
}
