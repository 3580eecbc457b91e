// Package session orchestrates a single live trading session: gather a
// portfolio snapshot, ask the advisor for decisions, execute them through
// the risk-gated executor, then persist and deliver the results.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openfund/livetrader/internal/advisor"
	"github.com/openfund/livetrader/internal/audit"
	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/executor"
	"github.com/openfund/livetrader/internal/metrics"
	"github.com/openfund/livetrader/internal/notifier"
	"github.com/openfund/livetrader/internal/risk"
	"github.com/openfund/livetrader/internal/trader"
)

// Outcome status values attached to decision outcomes.
const (
	StatusExecuted = "executed"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
)

// Deps collects the collaborators a session needs. Trader, Advisor and
// Executor are required; the rest are optional.
type Deps struct {
	Trader    trader.Trader
	Advisor   *advisor.Advisor
	Executor  *executor.Executor
	Risk      *risk.Manager
	Audit     *audit.Recorder
	Notifiers *notifier.Registry
	Metrics   *metrics.Registry
	Logger    *zap.Logger
}

// Result is the outcome of one completed session.
type Result struct {
	SessionID        string                     `json:"session_id"`
	StartedAt        time.Time                  `json:"started_at"`
	FinishedAt       time.Time                  `json:"finished_at"`
	Tickers          []string                   `json:"tickers"`
	DryRun           bool                       `json:"dry_run"`
	Decisions        []core.Decision            `json:"decisions"`
	Outcomes         []notifier.DecisionOutcome `json:"outcomes"`
	TotalDecisions   int                        `json:"total_decisions"`
	SuccessfulTrades int                        `json:"successful_trades"`
	ExecutedValue    float64                    `json:"executed_value"`
	FinalAccount     *trader.AccountInfo        `json:"final_account,omitempty"`
	RiskSummary      risk.Summary               `json:"risk_summary"`
}

// Session runs trading sessions against a connected provider.
type Session struct {
	trader    trader.Trader
	advisor   *advisor.Advisor
	executor  *executor.Executor
	risk      *risk.Manager
	audit     *audit.Recorder
	notifiers *notifier.Registry
	metrics   *metrics.Registry
	logger    *zap.Logger

	dryRun bool
	now    func() time.Time
}

// New creates a Session. Trader, Advisor and Executor must be set on deps.
func New(deps Deps, dryRun bool) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		trader:    deps.Trader,
		advisor:   deps.Advisor,
		executor:  deps.Executor,
		risk:      deps.Risk,
		audit:     deps.Audit,
		notifiers: deps.Notifiers,
		metrics:   deps.Metrics,
		logger:    logger,
		dryRun:    dryRun,
		now:       time.Now,
	}
}

// Run executes one full session for the given tickers. Per-decision
// failures are recorded as outcomes; an error return means the session
// itself could not proceed.
func (s *Session) Run(ctx context.Context, tickers []string) (*Result, error) {
	start := s.now()
	result := &Result{
		SessionID: uuid.NewString(),
		StartedAt: start,
		Tickers:   tickers,
		DryRun:    s.dryRun,
	}

	s.logger.Info("session starting",
		zap.String("session_id", result.SessionID),
		zap.Strings("tickers", tickers),
		zap.Bool("dry_run", s.dryRun))

	if err := s.connect(ctx); err != nil {
		s.finishWithError(ctx, result, err)
		return nil, core.WrapError(core.ErrTraderDisconnected, err)
	}
	defer func() {
		if err := s.trader.Disconnect(); err != nil && !errors.Is(err, trader.ErrNotConnected) {
			s.logger.Warn("disconnect failed", zap.Error(err))
		}
	}()

	if err := s.executor.ValidateSession(ctx); err != nil {
		s.finishWithError(ctx, result, err)
		return nil, err
	}
	s.logger.Info("connected and ready", zap.String("provider", s.trader.Name()))

	snapshot, err := s.buildSnapshot(ctx, tickers)
	if err != nil {
		s.finishWithError(ctx, result, err)
		return nil, err
	}

	decisions, err := s.decide(ctx, tickers, snapshot)
	if err != nil {
		s.finishWithError(ctx, result, err)
		return nil, err
	}
	result.Decisions = decisions
	result.TotalDecisions = len(decisions)

	for _, d := range decisions {
		s.logger.Info("advisor decision",
			zap.String("ticker", d.Ticker),
			zap.String("action", string(d.Action)),
			zap.Int64("quantity", d.Quantity),
			zap.Float64("confidence", d.Confidence))
	}

	for _, d := range decisions {
		if ctx.Err() != nil {
			s.finishWithError(ctx, result, ctx.Err())
			return nil, ctx.Err()
		}
		result.Outcomes = append(result.Outcomes, s.executeOne(ctx, d))
	}

	s.summarize(ctx, result)
	s.finish(ctx, result, "")

	s.logger.Info("session completed",
		zap.String("session_id", result.SessionID),
		zap.Int("successful_trades", result.SuccessfulTrades),
		zap.Int("total_decisions", result.TotalDecisions),
		zap.Float64("executed_value", result.ExecutedValue))

	return result, nil
}

func (s *Session) connect(ctx context.Context) error {
	err := s.trader.Connect(ctx)
	if errors.Is(err, trader.ErrAlreadyConnected) {
		return nil
	}
	return err
}

// buildSnapshot gathers the account state and current prices the advisor
// reasons over. A missing price for one ticker does not fail the session.
func (s *Session) buildSnapshot(ctx context.Context, tickers []string) (advisor.Snapshot, error) {
	account, err := s.trader.AccountInfo(ctx)
	if err != nil {
		return advisor.Snapshot{}, core.WrapError(core.ErrTraderDisconnected, err)
	}

	positions, err := s.trader.Positions(ctx)
	if err != nil {
		return advisor.Snapshot{}, core.WrapError(core.ErrTraderDisconnected, err)
	}
	if err := s.executor.Tracker().Sync(ctx); err != nil {
		s.logger.Warn("position tracker sync failed", zap.Error(err))
	}

	prices := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		price, err := s.trader.MarketPrice(ctx, t)
		if err != nil {
			s.logger.Warn("no market price for snapshot",
				zap.String("ticker", t), zap.Error(err))
			continue
		}
		prices[t] = price
	}

	s.logger.Info("portfolio snapshot",
		zap.Float64("cash", account.Cash),
		zap.Float64("total_assets", account.TotalAssets),
		zap.Int("positions", len(positions)))

	return advisor.Snapshot{
		Cash:        account.Cash,
		TotalAssets: account.TotalAssets,
		Positions:   positions,
		Prices:      prices,
	}, nil
}

func (s *Session) decide(ctx context.Context, tickers []string, snapshot advisor.Snapshot) ([]core.Decision, error) {
	s.logger.Info("requesting advisor decisions")
	began := s.now()
	decisions, err := s.advisor.Decide(ctx, tickers, snapshot)
	if s.metrics != nil {
		s.metrics.RecordAdvisorCall(s.now().Sub(began).Seconds())
	}
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

// executeOne runs a single decision through the executor and maps the
// result to an outcome line.
func (s *Session) executeOne(ctx context.Context, d core.Decision) notifier.DecisionOutcome {
	outcome := notifier.DecisionOutcome{
		Ticker:   d.Ticker,
		Action:   d.Action,
		Quantity: d.Quantity,
	}

	if d.Action == core.ActionHold || d.Quantity <= 0 {
		outcome.Status = StatusSkipped
		outcome.Reason = "hold"
		return outcome
	}

	price, err := s.trader.MarketPrice(ctx, d.Ticker)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = fmt.Sprintf("no market price: %v", err)
		s.recordTradeMetrics(d, outcome.Status, 0)
		s.auditTrade(ctx, nil, d)
		return outcome
	}
	outcome.Price = price

	res, err := s.executor.ExecuteDecision(ctx, d, price)
	switch {
	case err != nil:
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		s.recordTradeMetrics(d, outcome.Status, 0)
		s.auditTrade(ctx, nil, d)
	case res.RiskRejected:
		outcome.Status = StatusRejected
		outcome.Reason = res.Reason
		if s.metrics != nil {
			s.metrics.RecordRiskRejection(string(res.RiskLevel))
		}
		s.auditTrade(ctx, nil, d)
	case res.Skipped:
		outcome.Status = StatusSkipped
		outcome.Reason = res.Reason
	case res.Order != nil && res.Order.Succeeded():
		outcome.Status = StatusExecuted
		outcome.Price = res.Order.AverageFillPrice
		outcome.Quantity = res.Order.FilledQuantity
		s.recordTradeMetrics(d, outcome.Status,
			res.Order.AverageFillPrice*float64(res.Order.FilledQuantity))
		s.auditTrade(ctx, res.Order, d)
	default:
		outcome.Status = StatusFailed
		outcome.Reason = res.Reason
		s.recordTradeMetrics(d, outcome.Status, 0)
		s.auditTrade(ctx, res.Order, d)
	}

	return outcome
}

func (s *Session) recordTradeMetrics(d core.Decision, status string, value float64) {
	if s.metrics != nil {
		s.metrics.RecordTrade(string(d.Action), status, value)
	}
}

func (s *Session) auditTrade(ctx context.Context, order *trader.Order, d core.Decision) {
	if s.audit == nil {
		return
	}
	rec := audit.NewTradeRecord(order, d, s.dryRun)
	if err := s.audit.RecordTrade(ctx, rec); err != nil {
		s.logger.Warn("audit trade record failed",
			zap.String("ticker", d.Ticker), zap.Error(err))
	}
}

// summarize fills the final account and risk state on the result.
func (s *Session) summarize(ctx context.Context, result *Result) {
	report := s.executor.GetReport()
	result.SuccessfulTrades = report.SuccessfulTrades
	result.ExecutedValue = report.ExecutedValue

	if account, err := s.trader.AccountInfo(ctx); err == nil {
		result.FinalAccount = account
	} else {
		s.logger.Warn("final account summary unavailable", zap.Error(err))
	}

	if s.risk != nil {
		result.RiskSummary = s.risk.GetSummary()
		if result.RiskSummary.CircuitBreakerActive {
			s.logger.Warn("circuit breaker active at session end")
		}
	}

	if s.metrics != nil {
		s.metrics.SetOpenPositions(len(s.executor.Tracker().GetAllPositions()))
	}
}

// finish persists the session record, delivers notifications and records
// session metrics. Failures here are logged, not returned: the trading
// work is already done.
func (s *Session) finish(ctx context.Context, result *Result, errMsg string) {
	result.FinishedAt = s.now()
	duration := result.FinishedAt.Sub(result.StartedAt).Seconds()

	status := "completed"
	if errMsg != "" {
		status = "failed"
	}
	if s.metrics != nil {
		s.metrics.RecordSession(status, duration)
	}

	if s.audit != nil {
		rec := audit.SessionRecord{
			SessionID:        result.SessionID,
			StartedAt:        result.StartedAt,
			FinishedAt:       result.FinishedAt,
			Tickers:          result.Tickers,
			DryRun:           result.DryRun,
			TotalDecisions:   result.TotalDecisions,
			SuccessfulTrades: result.SuccessfulTrades,
			ExecutedValue:    result.ExecutedValue,
			Error:            errMsg,
		}
		if result.FinalAccount != nil {
			rec.FinalCash = result.FinalAccount.Cash
			rec.FinalAssets = result.FinalAccount.TotalAssets
		}
		if err := s.audit.RecordSession(ctx, rec); err != nil {
			s.logger.Warn("audit session record failed", zap.Error(err))
		}
	}

	if s.notifiers != nil {
		report := notifier.Report{
			SessionID:        result.SessionID,
			DryRun:           result.DryRun,
			Tickers:          result.Tickers,
			Outcomes:         result.Outcomes,
			SuccessfulTrades: result.SuccessfulTrades,
			TotalDecisions:   result.TotalDecisions,
			ExecutedValue:    result.ExecutedValue,
			CircuitBreaker:   result.RiskSummary.CircuitBreakerActive,
			FinishedAt:       result.FinishedAt,
			Error:            errMsg,
		}
		if result.FinalAccount != nil {
			report.FinalCash = result.FinalAccount.Cash
			report.FinalAssets = result.FinalAccount.TotalAssets
		}
		for name, err := range s.notifiers.NotifyAll(report) {
			if err != nil {
				s.logger.Warn("notifier delivery failed",
					zap.String("notifier", name), zap.Error(err))
			}
		}
	}
}

func (s *Session) finishWithError(ctx context.Context, result *Result, err error) {
	s.logger.Error("session failed",
		zap.String("session_id", result.SessionID), zap.Error(err))
	s.finish(ctx, result, err.Error())
}
