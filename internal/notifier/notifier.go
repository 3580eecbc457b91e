package notifier

import (
	"time"

	"github.com/openfund/livetrader/internal/core"
)

// DecisionOutcome is one line of a session report: what the advisor decided
// and what happened to it.
type DecisionOutcome struct {
	Ticker   string      `json:"ticker"`
	Action   core.Action `json:"action"`
	Quantity int64       `json:"quantity"`
	Price    float64     `json:"price"`
	Status   string      `json:"status"` // "executed", "rejected", "failed", "skipped"
	Reason   string      `json:"reason,omitempty"`
}

// Report summarizes a completed trading session for delivery.
type Report struct {
	SessionID        string            `json:"session_id"`
	DryRun           bool              `json:"dry_run"`
	Tickers          []string          `json:"tickers"`
	Outcomes         []DecisionOutcome `json:"outcomes"`
	SuccessfulTrades int               `json:"successful_trades"`
	TotalDecisions   int               `json:"total_decisions"`
	ExecutedValue    float64           `json:"executed_value"`
	FinalCash        float64           `json:"final_cash"`
	FinalAssets      float64           `json:"final_assets"`
	CircuitBreaker   bool              `json:"circuit_breaker"`
	FinishedAt       time.Time         `json:"finished_at"`
	Error            string            `json:"error,omitempty"`
}

// Notifier defines the interface for session report delivery
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// SendReport delivers a session report
	SendReport(report Report) error
}
