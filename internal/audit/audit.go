// Package audit persists a trade and session trail for later review.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openfund/livetrader/internal/audit/store"
	"github.com/openfund/livetrader/internal/config"
	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/trader"
	"go.uber.org/zap"
)

// TradeRecord is the persisted form of one executed or attempted trade.
type TradeRecord struct {
	RecordID   string           `json:"record_id"`
	Timestamp  time.Time        `json:"timestamp"`
	OrderID    string           `json:"order_id"`
	Symbol     string           `json:"symbol"`
	Side       trader.OrderSide `json:"side"`
	Quantity   int64            `json:"quantity"`
	FilledQty  int64            `json:"filled_qty"`
	FillPrice  float64          `json:"fill_price"`
	Commission float64          `json:"commission"`
	Status     string           `json:"status"`
	Action     core.Action      `json:"action"`
	Confidence float64          `json:"confidence"`
	Reasoning  string           `json:"reasoning,omitempty"`
	DryRun     bool             `json:"dry_run"`
}

// SessionRecord is the persisted summary of one trading session.
type SessionRecord struct {
	SessionID        string        `json:"session_id"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
	Tickers          []string      `json:"tickers"`
	DryRun           bool          `json:"dry_run"`
	TotalDecisions   int           `json:"total_decisions"`
	SuccessfulTrades int           `json:"successful_trades"`
	ExecutedValue    float64       `json:"executed_value"`
	FinalCash        float64       `json:"final_cash"`
	FinalAssets      float64       `json:"final_assets"`
	Error            string        `json:"error,omitempty"`
	Trades           []TradeRecord `json:"trades,omitempty"`
}

// Recorder writes audit records to a storage backend.
type Recorder struct {
	storage store.Storage
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecorder creates a Recorder on the given storage.
func NewRecorder(storage store.Storage, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{storage: storage, logger: logger, now: time.Now}
}

// FromConfig builds a Recorder from configuration. Returns nil when the
// audit trail is disabled.
func FromConfig(cfg config.AuditConfig, logger *zap.Logger) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var (
		storage store.Storage
		err     error
	)
	switch cfg.Type {
	case "s3":
		storage, err = store.NewS3(store.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	case "localfs", "":
		path := cfg.Path
		if path == "" {
			path = "audit"
		}
		storage, err = store.NewLocalFS(path)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown audit storage type: %s", cfg.Type))
	}
	if err != nil {
		return nil, core.WrapError(core.ErrAuditFailed, err)
	}
	return NewRecorder(storage, logger), nil
}

// NewTradeRecord builds a TradeRecord from an order and the decision that
// produced it.
func NewTradeRecord(order *trader.Order, d core.Decision, dryRun bool) TradeRecord {
	rec := TradeRecord{
		RecordID:   uuid.NewString(),
		Timestamp:  time.Now(),
		Action:     d.Action,
		Confidence: d.Confidence,
		Reasoning:  d.Reasoning,
		DryRun:     dryRun,
	}
	if order != nil {
		rec.OrderID = order.OrderID
		rec.Symbol = order.Symbol
		rec.Side = order.Side
		rec.Quantity = order.Quantity
		rec.FilledQty = order.FilledQuantity
		rec.FillPrice = order.AverageFillPrice
		rec.Commission = order.Commission
		rec.Status = string(order.Status)
	} else {
		rec.Symbol = d.Ticker
	}
	return rec
}

// RecordTrade persists a single trade record under a dated path.
func (r *Recorder) RecordTrade(ctx context.Context, rec TradeRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return core.WrapError(core.ErrAuditFailed, err)
	}

	path := fmt.Sprintf("trades/%s/%s.json", rec.Timestamp.Format("2006-01-02"), rec.RecordID)
	if err := r.storage.Write(ctx, path, data); err != nil {
		return core.WrapError(core.ErrAuditFailed, err)
	}

	r.logger.Debug("trade recorded", zap.String("path", path), zap.String("symbol", rec.Symbol))
	return nil
}

// RecordSession persists a session summary.
func (r *Recorder) RecordSession(ctx context.Context, rec SessionRecord) error {
	if rec.SessionID == "" {
		rec.SessionID = uuid.NewString()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return core.WrapError(core.ErrAuditFailed, err)
	}

	path := fmt.Sprintf("sessions/%s/%s.json", rec.StartedAt.Format("2006-01-02"), rec.SessionID)
	if err := r.storage.Write(ctx, path, data); err != nil {
		return core.WrapError(core.ErrAuditFailed, err)
	}

	r.logger.Info("session recorded",
		zap.String("path", path),
		zap.Int("trades", rec.SuccessfulTrades))
	return nil
}

// TradesOn lists the trade records persisted on a given day.
func (r *Recorder) TradesOn(ctx context.Context, day time.Time) ([]TradeRecord, error) {
	paths, err := r.storage.List(ctx, "trades/"+day.Format("2006-01-02"))
	if err != nil {
		return nil, core.WrapError(core.ErrAuditFailed, err)
	}

	records := make([]TradeRecord, 0, len(paths))
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			return nil, core.WrapError(core.ErrAuditFailed, err)
		}
		var rec TradeRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, core.WrapError(core.ErrAuditFailed, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
