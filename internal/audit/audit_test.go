package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/openfund/livetrader/internal/audit"
	"github.com/openfund/livetrader/internal/audit/store"
	"github.com/openfund/livetrader/internal/config"
	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/trader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorder(t *testing.T) *audit.Recorder {
	t.Helper()
	fs, err := store.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	return audit.NewRecorder(fs, nil)
}

func TestNewTradeRecord(t *testing.T) {
	order := &trader.Order{
		OrderID:          "abc-123",
		Symbol:           "AAPL",
		Side:             trader.OrderSideBuy,
		Quantity:         10,
		FilledQuantity:   10,
		AverageFillPrice: 175.50,
		Commission:       1.0,
		Status:           trader.OrderStatusFilled,
	}
	decision := core.Decision{
		Ticker:     "AAPL",
		Action:     core.ActionBuy,
		Quantity:   10,
		Confidence: 85.0,
		Reasoning:  "momentum",
	}

	rec := audit.NewTradeRecord(order, decision, true)
	assert.NotEmpty(t, rec.RecordID)
	assert.Equal(t, "abc-123", rec.OrderID)
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, int64(10), rec.FilledQty)
	assert.Equal(t, 175.50, rec.FillPrice)
	assert.Equal(t, core.ActionBuy, rec.Action)
	assert.True(t, rec.DryRun)
}

func TestNewTradeRecord_NoOrder(t *testing.T) {
	rec := audit.NewTradeRecord(nil, core.Decision{Ticker: "MSFT", Action: core.ActionHold}, false)
	assert.Equal(t, "MSFT", rec.Symbol)
	assert.Empty(t, rec.OrderID)
}

func TestRecorder_RecordAndListTrades(t *testing.T) {
	r := newRecorder(t)
	ctx := context.Background()

	now := time.Now()
	for _, symbol := range []string{"AAPL", "MSFT"} {
		rec := audit.NewTradeRecord(&trader.Order{
			OrderID: symbol + "-1",
			Symbol:  symbol,
			Side:    trader.OrderSideBuy,
			Status:  trader.OrderStatusFilled,
		}, core.Decision{Ticker: symbol, Action: core.ActionBuy}, false)
		require.NoError(t, r.RecordTrade(ctx, rec))
	}

	records, err := r.TradesOn(ctx, now)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRecorder_RecordSession(t *testing.T) {
	fs, err := store.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	r := audit.NewRecorder(fs, nil)
	ctx := context.Background()

	rec := audit.SessionRecord{
		StartedAt:        time.Now(),
		FinishedAt:       time.Now(),
		Tickers:          []string{"AAPL"},
		DryRun:           true,
		TotalDecisions:   1,
		SuccessfulTrades: 1,
	}
	require.NoError(t, r.RecordSession(ctx, rec))

	paths, err := fs.List(ctx, "sessions")
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestFromConfig_Disabled(t *testing.T) {
	r, err := audit.FromConfig(config.AuditConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestFromConfig_LocalFS(t *testing.T) {
	r, err := audit.FromConfig(config.AuditConfig{
		Enabled: true,
		Type:    "localfs",
		Path:    t.TempDir(),
	}, nil)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestFromConfig_UnknownType(t *testing.T) {
	_, err := audit.FromConfig(config.AuditConfig{Enabled: true, Type: "tape"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}
