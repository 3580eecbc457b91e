package executor_test

import (
	"context"
	"testing"

	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/executor"
	"github.com/openfund/livetrader/internal/risk"
	"github.com/openfund/livetrader/internal/trader"
	"github.com/openfund/livetrader/internal/trader/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_ExecuteDecision_Buy(t *testing.T) {
	mock := mocks.New()
	require.NoError(t, mock.Connect(context.Background()))

	e := executor.New(mock, risk.NewManager(risk.DefaultLimits(), nil), nil)

	result, err := e.ExecuteDecision(context.Background(), core.Decision{
		Ticker:   "AAPL",
		Action:   core.ActionBuy,
		Quantity: 10,
	}, 175.50)
	require.NoError(t, err)

	require.NotNil(t, result.Order)
	assert.Equal(t, trader.OrderStatusFilled, result.Order.Status)
	assert.Equal(t, int64(10), result.Order.FilledQuantity)
	assert.False(t, result.Skipped)
	assert.False(t, result.RiskRejected)

	pos := e.Tracker().GetPosition("AAPL")
	assert.Equal(t, int64(10), pos.Quantity)
	assert.Equal(t, 175.50, pos.AverageCost)
}

func TestExecutor_ExecuteDecision_HoldSkipped(t *testing.T) {
	mock := mocks.New()
	require.NoError(t, mock.Connect(context.Background()))

	e := executor.New(mock, nil, nil)

	result, err := e.ExecuteDecision(context.Background(), core.Decision{
		Ticker:   "AAPL",
		Action:   core.ActionHold,
		Quantity: 0,
	}, 175.50)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Nil(t, result.Order)
	assert.Empty(t, mock.SubmittedOrders())
}

func TestExecutor_ExecuteDecision_RiskRejected(t *testing.T) {
	mock := mocks.New()
	require.NoError(t, mock.Connect(context.Background()))

	limits := risk.DefaultLimits()
	limits.MaxPositionSize = 100.0
	e := executor.New(mock, risk.NewManager(limits, nil), nil)

	result, err := e.ExecuteDecision(context.Background(), core.Decision{
		Ticker:   "AAPL",
		Action:   core.ActionBuy,
		Quantity: 10,
	}, 175.50)
	require.NoError(t, err)

	assert.True(t, result.RiskRejected)
	assert.Equal(t, risk.LevelCritical, result.RiskLevel)
	assert.Nil(t, result.Order)
	assert.Empty(t, mock.SubmittedOrders())
}

func TestExecutor_ExecuteDecision_ShortConvertsToSell(t *testing.T) {
	mock := mocks.New()
	require.NoError(t, mock.Connect(context.Background()))

	e := executor.New(mock, nil, nil)

	result, err := e.ExecuteDecision(context.Background(), core.Decision{
		Ticker:   "AAPL",
		Action:   core.ActionShort,
		Quantity: 5,
	}, 175.50)
	require.NoError(t, err)
	require.NotNil(t, result.Order)
	assert.Equal(t, trader.OrderSideSell, result.Order.Side)
}

func TestExecutor_ExecuteDecision_SubmitError(t *testing.T) {
	mock := mocks.New()
	require.NoError(t, mock.Connect(context.Background()))
	mock.FailSubmissions("gateway timeout")

	e := executor.New(mock, nil, nil)

	_, err := e.ExecuteDecision(context.Background(), core.Decision{
		Ticker:   "AAPL",
		Action:   core.ActionBuy,
		Quantity: 10,
	}, 175.50)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrOrderFailed)

	report := e.GetReport()
	assert.Equal(t, 1, report.TotalTrades)
	assert.Equal(t, 0, report.SuccessfulTrades)
	assert.Equal(t, 1, report.FailedTrades)
	require.Len(t, report.RecentFailures, 1)
	assert.Contains(t, report.RecentFailures[0].Error, "gateway timeout")
}

func TestExecutor_ValidateSession(t *testing.T) {
	mock := mocks.New()
	e := executor.New(mock, nil, nil)

	assert.ErrorIs(t, e.ValidateSession(context.Background()), trader.ErrNotConnected)

	require.NoError(t, mock.Connect(context.Background()))
	assert.NoError(t, e.ValidateSession(context.Background()))

	mock.SetAccount(&trader.AccountInfo{AccountID: "MOCK_ACCOUNT", BuyingPower: 0})
	assert.ErrorIs(t, e.ValidateSession(context.Background()), core.ErrNoBuyingPower)
}

func TestExecutor_GetReport(t *testing.T) {
	mock := mocks.New()
	require.NoError(t, mock.Connect(context.Background()))

	e := executor.New(mock, nil, nil)
	ctx := context.Background()

	_, err := e.ExecuteDecision(ctx, core.Decision{Ticker: "AAPL", Action: core.ActionBuy, Quantity: 10}, 175.50)
	require.NoError(t, err)
	_, err = e.ExecuteDecision(ctx, core.Decision{Ticker: "AAPL", Action: core.ActionSell, Quantity: 10}, 180.00)
	require.NoError(t, err)

	report := e.GetReport()
	assert.Equal(t, 2, report.TotalTrades)
	assert.Equal(t, 2, report.SuccessfulTrades)
	assert.Equal(t, 1.0, report.SuccessRate)
	assert.Greater(t, report.ExecutedValue, 0.0)
}

func TestTracker_UpdateOnFill(t *testing.T) {
	tracker := executor.NewPositionTracker(mocks.New())

	tracker.UpdateOnFill(&trader.Order{
		Symbol:           "AAPL",
		Side:             trader.OrderSideBuy,
		FilledQuantity:   100,
		AverageFillPrice: 100.0,
	})
	tracker.UpdateOnFill(&trader.Order{
		Symbol:           "AAPL",
		Side:             trader.OrderSideBuy,
		FilledQuantity:   100,
		AverageFillPrice: 110.0,
	})

	pos := tracker.GetPosition("AAPL")
	assert.Equal(t, int64(200), pos.Quantity)
	assert.InDelta(t, 105.0, pos.AverageCost, 0.001)

	// Sell half above cost: realizes (120-105)*100.
	tracker.UpdateOnFill(&trader.Order{
		Symbol:           "AAPL",
		Side:             trader.OrderSideSell,
		FilledQuantity:   100,
		AverageFillPrice: 120.0,
	})

	pos = tracker.GetPosition("AAPL")
	assert.Equal(t, int64(100), pos.Quantity)
	assert.InDelta(t, 1500.0, pos.RealizedPL, 0.001)
	assert.InDelta(t, 1500.0, tracker.TotalRealizedPL(), 0.001)

	// Close it out entirely: flat positions drop out of the listing.
	tracker.UpdateOnFill(&trader.Order{
		Symbol:           "AAPL",
		Side:             trader.OrderSideSell,
		FilledQuantity:   100,
		AverageFillPrice: 120.0,
	})
	assert.Empty(t, tracker.GetAllPositions())
	assert.InDelta(t, 3000.0, tracker.TotalRealizedPL(), 0.001)
}

func TestTracker_ShortCycle(t *testing.T) {
	tracker := executor.NewPositionTracker(mocks.New())

	// Selling with nothing held opens a short at the fill price.
	tracker.UpdateOnFill(&trader.Order{
		Symbol:           "AAPL",
		Side:             trader.OrderSideSell,
		FilledQuantity:   10,
		AverageFillPrice: 100.0,
	})

	pos := tracker.GetPosition("AAPL")
	assert.Equal(t, int64(-10), pos.Quantity)
	assert.InDelta(t, 100.0, pos.AverageCost, 0.001)
	assert.InDelta(t, 0.0, pos.RealizedPL, 0.001)
	assert.InDelta(t, 0.0, pos.UnrealizedPL, 0.001)

	// Covering below the entry realizes the gain.
	tracker.UpdateOnFill(&trader.Order{
		Symbol:           "AAPL",
		Side:             trader.OrderSideBuy,
		FilledQuantity:   10,
		AverageFillPrice: 80.0,
	})

	assert.Equal(t, int64(0), tracker.GetPosition("AAPL").Quantity)
	assert.InDelta(t, 200.0, tracker.TotalRealizedPL(), 0.001)
	assert.Empty(t, tracker.GetAllPositions())
}

func TestTracker_Sync(t *testing.T) {
	mock := mocks.New()
	require.NoError(t, mock.Connect(context.Background()))
	mock.SetPosition(trader.Position{Symbol: "AAPL", Quantity: 50, AverageCost: 150.0})

	tracker := executor.NewPositionTracker(mock)
	require.NoError(t, tracker.Sync(context.Background()))

	pos := tracker.GetPosition("AAPL")
	assert.Equal(t, int64(50), pos.Quantity)
	assert.False(t, tracker.LastSyncTime().IsZero())
}
