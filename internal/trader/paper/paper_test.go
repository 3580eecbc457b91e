package paper_test

import (
	"context"
	"testing"

	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/quote"
	"github.com/openfund/livetrader/internal/trader"
	"github.com/openfund/livetrader/internal/trader/paper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConnected(t *testing.T, prices map[string]float64) *paper.Trader {
	t.Helper()
	tr := paper.New(paper.DefaultConfig(), quote.NewStatic(prices))
	require.NoError(t, tr.Connect(context.Background()))
	t.Cleanup(func() { tr.Disconnect() })
	return tr
}

func TestPaper_ImplementsTrader(t *testing.T) {
	var _ trader.Trader = (*paper.Trader)(nil)
}

func TestPaper_ConnectTwice(t *testing.T) {
	tr := paper.New(paper.DefaultConfig(), quote.NewStatic(nil))
	require.NoError(t, tr.Connect(context.Background()))
	assert.ErrorIs(t, tr.Connect(context.Background()), trader.ErrAlreadyConnected)
}

func TestPaper_NotConnected(t *testing.T) {
	tr := paper.New(paper.DefaultConfig(), quote.NewStatic(nil))

	_, err := tr.AccountInfo(context.Background())
	assert.ErrorIs(t, err, trader.ErrNotConnected)

	_, err = tr.SubmitOrder(context.Background(), trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideBuy, Type: trader.OrderTypeMarket, Quantity: 10,
	})
	assert.ErrorIs(t, err, trader.ErrNotConnected)
}

func TestPaper_BuyFillsAtQuote(t *testing.T) {
	tr := newConnected(t, map[string]float64{"AAPL": 100.0})

	order, err := tr.SubmitOrder(context.Background(), trader.OrderRequest{
		Symbol:   "AAPL",
		Market:   core.MarketUS,
		Side:     trader.OrderSideBuy,
		Type:     trader.OrderTypeMarket,
		Quantity: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, trader.OrderStatusFilled, order.Status)
	assert.Equal(t, int64(100), order.FilledQuantity)
	assert.Equal(t, 100.0, order.AverageFillPrice)
	assert.NotEmpty(t, order.OrderID)

	info, err := tr.AccountInfo(context.Background())
	require.NoError(t, err)
	// 50000 - 100*100 - 1 commission
	assert.InDelta(t, 39999.0, info.Cash, 0.01)

	positions, err := tr.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(100), positions[0].Quantity)
	assert.Equal(t, 100.0, positions[0].AverageCost)
}

func TestPaper_BuyInsufficientFunds(t *testing.T) {
	tr := newConnected(t, map[string]float64{"AAPL": 1000.0})

	order, err := tr.SubmitOrder(context.Background(), trader.OrderRequest{
		Symbol:   "AAPL",
		Side:     trader.OrderSideBuy,
		Type:     trader.OrderTypeMarket,
		Quantity: 1000, // $1M against $50k cash
	})
	require.NoError(t, err)
	assert.Equal(t, trader.OrderStatusRejected, order.Status)
	assert.Contains(t, order.ErrorMessage, "insufficient funds")

	positions, err := tr.Positions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestPaper_SellWithoutSharesRejected(t *testing.T) {
	tr := newConnected(t, map[string]float64{"AAPL": 100.0})

	order, err := tr.SubmitOrder(context.Background(), trader.OrderRequest{
		Symbol:   "AAPL",
		Side:     trader.OrderSideSell,
		Type:     trader.OrderTypeMarket,
		Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, trader.OrderStatusRejected, order.Status)
}

func TestPaper_ShortSellingWhenEnabled(t *testing.T) {
	cfg := paper.DefaultConfig()
	cfg.EnableShortSelling = true
	tr := paper.New(cfg, quote.NewStatic(map[string]float64{"AAPL": 100.0}))
	require.NoError(t, tr.Connect(context.Background()))

	order, err := tr.SubmitOrder(context.Background(), trader.OrderRequest{
		Symbol:   "AAPL",
		Side:     trader.OrderSideSell,
		Type:     trader.OrderTypeMarket,
		Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, trader.OrderStatusFilled, order.Status)

	positions, err := tr.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].IsShort())
}

func TestPaper_ShortOpenRealizesNothing(t *testing.T) {
	cfg := paper.DefaultConfig()
	cfg.EnableShortSelling = true
	tr := paper.New(cfg, quote.NewStatic(map[string]float64{"AAPL": 100.0}))
	require.NoError(t, tr.Connect(context.Background()))
	ctx := context.Background()

	_, err := tr.SubmitOrder(ctx, trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideSell, Type: trader.OrderTypeMarket, Quantity: 10,
	})
	require.NoError(t, err)

	positions, err := tr.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	// Opening a short establishes a cost basis; nothing is realized yet.
	assert.Equal(t, int64(-10), positions[0].Quantity)
	assert.Equal(t, 100.0, positions[0].AverageCost)
	assert.InDelta(t, 0.0, positions[0].RealizedPL, 0.01)
	assert.InDelta(t, 0.0, positions[0].UnrealizedPL, 0.01)

	info, err := tr.AccountInfo(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, info.RealizedPL, 0.01)
}

func TestPaper_ShortCoverRealizesPL(t *testing.T) {
	cfg := paper.DefaultConfig()
	cfg.EnableShortSelling = true
	src := quote.NewStatic(map[string]float64{"AAPL": 100.0})
	tr := paper.New(cfg, src)
	require.NoError(t, tr.Connect(context.Background()))
	ctx := context.Background()

	_, err := tr.SubmitOrder(ctx, trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideSell, Type: trader.OrderTypeMarket, Quantity: 10,
	})
	require.NoError(t, err)

	// Price drops, buy to cover.
	src.SetPrice("AAPL", 80.0)

	order, err := tr.SubmitOrder(ctx, trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideBuy, Type: trader.OrderTypeMarket, Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, trader.OrderStatusFilled, order.Status)

	info, err := tr.AccountInfo(ctx)
	require.NoError(t, err)
	// Shorted at 100, covered at 80.
	assert.InDelta(t, 200.0, info.RealizedPL, 0.01)
	// 50000 + 1000 proceeds - 800 cover, two $1 commissions.
	assert.InDelta(t, 50198.0, info.Cash, 0.01)

	positions, err := tr.Positions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestPaper_RoundTripRealizesPL(t *testing.T) {
	src := quote.NewStatic(map[string]float64{"AAPL": 100.0})
	tr := paper.New(paper.DefaultConfig(), src)
	require.NoError(t, tr.Connect(context.Background()))
	ctx := context.Background()

	_, err := tr.SubmitOrder(ctx, trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideBuy, Type: trader.OrderTypeMarket, Quantity: 100,
	})
	require.NoError(t, err)

	// Price moves up, then sell everything.
	src.SetPrice("AAPL", 110.0)

	order, err := tr.SubmitOrder(ctx, trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideSell, Type: trader.OrderTypeMarket, Quantity: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, trader.OrderStatusFilled, order.Status)

	info, err := tr.AccountInfo(ctx)
	require.NoError(t, err)
	// Bought at 100, sold at 110, two $1 commissions.
	assert.InDelta(t, 50998.0, info.Cash, 0.01)
	positions, err := tr.Positions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestPaper_LimitOrderMarketability(t *testing.T) {
	tr := newConnected(t, map[string]float64{"AAPL": 100.0})
	ctx := context.Background()

	// Buy limit below the quote is not marketable.
	order, err := tr.SubmitOrder(ctx, trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideBuy, Type: trader.OrderTypeLimit, Quantity: 10, Price: 90.0,
	})
	require.NoError(t, err)
	assert.Equal(t, trader.OrderStatusRejected, order.Status)

	// Buy limit at or above the quote fills at the limit price.
	order, err = tr.SubmitOrder(ctx, trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideBuy, Type: trader.OrderTypeLimit, Quantity: 10, Price: 101.0,
	})
	require.NoError(t, err)
	assert.Equal(t, trader.OrderStatusFilled, order.Status)
	assert.Equal(t, 101.0, order.AverageFillPrice)
}

func TestPaper_GetOrder(t *testing.T) {
	tr := newConnected(t, map[string]float64{"AAPL": 100.0})
	ctx := context.Background()

	order, err := tr.SubmitOrder(ctx, trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideBuy, Type: trader.OrderTypeMarket, Quantity: 10,
	})
	require.NoError(t, err)

	got, err := tr.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, got.OrderID)

	_, err = tr.GetOrder(ctx, "nope")
	assert.ErrorIs(t, err, trader.ErrOrderNotFound)
}

func TestPaper_CancelFilledOrder(t *testing.T) {
	tr := newConnected(t, map[string]float64{"AAPL": 100.0})
	ctx := context.Background()

	order, err := tr.SubmitOrder(ctx, trader.OrderRequest{
		Symbol: "AAPL", Side: trader.OrderSideBuy, Type: trader.OrderTypeMarket, Quantity: 10,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, tr.CancelOrder(ctx, order.OrderID), trader.ErrOrderNotCancellable)
}

func TestPaper_NoQuoteForSymbol(t *testing.T) {
	tr := newConnected(t, nil)

	_, err := tr.SubmitOrder(context.Background(), trader.OrderRequest{
		Symbol: "MSFT", Side: trader.OrderSideBuy, Type: trader.OrderTypeMarket, Quantity: 10,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoMarketPrice)
}
