package trader

import "github.com/openfund/livetrader/internal/core"

// OrderFromAction converts a portfolio action into an order request.
// Shorting sells shares not held, covering buys them back; hold maps
// to no order. Market orders by default, with the quoted price carried
// as a hint for fill simulation.
func OrderFromAction(symbol string, action core.Action, quantity int64, price float64) (OrderRequest, bool) {
	var side OrderSide
	switch action {
	case core.ActionBuy, core.ActionCover:
		side = OrderSideBuy
	case core.ActionSell, core.ActionShort:
		side = OrderSideSell
	default:
		return OrderRequest{}, false
	}

	return OrderRequest{
		Symbol:   symbol,
		Market:   core.DetectMarket(symbol),
		Side:     side,
		Type:     OrderTypeMarket,
		Quantity: quantity,
		Price:    price,
	}, true
}
