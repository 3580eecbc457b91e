package core

import "time"

// Market represents a trading market
type Market string

const (
	MarketUS  Market = "US"
	MarketHK  Market = "HK"
	MarketCNA Market = "CN_A"
)

// Action represents a portfolio action produced by the advisor
type Action string

const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionShort Action = "short"
	ActionCover Action = "cover"
	ActionHold  Action = "hold"
)

// IsTradable returns true if the action results in an order
func (a Action) IsTradable() bool {
	switch a {
	case ActionBuy, ActionSell, ActionShort, ActionCover:
		return true
	}
	return false
}

// Quote represents a real-time price quote
type Quote struct {
	Symbol string
	Market Market
	Price  float64
	Volume int64
	Time   time.Time
	Source string
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// Decision is a per-ticker trading decision from the advisor
type Decision struct {
	Ticker     string  `json:"ticker"`
	Action     Action  `json:"action"`
	Quantity   int64   `json:"quantity"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// DetectMarket guesses the market from the symbol format.
// Five-digit numeric symbols are HK (e.g. 00700), six-digit are
// CN A-shares, everything else defaults to US.
func DetectMarket(symbol string) Market {
	if isDigits(symbol) {
		switch len(symbol) {
		case 5:
			return MarketHK
		case 6:
			return MarketCNA
		}
	}
	return MarketUS
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
