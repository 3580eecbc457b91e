// Package advisor asks a language model for trading decisions.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/trader"
	"go.uber.org/zap"
)

// Provider defines the interface for LLM backends.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// Message represents a chat message
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

const systemPrompt = `You are a portfolio manager for a quantitative fund.
Given the account state, open positions and current prices, decide for each
ticker whether to buy, sell, short, cover or hold, with a share quantity and
a confidence between 0 and 100.
Respond with a JSON object mapping each ticker to
{"action": ..., "quantity": ..., "confidence": ..., "reasoning": ...}.
Respond with JSON only.`

// Snapshot is the account state handed to the model.
type Snapshot struct {
	Cash        float64            `json:"cash"`
	TotalAssets float64            `json:"total_assets"`
	Positions   []trader.Position  `json:"positions"`
	Prices      map[string]float64 `json:"prices"`
}

// Advisor builds decision prompts and parses model output.
type Advisor struct {
	provider Provider
	logger   *zap.Logger
}

// New creates an Advisor on top of the given provider.
func New(provider Provider, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{provider: provider, logger: logger}
}

// Decide asks the model for a decision per ticker.
func (a *Advisor) Decide(ctx context.Context, tickers []string, snapshot Snapshot) ([]core.Decision, error) {
	if len(tickers) == 0 {
		return nil, core.ErrNoDecisions
	}

	prompt, err := buildPrompt(tickers, snapshot)
	if err != nil {
		return nil, core.WrapError(core.ErrAdvisorFailed, err)
	}

	resp, err := a.provider.Chat(ctx, ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: "user", Content: prompt}},
		MaxTokens:    2048,
		Temperature:  0.2,
		JSONMode:     true,
	})
	if err != nil {
		return nil, core.WrapError(core.ErrAdvisorFailed, err)
	}

	a.logger.Debug("advisor response",
		zap.String("provider", a.provider.Name()),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens))

	decisions, err := ParseDecisions(resp.Content)
	if err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		return nil, core.ErrNoDecisions
	}
	return decisions, nil
}

func buildPrompt(tickers []string, snapshot Snapshot) (string, error) {
	state, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot: %w", err)
	}

	var b strings.Builder
	b.WriteString("Tickers: ")
	b.WriteString(strings.Join(tickers, ", "))
	b.WriteString("\n\nAccount state:\n")
	b.Write(state)
	b.WriteString("\n\nReturn one decision per ticker.")
	return b.String(), nil
}

// rawDecision matches the per-ticker object in the model output.
type rawDecision struct {
	Action     string  `json:"action"`
	Quantity   int64   `json:"quantity"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ParseDecisions extracts decisions from a model response. The response is
// expected to be a JSON object keyed by ticker; markdown code fences around
// the JSON are tolerated.
func ParseDecisions(content string) ([]core.Decision, error) {
	cleaned := stripFences(content)

	var raw map[string]rawDecision
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, core.WrapError(core.ErrDecisionsParse, err)
	}

	decisions := make([]core.Decision, 0, len(raw))
	for ticker, d := range raw {
		action := core.Action(strings.ToLower(strings.TrimSpace(d.Action)))
		switch action {
		case core.ActionBuy, core.ActionSell, core.ActionShort, core.ActionCover, core.ActionHold:
		case "":
			action = core.ActionHold
		default:
			return nil, core.WrapError(core.ErrDecisionsParse,
				fmt.Errorf("unknown action %q for %s", d.Action, ticker))
		}

		decisions = append(decisions, core.Decision{
			Ticker:     strings.ToUpper(ticker),
			Action:     action,
			Quantity:   d.Quantity,
			Confidence: d.Confidence,
			Reasoning:  d.Reasoning,
		})
	}

	// Map iteration order is random; keep execution and audit order stable.
	sort.Slice(decisions, func(i, j int) bool {
		return decisions[i].Ticker < decisions[j].Ticker
	})
	return decisions, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
