package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/notifier"
)

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

// SendReport formats a session report and posts it to the chat.
func (t *Telegram) SendReport(report notifier.Report) error {
	return t.sendMessage(formatReport(report))
}

func formatReport(report notifier.Report) string {
	var sb strings.Builder

	mode := "LIVE"
	if report.DryRun {
		mode = "DRY RUN"
	}
	sb.WriteString(fmt.Sprintf("📊 *Trading Session* (%s)\n", mode))
	sb.WriteString(fmt.Sprintf("🎯 Tickers: %s\n", strings.Join(report.Tickers, ", ")))
	sb.WriteString(fmt.Sprintf("✅ Trades: %d/%d\n", report.SuccessfulTrades, report.TotalDecisions))
	sb.WriteString(fmt.Sprintf("💰 Executed value: $%.2f\n", report.ExecutedValue))

	for _, o := range report.Outcomes {
		emoji := "📈"
		switch o.Action {
		case core.ActionSell, core.ActionShort:
			emoji = "📉"
		case core.ActionHold:
			emoji = "⏸️"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s %d @ $%.2f (%s)\n",
			emoji, o.Ticker, strings.ToUpper(string(o.Action)), o.Quantity, o.Price, o.Status))
	}

	if report.CircuitBreaker {
		sb.WriteString("🔴 Circuit breaker active\n")
	}
	if report.Error != "" {
		sb.WriteString(fmt.Sprintf("❌ Error: %s\n", report.Error))
	}

	sb.WriteString(fmt.Sprintf("💵 Final: $%.2f cash, $%.2f total\n", report.FinalCash, report.FinalAssets))
	sb.WriteString(fmt.Sprintf("⏰ %s", report.FinishedAt.Format("2006-01-02 15:04:05")))

	return sb.String()
}

func (t *Telegram) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
