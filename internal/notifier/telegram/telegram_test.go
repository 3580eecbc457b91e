package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/notifier"
)

func TestTelegram_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Telegram)(nil)
}

func TestTelegram_Name(t *testing.T) {
	tg, err := New("token", "chatid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tg.Name() != "telegram" {
		t.Errorf("expected 'telegram', got '%s'", tg.Name())
	}
}

func TestNew_MissingToken(t *testing.T) {
	_, err := New("", "chatid")
	if err == nil {
		t.Error("expected error for missing bot_token")
	}
}

func TestNew_MissingChatID(t *testing.T) {
	_, err := New("token", "")
	if err == nil {
		t.Error("expected error for missing chat_id")
	}
}

func sampleReport() notifier.Report {
	return notifier.Report{
		SessionID: "s1",
		DryRun:    true,
		Tickers:   []string{"AAPL"},
		Outcomes: []notifier.DecisionOutcome{
			{Ticker: "AAPL", Action: core.ActionBuy, Quantity: 10, Price: 175.50, Status: "executed"},
		},
		SuccessfulTrades: 1,
		TotalDecisions:   1,
		ExecutedValue:    1755.0,
		FinalCash:        48244.0,
		FinalAssets:      99999.0,
		FinishedAt:       time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC),
	}
}

func TestFormatReport(t *testing.T) {
	msg := formatReport(sampleReport())

	for _, want := range []string{"DRY RUN", "AAPL", "BUY 10", "1/1", "1755.00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatReport_Error(t *testing.T) {
	r := sampleReport()
	r.Error = "advisor timed out"
	r.CircuitBreaker = true

	msg := formatReport(r)
	if !strings.Contains(msg, "advisor timed out") {
		t.Errorf("message missing error:\n%s", msg)
	}
	if !strings.Contains(msg, "Circuit breaker") {
		t.Errorf("message missing breaker notice:\n%s", msg)
	}
}

func TestTelegram_SendReport(t *testing.T) {
	var receivedPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/bottest-token/sendMessage") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tg, err := New("test-token", "test-chat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tg.baseURL = server.URL

	if err := tg.SendReport(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedPayload["chat_id"] != "test-chat" {
		t.Errorf("expected chat_id 'test-chat', got %v", receivedPayload["chat_id"])
	}
	text, _ := receivedPayload["text"].(string)
	if !strings.Contains(text, "AAPL") {
		t.Errorf("message missing ticker:\n%s", text)
	}
}

func TestTelegram_SendReport_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	}))
	defer server.Close()

	tg, err := New("test-token", "bad-chat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tg.baseURL = server.URL

	if err := tg.SendReport(sampleReport()); err == nil {
		t.Error("expected error for API failure")
	}
}
