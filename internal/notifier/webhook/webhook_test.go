package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openfund/livetrader/internal/core"
	"github.com/openfund/livetrader/internal/notifier"
)

func TestWebhook_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Webhook)(nil)
}

func TestWebhook_Name(t *testing.T) {
	w, err := New("http://example.com/hook", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Name() != "webhook" {
		t.Errorf("expected 'webhook', got %s", w.Name())
	}
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New("", nil)
	if err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestWebhook_SendReport(t *testing.T) {
	var receivedPayload map[string]any
	var receivedHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeader = r.Header.Get("X-Auth")
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w, err := New(server.URL, map[string]string{"X-Auth": "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := notifier.Report{
		SessionID: "s1",
		Tickers:   []string{"AAPL"},
		Outcomes: []notifier.DecisionOutcome{
			{Ticker: "AAPL", Action: core.ActionBuy, Quantity: 10, Status: "executed"},
		},
		FinishedAt: time.Now(),
	}

	if err := w.SendReport(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedPayload["type"] != "session_report" {
		t.Errorf("expected type session_report, got %v", receivedPayload["type"])
	}
	if receivedHeader != "secret" {
		t.Errorf("expected custom header, got %q", receivedHeader)
	}

	inner, ok := receivedPayload["report"].(map[string]any)
	if !ok {
		t.Fatalf("report payload missing: %v", receivedPayload)
	}
	if inner["session_id"] != "s1" {
		t.Errorf("expected session_id s1, got %v", inner["session_id"])
	}
}

func TestWebhook_SendReport_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w, err := New(server.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := w.SendReport(notifier.Report{}); err == nil {
		t.Error("expected error for server failure")
	}
}
