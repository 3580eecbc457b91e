package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
}

func TestRegistry_RuntimeMetrics(t *testing.T) {
	reg := NewRegistry()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	// Should have go runtime metrics at minimum
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func findMetric(t *testing.T, reg *Registry, name string) bool {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return true
		}
	}
	return false
}

func TestRegistry_RecordLaunch(t *testing.T) {
	reg := NewRegistry()

	reg.RecordLaunch("ok")

	if !findMetric(t, reg, "livetrader_launches_total") {
		t.Error("expected livetrader_launches_total metric")
	}
}

func TestRegistry_RecordChildExit(t *testing.T) {
	reg := NewRegistry()

	reg.RecordChildExit("0", 12.5)
	reg.RecordChildExit("1", 0.2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	var codes []string
	for _, mf := range mfs {
		if mf.GetName() == "livetrader_child_exit_codes_total" {
			for _, m := range mf.GetMetric() {
				for _, label := range m.GetLabel() {
					if label.GetName() == "code" {
						codes = append(codes, label.GetValue())
					}
				}
			}
		}
	}
	if len(codes) != 2 {
		t.Errorf("expected 2 exit code series, got %v", codes)
	}
}

func TestRegistry_RecordTrade(t *testing.T) {
	reg := NewRegistry()

	reg.RecordTrade("buy", "filled", 1755.0)
	reg.RecordTrade("sell", "rejected", 0)

	if !findMetric(t, reg, "livetrader_trades_total") {
		t.Error("expected livetrader_trades_total metric")
	}

	mfs, _ := reg.Gather()
	for _, mf := range mfs {
		if mf.GetName() == "livetrader_traded_value_dollars_total" {
			for _, m := range mf.GetMetric() {
				if m.GetCounter().GetValue() != 1755.0 {
					t.Errorf("expected traded value 1755, got %v", m.GetCounter().GetValue())
				}
			}
		}
	}
}

func TestRegistry_RecordRiskRejection(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRiskRejection("CRITICAL")

	if !findMetric(t, reg, "livetrader_risk_rejections_total") {
		t.Error("expected livetrader_risk_rejections_total metric")
	}
}

func TestRegistry_RecordSession(t *testing.T) {
	reg := NewRegistry()

	reg.RecordSession("completed", 42.0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() == "livetrader_session_duration_seconds" {
			found = true
			for _, m := range mf.GetMetric() {
				hist := m.GetHistogram()
				if hist.GetSampleCount() != 1 {
					t.Errorf("expected sample count 1, got %d", hist.GetSampleCount())
				}
			}
		}
	}
	if !found {
		t.Error("expected livetrader_session_duration_seconds metric")
	}
}

func TestRegistry_SetOpenPositions(t *testing.T) {
	reg := NewRegistry()

	reg.SetOpenPositions(3)

	mfs, _ := reg.Gather()
	for _, mf := range mfs {
		if mf.GetName() == "livetrader_open_positions" {
			for _, m := range mf.GetMetric() {
				if m.GetGauge().GetValue() != 3 {
					t.Errorf("expected gauge 3, got %v", m.GetGauge().GetValue())
				}
			}
		}
	}
}

func TestRegistry_Handler(t *testing.T) {
	reg := NewRegistry()
	reg.RecordLaunch("ok")

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

// Ensure the registry implements prometheus.Gatherer interface
func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}
