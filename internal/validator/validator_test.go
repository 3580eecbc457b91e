package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfund/livetrader/internal/config"
	"github.com/openfund/livetrader/internal/trader/mocks"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Trading.DryRun = true
	return cfg
}

func TestRunFull_AllChecksPass(t *testing.T) {
	v := New(testConfig(), mocks.New(), nil)

	report := v.RunFull(context.Background())

	assert.True(t, report.Ready())
	assert.Equal(t, report.TotalChecks, report.Passed)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 1.0, report.SuccessRate)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "system ready")
}

func TestRunFull_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Risk.MaxPositionSize = -1

	v := New(cfg, mocks.New(), nil)
	report := v.RunFull(context.Background())

	assert.False(t, report.Ready())
	assert.Greater(t, report.Failed, 0)
	assert.Contains(t, report.Recommendations, "address failed checks before live trading")
}

func TestRunFull_SubmissionFailure(t *testing.T) {
	tr := mocks.New()
	tr.FailSubmissions("gateway unavailable")

	v := New(testConfig(), tr, nil)
	report := v.RunFull(context.Background())

	assert.False(t, report.Ready())

	var found bool
	for _, r := range report.Results {
		if r.Name == "order management" {
			found = true
			assert.False(t, r.Passed)
			assert.Contains(t, r.Message, "gateway unavailable")
		}
	}
	assert.True(t, found)
}

func TestRunFull_LiveModeSkipsOrderCheck(t *testing.T) {
	cfg := testConfig()
	cfg.Trading.DryRun = false

	v := New(cfg, mocks.New(), nil)
	report := v.RunFull(context.Background())

	var msg string
	for _, r := range report.Results {
		if r.Name == "order management" {
			msg = r.Message
			assert.True(t, r.Passed)
		}
	}
	assert.Contains(t, msg, "skipped")
}

func TestRunQuick(t *testing.T) {
	v := New(testConfig(), mocks.New(), nil)
	assert.True(t, v.RunQuick(context.Background()))
}

func TestRunQuick_BadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Trading.Provider = "unknown"

	v := New(cfg, mocks.New(), nil)
	assert.False(t, v.RunQuick(context.Background()))
}
