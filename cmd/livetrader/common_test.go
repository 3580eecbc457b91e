package main

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/openfund/livetrader/internal/config"
	"github.com/openfund/livetrader/internal/logger"
)

func TestConfiguredLogger_AppliesConfigLevel(t *testing.T) {
	base := logger.Must(false)
	cfg := config.Defaults()
	cfg.Trading.LogLevel = "warn"

	log := configuredLogger(base, cfg)
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at configured warn level")
	}
	if !log.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should stay enabled")
	}
}

func TestConfiguredLogger_DebugFlagWins(t *testing.T) {
	debug = true
	defer func() { debug = false }()

	base := logger.Must(true)
	cfg := config.Defaults()
	cfg.Trading.LogLevel = "error"

	log := configuredLogger(base, cfg)
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("--debug should keep the debug level regardless of config")
	}
}

func TestConfiguredLogger_BadLevelKeepsBase(t *testing.T) {
	base := logger.Must(false)
	cfg := config.Defaults()
	cfg.Trading.LogLevel = "loud"

	if log := configuredLogger(base, cfg); log != base {
		t.Error("invalid configured level should fall back to the base logger")
	}
}
