package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openfund/livetrader/internal/config"
	"github.com/openfund/livetrader/internal/logger"
	"github.com/openfund/livetrader/internal/metrics"
	"github.com/openfund/livetrader/internal/notifier"
	"github.com/openfund/livetrader/internal/notifier/email"
	"github.com/openfund/livetrader/internal/notifier/telegram"
	"github.com/openfund/livetrader/internal/notifier/webhook"
	"github.com/openfund/livetrader/internal/quote"
	"github.com/openfund/livetrader/internal/trader"
	"github.com/openfund/livetrader/internal/trader/paper"
)

// configuredLogger rebuilds the logger at the level named in the config.
// --debug already lowers the level to debug, so it takes precedence.
func configuredLogger(log *zap.Logger, cfg *config.Config) *zap.Logger {
	if debug || cfg.Trading.LogLevel == "" {
		return log
	}
	leveled, err := logger.NewWithLevel(debug, cfg.Trading.LogLevel)
	if err != nil {
		log.Warn("ignoring configured log level",
			zap.String("level", cfg.Trading.LogLevel), zap.Error(err))
		return log
	}
	return leveled
}

// loadConfig reads the config file when given, otherwise the defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// getTrader builds the trading provider named in the configuration.
func getTrader(cfg *config.Config) (trader.Trader, error) {
	switch cfg.Trading.Provider {
	case "paper":
		return paper.New(paper.Config{
			InitialCash:        paper.DefaultConfig().InitialCash,
			Commission:         cfg.Trading.Commission,
			EnableShortSelling: cfg.Trading.EnableShortSelling,
		}, quote.NewYahoo()), nil
	case "futu":
		// TODO: Implement Futu provider when OpenD SDK is integrated
		return nil, fmt.Errorf("futu provider not yet implemented, use paper for now")
	default:
		return nil, fmt.Errorf("unknown trading provider: %s", cfg.Trading.Provider)
	}
}

// buildNotifiers registers the notifiers enabled in the configuration.
func buildNotifiers(cfg *config.Config, log *zap.Logger) (*notifier.Registry, error) {
	registry := notifier.NewRegistry()

	for name, nc := range cfg.Notifiers {
		if !nc.Enabled {
			continue
		}

		var (
			n   notifier.Notifier
			err error
		)
		switch name {
		case "telegram":
			n, err = telegram.New(nc.BotToken, nc.ChatID)
		case "webhook":
			n, err = webhook.New(nc.URL, nc.Headers)
		case "email":
			n, err = email.New(nc.Host, nc.Port, nc.Username, nc.Password, nc.From, nc.To)
		default:
			return nil, fmt.Errorf("unknown notifier: %s", name)
		}
		if err != nil {
			return nil, fmt.Errorf("building %s notifier: %w", name, err)
		}
		if err := registry.Register(n); err != nil {
			return nil, err
		}
		log.Info("notifier registered", zap.String("notifier", name))
	}

	return registry, nil
}

// serveMetrics exposes the metrics endpoint when enabled. The returned
// function shuts the endpoint down.
func serveMetrics(cfg config.MetricsConfig, reg *metrics.Registry, log *zap.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, reg.Handler())
	srv := &http.Server{Addr: cfg.Listen, Handler: mux}

	go func() {
		log.Info("metrics endpoint listening",
			zap.String("listen", cfg.Listen),
			zap.String("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics endpoint error", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("metrics endpoint shutdown failed", zap.Error(err))
		}
	}
}
