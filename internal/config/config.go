package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/openfund/livetrader/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Launcher  LauncherConfig            `mapstructure:"launcher"`
	Trading   TradingConfig             `mapstructure:"trading"`
	Risk      RiskConfig                `mapstructure:"risk"`
	Advisor   AdvisorConfig             `mapstructure:"advisor"`
	Audit     AuditConfig               `mapstructure:"audit"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
}

// LauncherConfig holds settings for the external-program launcher.
type LauncherConfig struct {
	Interpreter string   `mapstructure:"interpreter"` // environment manager, e.g. "poetry"
	RunnerArgs  []string `mapstructure:"runner_args"` // e.g. ["run", "python"]
	Script      string   `mapstructure:"script"`      // target module path
}

// TradingConfig mirrors the live trading session settings.
type TradingConfig struct {
	Provider string     `mapstructure:"provider"` // "paper" or "futu"
	Futu     FutuConfig `mapstructure:"futu"`

	DryRun             bool    `mapstructure:"dry_run"`
	EnableShortSelling bool    `mapstructure:"enable_short_selling"`
	DefaultMarket      string  `mapstructure:"default_market"`
	MaxOrderValue      float64 `mapstructure:"max_order_value"`
	Commission         float64 `mapstructure:"commission"` // per-order flat fee

	LogTrades bool   `mapstructure:"log_trades"`
	LogLevel  string `mapstructure:"log_level"`
}

// FutuConfig holds Futu OpenD gateway settings.
type FutuConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Account       string `mapstructure:"account"`
	TradePassword string `mapstructure:"trade_password"`
}

// RiskConfig holds risk management limits.
type RiskConfig struct {
	MaxPositionSize          float64 `mapstructure:"max_position_size"`
	MaxPortfolioValue        float64 `mapstructure:"max_portfolio_value"`
	MaxDailyLoss             float64 `mapstructure:"max_daily_loss"`
	MaxPositionConcentration float64 `mapstructure:"max_position_concentration"`
	MaxDailyTrades           int     `mapstructure:"max_daily_trades"`
	MinCashReserve           float64 `mapstructure:"min_cash_reserve"`
}

// AdvisorConfig holds decision-provider settings.
type AdvisorConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// AuditConfig holds trade audit trail storage settings.
type AuditConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// NotifierConfig holds settings for a single notifier.
type NotifierConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Telegram
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`

	// Webhook
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`

	// Email (SMTP)
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults.
// Trading defaults come from the legacy launch environment: dry run
// stays on unless ENABLE_LIVE_TRADING=true is set explicitly.
func Defaults() *Config {
	return &Config{
		Launcher: LauncherConfig{
			Interpreter: "poetry",
			RunnerArgs:  []string{"run", "python"},
			Script:      "src/live_main.py",
		},
		Trading: TradingConfig{
			Provider:      "paper",
			DryRun:        os.Getenv("ENABLE_LIVE_TRADING") != "true",
			DefaultMarket: string(core.MarketUS),
			MaxOrderValue: 10000.0,
			Commission:    1.0,
			LogTrades:     true,
			LogLevel:      "info",
			Futu: FutuConfig{
				Host: "127.0.0.1",
				Port: 11111,
			},
		},
		Risk: RiskConfig{
			MaxPositionSize:          5000.0,
			MaxPortfolioValue:        50000.0,
			MaxDailyLoss:             2000.0,
			MaxPositionConcentration: 0.15,
			MaxDailyTrades:           20,
			MinCashReserve:           1000.0,
		},
		Audit: AuditConfig{
			Enabled: true,
			Type:    "localfs",
			Path:    "audit",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9090",
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Launcher validation
	if c.Launcher.Interpreter == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("launcher interpreter must be set"))
	}
	if c.Launcher.Script == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("launcher script must be set"))
	}

	// Trading validation
	switch c.Trading.Provider {
	case "paper", "futu":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown trading provider: %s", c.Trading.Provider))
	}
	if c.Trading.Futu.Port < 1 || c.Trading.Futu.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("futu port must be between 1 and 65535, got %d", c.Trading.Futu.Port))
	}
	if c.Trading.MaxOrderValue <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_order_value must be positive, got %f", c.Trading.MaxOrderValue))
	}

	// Risk validation
	if c.Risk.MaxPositionSize <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_position_size must be positive, got %f", c.Risk.MaxPositionSize))
	}
	if c.Risk.MaxPositionConcentration <= 0 || c.Risk.MaxPositionConcentration > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_position_concentration must be in (0, 1], got %f", c.Risk.MaxPositionConcentration))
	}
	if c.Risk.MaxDailyTrades < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_daily_trades cannot be negative, got %d", c.Risk.MaxDailyTrades))
	}

	// Advisor validation - if provider set, check config exists
	if c.Advisor.Provider != "" {
		switch c.Advisor.Provider {
		case "claude":
			if c.Advisor.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.Advisor.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.Advisor.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown advisor provider: %s", c.Advisor.Provider))
		}
	}

	// Audit validation
	if c.Audit.Enabled {
		switch c.Audit.Type {
		case "localfs":
			if c.Audit.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("audit path required for localfs storage"))
			}
		case "s3":
			if c.Audit.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("audit s3 bucket required for s3 storage"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown audit storage type: %s", c.Audit.Type))
		}
	}

	return nil
}
