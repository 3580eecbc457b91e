// internal/advisor/factory/factory.go
package factory

import (
	"fmt"

	"github.com/openfund/livetrader/internal/advisor"
	"github.com/openfund/livetrader/internal/advisor/claude"
	"github.com/openfund/livetrader/internal/advisor/ollama"
	"github.com/openfund/livetrader/internal/advisor/openai"
	"github.com/openfund/livetrader/internal/config"
)

// New creates an advisor provider based on configuration.
func New(cfg config.AdvisorConfig) (advisor.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown advisor provider: %s", cfg.Provider)
	}
}
