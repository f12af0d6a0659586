package client

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mfukuda/comet-cli/internal/config"
	"github.com/mfukuda/comet-cli/pkg/agent/domain"
	"github.com/mfukuda/comet-cli/pkg/client/anthropic"
	"github.com/mfukuda/comet-cli/pkg/client/gemini"
	"github.com/mfukuda/comet-cli/pkg/client/lmstudio"
	"github.com/mfukuda/comet-cli/pkg/client/ollama"
	"github.com/mfukuda/comet-cli/pkg/client/openai"
	"github.com/mfukuda/comet-cli/pkg/logger"
	"github.com/mfukuda/comet-cli/pkg/models"
)

var factoryLogger = logger.NewComponentLogger("client-factory")

// NewGenerator creates a content generator based on settings. A model known
// to be local always routes to the local backend, even when the configured
// backend names a cloud provider.
func NewGenerator(settings config.LLMSettings) (domain.Generator, error) {
	if models.IsLocal(settings.Model) || settings.Backend == "lmstudio" {
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = lmstudio.DefaultBaseURL
		}
		// Best-effort diagnostic; the per-call probe is authoritative.
		if !lmstudio.Probe(context.Background(), baseURL) {
			factoryLogger.Warn("local inference server is not responding", "base_url", baseURL)
		}
		return lmstudio.NewClient(settings.Model, baseURL, settings.Timeout()), nil
	}

	switch settings.Backend {
	case "gemini":
		return gemini.NewClient(context.Background(), settings.Model, settings.MaxTokens)
	case "openai":
		return openai.NewClient(settings.Model, settings.MaxTokens)
	case "anthropic", "claude":
		return anthropic.NewClient(settings.Model, settings.MaxTokens)
	case "ollama":
		return ollama.NewClient(settings.Model, settings.MaxTokens)
	default:
		return nil, errors.Errorf("unsupported backend %q", settings.Backend)
	}
}
