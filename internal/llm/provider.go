package llm

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/Ayash-Bera/nearby/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// New selects the extractor once, at startup. Misconfigured providers
// degrade to Passthrough with a warning instead of failing startup.
func New(cfg *config.Config, logger *logrus.Logger) Extractor {
	httpClient := &http.Client{Timeout: cfg.LLM.Timeout}

	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		model, err := openai.New(
			openai.WithToken(cfg.LLM.OpenAIAPIKey),
			openai.WithModel(cfg.LLM.OpenAIModel),
			openai.WithBaseURL(cfg.LLM.OpenAIBaseURL),
			openai.WithHTTPClient(httpClient),
		)
		if err != nil {
			logger.WithError(err).Warn("OpenAI-compatible model unavailable, query extraction disabled")
			return Passthrough{}
		}
		return NewModelExtractor(model, config.ProviderOpenAI, cfg.LLM.Timeout, logger)

	case config.ProviderLocal:
		model, err := newLocalModel(cfg.LLM.LocalURL, cfg.LLM.LocalModel, httpClient)
		if err != nil {
			logger.WithError(err).Warn("Local model unavailable, query extraction disabled")
			return Passthrough{}
		}
		return NewModelExtractor(model, config.ProviderLocal, cfg.LLM.Timeout, logger)

	default:
		return Passthrough{}
	}
}

func newLocalModel(serverURL, model string, httpClient *http.Client) (*ollama.LLM, error) {
	if serverURL == "" || model == "" {
		return nil, fmt.Errorf("LOCAL_LLM_URL and LOCAL_LLM_MODEL are required")
	}
	// ollama.WithServerURL exits the process on a bad URL
	if u, err := url.Parse(serverURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid LOCAL_LLM_URL %q", serverURL)
	}
	return ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(httpClient),
	)
}
