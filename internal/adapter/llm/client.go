package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doc-quiz/internal/config"
	"doc-quiz/internal/domain"
	"doc-quiz/internal/logger"

	"go.uber.org/zap"
)

const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderVertex   = "vertex"
)

// textModel is a single-turn completion against one provider.
type textModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Close() error
}

type modelFactory func(ctx context.Context, cfg config.LLMConfig) (textModel, error)

var factories = map[string]modelFactory{
	ProviderGoogleAI: newGoogleAIModel,
	ProviderOpenAI:   newOpenAIModel,
	ProviderOllama:   newOllamaModel,
	ProviderVertex:   newVertexModel,
}

// Client implements domain.Generator. A fresh model is built for every call so no
// conversation state is ever kept on the provider side.
type Client struct {
	cfg      config.LLMConfig
	newModel modelFactory
}

// NewClient validates the provider name. The credential is deliberately not checked
// here: a missing key is reported per request as MISSING_CREDENTIAL.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	factory, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
	return &Client{cfg: cfg, newModel: factory}, nil
}

// Generate implements domain.Generator
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	l := logger.Get()
	if err := c.Ready(); err != nil {
		return "", err
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	model, err := c.newModel(ctx, c.cfg)
	if err != nil {
		l.Error("Failed to create LLM client", zap.String("provider", c.cfg.Provider), zap.Error(err))
		return "", domain.NewGenerationFailedError(fmt.Errorf("create %s client: %w", c.cfg.Provider, err))
	}
	defer func() {
		if closeErr := model.Close(); closeErr != nil {
			l.Warn("Failed to close LLM client", zap.Error(closeErr))
		}
	}()

	response, err := model.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			l.Error("LLM request timed out", zap.Duration("timeout", c.cfg.Timeout), zap.Error(err))
			return "", domain.NewGenerationFailedError(fmt.Errorf("LLM request timed out: %w", err))
		}
		l.Error("Failed to get response from LLM",
			zap.String("provider", c.cfg.Provider),
			zap.String("model", c.cfg.Model),
			zap.Error(err))
		return "", domain.NewGenerationFailedError(fmt.Errorf("LLM call failed: %w", err))
	}

	l.Info("LLM response received",
		zap.String("provider", c.cfg.Provider),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(response)),
		zap.Duration("duration", time.Since(start)))
	return response, nil
}

// Ready returns MISSING_CREDENTIAL when the provider has nothing to authenticate with.
func (c *Client) Ready() error {
	if !c.hasCredential() {
		logger.Get().Error("LLM credential is not configured", zap.String("provider", c.cfg.Provider))
		return domain.NewMissingCredentialError(c.cfg.Provider)
	}
	return nil
}

func (c *Client) hasCredential() bool {
	switch c.cfg.Provider {
	case ProviderOllama:
		return c.cfg.ServerURL != ""
	case ProviderVertex:
		return c.cfg.VertexProject != "" && c.cfg.VertexRegion != ""
	default:
		return c.cfg.APIKey != ""
	}
}

var _ domain.Generator = (*Client)(nil)
