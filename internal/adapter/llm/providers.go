package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"doc-quiz/internal/config"

	"cloud.google.com/go/vertexai/genai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// langchainModel adapts any langchaingo llms.Model to a single-prompt completion with
// the configured sampling parameters.
type langchainModel struct {
	model llms.Model
	opts  []llms.CallOption
}

func samplingOptions(cfg config.LLMConfig) []llms.CallOption {
	return []llms.CallOption{
		llms.WithTemperature(cfg.Temperature),
		llms.WithTopP(cfg.TopP),
		llms.WithTopK(cfg.TopK),
		llms.WithMaxTokens(cfg.MaxOutputTokens),
	}
}

func (m *langchainModel) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m.model, prompt, m.opts...)
}

func (m *langchainModel) Close() error { return nil }

func newGoogleAIModel(ctx context.Context, cfg config.LLMConfig) (textModel, error) {
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &langchainModel{model: model, opts: samplingOptions(cfg)}, nil
}

func newOpenAIModel(_ context.Context, cfg config.LLMConfig) (textModel, error) {
	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	// top-k is not part of the OpenAI API
	opts := []llms.CallOption{
		llms.WithTemperature(cfg.Temperature),
		llms.WithTopP(cfg.TopP),
		llms.WithMaxTokens(cfg.MaxOutputTokens),
	}
	return &langchainModel{model: model, opts: opts}, nil
}

func newOllamaModel(_ context.Context, cfg config.LLMConfig) (textModel, error) {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
		},
	}
	model, err := ollama.New(
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithModel(cfg.Model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, err
	}
	return &langchainModel{model: model, opts: samplingOptions(cfg)}, nil
}

// vertexModel talks to Gemini through Vertex AI using application default credentials.
type vertexModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func newVertexModel(ctx context.Context, cfg config.LLMConfig) (textModel, error) {
	client, err := genai.NewClient(ctx, cfg.VertexProject, cfg.VertexRegion)
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(float32(cfg.Temperature))
	model.SetTopP(float32(cfg.TopP))
	model.SetTopK(int32(cfg.TopK))
	model.SetMaxOutputTokens(int32(cfg.MaxOutputTokens))
	model.GenerationConfig.ResponseMIMEType = "text/plain"
	return &vertexModel{client: client, model: model}, nil
}

func (m *vertexModel) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("vertex returned no candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

func (m *vertexModel) Close() error {
	return m.client.Close()
}
