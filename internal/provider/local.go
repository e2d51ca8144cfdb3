package provider

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// LocalConfig configures the local Provider Adapter variant.
type LocalConfig struct {
	BaseURL     string // e.g. http://localhost:11434/v1 for an Ollama server
	TimeoutSecs int
}

// LocalProvider is the "local" Provider Adapter variant: a self-hosted
// model reached over the same OpenAI-compatible wire protocol as the cloud
// variant, just against a different base URL and with no per-token cost.
type LocalProvider struct {
	client *openai.Client
}

// NewLocalProvider builds a LocalProvider from cfg.
func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	clientConfig := openai.DefaultConfig("local")
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = newHTTPClient(cfg.TimeoutSecs)
	return &LocalProvider{client: openai.NewClientWithConfig(clientConfig)}
}

// Generate implements Provider.
func (p *LocalProvider) Generate(ctx context.Context, prompt string, params Params) (Result, error) {
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: params.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: params.Temperature,
		MaxTokens:   maxTokens,
	})
	duration := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("local provider generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("local provider generate: empty response")
	}

	choice := resp.Choices[0]
	return Result{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		TokensInput:  resp.Usage.PromptTokens,
		TokensOutput: resp.Usage.CompletionTokens,
		Cost:         localCost,
		Duration:     duration,
		FinishReason: string(choice.FinishReason),
	}, nil
}
