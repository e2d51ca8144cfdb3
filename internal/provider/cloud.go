package provider

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// CloudConfig configures the cloud Provider Adapter variant.
type CloudConfig struct {
	APIKey      string
	BaseURL     string // empty uses the provider's default endpoint
	TimeoutSecs int    // request timeout in seconds, default 120
}

// CloudProvider is the "cloud" Provider Adapter variant: a remote,
// API-keyed model provider reached over an OpenAI-compatible wire protocol.
type CloudProvider struct {
	client *openai.Client
}

// NewCloudProvider builds a CloudProvider from cfg.
func NewCloudProvider(cfg CloudConfig) *CloudProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(cfg.TimeoutSecs)
	return &CloudProvider{client: openai.NewClientWithConfig(clientConfig)}
}

// Generate implements Provider.
func (p *CloudProvider) Generate(ctx context.Context, prompt string, params Params) (Result, error) {
	system := params.System
	if system == "" {
		system = "You are a helpful AI assistant specialized in software development."
	}
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: params.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: params.Temperature,
		MaxTokens:   maxTokens,
	})
	duration := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("cloud provider generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("cloud provider generate: empty response")
	}

	choice := resp.Choices[0]
	tokensIn := resp.Usage.PromptTokens
	tokensOut := resp.Usage.CompletionTokens

	return Result{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		TokensInput:  tokensIn,
		TokensOutput: tokensOut,
		Cost:         calculateCloudCost(resp.Model, tokensIn, tokensOut),
		Duration:     duration,
		FinishReason: string(choice.FinishReason),
	}, nil
}

// newHTTPClient builds an *http.Client with a bounded total request timeout,
// matching the teacher pack's pattern of a provider-specific HTTP client
// rather than relying on the default transport's zero timeout.
func newHTTPClient(timeoutSecs int) *http.Client {
	if timeoutSecs <= 0 {
		timeoutSecs = 120
	}
	return &http.Client{
		Timeout: time.Duration(timeoutSecs) * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
