package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// openAIProvider talks to OpenAI or any OpenAI-compatible chat endpoint (Gemini).
type openAIProvider struct {
	name      string
	client    openai.Client
	model     shared.ChatModel
	maxTokens int64
}

func newOpenAIProvider(name string, cfg Config) *openAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &openAIProvider{
		name:      name,
		client:    openai.NewClient(opts...),
		model:     shared.ChatModel(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
	}
}

func (p *openAIProvider) Name() string { return p.name }

func (p *openAIProvider) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(p.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from " + p.name)
	}
	return resp.Choices[0].Message.Content, nil
}
