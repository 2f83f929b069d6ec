package providers

import (
	"context"
	"errors"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"placement-crm/backend/internal/llm/contract"
)

type ClaudeProvider struct {
	client anthropic.Client
	config *contract.Config
}

func NewClaudeProvider(config *contract.Config) *ClaudeProvider {
	client := anthropic.NewClient(option.WithAPIKey(config.APIKey))
	return &ClaudeProvider{client: client, config: config}
}

func (c *ClaudeProvider) Name() string { return "claude" }

func (c *ClaudeProvider) Model() string { return c.config.ModelName }

func (c *ClaudeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	result, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.ModelName),
		MaxTokens:   int64(c.config.MaxTokens),
		Temperature: anthropic.Float(c.config.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Content) == 0 {
		return "", errors.New("empty response")
	}
	return result.Content[0].Text, nil
}
