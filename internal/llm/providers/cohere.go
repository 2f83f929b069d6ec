package providers

import (
	"context"
	"errors"

	cohere "github.com/cohere-ai/cohere-go"

	"placement-crm/backend/internal/llm/contract"
)

type CohereProvider struct {
	client *cohere.Client
	config *contract.Config
}

func NewCohereProvider(config *contract.Config) *CohereProvider {
	client, _ := cohere.CreateClient(config.APIKey)
	return &CohereProvider{client: client, config: config}
}

func (c *CohereProvider) Name() string { return "cohere" }

func (c *CohereProvider) Model() string { return c.config.ModelName }

func (c *CohereProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", errors.New("cohere client not initialized")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	maxTokens := uint(c.config.MaxTokens)
	temperature := c.config.Temperature
	response, err := c.client.Generate(cohere.GenerateOptions{
		Model:       c.config.ModelName,
		Prompt:      prompt,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	if response == nil || len(response.Generations) == 0 {
		return "", errors.New("empty response")
	}
	return response.Generations[0].Text, nil
}
