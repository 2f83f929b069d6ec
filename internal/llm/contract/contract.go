package contract

import "context"

// Generator is a single-attempt text-generation backend. Retry and fallback
// policy belongs to the caller (the DSR pipeline), not the provider.
type Generator interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	ProviderName string
	APIKey       string
	ModelName    string
	BaseURL      string
	Temperature  float64
	MaxTokens    int
}
