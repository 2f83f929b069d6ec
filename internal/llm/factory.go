package llm

import (
	"strings"

	"placement-crm/backend/internal/llm/contract"
	"placement-crm/backend/internal/llm/providers"
)

// New builds a generation backend for the configured provider. Returns nil
// when the provider name is unknown; callers treat a nil generator as
// "fallback only".
func New(config *contract.Config) contract.Generator {
	name := strings.ToLower(config.ProviderName)
	switch name {
	case "claude", "anthropic":
		return providers.NewClaudeProvider(config)
	case "openai":
		return providers.NewOpenAIProvider(config)
	case "google", "gemini":
		// OpenAI-compatible gateway; point BaseURL at the Gemini endpoint.
		return providers.NewOpenAIProvider(config)
	case "cohere":
		return providers.NewCohereProvider(config)
	default:
		return nil
	}
}

// ExtractJSON trims surrounding prose from a model response so the first
// JSON object or array can be unmarshalled directly.
func ExtractJSON(text string) string {
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "}]")
	if start == -1 || end == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}
