package llm

import (
	"testing"

	"placement-crm/backend/internal/llm/contract"
)

func TestNewProviderSelection(t *testing.T) {
	cases := []struct {
		provider string
		name     string
	}{
		{"openai", "openai"},
		{"OpenAI", "openai"},
		{"claude", "claude"},
		{"anthropic", "claude"},
		{"gemini", "openai"},
		{"cohere", "cohere"},
	}
	for _, tc := range cases {
		gen := New(&contract.Config{ProviderName: tc.provider, APIKey: "test", ModelName: "m"})
		if gen == nil {
			t.Fatalf("provider %q: got nil generator", tc.provider)
		}
		if gen.Name() != tc.name {
			t.Errorf("provider %q: got name %q, want %q", tc.provider, gen.Name(), tc.name)
		}
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if gen := New(&contract.Config{ProviderName: "mystery"}); gen != nil {
		t.Errorf("expected nil generator for unknown provider, got %q", gen.Name())
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`Here is the result: {"summary":"ok"} hope that helps`, `{"summary":"ok"}`},
		{`["a","b"]`, `["a","b"]`},
		{`no json here`, `no json here`},
		{"```json\n{\"x\":1}\n```", `{"x":1}`},
	}
	for _, tc := range cases {
		if got := ExtractJSON(tc.in); got != tc.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
