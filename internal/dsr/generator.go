package dsr

import (
	"context"
	"log"
	"math/rand"
	"time"

	"placement-crm/backend/internal/llm/contract"
)

const fallbackModel = "fallback"

// Generator turns a ReportInput into a summary, retrying the generation
// backend with exponential backoff and degrading to the template summary on
// exhaustion. Generate never fails; callers always receive a usable result.
type Generator struct {
	backend    contract.Generator
	maxRetries int
	baseDelay  time.Duration

	// injectable for tests
	sleep  func(time.Duration)
	jitter func() time.Duration
}

func NewGenerator(backend contract.Generator) *Generator {
	return &Generator{
		backend:    backend,
		maxRetries: 3,
		baseDelay:  time.Second,
		sleep:      time.Sleep,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(1000)) * time.Millisecond
		},
	}
}

func (g *Generator) Generate(ctx context.Context, input *ReportInput) ReportResult {
	if g.backend == nil {
		return ReportResult{
			Summary:     fallbackSummary(input),
			Model:       fallbackModel,
			ErrorDetail: "no generation backend configured",
		}
	}

	prompt := buildPrompt(input)
	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		summary, err := g.backend.Generate(ctx, prompt)
		if err == nil {
			return ReportResult{Succeeded: true, Summary: summary, Model: g.backend.Model()}
		}
		lastErr = err
		log.Printf("dsr: generation attempt %d/%d failed: %v", attempt+1, g.maxRetries, err)
		if attempt < g.maxRetries-1 {
			delay := g.backoffDelay(attempt)
			log.Printf("dsr: retrying in %s", delay)
			g.sleep(delay)
		}
	}

	return ReportResult{
		Summary:     fallbackSummary(input),
		Model:       fallbackModel,
		ErrorDetail: lastErr.Error(),
	}
}

// backoffDelay grows as baseDelay * 2^attempt plus up to a second of jitter.
func (g *Generator) backoffDelay(attempt int) time.Duration {
	return g.baseDelay*time.Duration(1<<uint(attempt)) + g.jitter()
}
