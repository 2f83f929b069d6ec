package dsr

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubBackend struct {
	failures int
	calls    int
	text     string
}

func (s *stubBackend) Name() string  { return "stub" }
func (s *stubBackend) Model() string { return "stub-model" }

func (s *stubBackend) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", errors.New("upstream unavailable")
	}
	return s.text, nil
}

func testGenerator(backend *stubBackend, slept *[]time.Duration) *Generator {
	g := NewGenerator(backend)
	g.sleep = func(d time.Duration) {
		if slept != nil {
			*slept = append(*slept, d)
		}
	}
	g.jitter = func() time.Duration { return 0 }
	return g
}

func sampleInput() *ReportInput {
	return &ReportInput{
		UserID:   1,
		UserName: "Priya Sharma",
		Date:     "2024-01-15",
		Tasks: []TaskLine{
			{Title: "Schedule campus drive", Status: "DONE", Description: "Acme Corp"},
			{Title: "Collect resumes", Status: "IN_PROGRESS"},
		},
		Conversations: []ConversationDigest{
			{ContactName: "Acme HR", MessageCount: 5, LastMessage: "Confirmed for Monday", LastMessageTime: "16:45"},
		},
	}
}

func TestGenerateSucceedsFirstAttempt(t *testing.T) {
	backend := &stubBackend{text: "All systems go."}
	g := testGenerator(backend, nil)

	result := g.Generate(context.Background(), sampleInput())
	if !result.Succeeded {
		t.Fatal("expected success")
	}
	if result.Model != "stub-model" {
		t.Errorf("model = %q, want stub-model", result.Model)
	}
	if result.Summary != "All systems go." {
		t.Errorf("unexpected summary %q", result.Summary)
	}
	if backend.calls != 1 {
		t.Errorf("calls = %d, want 1", backend.calls)
	}
}

func TestGenerateRetriesThenSucceeds(t *testing.T) {
	backend := &stubBackend{failures: 2, text: "Recovered."}
	var slept []time.Duration
	g := testGenerator(backend, &slept)

	result := g.Generate(context.Background(), sampleInput())
	if !result.Succeeded {
		t.Fatal("expected success after retries")
	}
	if result.Model == fallbackModel {
		t.Error("successful result must carry the real model name")
	}
	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3", backend.calls)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %d times, want %d", len(slept), len(want))
	}
	for i, d := range want {
		if slept[i] != d {
			t.Errorf("sleep %d = %s, want %s", i, slept[i], d)
		}
	}
}

func TestGenerateFallsBackOnExhaustion(t *testing.T) {
	backend := &stubBackend{failures: 10}
	g := testGenerator(backend, nil)

	result := g.Generate(context.Background(), sampleInput())
	if result.Succeeded {
		t.Fatal("expected failure")
	}
	if result.Model != fallbackModel {
		t.Errorf("model = %q, want %q", result.Model, fallbackModel)
	}
	if result.ErrorDetail != "upstream unavailable" {
		t.Errorf("error detail = %q", result.ErrorDetail)
	}
	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3", backend.calls)
	}
	if !strings.Contains(result.Summary, "automated fallback summary") {
		t.Errorf("fallback marker missing from %q", result.Summary)
	}
}

func TestGenerateNilBackendFallsBack(t *testing.T) {
	g := NewGenerator(nil)
	result := g.Generate(context.Background(), sampleInput())
	if result.Succeeded || result.Model != fallbackModel {
		t.Errorf("got %+v, want fallback result", result)
	}
}

func TestFallbackEmptyInputMarkers(t *testing.T) {
	input := &ReportInput{UserID: 1, UserName: "Priya Sharma", Date: "2024-01-15"}
	backend := &stubBackend{failures: 10}
	g := testGenerator(backend, nil)

	result := g.Generate(context.Background(), input)
	if result.Succeeded {
		t.Fatal("expected fallback")
	}
	if !strings.Contains(result.Summary, "- No tasks") {
		t.Error("missing no-tasks marker")
	}
	if !strings.Contains(result.Summary, "- No conversations") {
		t.Error("missing no-conversations marker")
	}
	if !strings.Contains(result.Summary, "worked on 0 task(s), completing 0") {
		t.Error("missing counts line")
	}
}

func TestFallbackSummaryContents(t *testing.T) {
	got := fallbackSummary(sampleInput())
	for _, want := range []string{
		"**Daily Status Report - 2024-01-15**",
		"Priya Sharma worked on 2 task(s), completing 1. Engaged in 1 WhatsApp conversation(s).",
		"- [DONE] Schedule campus drive",
		"- [IN_PROGRESS] Collect resumes",
		"- Acme HR (5 messages)",
		"*Note: This is an automated fallback summary. LLM generation was unavailable.*",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("fallback missing %q\n%s", want, got)
		}
	}
}

func TestBuildPromptContents(t *testing.T) {
	input := sampleInput()
	input.AdditionalNotes = "Campus drive moved to Monday."
	got := buildPrompt(input)
	for _, want := range []string{
		"**Date:** 2024-01-15",
		"**User:** Priya Sharma",
		"1. [DONE] Schedule campus drive - Acme Corp",
		"2. [IN_PROGRESS] Collect resumes",
		"1. Acme HR: 5 messages (Last: \"Confirmed for Monday\" at 16:45)",
		"**Additional Notes:**\nCampus drive moved to Monday.",
		"max 300 words",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptEmptyMarkers(t *testing.T) {
	got := buildPrompt(&ReportInput{UserName: "Priya Sharma", Date: "2024-01-15"})
	if !strings.Contains(got, "No tasks recorded.") {
		t.Error("missing no-tasks marker")
	}
	if !strings.Contains(got, "No conversations recorded.") {
		t.Error("missing no-conversations marker")
	}
	if strings.Contains(got, "**Additional Notes:**") {
		t.Error("notes section should be omitted when empty")
	}
}
