package dsr

import (
	"fmt"
	"strings"
)

func buildPrompt(input *ReportInput) string {
	tasksSummary := "No tasks recorded."
	if len(input.Tasks) > 0 {
		lines := make([]string, 0, len(input.Tasks))
		for i, t := range input.Tasks {
			line := fmt.Sprintf("%d. [%s] %s", i+1, t.Status, t.Title)
			if t.Description != "" {
				line += " - " + t.Description
			}
			lines = append(lines, line)
		}
		tasksSummary = strings.Join(lines, "\n")
	}

	conversationsSummary := "No conversations recorded."
	if len(input.Conversations) > 0 {
		lines := make([]string, 0, len(input.Conversations))
		for i, c := range input.Conversations {
			lines = append(lines, fmt.Sprintf("%d. %s: %d messages (Last: \"%s\" at %s)",
				i+1, c.ContactName, c.MessageCount, c.LastMessage, c.LastMessageTime))
		}
		conversationsSummary = strings.Join(lines, "\n")
	}

	var b strings.Builder
	b.WriteString("You are an assistant generating a Daily Status Report (DSR) for a college placement coordinator.\n\n")
	b.WriteString("**Date:** " + input.Date + "\n")
	b.WriteString("**User:** " + input.UserName + "\n\n")
	b.WriteString("**Tasks:**\n" + tasksSummary + "\n\n")
	b.WriteString("**WhatsApp Conversations:**\n" + conversationsSummary + "\n\n")
	if input.AdditionalNotes != "" {
		b.WriteString("**Additional Notes:**\n" + input.AdditionalNotes + "\n\n")
	}
	b.WriteString("Generate a concise, professional DSR summary (max 300 words) covering:\n")
	b.WriteString("1. Key accomplishments and task progress\n")
	b.WriteString("2. Important student/company interactions\n")
	b.WriteString("3. Any blockers or issues\n")
	b.WriteString("4. Next steps or priorities\n\n")
	b.WriteString("Use clear, professional language suitable for management review.")
	return b.String()
}
