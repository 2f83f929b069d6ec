package dsr

import (
	"fmt"
	"strings"
)

// fallbackSummary builds a deterministic report from the input alone. Used
// when every generation attempt has failed so callers always get a summary.
func fallbackSummary(input *ReportInput) string {
	taskCount := len(input.Tasks)
	completed := 0
	for _, t := range input.Tasks {
		if t.Status == "DONE" {
			completed++
		}
	}

	taskLines := "- No tasks"
	if taskCount > 0 {
		lines := make([]string, 0, taskCount)
		for _, t := range input.Tasks {
			lines = append(lines, fmt.Sprintf("- [%s] %s", t.Status, t.Title))
		}
		taskLines = strings.Join(lines, "\n")
	}

	conversationLines := "- No conversations"
	if len(input.Conversations) > 0 {
		lines := make([]string, 0, len(input.Conversations))
		for _, c := range input.Conversations {
			lines = append(lines, fmt.Sprintf("- %s (%d messages)", c.ContactName, c.MessageCount))
		}
		conversationLines = strings.Join(lines, "\n")
	}

	var b strings.Builder
	b.WriteString("**Daily Status Report - " + input.Date + "**\n\n")
	b.WriteString("**Summary:**\n")
	fmt.Fprintf(&b, "%s worked on %d task(s), completing %d. Engaged in %d WhatsApp conversation(s).\n\n",
		input.UserName, taskCount, completed, len(input.Conversations))
	b.WriteString("**Tasks:**\n" + taskLines + "\n\n")
	b.WriteString("**Conversations:**\n" + conversationLines + "\n\n")
	if input.AdditionalNotes != "" {
		b.WriteString("**Notes:**\n" + input.AdditionalNotes + "\n\n")
	}
	b.WriteString("*Note: This is an automated fallback summary. LLM generation was unavailable.*")
	return b.String()
}
