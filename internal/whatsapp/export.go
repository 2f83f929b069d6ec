package whatsapp

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ExportedMessage is one line of a plain-text chat export.
type ExportedMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	MediaType string    `json:"mediaType,omitempty"`
}

// Patterns are tried in order; the first match wins. Dates are day/month/year
// in both forms, seconds default to zero in the dashed form.
var exportPatterns = []*regexp.Regexp{
	// [DD/MM/YYYY, HH:MM:SS] Sender: Message
	regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{4}),\s(\d{1,2}:\d{2}:\d{2})\]\s([^:]+):\s(.+)$`),
	// DD/MM/YYYY, HH:MM - Sender: Message
	regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4}),\s(\d{1,2}:\d{2})\s-\s([^:]+):\s(.+)$`),
}

// ParseExport walks a chat export line by line. Lines matching no pattern
// (system notices, continuation lines) are skipped silently; a line that
// matches but fails to parse is logged and skipped. Output order follows
// input order.
func ParseExport(content string) []ExportedMessage {
	var messages []ExportedMessage
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, pattern := range exportPatterns {
			match := pattern.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			timestamp, err := parseExportTimestamp(match[1], match[2])
			if err != nil {
				log.Printf("whatsapp: skipping export line %q: %v", line, err)
				break
			}
			text, mediaType := Classify(match[4])
			messages = append(messages, ExportedMessage{
				Timestamp: timestamp,
				Sender:    strings.TrimSpace(match[3]),
				Text:      text,
				MediaType: mediaType,
			})
			break
		}
	}
	return messages
}

func parseExportTimestamp(dateStr, timeStr string) (time.Time, error) {
	dateParts := strings.Split(dateStr, "/")
	day, err := strconv.Atoi(dateParts[0])
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(dateParts[1])
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(dateParts[2])
	if err != nil {
		return time.Time{}, err
	}

	timeParts := strings.Split(timeStr, ":")
	hours, err := strconv.Atoi(timeParts[0])
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := strconv.Atoi(timeParts[1])
	if err != nil {
		return time.Time{}, err
	}
	seconds := 0
	if len(timeParts) > 2 {
		if seconds, err = strconv.Atoi(timeParts[2]); err != nil {
			return time.Time{}, err
		}
	}

	return time.Date(year, time.Month(month), day, hours, minutes, seconds, 0, time.Local), nil
}
