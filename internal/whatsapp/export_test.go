package whatsapp

import (
	"testing"
	"time"
)

func TestParseExportBracketedFormat(t *testing.T) {
	content := "[15/01/2024, 10:30:45] John Doe: Hello there\n" +
		"[15/01/2024, 10:31:00] Jane Smith: <Media omitted>"

	messages := ParseExport(content)
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}

	first := messages[0]
	if first.Sender != "John Doe" || first.Text != "Hello there" {
		t.Errorf("first = %+v", first)
	}
	if first.MediaType != "" {
		t.Errorf("first media type = %q, want none", first.MediaType)
	}
	want := time.Date(2024, time.January, 15, 10, 30, 45, 0, time.Local)
	if !first.Timestamp.Equal(want) {
		t.Errorf("first timestamp = %v, want %v", first.Timestamp, want)
	}

	second := messages[1]
	if second.Text != "[Media file]" || second.MediaType != "document" {
		t.Errorf("second = %+v, want media placeholder with document type", second)
	}
}

func TestParseExportDashedFormat(t *testing.T) {
	messages := ParseExport("5/3/2024, 9:05 - Jane Smith: See you tomorrow")
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	m := messages[0]
	if m.Sender != "Jane Smith" || m.Text != "See you tomorrow" {
		t.Errorf("got %+v", m)
	}
	// day/month/year ordering, seconds default to zero
	want := time.Date(2024, time.March, 5, 9, 5, 0, 0, time.Local)
	if !m.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", m.Timestamp, want)
	}
}

func TestParseExportSkipsSystemLines(t *testing.T) {
	content := "Messages are end-to-end encrypted. No one outside of this chat can read them.\n" +
		"\n" +
		"[15/01/2024, 10:30:45] John Doe: Hello there\n" +
		"this line has no timestamp prefix"

	messages := ParseExport(content)
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if messages[0].Text != "Hello there" {
		t.Errorf("got %+v", messages[0])
	}
}

func TestParseExportPreservesOrder(t *testing.T) {
	content := "[15/01/2024, 10:30:45] A: first\n" +
		"[15/01/2024, 10:31:00] B: second\n" +
		"[15/01/2024, 10:32:00] A: third"

	messages := ParseExport(content)
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if messages[i].Text != want {
			t.Errorf("message %d = %q, want %q", i, messages[i].Text, want)
		}
	}
}
