package whatsapp

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		text      string
		wantText  string
		wantMedia string
	}{
		{"<Media omitted>", "[Media file]", "document"},
		{"IMG-20240115.jpg <attached>", "[Media file]", "document"},
		{"holiday.png", "holiday.png", "image"},
		{"clip.MP4", "clip.MP4", "video"},
		{"voice-note.ogg", "voice-note.ogg", "audio"},
		{"report.xyz", "report.xyz", ""},
		{"plain text message", "plain text message", ""},
		{"ends with a dot.", "ends with a dot.", ""},
	}
	for _, tc := range cases {
		gotText, gotMedia := Classify(tc.text)
		if gotText != tc.wantText || gotMedia != tc.wantMedia {
			t.Errorf("Classify(%q) = (%q, %q), want (%q, %q)",
				tc.text, gotText, gotMedia, tc.wantText, tc.wantMedia)
		}
	}
}
