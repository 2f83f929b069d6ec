package whatsapp

import "strings"

var mediaExtensions = map[string]string{
	"jpg": "image", "jpeg": "image", "png": "image", "gif": "image", "webp": "image",
	"mp4": "video", "mov": "video", "avi": "video",
	"mp3": "audio", "wav": "audio", "ogg": "audio",
}

// Classify inspects exported message text for media markers. An explicit
// omission marker replaces the text with a placeholder and defaults the
// type to document; otherwise the trailing file extension decides. Plain
// text comes back unchanged with no media type.
func Classify(text string) (string, string) {
	if strings.Contains(text, "<Media omitted>") || strings.Contains(text, "<attached>") {
		return "[Media file]", "document"
	}
	dot := strings.LastIndex(text, ".")
	if dot >= 0 && dot < len(text)-1 {
		ext := strings.ToLower(text[dot+1:])
		if mediaType, ok := mediaExtensions[ext]; ok {
			return text, mediaType
		}
	}
	return text, ""
}
