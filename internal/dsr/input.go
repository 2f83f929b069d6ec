package dsr

// TaskLine is one task's contribution to a day's report.
type TaskLine struct {
	Title       string `json:"title"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// ConversationDigest summarizes one contact's WhatsApp activity for the day.
// Only opted-in contacts ever appear here; the gathering query excludes the
// rest so downstream code never has to check consent again.
type ConversationDigest struct {
	ContactName     string `json:"contactName"`
	MessageCount    int    `json:"messageCount"`
	LastMessage     string `json:"lastMessage"`
	LastMessageTime string `json:"timestamp"`
}

// ReportInput is the immutable snapshot a report is generated from. Built
// fresh for every generation request.
type ReportInput struct {
	UserID          int64                `json:"userId"`
	UserName        string               `json:"userName"`
	Date            string               `json:"date"`
	Tasks           []TaskLine           `json:"tasks"`
	Conversations   []ConversationDigest `json:"conversations"`
	AdditionalNotes string               `json:"additionalNotes,omitempty"`
}

// ReportResult is what generation always produces. Model is the real model
// name on success and "fallback" when the template summary was used.
type ReportResult struct {
	Succeeded   bool
	Summary     string
	Model       string
	ErrorDetail string
}
