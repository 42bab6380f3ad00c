package models

import "time"

// RawEmail represents a single fetched message before classification
type RawEmail struct {
	MessageID  string    // Email Message-ID header, synthetic when absent
	FromAddr   string    // Sender email
	FromName   string    // Sender name
	Subject    string    // Decoded subject
	BodyText   string    // Parsed text body
	BodyHTML   string    // Original HTML body
	ReceivedAt time.Time // Internal date of the message
}

// EmailTask represents a classified email ready to publish
type EmailTask struct {
	MessageID string
	Subject   string
	Body      string   // Plaintext body, HTML-stripped when needed
	FromAddr  string
	TaskTypes []string // Detected labels, "other" when nothing matched
	DueDate   string   // YYYY-MM-DD, empty when no date was found
}
