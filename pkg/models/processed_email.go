package models

import "time"

// ProcessStatus is the terminal outcome recorded for a processed email
type ProcessStatus string

const (
	StatusSuccess ProcessStatus = "success"
	StatusFailed  ProcessStatus = "failed"
)

// ProcessedEmail represents one ledger row in the processed_emails table
type ProcessedEmail struct {
	EmailID     string        `db:"email_id"`     // Message-ID header (or synthetic)
	Subject     string        `db:"subject"`      // Decoded subject at processing time
	ProcessedAt time.Time     `db:"processed_at"` // When the outcome was recorded
	Status      ProcessStatus `db:"status"`       // success or failed
}
