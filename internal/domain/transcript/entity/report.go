package entity

import "time"

// Report is a stored analysis together with its source metadata
type Report struct {
	ID            string    `json:"id"`
	SourceName    string    `json:"sourceName,omitempty"`
	TranscriptKey string    `json:"transcriptKey,omitempty"` // object key in the archive, empty if not archived
	DateOrder     DateOrder `json:"dateOrder"`
	Data          ChatData  `json:"data"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ReportSummary is the listing view of a report
type ReportSummary struct {
	ID            string    `json:"id"`
	SourceName    string    `json:"sourceName,omitempty"`
	Participants  []string  `json:"participants"`
	TotalMessages int       `json:"totalMessages"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ExpiredReport identifies a purged report and its archived transcript
type ExpiredReport struct {
	ID            string
	TranscriptKey string
}
