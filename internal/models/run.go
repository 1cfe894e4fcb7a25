package models

import "time"

// RunStatus represents the lifecycle state of a collection run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// RunStats are the counters accumulated over one collection run.
// Errors are counted, never fatal to the run.
type RunStats struct {
	CertificatesFound int `json:"certificates_found"`
	PDFsFound         int `json:"pdfs_found"`
	PDFsDownloaded    int `json:"pdfs_downloaded"`
	PDFsUploaded      int `json:"pdfs_uploaded"`
	Parsed            int `json:"parsed"`
	Skipped           int `json:"skipped"`
	Errors            int `json:"errors"`
}

// Run records a single collection run and its outcome
type Run struct {
	ID          string     `json:"id"` // run_{uuid}
	Status      RunStatus  `json:"status"`
	Stats       RunStats   `json:"stats"`
	Backend     string     `json:"backend"` // Scraping backend used
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
