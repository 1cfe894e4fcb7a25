package models

import "time"

// ProcessedMark records a PDF URL that has already been uploaded.
// Keyed by the md5 hash of the source URL.
type ProcessedMark struct {
	URLHash           string    `json:"url_hash" badgerhold:"key"`
	SourceURL         string    `json:"source_url"`
	S3Key             string    `json:"s3_key"`
	CertificateNumber string    `json:"certificate_number"`
	ProcessedAt       time.Time `json:"processed_at"`
}
