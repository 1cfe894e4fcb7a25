package models

import (
	"encoding/json"
	"time"
)

const (
	// SourceTypeListing marks a markdown snapshot of the certificate listing page
	SourceTypeListing = "listing"
	// SourceTypeAuditReport marks a parsed certificate audit report PDF
	SourceTypeAuditReport = "audit_report"
	// SourceTypeCertificate marks a parsed certificate PDF
	SourceTypeCertificate = "certificate"
)

// Document represents a normalized document from any source
// PRIMARY CONTENT FORMAT: Markdown (ContentMarkdown field)
type Document struct {
	// Identity
	ID         string `json:"id"`          // doc_{uuid}
	SourceType string `json:"source_type"` // listing, audit_report, certificate
	SourceID   string `json:"source_id"`   // Original ID from source (cert number or URL hash)

	// Content (markdown-first)
	Title           string `json:"title"`
	ContentMarkdown string `json:"content_markdown"` // PRIMARY CONTENT: Markdown format

	// Metadata (source-specific data stored as JSON)
	// Example: {"certificate_number": "EU-ISCC-12345", "company_name": "Acme"}
	Metadata map[string]interface{} `json:"metadata"`
	URL      string                 `json:"url"`              // Link to original
	S3Key    string                 `json:"s3_key,omitempty"` // Archive location for PDF-backed documents

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CertificateMetadata represents certificate-specific metadata attached
// to documents produced from the listing table
type CertificateMetadata struct {
	CertificateNumber string `json:"certificate_number"`
	CompanyName       string `json:"company_name"`
	Country           string `json:"country"`
	ValidityPeriod    string `json:"validity_period"`
	CertificationBody string `json:"certification_body"`
	PDFType           string `json:"pdf_type"`
	SourceURL         string `json:"source_url"`
	ScrapedDate       string `json:"scraped_date"`
}

// ToMap converts typed metadata to map for storage
func (c *CertificateMetadata) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// PDFMetadata describes a validated PDF payload
type PDFMetadata struct {
	PageCount   int   `json:"page_count"`
	FileSize    int64 `json:"file_size"`
	IsEncrypted bool  `json:"is_encrypted"`
}
