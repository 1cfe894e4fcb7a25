package models

// PDFType classifies a PDF link found in the certificate table
type PDFType string

const (
	// PDFTypeAuditReport is an audit or summary report link
	PDFTypeAuditReport PDFType = "audit_report"
	// PDFTypeCertificate is the certificate document itself
	PDFTypeCertificate PDFType = "certificate"
	// PDFTypeUnknown is a PDF link whose text matched no known pattern
	PDFTypeUnknown PDFType = "unknown"
)

// PDFLink is a single PDF reference extracted from a certificate row
type PDFLink struct {
	URL  string  `json:"url"`  // Absolute URL
	Text string  `json:"text"` // Link text from the table cell
	Type PDFType `json:"type"`
}

// Certificate is one row of the certificate database listing table.
// Only rows carrying at least one PDF link are retained.
type Certificate struct {
	Number            string    `json:"certificate_number"`
	CompanyName       string    `json:"company_name"`
	Country           string    `json:"country"`
	ValidityPeriod    string    `json:"validity_period"`
	CertificationBody string    `json:"certification_body"`
	PDFLinks          []PDFLink `json:"pdf_links"`
}
