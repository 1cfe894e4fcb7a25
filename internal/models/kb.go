package models

// RetrievalResult is a single passage returned from knowledge base search
type RetrievalResult struct {
	Content   string  `json:"content"`
	SourceURI string  `json:"source_uri"` // s3:// location of the source PDF
	Score     float64 `json:"score"`
}

// KnowledgeBaseInfo reports knowledge base identity and connection status
type KnowledgeBaseInfo struct {
	KnowledgeBaseID string `json:"knowledge_base_id"`
	Region          string `json:"region"`
	Status          string `json:"status"` // "connected" or "error"
	Error           string `json:"error,omitempty"`
}

// AuditReportSummary is the structured result of parsing a certificate PDF
// with the hosted model
type AuditReportSummary struct {
	CertificateHolder string   `json:"certificate_holder"`
	CertificateNumber string   `json:"certificate_number"`
	Scope             string   `json:"scope"`
	ValidFrom         string   `json:"valid_from"`
	ValidUntil        string   `json:"valid_until"`
	CertificationBody string   `json:"certification_body"`
	Findings          []string `json:"findings"`
	Summary           string   `json:"summary"`
}
