package catalog

import (
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

// ClassifyPDFLink infers the document type from the link text, falling
// back to the href when the text is empty. Link text containing "audit"
// or "summary" marks an audit report; "certificate" marks the
// certificate document itself.
func ClassifyPDFLink(text, href string) models.PDFType {
	subject := strings.ToLower(strings.TrimSpace(text))
	if subject == "" {
		subject = strings.ToLower(href)
	}

	switch {
	case strings.Contains(subject, "audit"), strings.Contains(subject, "summary"):
		return models.PDFTypeAuditReport
	case strings.Contains(subject, "certificate"):
		return models.PDFTypeCertificate
	default:
		return models.PDFTypeUnknown
	}
}
