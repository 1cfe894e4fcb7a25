package pipeline

import (
	"fmt"
	"strings"

	"github.com/ternarybob/colligo/internal/models"
)

// renderSummary formats a structured summary as markdown for full text
// search over stored documents
func renderSummary(summary *models.AuditReportSummary) string {
	var b strings.Builder

	if summary.CertificateHolder != "" {
		fmt.Fprintf(&b, "# %s\n\n", summary.CertificateHolder)
	}

	writeField := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- **%s**: %s\n", label, value)
		}
	}
	writeField("Certificate number", summary.CertificateNumber)
	writeField("Scope", summary.Scope)
	writeField("Valid from", summary.ValidFrom)
	writeField("Valid until", summary.ValidUntil)
	writeField("Certification body", summary.CertificationBody)

	if len(summary.Findings) > 0 {
		b.WriteString("\n## Findings\n\n")
		for _, finding := range summary.Findings {
			fmt.Fprintf(&b, "- %s\n", finding)
		}
	}

	if summary.Summary != "" {
		b.WriteString("\n## Summary\n\n")
		b.WriteString(summary.Summary)
		b.WriteString("\n")
	}

	return b.String()
}
