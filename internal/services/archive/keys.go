package archive

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ternarybob/colligo/internal/models"
)

// nonWord matches every character that is not safe in an object key
// component. Dots and dashes stay, everything else becomes an underscore.
var nonWord = regexp.MustCompile(`[^\w\-.]`)

// maxCompanyLen caps the company name component of the key
const maxCompanyLen = 50

// GenerateKey builds the object key for an archived PDF:
// {prefix}/{YYYYMMDD}/{certNumber}_{company}_{type}.pdf
// with non-word characters replaced by underscores. The company name is
// capped at 50 characters before sanitizing.
func GenerateKey(prefix string, cert *models.Certificate, pdfType models.PDFType, now time.Time) string {
	company := []rune(cert.CompanyName)
	if len(company) > maxCompanyLen {
		company = company[:maxCompanyLen]
	}

	return fmt.Sprintf("%s/%s/%s_%s_%s.pdf",
		prefix,
		now.Format("20060102"),
		sanitizeComponent(cert.Number),
		sanitizeComponent(string(company)),
		pdfType,
	)
}

// sanitizeComponent replaces unsafe characters with underscores
func sanitizeComponent(s string) string {
	return nonWord.ReplaceAllString(s, "_")
}
