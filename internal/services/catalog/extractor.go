package catalog

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// Extractor parses the certificate table out of listing-page HTML
type Extractor struct {
	baseURL string
	logger  arbor.ILogger
}

// NewExtractor creates a certificate table extractor. Relative PDF hrefs
// are resolved against baseURL.
func NewExtractor(baseURL string, logger arbor.ILogger) *Extractor {
	return &Extractor{
		baseURL: baseURL,
		logger:  logger,
	}
}

// ExtractCertificates parses every table row into a Certificate.
// Rows with fewer than 5 cells are skipped, and only certificates
// carrying at least one PDF link are returned.
func (e *Extractor) ExtractCertificates(html string) ([]*models.Certificate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	var certificates []*models.Certificate
	rowCount := 0

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return // Header rows and malformed rows
		}
		rowCount++

		cert := &models.Certificate{
			Number:            cellText(cells, 0),
			CompanyName:       cellText(cells, 1),
			Country:           cellText(cells, 2),
			ValidityPeriod:    cellText(cells, 3),
			CertificationBody: cellText(cells, 4),
		}

		// PDF links can appear in any cell of the row
		row.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if !common.IsPDFLink(href) {
				return
			}
			text := strings.TrimSpace(link.Text())
			cert.PDFLinks = append(cert.PDFLinks, models.PDFLink{
				URL:  common.ResolveURL(e.baseURL, href),
				Text: text,
				Type: ClassifyPDFLink(text, href),
			})
		})

		if len(cert.PDFLinks) > 0 {
			certificates = append(certificates, cert)
		}
	})

	e.logger.Debug().
		Int("rows", rowCount).
		Int("certificates", len(certificates)).
		Msg("Extracted certificates from listing table")

	return certificates, nil
}

// cellText returns the trimmed text of the nth cell
func cellText(cells *goquery.Selection, index int) string {
	return strings.TrimSpace(cells.Eq(index).Text())
}
