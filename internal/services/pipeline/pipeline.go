package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/fetch"
)

// certificateExtractor pulls certificate rows out of listing page HTML
type certificateExtractor interface {
	ExtractCertificates(html string) ([]*models.Certificate, error)
}

// listingSnapshotter converts the listing page into a markdown document
type listingSnapshotter interface {
	Snapshot(result *models.ScrapeResult, certificatesFound int) (*models.Document, error)
}

// pdfDownloader fetches and validates a PDF payload
type pdfDownloader interface {
	Download(ctx context.Context, url string) (*fetch.Result, error)
}

// pdfUploader archives a PDF and returns its object key
type pdfUploader interface {
	Upload(ctx context.Context, cert *models.Certificate, link models.PDFLink, data []byte) (string, error)
}

// documentParser produces a structured summary from PDF bytes
type documentParser interface {
	ParsePDF(ctx context.Context, pdfData []byte) (*models.AuditReportSummary, error)
}

// Pipeline runs the full collection flow: scrape the certificate
// listing, extract certificate rows, download each linked PDF, archive
// it to S3 and optionally parse it into a structured document.
type Pipeline struct {
	config      *common.Config
	scraper     interfaces.PageScraper
	extractor   certificateExtractor
	snapshotter listingSnapshotter
	downloader  pdfDownloader
	uploader    pdfUploader
	parser      documentParser
	storage     interfaces.StorageManager
	logger      arbor.ILogger
}

// NewPipeline wires the collection pipeline. The parser may be nil when
// parsing is disabled.
func NewPipeline(
	config *common.Config,
	scraper interfaces.PageScraper,
	extractor certificateExtractor,
	snapshotter listingSnapshotter,
	downloader pdfDownloader,
	uploader pdfUploader,
	parser documentParser,
	storage interfaces.StorageManager,
	logger arbor.ILogger,
) *Pipeline {
	return &Pipeline{
		config:      config,
		scraper:     scraper,
		extractor:   extractor,
		snapshotter: snapshotter,
		downloader:  downloader,
		uploader:    uploader,
		parser:      parser,
		storage:     storage,
		logger:      logger,
	}
}

// Run executes one collection run and records it in run history.
// Cancellation saves the partial stats and marks the run cancelled.
func (p *Pipeline) Run(ctx context.Context) (*models.Run, error) {
	run := &models.Run{
		ID:        common.NewRunID(),
		Status:    models.RunStatusRunning,
		Backend:   p.scraper.Name(),
		StartedAt: time.Now(),
	}
	if err := p.storage.RunStorage().SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	p.logger.Info().
		Str("run_id", run.ID).
		Str("backend", run.Backend).
		Msg("Collection run started")

	err := p.collect(ctx, run)

	now := time.Now()
	run.CompletedAt = &now
	switch {
	case err == nil:
		run.Status = models.RunStatusCompleted
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		run.Status = models.RunStatusCancelled
		run.Error = err.Error()
	default:
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	}

	// Persist final stats with a fresh context so a cancelled run is
	// still recorded
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if saveErr := p.storage.RunStorage().SaveRun(saveCtx, run); saveErr != nil {
		p.logger.Error().Err(saveErr).Str("run_id", run.ID).Msg("Failed to save run result")
	}

	p.logger.Info().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("certificates", run.Stats.CertificatesFound).
		Int("uploaded", run.Stats.PDFsUploaded).
		Int("skipped", run.Stats.Skipped).
		Int("errors", run.Stats.Errors).
		Msg("Collection run finished")

	return run, err
}

// collect performs the scrape-extract-download-archive flow, updating
// run.Stats as it goes
func (p *Pipeline) collect(ctx context.Context, run *models.Run) error {
	result, err := p.scraper.ScrapeURL(ctx, p.config.Catalog.CertificatesURL)
	if err != nil {
		return fmt.Errorf("failed to scrape certificate listing: %w", err)
	}

	certificates, err := p.extractor.ExtractCertificates(result.HTML)
	if err != nil {
		return fmt.Errorf("failed to extract certificates: %w", err)
	}
	run.Stats.CertificatesFound = len(certificates)
	for _, cert := range certificates {
		run.Stats.PDFsFound += len(cert.PDFLinks)
	}

	p.logger.Info().
		Int("certificates", len(certificates)).
		Int("pdf_links", run.Stats.PDFsFound).
		Msg("Certificate listing extracted")

	if snapshot, err := p.snapshotter.Snapshot(result, len(certificates)); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to snapshot listing page")
	} else if err := p.storage.DocumentStorage().SaveDocument(snapshot); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to save listing snapshot")
	}

	processed := 0
	for _, cert := range certificates {
		for _, link := range cert.PDFLinks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if p.config.Pipeline.MaxDocuments > 0 && processed >= p.config.Pipeline.MaxDocuments {
				p.logger.Info().
					Int("max_documents", p.config.Pipeline.MaxDocuments).
					Msg("Document limit reached, stopping run")
				return nil
			}

			p.processLink(ctx, run, cert, link)
			processed++

			if p.config.Pipeline.DownloadDelay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(p.config.Pipeline.DownloadDelay.Std()):
				}
			}
		}
	}

	return nil
}

// processLink downloads, archives and optionally parses a single PDF
// link. Failures are counted but never abort the run.
func (p *Pipeline) processLink(ctx context.Context, run *models.Run, cert *models.Certificate, link models.PDFLink) {
	urlHash := common.URLHash(link.URL)

	done, err := p.storage.ProcessedStorage().IsProcessed(ctx, urlHash)
	if err != nil {
		p.logger.Warn().Err(err).Str("url", link.URL).Msg("Dedupe check failed")
		run.Stats.Errors++
		return
	}
	if done {
		p.logger.Debug().
			Str("url", link.URL).
			Str("certificate", cert.Number).
			Msg("PDF already archived, skipping")
		run.Stats.Skipped++
		return
	}

	download, err := p.downloader.Download(ctx, link.URL)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("url", link.URL).
			Str("certificate", cert.Number).
			Msg("PDF download failed")
		run.Stats.Errors++
		return
	}
	run.Stats.PDFsDownloaded++

	key, err := p.uploader.Upload(ctx, cert, link, download.Data)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("url", link.URL).
			Str("certificate", cert.Number).
			Msg("PDF upload failed")
		run.Stats.Errors++
		return
	}
	run.Stats.PDFsUploaded++

	if p.parser != nil && p.config.Pipeline.ParseEnabled {
		if err := p.parseAndStore(ctx, cert, link, key, download.Data); err != nil {
			p.logger.Warn().
				Err(err).
				Str("certificate", cert.Number).
				Msg("PDF parse failed")
			run.Stats.Errors++
		} else {
			run.Stats.Parsed++
		}
	}

	mark := &models.ProcessedMark{
		URLHash:           urlHash,
		SourceURL:         link.URL,
		S3Key:             key,
		CertificateNumber: cert.Number,
		ProcessedAt:       time.Now(),
	}
	if err := p.storage.ProcessedStorage().MarkProcessed(ctx, mark); err != nil {
		p.logger.Warn().Err(err).Str("url", link.URL).Msg("Failed to record processed mark")
	}
}

// parseAndStore runs the structured extraction and stores the result as
// a searchable document
func (p *Pipeline) parseAndStore(ctx context.Context, cert *models.Certificate, link models.PDFLink, s3Key string, data []byte) error {
	summary, err := p.parser.ParsePDF(ctx, data)
	if err != nil {
		return err
	}

	meta := &models.CertificateMetadata{
		CertificateNumber: cert.Number,
		CompanyName:       cert.CompanyName,
		Country:           cert.Country,
		ValidityPeriod:    cert.ValidityPeriod,
		CertificationBody: cert.CertificationBody,
		PDFType:           string(link.Type),
		SourceURL:         link.URL,
		ScrapedDate:       time.Now().Format(time.RFC3339),
	}
	metaMap, err := meta.ToMap()
	if err != nil {
		return fmt.Errorf("failed to build document metadata: %w", err)
	}
	metaMap["summary"] = summary

	sourceType := models.SourceTypeCertificate
	if link.Type == models.PDFTypeAuditReport {
		sourceType = models.SourceTypeAuditReport
	}

	doc := &models.Document{
		ID:              common.NewDocumentID(),
		SourceType:      sourceType,
		SourceID:        cert.Number,
		Title:           fmt.Sprintf("%s %s (%s)", cert.Number, link.Type, cert.CompanyName),
		ContentMarkdown: renderSummary(summary),
		Metadata:        metaMap,
		URL:             link.URL,
		S3Key:           s3Key,
	}

	return p.storage.DocumentStorage().SaveDocument(doc)
}
