package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/fetch"
	"github.com/ternarybob/colligo/internal/storage/badger"
)

type fakeScraper struct {
	html string
	err  error
}

func (f *fakeScraper) ScrapeURL(ctx context.Context, url string) (*models.ScrapeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ScrapeResult{URL: url, HTML: f.html, Backend: "fake"}, nil
}

func (f *fakeScraper) Name() string { return "fake" }
func (f *fakeScraper) Close() error { return nil }

type fakeExtractor struct {
	certs []*models.Certificate
}

func (f *fakeExtractor) ExtractCertificates(html string) ([]*models.Certificate, error) {
	return f.certs, nil
}

type fakeSnapshotter struct{}

func (f *fakeSnapshotter) Snapshot(result *models.ScrapeResult, certificatesFound int) (*models.Document, error) {
	return &models.Document{
		ID:              common.NewDocumentID(),
		SourceType:      models.SourceTypeListing,
		SourceID:        common.URLHash(result.URL),
		Title:           "Certificate listing",
		ContentMarkdown: "snapshot",
		URL:             result.URL,
	}, nil
}

type fakeDownloader struct {
	failURLs map[string]bool
	calls    []string
}

func (f *fakeDownloader) Download(ctx context.Context, url string) (*fetch.Result, error) {
	f.calls = append(f.calls, url)
	if f.failURLs[url] {
		return nil, errors.New("download failed")
	}
	return &fetch.Result{Data: []byte("%PDF-1.7 " + url), Metadata: &models.PDFMetadata{PageCount: 1}}, nil
}

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) Upload(ctx context.Context, cert *models.Certificate, link models.PDFLink, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "archive/" + cert.Number + "_" + string(link.Type) + ".pdf"
	f.keys = append(f.keys, key)
	return key, nil
}

type fakeParser struct {
	calls int
	err   error
}

func (f *fakeParser) ParsePDF(ctx context.Context, pdfData []byte) (*models.AuditReportSummary, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.AuditReportSummary{
		CertificateHolder: "Acme",
		CertificateNumber: "EU-ISCC-12345",
		Findings:          []string{"one minor nonconformity"},
	}, nil
}

func testStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := badger.NewManager(common.GetLogger(), &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to open test storage: %v", err)
	}
	t.Cleanup(func() { manager.Close() })
	return manager
}

func testConfig() *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Pipeline.DownloadDelay = 0
	cfg.Pipeline.ParseEnabled = true
	return cfg
}

func testCertificates() []*models.Certificate {
	return []*models.Certificate{
		{
			Number:      "EU-ISCC-12345",
			CompanyName: "Acme",
			Country:     "Germany",
			PDFLinks: []models.PDFLink{
				{URL: "https://example.com/audit1.pdf", Type: models.PDFTypeAuditReport},
				{URL: "https://example.com/cert1.pdf", Type: models.PDFTypeCertificate},
			},
		},
		{
			Number:      "EU-ISCC-67890",
			CompanyName: "Biofuel Corp",
			Country:     "Netherlands",
			PDFLinks: []models.PDFLink{
				{URL: "https://example.com/audit2.pdf", Type: models.PDFTypeAuditReport},
			},
		},
	}
}

func newTestPipeline(t *testing.T, cfg *common.Config, downloader *fakeDownloader, uploader *fakeUploader, parser *fakeParser) (*Pipeline, interfaces.StorageManager) {
	t.Helper()
	storage := testStorage(t)
	p := NewPipeline(
		cfg,
		&fakeScraper{html: "<table></table>"},
		&fakeExtractor{certs: testCertificates()},
		&fakeSnapshotter{},
		downloader,
		uploader,
		parser,
		storage,
		common.GetLogger(),
	)
	return p, storage
}

func TestRunProcessesAllLinks(t *testing.T) {
	downloader := &fakeDownloader{}
	uploader := &fakeUploader{}
	parser := &fakeParser{}
	p, storage := newTestPipeline(t, testConfig(), downloader, uploader, parser)

	run, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if run.Status != models.RunStatusCompleted {
		t.Errorf("unexpected status: %s", run.Status)
	}
	if run.Stats.CertificatesFound != 2 {
		t.Errorf("CertificatesFound = %d, want 2", run.Stats.CertificatesFound)
	}
	if run.Stats.PDFsFound != 3 || run.Stats.PDFsDownloaded != 3 || run.Stats.PDFsUploaded != 3 {
		t.Errorf("unexpected PDF stats: %+v", run.Stats)
	}
	if run.Stats.Parsed != 3 || parser.calls != 3 {
		t.Errorf("expected all PDFs parsed, stats %+v calls %d", run.Stats, parser.calls)
	}

	// Listing snapshot plus one parsed document per PDF
	count, err := storage.DocumentStorage().CountDocuments()
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 stored documents, got %d", count)
	}

	processed, err := storage.ProcessedStorage().CountProcessed(context.Background())
	if err != nil {
		t.Fatalf("CountProcessed failed: %v", err)
	}
	if processed != 3 {
		t.Errorf("expected 3 processed marks, got %d", processed)
	}

	saved, err := storage.RunStorage().GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if saved.Status != models.RunStatusCompleted || saved.CompletedAt == nil {
		t.Errorf("run history not finalized: %+v", saved)
	}
}

func TestRunSkipsAlreadyProcessed(t *testing.T) {
	downloader := &fakeDownloader{}
	p, storage := newTestPipeline(t, testConfig(), downloader, &fakeUploader{}, &fakeParser{})

	mark := &models.ProcessedMark{
		URLHash:           common.URLHash("https://example.com/audit1.pdf"),
		SourceURL:         "https://example.com/audit1.pdf",
		CertificateNumber: "EU-ISCC-12345",
	}
	if err := storage.ProcessedStorage().MarkProcessed(context.Background(), mark); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	run, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if run.Stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", run.Stats.Skipped)
	}
	if run.Stats.PDFsDownloaded != 2 {
		t.Errorf("PDFsDownloaded = %d, want 2", run.Stats.PDFsDownloaded)
	}
	for _, url := range downloader.calls {
		if url == "https://example.com/audit1.pdf" {
			t.Error("already processed URL should not be downloaded again")
		}
	}
}

func TestRunCountsDownloadErrors(t *testing.T) {
	downloader := &fakeDownloader{failURLs: map[string]bool{"https://example.com/cert1.pdf": true}}
	p, _ := newTestPipeline(t, testConfig(), downloader, &fakeUploader{}, &fakeParser{})

	run, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should complete despite individual download errors: %v", err)
	}
	if run.Status != models.RunStatusCompleted {
		t.Errorf("unexpected status: %s", run.Status)
	}
	if run.Stats.Errors != 1 || run.Stats.PDFsUploaded != 2 {
		t.Errorf("unexpected stats: %+v", run.Stats)
	}
}

func TestRunHonorsMaxDocuments(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.MaxDocuments = 1
	downloader := &fakeDownloader{}
	p, _ := newTestPipeline(t, cfg, downloader, &fakeUploader{}, &fakeParser{})

	run, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if run.Stats.PDFsDownloaded != 1 {
		t.Errorf("expected 1 download with max_documents=1, got %d", run.Stats.PDFsDownloaded)
	}
}

func TestRunSkipsParsingWhenDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.ParseEnabled = false
	parser := &fakeParser{}
	p, _ := newTestPipeline(t, cfg, &fakeDownloader{}, &fakeUploader{}, parser)

	run, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if parser.calls != 0 || run.Stats.Parsed != 0 {
		t.Errorf("parsing should be skipped when disabled, calls %d stats %+v", parser.calls, run.Stats)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, storage := newTestPipeline(t, testConfig(), &fakeDownloader{}, &fakeUploader{}, &fakeParser{})

	run, err := p.Run(ctx)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if run.Status != models.RunStatusCancelled {
		t.Errorf("unexpected status: %s", run.Status)
	}

	saved, err := storage.RunStorage().GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if saved.Status != models.RunStatusCancelled {
		t.Errorf("cancelled run should still be recorded, got %s", saved.Status)
	}
}

func TestRunFailsWhenScrapeFails(t *testing.T) {
	storage := testStorage(t)
	p := NewPipeline(
		testConfig(),
		&fakeScraper{err: errors.New("blocked")},
		&fakeExtractor{},
		&fakeSnapshotter{},
		&fakeDownloader{},
		&fakeUploader{},
		&fakeParser{},
		storage,
		common.GetLogger(),
	)

	run, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when scrape fails")
	}
	if run.Status != models.RunStatusFailed || run.Error == "" {
		t.Errorf("unexpected run: %+v", run)
	}
}
