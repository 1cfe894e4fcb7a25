package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	db, err := NewBadgerDB(common.GetLogger(), &common.BadgerConfig{
		Path: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDocumentStorageRoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewDocumentStorage(db, common.GetLogger())

	doc := &models.Document{
		ID:              common.NewDocumentID(),
		SourceType:      models.SourceTypeAuditReport,
		SourceID:        "EU-ISCC-12345",
		Title:           "Audit Report EU-ISCC-12345",
		ContentMarkdown: "# Audit Report\n\nCertified biomass processing.",
		URL:             "https://example.com/audit.pdf",
		S3Key:           "iscc_certificates/20260831/EU-ISCC-12345_Acme_audit_report.pdf",
	}

	if err := storage.SaveDocument(doc); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	got, err := storage.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Title != doc.Title {
		t.Errorf("title mismatch: %s", got.Title)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set on save")
	}

	bySource, err := storage.GetDocumentBySource(models.SourceTypeAuditReport, "EU-ISCC-12345")
	if err != nil {
		t.Fatalf("GetDocumentBySource failed: %v", err)
	}
	if bySource.ID != doc.ID {
		t.Errorf("expected %s, got %s", doc.ID, bySource.ID)
	}
}

func TestDocumentStorageSaveRequiresID(t *testing.T) {
	db := newTestDB(t)
	storage := NewDocumentStorage(db, common.GetLogger())

	if err := storage.SaveDocument(&models.Document{}); err == nil {
		t.Error("expected error for document without ID")
	}
}

func TestDocumentStorageFullTextSearch(t *testing.T) {
	db := newTestDB(t)
	storage := NewDocumentStorage(db, common.GetLogger())

	docs := []*models.Document{
		{ID: common.NewDocumentID(), SourceType: models.SourceTypeAuditReport, SourceID: "a", Title: "Biomass audit", ContentMarkdown: "sustainable palm oil processing"},
		{ID: common.NewDocumentID(), SourceType: models.SourceTypeAuditReport, SourceID: "b", Title: "Waste audit", ContentMarkdown: "used cooking oil collection"},
	}
	if err := storage.SaveDocuments(docs); err != nil {
		t.Fatalf("SaveDocuments failed: %v", err)
	}

	results, err := storage.FullTextSearch("palm oil", 10)
	if err != nil {
		t.Fatalf("FullTextSearch failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].SourceID != "a" {
		t.Errorf("unexpected result: %s", results[0].SourceID)
	}
}

func TestDocumentStorageCountBySource(t *testing.T) {
	db := newTestDB(t)
	storage := NewDocumentStorage(db, common.GetLogger())

	for i, st := range []string{models.SourceTypeListing, models.SourceTypeAuditReport, models.SourceTypeAuditReport} {
		doc := &models.Document{ID: common.NewDocumentID(), SourceType: st, SourceID: string(rune('a' + i))}
		if err := storage.SaveDocument(doc); err != nil {
			t.Fatalf("SaveDocument failed: %v", err)
		}
	}

	count, err := storage.CountDocumentsBySource(models.SourceTypeAuditReport)
	if err != nil {
		t.Fatalf("CountDocumentsBySource failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 audit reports, got %d", count)
	}

	total, err := storage.CountDocuments()
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 documents, got %d", total)
	}
}

func TestProcessedStorageDedupe(t *testing.T) {
	db := newTestDB(t)
	storage := NewProcessedStorage(db, common.GetLogger())
	ctx := context.Background()

	hash := common.URLHash("https://example.com/audit.pdf")

	processed, err := storage.IsProcessed(ctx, hash)
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if processed {
		t.Error("hash should not be processed yet")
	}

	mark := &models.ProcessedMark{
		URLHash:           hash,
		SourceURL:         "https://example.com/audit.pdf",
		S3Key:             "iscc_certificates/20260831/EU-ISCC-12345_Acme_audit_report.pdf",
		CertificateNumber: "EU-ISCC-12345",
	}
	if err := storage.MarkProcessed(ctx, mark); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	processed, err = storage.IsProcessed(ctx, hash)
	if err != nil {
		t.Fatalf("IsProcessed failed: %v", err)
	}
	if !processed {
		t.Error("hash should be processed after marking")
	}

	got, err := storage.GetMark(ctx, hash)
	if err != nil {
		t.Fatalf("GetMark failed: %v", err)
	}
	if got.CertificateNumber != "EU-ISCC-12345" {
		t.Errorf("unexpected mark: %+v", got)
	}
	if got.ProcessedAt.IsZero() {
		t.Error("ProcessedAt should default to now")
	}

	count, err := storage.CountProcessed(ctx)
	if err != nil {
		t.Fatalf("CountProcessed failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 mark, got %d", count)
	}
}

func TestRunStorageHistory(t *testing.T) {
	db := newTestDB(t)
	storage := NewRunStorage(db, common.GetLogger())
	ctx := context.Background()

	first := &models.Run{
		ID:        common.NewRunID(),
		Status:    models.RunStatusCompleted,
		Backend:   "selenium",
		StartedAt: time.Now().Add(-time.Hour),
		Stats:     models.RunStats{CertificatesFound: 10, PDFsUploaded: 8},
	}
	second := &models.Run{
		ID:        common.NewRunID(),
		Status:    models.RunStatusRunning,
		Backend:   "selenium",
		StartedAt: time.Now(),
	}

	if err := storage.SaveRun(ctx, first); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if err := storage.SaveRun(ctx, second); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	latest, err := storage.GetLatestRun(ctx)
	if err != nil {
		t.Fatalf("GetLatestRun failed: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("expected latest run %s, got %s", second.ID, latest.ID)
	}

	runs, err := storage.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestKVStorageCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	storage := NewKVStorage(db, common.GetLogger())
	ctx := context.Background()

	if err := storage.Set(ctx, "Tavily_API_Key", "tv-key", "search API key"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := storage.Get(ctx, "tavily_api_key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "tv-key" {
		t.Errorf("expected tv-key, got %s", value)
	}

	created, err := storage.Upsert(ctx, "TAVILY_API_KEY", "tv-key-2", "")
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if created {
		t.Error("Upsert should report update for existing key")
	}
}
