package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// stubExtractor accepts any payload as a one page PDF
type stubExtractor struct{}

func (stubExtractor) ExtractTextFromBytes(ctx context.Context, pdfContent []byte) (string, error) {
	return "stub text", nil
}

func (stubExtractor) GetMetadataFromBytes(ctx context.Context, pdfContent []byte) (*models.PDFMetadata, error) {
	return &models.PDFMetadata{PageCount: 1, FileSize: int64(len(pdfContent))}, nil
}

func testFetcher(maxSize int) *Fetcher {
	config := &common.ScraperConfig{
		UserAgent:      "test-agent",
		RequestTimeout: common.Duration(5 * time.Second),
		MaxBodySize:    maxSize,
	}
	return NewFetcher(config, stubExtractor{}, common.GetLogger())
}

func TestDownloadValidPDF(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("%PDF-1.7 fake payload"))
	}))
	defer server.Close()

	result, err := testFetcher(0).Download(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	if gotUA != "test-agent" {
		t.Errorf("expected browser user agent, got %q", gotUA)
	}
	if result.Metadata.PageCount != 1 {
		t.Errorf("unexpected metadata: %+v", result.Metadata)
	}
}

func TestDownloadRejectsNonPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Error page served with status 200
		w.Write([]byte("<html>404 not found</html>"))
	}))
	defer server.Close()

	if _, err := testFetcher(0).Download(context.Background(), server.URL); err == nil {
		t.Error("expected rejection of non-PDF body")
	}
}

func TestDownloadRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := testFetcher(0).Download(context.Background(), server.URL); err == nil {
		t.Error("expected error for 403 response")
	}
}

func TestDownloadRejectsOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.7 " + string(make([]byte, 1024))))
	}))
	defer server.Close()

	if _, err := testFetcher(100).Download(context.Background(), server.URL); err == nil {
		t.Error("expected error for oversized body")
	}
}
