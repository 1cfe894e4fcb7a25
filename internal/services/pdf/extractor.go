// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Extractor implements the PDFExtractor interface using pdfcpu
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	tempDir := filepath.Join(os.TempDir(), "colligo-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractTextFromBytes extracts text directly from PDF bytes.
// pdfcpu works on files, so the payload is staged in a temp directory.
func (e *Extractor) ExtractTextFromBytes(ctx context.Context, pdfContent []byte) (string, error) {
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("direct_%d.pdf", os.Getpid()))
	if err := os.WriteFile(tempFile, pdfContent, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF context: %w", err)
	}

	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("direct_pages_%d", os.Getpid()))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract PDF content: %w", err)
	}

	// Read and concatenate extracted content in page order
	var fullText strings.Builder
	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)

	for _, file := range files {
		if !file.IsDir() {
			content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
			if err == nil {
				var pageNum int
				if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
					pageTexts[pageNum] = string(content)
				}
			}
		}
	}

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if text, ok := pageTexts[pageNum]; ok {
			if fullText.Len() > 0 {
				fullText.WriteString("\n\n--- Page ")
				fullText.WriteString(fmt.Sprintf("%d", pageNum))
				fullText.WriteString(" ---\n\n")
			}
			fullText.WriteString(text)
		}
	}

	return fullText.String(), nil
}

// GetMetadataFromBytes validates a PDF payload and reports page count,
// size and encryption without extracting text
func (e *Extractor) GetMetadataFromBytes(ctx context.Context, pdfContent []byte) (*models.PDFMetadata, error) {
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("meta_%d.pdf", os.Getpid()))
	if err := os.WriteFile(tempFile, pdfContent, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	metadata := &models.PDFMetadata{
		PageCount:   pdfCtx.PageCount,
		FileSize:    int64(len(pdfContent)),
		IsEncrypted: pdfCtx.Encrypt != nil,
	}

	e.logger.Debug().
		Int("page_count", metadata.PageCount).
		Int64("file_size", metadata.FileSize).
		Bool("encrypted", metadata.IsEncrypted).
		Msg("Extracted PDF metadata")

	return metadata, nil
}
