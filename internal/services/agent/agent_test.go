package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/llm"
)

type fakeKB struct {
	results []*models.RetrievalResult
	err     error
	query   string
	limit   int
}

func (f *fakeKB) Retrieve(ctx context.Context, query string, limit int) ([]*models.RetrievalResult, error) {
	f.query = query
	f.limit = limit
	return f.results, f.err
}

func (f *fakeKB) Info(ctx context.Context) (*models.KnowledgeBaseInfo, error) {
	return &models.KnowledgeBaseInfo{Status: "available"}, nil
}

type fakeGenerator struct {
	request  *llm.ContentRequest
	response *llm.ContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error) {
	f.request = request
	return f.response, f.err
}

func TestAskGroundsAnswerOnPassages(t *testing.T) {
	kb := &fakeKB{
		results: []*models.RetrievalResult{
			{
				Content:   "Certificate EU-ISCC-12345 is held by Acme GmbH.",
				SourceURI: "s3://cert-archive/iscc_certificates/20260831/EU-ISCC-12345_Acme_audit_report.pdf",
				Score:     0.91,
			},
		},
	}
	gen := &fakeGenerator{
		response: &llm.ContentResponse{Text: "Acme GmbH holds EU-ISCC-12345.", Model: "claude-sonnet-4-20250514"},
	}
	a := NewAgent(kb, gen, common.GetLogger())

	answer, err := a.Ask(context.Background(), "Who holds EU-ISCC-12345?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Text != "Acme GmbH holds EU-ISCC-12345." {
		t.Errorf("unexpected answer: %q", answer.Text)
	}
	if len(answer.Sources) != 1 {
		t.Errorf("expected sources to be returned, got %d", len(answer.Sources))
	}
	if kb.query != "Who holds EU-ISCC-12345?" || kb.limit != defaultRetrievalLimit {
		t.Errorf("unexpected retrieval: query=%q limit=%d", kb.query, kb.limit)
	}

	if gen.request.SystemInstruction == "" {
		t.Error("system instruction missing")
	}
	if len(gen.request.Messages) != 1 || gen.request.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", gen.request.Messages)
	}
	prompt := gen.request.Messages[0].Content
	if !strings.Contains(prompt, "EU-ISCC-12345 is held by Acme GmbH") {
		t.Error("prompt missing passage content")
	}
	if !strings.Contains(prompt, "s3://cert-archive/") {
		t.Error("prompt missing source URI")
	}
	if !strings.Contains(prompt, "Question: Who holds EU-ISCC-12345?") {
		t.Error("prompt missing question")
	}
}

func TestAskWithNoMatches(t *testing.T) {
	a := NewAgent(&fakeKB{}, &fakeGenerator{}, common.GetLogger())

	answer, err := a.Ask(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !strings.Contains(answer.Text, "No documents") {
		t.Errorf("expected no-match response, got %q", answer.Text)
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	a := NewAgent(&fakeKB{}, &fakeGenerator{}, common.GetLogger())
	if _, err := a.Ask(context.Background(), "   "); err == nil {
		t.Error("expected error for empty question")
	}
}

func TestAskPropagatesRetrieveError(t *testing.T) {
	a := NewAgent(&fakeKB{err: errors.New("throttled")}, &fakeGenerator{}, common.GetLogger())
	if _, err := a.Ask(context.Background(), "question"); err == nil {
		t.Error("expected error when retrieval fails")
	}
}
