package kb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/ternarybob/colligo/internal/common"
)

// fakeAgentRuntime records the last request and returns canned results
type fakeAgentRuntime struct {
	input   *bedrockagentruntime.RetrieveInput
	results []types.KnowledgeBaseRetrievalResult
	err     error
}

func (f *fakeAgentRuntime) Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockagentruntime.RetrieveOutput{RetrievalResults: f.results}, nil
}

func TestRetrieveClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int32
	}{
		{"zero clamps to min", 0, 1},
		{"negative clamps to min", -5, 1},
		{"in range passes through", 5, 5},
		{"over max clamps to max", 25, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAgentRuntime{}
			retriever := NewRetrieverWithClient(fake, "KB123", "us-east-1", common.GetLogger())

			if _, err := retriever.Retrieve(context.Background(), "biodiesel certificates", tt.limit); err != nil {
				t.Fatalf("Retrieve failed: %v", err)
			}

			got := *fake.input.RetrievalConfiguration.VectorSearchConfiguration.NumberOfResults
			if got != tt.want {
				t.Errorf("NumberOfResults = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRetrieveMapsResults(t *testing.T) {
	fake := &fakeAgentRuntime{
		results: []types.KnowledgeBaseRetrievalResult{
			{
				Content: &types.RetrievalResultContent{Text: aws.String("Certificate EU-ISCC-12345 is held by Acme.")},
				Location: &types.RetrievalResultLocation{
					S3Location: &types.RetrievalResultS3Location{Uri: aws.String("s3://cert-archive/iscc_certificates/20260831/EU-ISCC-12345_Acme_audit_report.pdf")},
				},
				Score: aws.Float64(0.92),
			},
			{
				Content: &types.RetrievalResultContent{Text: aws.String("Scope covers waste based biodiesel.")},
			},
		},
	}
	retriever := NewRetrieverWithClient(fake, "KB123", "us-east-1", common.GetLogger())

	results, err := retriever.Retrieve(context.Background(), "who holds EU-ISCC-12345", 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].SourceURI != "s3://cert-archive/iscc_certificates/20260831/EU-ISCC-12345_Acme_audit_report.pdf" {
		t.Errorf("unexpected source URI: %s", results[0].SourceURI)
	}
	if results[0].Score != 0.92 {
		t.Errorf("unexpected score: %f", results[0].Score)
	}
	if results[1].SourceURI != "" || results[1].Score != 0 {
		t.Errorf("missing location should map to zero values: %+v", results[1])
	}

	if *fake.input.KnowledgeBaseId != "KB123" {
		t.Errorf("unexpected knowledge base ID: %s", *fake.input.KnowledgeBaseId)
	}
	if fake.input.RetrievalConfiguration.VectorSearchConfiguration.OverrideSearchType != types.SearchTypeHybrid {
		t.Error("expected hybrid search override")
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	retriever := NewRetrieverWithClient(&fakeAgentRuntime{}, "KB123", "us-east-1", common.GetLogger())
	if _, err := retriever.Retrieve(context.Background(), "", 3); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestInfo(t *testing.T) {
	retriever := NewRetrieverWithClient(&fakeAgentRuntime{}, "KB123", "us-east-1", common.GetLogger())
	info, err := retriever.Info(context.Background())
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Status != "available" || info.KnowledgeBaseID != "KB123" || info.Region != "us-east-1" {
		t.Errorf("unexpected info: %+v", info)
	}

	broken := NewRetrieverWithClient(&fakeAgentRuntime{err: errors.New("ResourceNotFoundException")}, "KB123", "us-east-1", common.GetLogger())
	info, err = broken.Info(context.Background())
	if err != nil {
		t.Fatalf("Info should not return an error for an unavailable KB: %v", err)
	}
	if info.Status != "unavailable" || info.Error == "" {
		t.Errorf("unexpected info: %+v", info)
	}
}
