package kb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

const (
	minResults = 1
	maxResults = 10
)

// agentRuntimeAPI is the subset of the Bedrock agent runtime client used
// by the retriever, narrowed so tests can substitute a fake
type agentRuntimeAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// Retriever queries a Bedrock knowledge base over the archived
// certificate documents
type Retriever struct {
	client          agentRuntimeAPI
	knowledgeBaseID string
	region          string
	logger          arbor.ILogger
}

// NewRetriever creates a knowledge base retriever from the configured
// credentials
func NewRetriever(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*Retriever, error) {
	if cfg.Bedrock.KnowledgeBaseID == "" {
		return nil, fmt.Errorf("knowledge base ID is not configured (set BEDROCK_KNOWLEDGE_BASE_ID)")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.BedrockRegion()),
	}
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Debug().
		Str("knowledge_base_id", cfg.Bedrock.KnowledgeBaseID).
		Str("region", cfg.BedrockRegion()).
		Msg("Knowledge base retriever initialized")

	return &Retriever{
		client:          bedrockagentruntime.NewFromConfig(awsCfg),
		knowledgeBaseID: cfg.Bedrock.KnowledgeBaseID,
		region:          cfg.BedrockRegion(),
		logger:          logger,
	}, nil
}

// NewRetrieverWithClient wires an explicit agent runtime client (used by tests)
func NewRetrieverWithClient(client agentRuntimeAPI, knowledgeBaseID, region string, logger arbor.ILogger) *Retriever {
	return &Retriever{
		client:          client,
		knowledgeBaseID: knowledgeBaseID,
		region:          region,
		logger:          logger,
	}
}

// Retrieve runs a hybrid search over the knowledge base and returns
// the matching passages. The limit is clamped to [1, 10].
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int) ([]*models.RetrievalResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit < minResults {
		limit = minResults
	}
	if limit > maxResults {
		limit = maxResults
	}

	output, err := r.client.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(r.knowledgeBaseID),
		RetrievalQuery: &types.KnowledgeBaseQuery{
			Text: aws.String(query),
		},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults:    aws.Int32(int32(limit)),
				OverrideSearchType: types.SearchTypeHybrid,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge base retrieve failed: %w", err)
	}

	results := make([]*models.RetrievalResult, 0, len(output.RetrievalResults))
	for _, item := range output.RetrievalResults {
		result := &models.RetrievalResult{}
		if item.Content != nil && item.Content.Text != nil {
			result.Content = *item.Content.Text
		}
		if item.Location != nil && item.Location.S3Location != nil && item.Location.S3Location.Uri != nil {
			result.SourceURI = *item.Location.S3Location.Uri
		}
		if item.Score != nil {
			result.Score = *item.Score
		}
		results = append(results, result)
	}

	r.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Knowledge base queried")

	return results, nil
}

// Info reports the configured knowledge base identity and whether it
// answers queries
func (r *Retriever) Info(ctx context.Context) (*models.KnowledgeBaseInfo, error) {
	info := &models.KnowledgeBaseInfo{
		KnowledgeBaseID: r.knowledgeBaseID,
		Region:          r.region,
	}

	_, err := r.client.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(r.knowledgeBaseID),
		RetrievalQuery: &types.KnowledgeBaseQuery{
			Text: aws.String("status check"),
		},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(1),
			},
		},
	})
	if err != nil {
		info.Status = "unavailable"
		info.Error = err.Error()
		return info, nil
	}

	info.Status = "available"
	return info, nil
}
