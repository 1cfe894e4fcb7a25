package parse

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const systemPrompt = `You extract structured data from ISCC certificate and audit report documents.
Respond with a single JSON object with these fields:
certificate_holder, certificate_number, scope, valid_from, valid_until,
certification_body, findings (array of strings), summary.
Use empty strings for fields the document does not state. Respond with JSON only.`

// maxDocumentChars caps the text sent to the model per document
const maxDocumentChars = 48000

// bedrockAPI is the subset of the Bedrock runtime client used by the
// parser, narrowed so tests can substitute a fake
type bedrockAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Parser turns a downloaded certificate PDF into a structured summary
// using a hosted Bedrock model
type Parser struct {
	client    bedrockAPI
	extractor interfaces.PDFExtractor
	modelID   string
	maxTokens int
	timeout   time.Duration
	logger    arbor.ILogger
}

// NewParser creates a Bedrock-backed document parser
func NewParser(ctx context.Context, cfg *common.Config, extractor interfaces.PDFExtractor, logger arbor.ILogger) (*Parser, error) {
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

	timeout, err := time.ParseDuration(cfg.Bedrock.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid bedrock timeout '%s': %w", cfg.Bedrock.Timeout, err)
	}

	logger.Debug().
		Str("model_id", cfg.Bedrock.ModelID).
		Str("region", cfg.BedrockRegion()).
		Msg("Bedrock parser initialized")

	return &Parser{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		extractor: extractor,
		modelID:   cfg.Bedrock.ModelID,
		maxTokens: cfg.Bedrock.MaxTokens,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// NewParserWithClient wires an explicit Bedrock client (used by tests)
func NewParserWithClient(client bedrockAPI, extractor interfaces.PDFExtractor, modelID string, maxTokens int, timeout time.Duration, logger arbor.ILogger) *Parser {
	return &Parser{
		client:    client,
		extractor: extractor,
		modelID:   modelID,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}
}

// ParsePDF extracts text from the PDF bytes and asks the hosted model
// for a structured summary. Throttling responses are retried with
// backoff.
func (p *Parser) ParsePDF(ctx context.Context, pdfData []byte) (*models.AuditReportSummary, error) {
	text, err := p.extractor.ExtractTextFromBytes(ctx, pdfData)
	if err != nil {
		return nil, fmt.Errorf("failed to extract PDF text: %w", err)
	}
	if len(text) == 0 {
		return nil, fmt.Errorf("PDF contains no extractable text")
	}
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	return p.ParseText(ctx, text)
}

// ParseText runs the structured extraction over already-extracted text
func (p *Parser) ParseText(ctx context.Context, text string) (*models.AuditReportSummary, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.modelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: "Document text:\n\n" + text},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(p.maxTokens)),
			Temperature: aws.Float32(0),
		},
	}

	var output *bedrockruntime.ConverseOutput
	var apiErr error
	backoff := 2 * time.Second
	for attempt := 0; attempt < 3; attempt++ {
		output, apiErr = p.client.Converse(callCtx, input)
		if apiErr == nil {
			break
		}
		if !isThrottle(apiErr) || attempt == 2 {
			return nil, fmt.Errorf("bedrock converse failed: %w", apiErr)
		}

		p.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Bedrock throttled, retrying")

		select {
		case <-callCtx.Done():
			return nil, callCtx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	responseText, err := extractResponseText(output)
	if err != nil {
		return nil, err
	}

	summary, err := DecodeSummary(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}

	p.logger.Debug().
		Str("certificate", summary.CertificateNumber).
		Str("holder", summary.CertificateHolder).
		Msg("Document parsed")

	return summary, nil
}

// extractResponseText pulls the text blocks out of a Converse response
func extractResponseText(output *bedrockruntime.ConverseOutput) (string, error) {
	if output == nil {
		return "", fmt.Errorf("empty bedrock response")
	}

	msg, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("unexpected bedrock output type %T", output.Output)
	}

	var text string
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			text += tb.Value
		}
	}
	if text == "" {
		return "", fmt.Errorf("bedrock response contains no text")
	}
	return text, nil
}
