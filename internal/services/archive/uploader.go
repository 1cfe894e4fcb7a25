package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// Uploader archives certificate PDFs to S3 with per-object metadata
// describing the certificate the PDF belongs to
type Uploader struct {
	client s3API
	bucket string
	prefix string
	logger arbor.ILogger
}

// s3API is the subset of the S3 client used by the uploader, narrowed
// so tests can substitute a fake
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewUploaderWithClient wires an explicit S3 client (used by tests)
func NewUploaderWithClient(client s3API, bucket, prefix string, logger arbor.ILogger) *Uploader {
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// NewUploader creates an S3 uploader from the configured credentials.
// When static AWS_* credentials are present they are used directly;
// otherwise the default provider chain applies (instance profiles,
// SSO sessions).
func NewUploader(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
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
		Str("bucket", cfg.S3.Bucket).
		Str("region", cfg.AWS.Region).
		Msg("S3 uploader initialized")

	return &Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3.Bucket,
		prefix: cfg.S3.Prefix,
		logger: logger,
	}, nil
}

// Upload archives a PDF and returns the object key
func (u *Uploader) Upload(ctx context.Context, cert *models.Certificate, link models.PDFLink, data []byte) (string, error) {
	key := GenerateKey(u.prefix, cert, link.Type, time.Now())

	metadata := map[string]string{
		"certificate_number": cert.Number,
		"company_name":       cert.CompanyName,
		"country":            cert.Country,
		"pdf_type":           string(link.Type),
		"source_url":         link.URL,
		"scraped_date":       time.Now().Format(time.RFC3339),
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
		Metadata:    metadata,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", link.URL, u.bucket, key, err)
	}

	u.logger.Info().
		Str("key", key).
		Str("certificate", cert.Number).
		Int("size", len(data)).
		Msg("PDF archived to S3")

	return key, nil
}

// Bucket returns the target bucket name
func (u *Uploader) Bucket() string {
	return u.bucket
}
