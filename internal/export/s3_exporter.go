package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3Exporter implements Exporter by writing CSV batch files to AWS S3.
type s3Exporter struct {
	client *s3.Client
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Exporter creates a new S3-based code batch exporter.
func NewS3Exporter(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Exporter, error) {
	logger = logger.With().Str("component", "s3-exporter").Logger()

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	// Create S3 client
	client := s3.NewFromConfig(cfg)

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 exporter initialised")

	return &s3Exporter{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Export uploads the batch as a CSV object and returns its S3 key.
func (e *s3Exporter) Export(ctx context.Context, batchName string, codes []string) (string, error) {
	key := batchKey(e.prefix, batchName)

	e.logger.Info().
		Str("bucket", e.bucket).
		Str("key", key).
		Int("code_count", len(codes)).
		Msg("uploading code batch to S3")

	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(renderCSV(codes)),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("bucket", e.bucket).
			Str("key", key).
			Msg("failed to upload code batch to S3")
		return "", fmt.Errorf("failed to upload code batch to S3 (bucket=%s, key=%s): %w", e.bucket, key, err)
	}

	e.logger.Info().
		Str("bucket", e.bucket).
		Str("key", key).
		Msg("code batch uploaded successfully")

	return key, nil
}
