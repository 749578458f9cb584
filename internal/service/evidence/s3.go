package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	appconfig "fest-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Store persists payment screenshots and returns their public URL
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// objectPutter is the slice of the S3 client the store needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads to an S3-compatible bucket (AWS S3 or Cloudflare R2)
type S3Store struct {
	client     objectPutter
	bucket     string
	publicBase string
	log        *zap.Logger
}

// NewS3Store builds the S3 client from the evidence configuration
func NewS3Store(ctx context.Context, cfg appconfig.EvidenceConfig, log *zap.Logger) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" && cfg.Endpoint != "" {
		publicBase = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return newS3Store(client, cfg.Bucket, publicBase, log), nil
}

func newS3Store(client objectPutter, bucket, publicBase string, log *zap.Logger) *S3Store {
	return &S3Store{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		log:        log,
	}
}

// Put uploads body under key and returns the public URL
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	// The SDK needs a seekable body to sign the payload
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, body); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.log.Warn("evidence_upload_failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("failed to upload evidence: %w", err)
	}

	s.log.Debug("evidence_uploaded", zap.String("key", key), zap.Int("bytes", buf.Len()))
	return fmt.Sprintf("%s/%s", s.publicBase, key), nil
}
