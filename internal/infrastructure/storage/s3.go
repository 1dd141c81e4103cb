// Package storage issues presigned object storage URLs for profile avatars.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// Config selects the bucket avatars are uploaded to.
type Config struct {
	Bucket string
	Region string
	// Endpoint overrides the S3 endpoint, e.g. for MinIO. It implies
	// path-style addressing.
	Endpoint   string
	Prefix     string
	PresignTTL time.Duration
}

// S3Storage presigns avatar uploads against an S3 compatible store.
type S3Storage struct {
	presigner *s3.PresignClient
	bucket    string
	prefix    string
	ttl       time.Duration
	now       func() time.Time
	logger    interfaces.Logger
}

// NewS3Storage loads AWS credentials from the default chain.
func NewS3Storage(ctx context.Context, cfg Config, logger interfaces.Logger) (*S3Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3StorageFromClient(newClient(awsCfg, cfg.Endpoint), cfg, logger), nil
}

// NewS3StorageFromClient wraps an existing client.
func NewS3StorageFromClient(client *s3.Client, cfg Config, logger interfaces.Logger) *S3Storage {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Storage{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// NewStaticClient builds a client from fixed credentials, for MinIO and tests.
func NewStaticClient(region, endpoint, accessKey, secretKey string) *s3.Client {
	awsCfg := aws.Config{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey, Source: "static"}, nil
		}),
	}
	return newClient(awsCfg, endpoint)
}

func newClient(awsCfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// PresignAvatarUpload returns a PUT URL for key valid for the configured TTL.
func (s *S3Storage) PresignAvatarUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	fullKey := s.fullKey(key)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign upload for %s: %w", fullKey, err)
	}

	s.logger.Debug("Presigned avatar upload",
		interfaces.String("bucket", s.bucket),
		interfaces.String("key", fullKey))

	return req.URL, s.now().Add(s.ttl).UTC(), nil
}

func (s *S3Storage) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}
