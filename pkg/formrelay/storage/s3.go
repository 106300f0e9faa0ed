// Package storage downloads template files from S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// GetObjectAPI is the subset of the S3 client used by Downloader.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Options configures the S3 client built by NewFromConfig.
type Options struct {
	// Endpoint overrides the S3 endpoint (S3-compatible stores, local stacks).
	Endpoint string
	// UsePathStyle addresses buckets as path segments instead of subdomains.
	UsePathStyle bool
}

// Downloader fetches whole objects into memory.
type Downloader struct {
	client GetObjectAPI
	creds  aws.CredentialsProvider
	logger *zap.Logger
}

// NewDownloader creates a Downloader. When creds is non-nil, credentials are
// resolved before each request so that a missing key pair is reported as
// ErrMissingCredentials rather than as a signing failure.
func NewDownloader(client GetObjectAPI, creds aws.CredentialsProvider, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{client: client, creds: creds, logger: logger}
}

// NewFromConfig creates a Downloader backed by an S3 client built from cfg.
func NewFromConfig(cfg aws.Config, opts Options, logger *zap.Logger) *Downloader {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewDownloader(client, cfg.Credentials, logger)
}

// Download returns the content of bucket/key.
func (d *Downloader) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	log := d.logger.With(zap.String("bucket", bucket), zap.String("key", key))

	if d.creds != nil {
		if _, err := d.creds.Retrieve(ctx); err != nil {
			log.Error("credentials not available", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
		}
	}

	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Error("object not found")
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, bucket, key)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			log.Error("get object failed", zap.String("code", apiErr.ErrorCode()), zap.Error(err))
		} else {
			log.Error("get object failed", zap.Error(err))
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		log.Error("read object body failed", zap.Error(err))
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	if len(data) == 0 {
		log.Warn("downloaded object is empty")
		return nil, ErrEmptyObject
	}

	log.Debug("object downloaded", zap.Int("bytes", len(data)))
	return data, nil
}
