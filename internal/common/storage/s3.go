package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"recruitment-portal/internal/common/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Document prefixes inside the shared bucket.
const (
	PrefixCV  = "cv"
	PrefixKTP = "ktp"
)

// PlaceholderURL is returned for an empty or missing path.
const PlaceholderURL = "#"

// S3API is the subset of the S3 client used for document uploads.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// DocumentStore keeps applicant CVs and KTP scans in one bucket.
type DocumentStore struct {
	client        S3API
	bucket        string
	publicBaseURL string
}

func NewDocumentStore(client S3API, bucket, publicBaseURL string) *DocumentStore {
	return &DocumentStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// NewS3Client builds an S3 client honouring a custom endpoint for
// S3-compatible stores.
func NewS3Client(awsCfg aws.Config, cfg config.StorageConfig) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = cfg.S3.ForcePathStyle
	})
}

// Upload stores data under key and returns the stored path.
func (d *DocumentStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := d.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// PublicURL converts a stored path into a fetchable link.
func (d *DocumentStore) PublicURL(path string) string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "/")
	if path == "" {
		return PlaceholderURL
	}
	if d.publicBaseURL != "" {
		return d.publicBaseURL + "/" + path
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", d.bucket, path)
}
