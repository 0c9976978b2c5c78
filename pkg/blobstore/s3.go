package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store is a BlobStore backed by an S3-compatible bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Config configures an S3Store.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // custom endpoint, for MinIO/LocalStack in tests
	Prefix   string
}

// NewS3Store builds an S3-backed BlobStore.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("blobstore: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Store uploads data under its SHA-256 content hash and returns the
// "sha256:<hex>" reference. Uploading is idempotent: a HeadObject check
// skips the PUT if the hash already exists.
func (s *S3Store) Store(ctx context.Context, data []byte) (string, error) {
	hashStr, ref := contentHash(data)
	key := s.prefix + hashStr + ".xml"

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err == nil {
		return ref, nil
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/xml"),
	})
	if err != nil {
		return "", fmt.Errorf("blobstore: s3 put: %w", err)
	}
	return ref, nil
}

// Get downloads the payload referenced by ref.
func (s *S3Store) Get(ctx context.Context, ref string) ([]byte, error) {
	rawHash, err := rawHashOf(ref)
	if err != nil {
		return nil, err
	}
	key := s.prefix + rawHash + ".xml"

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("blobstore: s3 get %s: %w", ref, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func rawHashOf(ref string) (string, error) {
	const p = "sha256:"
	if len(ref) <= len(p) || ref[:len(p)] != p {
		return "", fmt.Errorf("blobstore: invalid blob reference %q", ref)
	}
	return ref[len(p):], nil
}
