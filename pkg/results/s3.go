package results

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the subset of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads the rendered series as a single object. A "{run_id}"
// placeholder in Key is replaced with the run id.
type S3Sink struct {
	Client   PutObjectAPI
	Bucket   string
	Key      string
	Format   Format
	Compress bool

	lastSize int
}

// NewS3Sink builds a client from the default AWS credential chain.
func NewS3Sink(ctx context.Context, bucket, key, region string, format Format, compress bool) (*S3Sink, error) {
	if bucket == "" || key == "" {
		return nil, errors.New("s3 bucket and key are required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Sink{
		Client:   s3.NewFromConfig(cfg),
		Bucket:   bucket,
		Key:      key,
		Format:   format,
		Compress: compress,
	}, nil
}

// Name implements Sink.
func (s *S3Sink) Name() string { return "s3" }

// LastSize returns the byte size of the last uploaded object.
func (s *S3Sink) LastSize() int { return s.lastSize }

// ObjectKey returns the key used for series.
func (s *S3Sink) ObjectKey(series *Series) string {
	key := strings.ReplaceAll(s.Key, "{run_id}", series.RunID)
	if s.Compress && !strings.HasSuffix(key, SnappyExtension) {
		key += SnappyExtension
	}
	return key
}

// Write implements Sink.
func (s *S3Sink) Write(ctx context.Context, series *Series) error {
	data, err := Render(series, s.Format, s.Compress)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(s.ObjectKey(series)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(s.Format, s.Compress)),
		Metadata: map[string]string{
			"run-id": series.RunID,
			"seed":   fmt.Sprint(series.Seed),
		},
	}
	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.Bucket, aws.ToString(input.Key), err)
	}
	s.lastSize = len(data)
	return nil
}

func contentType(f Format, compressed bool) string {
	if compressed {
		return "application/x-snappy-framed"
	}
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}
