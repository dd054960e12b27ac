package repositories

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/yigit/schoolmanager/internal/app/models"
	"github.com/yigit/schoolmanager/internal/pkg/logger"
)

// S3Options configures the object-store backend
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // optional; set for MinIO or other S3-compatible stores
	Prefix    string
	PathStyle bool
}

// S3Repository stores each collection as the object <prefix><name>.json.
// PutObject replaces objects whole, so readers never see a partial collection.
type S3Repository struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Repository builds a client from the default AWS credential chain
func NewS3Repository(ctx context.Context, opts S3Options) (*S3Repository, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.PathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewS3RepositoryWithClient(client, opts.Bucket, opts.Prefix), nil
}

// NewS3RepositoryWithClient wraps an existing client
func NewS3RepositoryWithClient(client *s3.Client, bucket, prefix string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket, prefix: prefix}
}

func (r *S3Repository) key(name string) string {
	return r.prefix + name + ".json"
}

func (r *S3Repository) Load(ctx context.Context, name string) ([]models.Record, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(name)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return []models.Record{}, nil
		}
		logger.Error().Err(err).Str("collection", name).Msg("Error fetching collection object")
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return decodeRecords(data)
}

func (r *S3Repository) Save(ctx context.Context, name string, records []models.Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		logger.Error().Err(err).Str("collection", name).Msg("Error putting collection object")
		return fmt.Errorf("failed to put %s: %w", name, err)
	}
	return nil
}

func (r *S3Repository) Close() error {
	return nil
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
