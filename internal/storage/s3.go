package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dharsanguruparan/imggen/internal/config"
)

// s3API is the part of *s3.Client the driver uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// S3 stores objects through the AWS SDK. Works against AWS itself and any
// S3-compatible endpoint (R2, MinIO) when S3Endpoint is set.
type S3 struct {
	client    s3API
	bucket    string
	publicURL string
}

// NewS3 builds an SDK client from static credentials in cfg.
func NewS3(ctx context.Context, cfg *config.Config) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	endpoint := ""
	if cfg.S3Endpoint != "" {
		endpoint = endpointBase(cfg.S3Endpoint, cfg.S3UseSSL)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	base := cfg.PublicURL
	if base == "" {
		if endpoint != "" {
			base = endpoint + "/" + cfg.StorageBucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.StorageBucket, cfg.S3Region)
		}
	}
	return &S3{client: client, bucket: cfg.StorageBucket, publicURL: base}, nil
}

func (s *S3) Bucket() string { return s.bucket }

// Upload puts the buffer under obj.Key.
func (s *S3) Upload(ctx context.Context, obj Object) (*Result, error) {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(obj.Buffer),
		ContentLength: aws.Int64(int64(len(obj.Buffer))),
		ContentType:   aws.String(obj.ContentType),
		Metadata:      headerSafe(obj.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}
	return &Result{
		Bucket:    s.bucket,
		Key:       obj.Key,
		ETag:      aws.ToString(out.ETag),
		PublicURL: PublicURL(s.publicURL, obj.Key),
	}, nil
}

// Delete removes key from the bucket.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
