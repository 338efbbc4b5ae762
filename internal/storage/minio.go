package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharsanguruparan/imggen/internal/config"
)

// minioAPI is the part of *minio.Client the driver uses.
type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Minio stores objects through the MinIO client.
type Minio struct {
	client    minioAPI
	bucket    string
	publicURL string
}

// NewMinio creates a MinIO client from the Config.
func NewMinio(cfg *config.Config) (*Minio, error) {
	client, err := minio.New(endpointHost(cfg.S3Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	base := cfg.PublicURL
	if base == "" {
		base = endpointURL(cfg.S3Endpoint, cfg.StorageBucket, cfg.S3UseSSL)
	}
	return &Minio{client: client, bucket: cfg.StorageBucket, publicURL: base}, nil
}

func (m *Minio) Bucket() string { return m.bucket }

// Upload puts the buffer under obj.Key.
func (m *Minio) Upload(ctx context.Context, obj Object) (*Result, error) {
	opts := minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: headerSafe(obj.Metadata),
	}
	info, err := m.client.PutObject(ctx, m.bucket, obj.Key, bytes.NewReader(obj.Buffer), int64(len(obj.Buffer)), opts)
	if err != nil {
		return nil, fmt.Errorf("upload object: %w", err)
	}
	return &Result{
		Bucket:    m.bucket,
		Key:       obj.Key,
		ETag:      info.ETag,
		PublicURL: PublicURL(m.publicURL, obj.Key),
	}, nil
}

// Delete removes key from the bucket.
func (m *Minio) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
