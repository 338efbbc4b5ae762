package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/imggen/internal/config"
)

type fakeMinio struct {
	bucket, key string
	body        []byte
	size        int64
	opts        minio.PutObjectOptions
	removed     string
	err         error
}

func (f *fakeMinio) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	f.bucket, f.key, f.size, f.opts = bucketName, objectName, objectSize, opts
	f.body, _ = io.ReadAll(reader)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, ETag: "etag-1", Size: objectSize}, nil
}

func (f *fakeMinio) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	if f.err != nil {
		return f.err
	}
	f.removed = objectName
	return nil
}

func TestMinio_Upload(t *testing.T) {
	fake := &fakeMinio{}
	m := &Minio{client: fake, bucket: "imggen-uploads", publicURL: "https://pub.r2.dev"}

	res, err := m.Upload(context.Background(), Object{
		Buffer:      []byte("png-bytes"),
		Key:         "uploads/42/x.png",
		ContentType: "image/png",
		Metadata:    map[string]string{"originalName": "x.png", "userId": "42", "purpose": "mask"},
	})
	require.NoError(t, err)

	assert.Equal(t, "imggen-uploads", fake.bucket)
	assert.Equal(t, "uploads/42/x.png", fake.key)
	assert.Equal(t, []byte("png-bytes"), fake.body)
	assert.Equal(t, int64(9), fake.size)
	assert.Equal(t, "image/png", fake.opts.ContentType)
	assert.Equal(t, "mask", fake.opts.UserMetadata["purpose"])
	assert.Equal(t, "https://pub.r2.dev/uploads/42/x.png", res.PublicURL)
	assert.Equal(t, "etag-1", res.ETag)
}

func TestMinio_Errors(t *testing.T) {
	m := &Minio{client: &fakeMinio{err: errors.New("AccessDenied")}, bucket: "b"}

	_, err := m.Upload(context.Background(), Object{Key: "k"})
	assert.ErrorContains(t, err, "upload object: AccessDenied")

	err = m.Delete(context.Background(), "k")
	assert.ErrorContains(t, err, "remove object: AccessDenied")
}

func TestMinio_Delete(t *testing.T) {
	fake := &fakeMinio{}
	m := &Minio{client: fake, bucket: "b"}
	require.NoError(t, m.Delete(context.Background(), "uploads/1/a"))
	assert.Equal(t, "uploads/1/a", fake.removed)
}

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted *s3.DeleteObjectInput
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{ETag: aws.String(`"abc"`)}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = in
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_UploadAndDelete(t *testing.T) {
	fake := &fakeS3{}
	s := &S3{client: fake, bucket: "b", publicURL: "https://cdn.example.com"}

	res, err := s.Upload(context.Background(), Object{
		Buffer:      []byte("hello"),
		Key:         "uploads/7/a.txt",
		ContentType: "text/plain",
		Metadata:    map[string]string{"userId": "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "b", aws.ToString(fake.put.Bucket))
	assert.Equal(t, "uploads/7/a.txt", aws.ToString(fake.put.Key))
	assert.Equal(t, int64(5), aws.ToInt64(fake.put.ContentLength))
	assert.Equal(t, "text/plain", aws.ToString(fake.put.ContentType))
	assert.Equal(t, "7", fake.put.Metadata["userId"])
	assert.Equal(t, []byte("hello"), fake.body)
	assert.Equal(t, `"abc"`, res.ETag)
	assert.Equal(t, "https://cdn.example.com/uploads/7/a.txt", res.PublicURL)

	require.NoError(t, s.Delete(context.Background(), "uploads/7/a.txt"))
	assert.Equal(t, "uploads/7/a.txt", aws.ToString(fake.deleted.Key))
}

func TestS3_Errors(t *testing.T) {
	s := &S3{client: &fakeS3{err: errors.New("NoSuchBucket")}, bucket: "b"}
	_, err := s.Upload(context.Background(), Object{Key: "k"})
	assert.ErrorContains(t, err, "put object: NoSuchBucket")
	assert.ErrorContains(t, s.Delete(context.Background(), "k"), "delete object: NoSuchBucket")
}

func TestNewS3_PublicURLFallbacks(t *testing.T) {
	cfg := &config.Config{
		StorageBucket: "b",
		S3Region:      "auto",
		S3Endpoint:    "acc.r2.cloudflarestorage.com",
		S3UseSSL:      true,
		S3AccessKey:   "key",
		S3SecretKey:   "secret",
	}
	s, err := NewS3(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://acc.r2.cloudflarestorage.com/b", s.publicURL)

	cfg.S3Endpoint = ""
	cfg.S3Region = "eu-west-1"
	s, err = NewS3(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", s.publicURL)
}

func TestNewS3_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}

	_, err := NewS3(context.Background(), &config.Config{StorageBucket: "b"})
	assert.ErrorContains(t, err, "load aws config: bad profile")
}

func TestMemory(t *testing.T) {
	m := NewMemory("b", "")
	buf := []byte("data")
	res, err := m.Upload(context.Background(), Object{Buffer: buf, Key: "k/1", ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "memory://b/k/1", res.PublicURL)
	assert.NotEmpty(t, res.ETag)

	buf[0] = 'X'
	obj, err := m.Get("k/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), obj.Buffer)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(context.Background(), "k/1"))
	_, err = m.Get("k/1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, m.Delete(context.Background(), "k/1"))
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory("b", "").Upload(ctx, Object{Key: "k"})
	assert.ErrorIs(t, err, context.Canceled)
}
