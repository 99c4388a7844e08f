package library

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBlobStore stores audio blobs in an S3-compatible bucket. Put returns a
// presigned GET URL so the stored object stays playable without exposing
// credentials.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
}

// MinioOptions configures the remote blob store.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioBlobStore connects to the endpoint and ensures the bucket exists.
func NewMinioBlobStore(ctx context.Context, opts MinioOptions) (*MinioBlobStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %q: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %q: %w", opts.Bucket, err)
		}
	}

	return &MinioBlobStore{client: client, bucket: opts.Bucket}, nil
}

func (s *MinioBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("uploading %q: %w", key, err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, 7*24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("presigning %q: %w", key, err)
	}
	return u.String(), nil
}

func (s *MinioBlobStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
