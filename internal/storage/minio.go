package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// putAttemptTimeout bounds a single upload attempt so one stalled connection
// cannot eat the whole retry budget.
const putAttemptTimeout = 30 * time.Second

// MinioStore implements ObjectStore using a MinIO (or any S3-compatible)
// backend. Safe for concurrent use; the only state is client configuration.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
	newBackOff func() backoff.BackOff
}

// NewMinioStore creates a MinIO client, ensures the bucket exists with a
// public-read policy, and returns a ready-to-use MinioStore.
func NewMinioStore(endpoint, accessKey, secretKey, bucket, publicBase string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Printf("storage: created bucket %q", bucket)
	}

	if err := client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	return &MinioStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		newBackOff: defaultBackOff,
	}, nil
}

// Put uploads data under key, retrying transient failures up to the attempt
// budget. Non-retryable failures (auth, missing bucket, quota) short-circuit.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (Asset, error) {
	err := retryPut(ctx, s.newBackOff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, putAttemptTimeout)
		defer cancel()

		_, err := s.client.PutObject(attemptCtx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			return &Error{Op: "put", Key: key, Class: classify(err), Err: err}
		}
		return nil
	})
	if err != nil {
		return Asset{}, err
	}
	return Asset{Key: key, URL: s.PublicURL(key), Size: int64(len(data))}, nil
}

// Delete removes the object at key. An already-absent key is not an error.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		if classify(err) == ClassNotFound {
			return nil
		}
		return &Error{Op: "delete", Key: key, Class: classify(err), Err: err}
	}
	return nil
}

// Presign produces a time-limited direct-access URL for key.
func (s *MinioStore) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", &Error{Op: "presign", Key: key, Class: classify(err), Err: err}
	}
	return u.String(), nil
}

// PublicURL returns the browser-accessible URL for the given key.
// For local MinIO: "http://localhost:9000/comichub/comics/user-id/file.jpg".
func (s *MinioStore) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}

var _ ObjectStore = (*MinioStore)(nil)
