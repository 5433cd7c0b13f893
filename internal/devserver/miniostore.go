package devserver

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

// MinioStore keeps image bytes in a minio bucket and signs direct-upload
// POST policies against it.
type MinioStore struct {
	bucket string
	client *minio.Client
}

// NewMinioStore connects with the MINIO_USER / MINIO_PASS / MINIO_ADDR /
// BUCKET_NAME settings and makes sure the bucket exists.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	bucket := cfg.GetString("BUCKET_NAME")
	if bucket == "" {
		bucket = "imageman-dev"
		zlog.Logger.Info().Str("bucket", bucket).Msg("BUCKET_NAME is empty, using default")
	}

	client, err := minio.New(cfg.GetString("MINIO_ADDR"), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetString("MINIO_USER"), cfg.GetString("MINIO_PASS"), ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	if err := ensureBucket(context.Background(), client, bucket); err != nil {
		return nil, err
	}
	return &MinioStore{bucket: bucket, client: client}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to store.Put")
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// PresignPost builds a one-time POST policy for direct upload into the
// bucket - the same url+fields shape the production service hands out.
func (s *MinioStore) PresignPost(ctx context.Context, key, contentType string, expiry time.Duration) (*SignedTarget, error) {
	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(s.bucket); err != nil {
		return nil, err
	}
	if err := policy.SetKey(key); err != nil {
		return nil, err
	}
	if err := policy.SetExpires(time.Now().UTC().Add(expiry)); err != nil {
		return nil, err
	}
	if contentType != "" {
		if err := policy.SetContentType(contentType); err != nil {
			return nil, err
		}
	}

	target, fields, err := s.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, err
	}
	return &SignedTarget{URL: target.String(), Fields: fields}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
