// Package minio adapts any S3-compatible endpoint (MinIO, R2, Ceph) to object.Gateway.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/storage/object"
	"socioscan-backend/internal/shared/telemetry"
)

// Config configures the MinIO client.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	Prefix    string
}

// Store implements object.Gateway on an S3-compatible endpoint.
type Store struct {
	client  *minio.Client
	bucket  string
	prefix  string
	locator object.Locator
	now     func() time.Time
}

// New connects to the endpoint and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	s, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.ensureBucketExists(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	base := strings.TrimRight(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: object.NormalizePrefix(cfg.Prefix),
		locator: object.Locator{
			BaseURL: base,
			Bucket:  cfg.Bucket,
			Prefix:  cfg.Prefix,
		},
		now: time.Now,
	}, nil
}

func (s *Store) ensureBucketExists(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	telemetry.Info("storage.minio.bucket_created", map[string]any{"bucket": s.bucket})
	return nil
}

// Put streams the body under a new timestamped key.
func (s *Store) Put(ctx context.Context, in object.PutInput) (object.Object, error) {
	const op = "minio.put"
	if strings.TrimSpace(in.ContentType) == "" {
		return object.Object{}, apperr.ValidationError(op, "content type is required")
	}
	if in.Body == nil {
		return object.Object{}, apperr.ValidationError(op, "body is required")
	}
	key, err := object.NewKey(in.Owner, in.FileName, s.now())
	if err != nil {
		return object.Object{}, apperr.New(apperr.KindValidation, op, "invalid file name", err)
	}
	objectKey := object.ApplyPrefix(s.prefix, key)

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, in.Body, -1, minio.PutObjectOptions{
		ContentType: in.ContentType,
	})
	if err != nil {
		return object.Object{}, apperr.StorageError(op, fmt.Errorf("bucket=%s key=%s: %w", s.bucket, objectKey, err))
	}
	return object.Object{
		Key:         key,
		URL:         s.URL(key),
		SizeBytes:   info.Size,
		ContentType: in.ContentType,
	}, nil
}

// Open returns a reader for the object. Missing objects surface immediately.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "minio.open"
	if err := object.ValidateKey(key); err != nil {
		return nil, apperr.New(apperr.KindValidation, op, "invalid object key", err)
	}
	objectKey := object.ApplyPrefix(s.prefix, key)
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(op, objectKey, err)
	}
	// GetObject is lazy; Stat forces the request so NotFound is reported here.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, s.mapErr(op, objectKey, err)
	}
	return obj, nil
}

// Delete removes the object by key or reference URL. NoSuchKey is success.
func (s *Store) Delete(ctx context.Context, keyOrURL string) error {
	const op = "minio.delete"
	key, err := s.KeyFromReference(keyOrURL)
	if err != nil {
		return apperr.New(apperr.KindValidation, op, "invalid object reference", err)
	}
	objectKey := object.ApplyPrefix(s.prefix, key)
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return apperr.StorageError(op, fmt.Errorf("bucket=%s key=%s: %w", s.bucket, objectKey, err))
	}
	return nil
}

// SignedURL presigns an inline GET.
func (s *Store) SignedURL(ctx context.Context, key, fileName string, expiry time.Duration) (string, error) {
	const op = "minio.signed_url"
	if err := object.ValidateKey(key); err != nil {
		return "", apperr.New(apperr.KindValidation, op, "invalid object key", err)
	}
	if expiry <= 0 {
		expiry = object.DefaultSignedURLExpiry
	}
	if fileName == "" {
		fileName = object.BaseName(key)
	}
	params := url.Values{}
	params.Set("response-content-disposition", object.InlineDisposition(fileName))
	u, err := s.client.PresignedGetObject(ctx, s.bucket, object.ApplyPrefix(s.prefix, key), expiry, params)
	if err != nil {
		return "", apperr.StorageError(op, err)
	}
	return u.String(), nil
}

// URL returns the path-style reference for key.
func (s *Store) URL(key string) string {
	return s.locator.URL(key)
}

// KeyFromReference resolves a reference URL or bare key.
func (s *Store) KeyFromReference(ref string) (string, error) {
	return s.locator.Key(ref)
}

func (s *Store) mapErr(op, objectKey string, err error) error {
	if isNotFound(err) {
		return apperr.New(apperr.KindNotFound, op, "object not found", object.ErrNotFound)
	}
	return apperr.StorageError(op, fmt.Errorf("bucket=%s key=%s: %w", s.bucket, objectKey, err))
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	default:
		return false
	}
}

var _ object.Gateway = (*Store)(nil)
