package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/storage/object"
)

// API is the subset of the S3 client used by Store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config configures the S3 store.
type Config struct {
	Region   string
	Bucket   string
	Prefix   string
	KMSKeyID string
}

// Store implements object.Gateway using Amazon S3.
type Store struct {
	client   API
	presign  *s3.PresignClient
	bucket   string
	prefix   string
	kmsKeyID string
	locator  object.Locator
	now      func() time.Time
}

// New creates a new S3-backed object store using the default credential chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient wires an existing client.
func NewWithClient(client *s3.Client, cfg Config) *Store {
	if cfg.Region == "" {
		cfg.Region = client.Options().Region
	}
	return newStore(client, s3.NewPresignClient(client), cfg)
}

func newStore(api API, presign *s3.PresignClient, cfg Config) *Store {
	region := cfg.Region
	return &Store{
		client:   api,
		presign:  presign,
		bucket:   cfg.Bucket,
		prefix:   object.NormalizePrefix(cfg.Prefix),
		kmsKeyID: strings.TrimSpace(cfg.KMSKeyID),
		locator: object.Locator{
			BaseURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region),
			Bucket:  cfg.Bucket,
			Prefix:  cfg.Prefix,
		},
		now: time.Now,
	}
}

// Put uploads the body under a new timestamped key.
func (s *Store) Put(ctx context.Context, in object.PutInput) (object.Object, error) {
	const op = "s3.put"
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
	counter := &countingReader{r: in.Body}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        counter,
		ContentType: aws.String(in.ContentType),
	}
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return object.Object{}, apperr.StorageError(op, fmt.Errorf("bucket=%s key=%s: %w", s.bucket, objectKey, err))
	}

	return object.Object{
		Key:         key,
		URL:         s.URL(key),
		SizeBytes:   counter.n,
		ContentType: in.ContentType,
	}, nil
}

// Open downloads a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "s3.open"
	if err := object.ValidateKey(key); err != nil {
		return nil, apperr.New(apperr.KindValidation, op, "invalid object key", err)
	}
	objectKey := object.ApplyPrefix(s.prefix, key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.New(apperr.KindNotFound, op, "object not found", object.ErrNotFound)
		}
		return nil, apperr.StorageError(op, fmt.Errorf("bucket=%s key=%s: %w", s.bucket, objectKey, err))
	}
	return out.Body, nil
}

// Delete removes an object by key or reference URL. NotFound is success.
func (s *Store) Delete(ctx context.Context, keyOrURL string) error {
	const op = "s3.delete"
	key, err := s.KeyFromReference(keyOrURL)
	if err != nil {
		return apperr.New(apperr.KindValidation, op, "invalid object reference", err)
	}
	objectKey := object.ApplyPrefix(s.prefix, key)
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil && !isNotFound(err) {
		return apperr.StorageError(op, fmt.Errorf("bucket=%s key=%s: %w", s.bucket, objectKey, err))
	}
	return nil
}

// SignedURL presigns a GET that renders inline with fileName.
func (s *Store) SignedURL(ctx context.Context, key, fileName string, expiry time.Duration) (string, error) {
	const op = "s3.signed_url"
	if err := object.ValidateKey(key); err != nil {
		return "", apperr.New(apperr.KindValidation, op, "invalid object key", err)
	}
	if expiry <= 0 {
		expiry = object.DefaultSignedURLExpiry
	}
	if fileName == "" {
		fileName = object.BaseName(key)
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(object.ApplyPrefix(s.prefix, key)),
		ResponseContentDisposition: aws.String(object.InlineDisposition(fileName)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", apperr.StorageError(op, err)
	}
	return req.URL, nil
}

// URL returns the virtual-hosted style reference for key.
func (s *Store) URL(key string) string {
	return s.locator.URL(key)
}

// KeyFromReference resolves S3 URLs in either addressing style, or a bare key.
func (s *Store) KeyFromReference(ref string) (string, error) {
	return s.locator.Key(ref)
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
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

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ object.Gateway = (*Store)(nil)
