package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// DefaultSignedURLExpiry is the lifetime of view URLs.
const DefaultSignedURLExpiry = time.Hour

// PutInput describes an object to write.
type PutInput struct {
	Owner       string
	Body        io.Reader
	ContentType string
	FileName    string
}

// Object is the result of a successful Put.
type Object struct {
	Key         string
	URL         string
	SizeBytes   int64
	ContentType string
}

// Gateway stores, retrieves and deletes objects by key and issues time-limited view URLs.
// Implementations never retry internally.
type Gateway interface {
	Put(ctx context.Context, in PutInput) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete accepts a key or a reference URL. Missing objects are not an error.
	Delete(ctx context.Context, keyOrURL string) error
	SignedURL(ctx context.Context, key, fileName string, expiry time.Duration) (string, error)
	// URL returns the durable reference stored on profiles.
	URL(key string) string
	KeyFromReference(ref string) (string, error)
}
