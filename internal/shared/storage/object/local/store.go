package local

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/storage/object"
)

// RoutePrefix is where signed local URLs are served.
const RoutePrefix = "/api/v1/objects"

// ErrSignature is returned for missing, tampered or expired view tokens.
var ErrSignature = errors.New("invalid or expired signature")

// Config configures the filesystem store.
type Config struct {
	BaseDir       string
	PublicBaseURL string
	SigningKey    []byte
	Now           func() time.Time
}

// Store implements object.Gateway on the local filesystem. Signed URLs are
// HS256 tokens verified by the handler in this package.
type Store struct {
	baseDir string
	locator object.Locator
	key     []byte
	now     func() time.Time
}

type viewClaims struct {
	Key      string `json:"key"`
	FileName string `json:"fn,omitempty"`
	jwt.RegisteredClaims
}

// New creates a new local object store rooted at cfg.BaseDir.
func New(cfg Config) *Store {
	key := cfg.SigningKey
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		baseDir: cfg.BaseDir,
		locator: object.Locator{BaseURL: strings.TrimRight(cfg.PublicBaseURL, "/") + RoutePrefix},
		key:     key,
		now:     now,
	}
}

// Put writes the body under a new timestamped key.
func (s *Store) Put(ctx context.Context, in object.PutInput) (object.Object, error) {
	const op = "local.put"
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
	if err := ctx.Err(); err != nil {
		return object.Object{}, apperr.StorageError(op, err)
	}

	fullPath, err := s.path(key)
	if err != nil {
		return object.Object{}, apperr.StorageError(op, err)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return object.Object{}, apperr.StorageError(op, fmt.Errorf("mkdir: %w", err))
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return object.Object{}, apperr.StorageError(op, fmt.Errorf("open file: %w", err))
	}
	written, err := io.Copy(f, in.Body)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(fullPath)
		return object.Object{}, apperr.StorageError(op, fmt.Errorf("write body: %w", err))
	}
	if err := f.Close(); err != nil {
		return object.Object{}, apperr.StorageError(op, fmt.Errorf("close file: %w", err))
	}
	if err := os.WriteFile(fullPath+metaSuffix, []byte(in.ContentType), 0o644); err != nil {
		return object.Object{}, apperr.StorageError(op, fmt.Errorf("write meta: %w", err))
	}

	return object.Object{
		Key:         key,
		URL:         s.URL(key),
		SizeBytes:   written,
		ContentType: in.ContentType,
	}, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "local.open"
	if err := ctx.Err(); err != nil {
		return nil, apperr.StorageError(op, err)
	}
	fullPath, err := s.path(key)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, op, "invalid object key", err)
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.New(apperr.KindNotFound, op, "object not found", object.ErrNotFound)
		}
		return nil, apperr.StorageError(op, err)
	}
	return f, nil
}

// Delete removes the object; a missing object is treated as already deleted.
func (s *Store) Delete(ctx context.Context, keyOrURL string) error {
	const op = "local.delete"
	if err := ctx.Err(); err != nil {
		return apperr.StorageError(op, err)
	}
	key, err := s.KeyFromReference(keyOrURL)
	if err != nil {
		return apperr.New(apperr.KindValidation, op, "invalid object reference", err)
	}
	fullPath, err := s.path(key)
	if err != nil {
		return apperr.New(apperr.KindValidation, op, "invalid object key", err)
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.StorageError(op, err)
	}
	if err := os.Remove(fullPath + metaSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.StorageError(op, err)
	}
	return nil
}

// SignedURL returns a URL served by Handler that stops working after expiry.
func (s *Store) SignedURL(ctx context.Context, key, fileName string, expiry time.Duration) (string, error) {
	const op = "local.signed_url"
	if err := ctx.Err(); err != nil {
		return "", apperr.StorageError(op, err)
	}
	if err := object.ValidateKey(key); err != nil {
		return "", apperr.New(apperr.KindValidation, op, "invalid object key", err)
	}
	if expiry <= 0 {
		expiry = object.DefaultSignedURLExpiry
	}
	if fileName == "" {
		fileName = object.BaseName(key)
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, viewClaims{
		Key:      key,
		FileName: fileName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", apperr.StorageError(op, err)
	}
	return s.URL(key) + "?token=" + signed, nil
}

// URL returns the unsigned reference for key.
func (s *Store) URL(key string) string {
	return s.locator.URL(key)
}

// KeyFromReference resolves a reference URL or bare key.
func (s *Store) KeyFromReference(ref string) (string, error) {
	return s.locator.Key(ref)
}

// Verify checks a view token for key and returns the display file name.
func (s *Store) Verify(key, token string) (string, error) {
	if token == "" {
		return "", ErrSignature
	}
	claims := &viewClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrSignature
	}
	if claims.Key != key {
		return "", ErrSignature
	}
	return claims.FileName, nil
}

func (s *Store) contentType(key string) string {
	fullPath, err := s.path(key)
	if err != nil {
		return ""
	}
	raw, err := os.ReadFile(fullPath + metaSuffix)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func (s *Store) path(key string) (string, error) {
	if err := object.ValidateKey(key); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", object.ErrInvalidKey
	}
	return filepath.Join(s.baseDir, clean), nil
}

const metaSuffix = ".meta"

var _ object.Gateway = (*Store)(nil)
