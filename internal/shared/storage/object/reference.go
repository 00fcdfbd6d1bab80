package object

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"socioscan-backend/internal/shared/util"
)

// ErrForeignReference means a URL does not point into the configured bucket.
var ErrForeignReference = errors.New("reference does not belong to this store")

// ErrInvalidKey rejects empty or traversing keys.
var ErrInvalidKey = errors.New("invalid object key")

// keyTokenLen is the hex length of the random segment in generated keys.
const keyTokenLen = 12

// NewKey builds "<owner-hash>/<unixMillis>-<token>-<sanitized name>", or
// just the timestamped name when owner is empty. The random token keeps
// uploads made in the same millisecond apart.
func NewKey(owner, fileName string, now time.Time) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	base := fmt.Sprintf("%d-%s-%s", now.UnixMilli(), keyToken(), name)
	if strings.TrimSpace(owner) == "" {
		return base, nil
	}
	return path.Join(util.HashUserKey(owner), base), nil
}

func keyToken() string {
	id := uuid.New()
	return hex.EncodeToString(id[:keyTokenLen/2])
}

// BaseName returns the display file name embedded in a key. Keys written
// before the random token was added carry only the timestamp.
func BaseName(key string) string {
	name := path.Base(key)
	i := strings.IndexByte(name, '-')
	if i <= 0 || !isDigits(name[:i]) {
		return name
	}
	name = name[i+1:]
	if len(name) > keyTokenLen && name[keyTokenLen] == '-' && isHex(name[:keyTokenLen]) {
		return name[keyTokenLen+1:]
	}
	return name
}

// ValidateKey rejects keys that could escape the store root.
func ValidateKey(key string) error {
	clean := strings.TrimSpace(key)
	if clean == "" || strings.HasPrefix(clean, "/") || strings.Contains(clean, "..") || strings.Contains(clean, "\\") {
		return ErrInvalidKey
	}
	return nil
}

// Locator maps keys to reference URLs and back for one bucket.
type Locator struct {
	// BaseURL is the URL prefix under which keys are addressed.
	BaseURL string
	Bucket  string
	Prefix  string
}

// URL joins the base URL, prefix and key.
func (l Locator) URL(key string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/" + ApplyPrefix(l.Prefix, key)
}

// Key resolves a bare key, a reference produced by URL, a virtual-hosted
// S3 URL or a path-style S3 URL to the store key.
func (l Locator) Key(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidKey
	}
	if !strings.Contains(ref, "://") {
		key := strings.TrimLeft(ref, "/")
		return l.stripPrefix(key)
	}

	base := strings.TrimRight(l.BaseURL, "/")
	if base != "" && strings.HasPrefix(ref, base+"/") {
		rest := strings.SplitN(strings.TrimPrefix(ref, base+"/"), "?", 2)[0]
		return l.unescapeAndStrip(rest)
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	host := strings.ToLower(u.Hostname())
	p := strings.TrimLeft(u.Path, "/")

	if l.Bucket != "" {
		bucket := strings.ToLower(l.Bucket)
		// virtual-hosted style: <bucket>.s3.<region>.amazonaws.com/<key>
		if strings.HasPrefix(host, bucket+".s3.") || strings.HasPrefix(host, bucket+".s3-") {
			return l.unescapeAndStrip(p)
		}
		// path style: s3.<region>.amazonaws.com/<bucket>/<key>
		if (strings.HasPrefix(host, "s3.") || strings.HasPrefix(host, "s3-")) && strings.HasPrefix(p, l.Bucket+"/") {
			return l.unescapeAndStrip(strings.TrimPrefix(p, l.Bucket+"/"))
		}
	}
	return "", ErrForeignReference
}

func (l Locator) unescapeAndStrip(raw string) (string, error) {
	key, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return l.stripPrefix(key)
}

func (l Locator) stripPrefix(key string) (string, error) {
	prefix := NormalizePrefix(l.Prefix)
	if prefix != "" && strings.HasPrefix(key, prefix+"/") {
		key = strings.TrimPrefix(key, prefix+"/")
	}
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// NormalizePrefix trims whitespace and slashes.
func NormalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

// ApplyPrefix joins prefix and key with a single slash.
func ApplyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

// InlineDisposition renders the Content-Disposition used by view URLs.
func InlineDisposition(fileName string) string {
	name := strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(fileName)
	return fmt.Sprintf(`inline; filename="%s"`, name)
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil && s != ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
