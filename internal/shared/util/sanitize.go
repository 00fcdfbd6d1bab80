package util

import (
	"errors"
	"strings"
)

const maxFileNameLen = 128

// SanitizeFileName removes path separators, rejects traversal patterns and
// replaces characters that would need escaping in an object key or URL.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	if s == "" {
		return "", errors.New("invalid file name")
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > maxFileNameLen {
		out = out[len(out)-maxFileNameLen:]
	}
	if strings.Trim(out, "_.") == "" {
		return "", errors.New("invalid file name")
	}
	return out, nil
}
