package object

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewKeyEmbedsTimestamp(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	key, err := NewKey("", "My CV.pdf", now)
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	if !strings.HasPrefix(key, "1700000000123-") || !strings.HasSuffix(key, "-My_CV.pdf") {
		t.Fatalf("unexpected key %q", key)
	}
	if len(key) != len("1700000000123--My_CV.pdf")+keyTokenLen {
		t.Fatalf("expected a %d char token in %q", keyTokenLen, key)
	}
	if BaseName(key) != "My_CV.pdf" {
		t.Fatalf("unexpected base name %q", BaseName(key))
	}

	owned, err := NewKey("user-1", "cv.pdf", now)
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	if !strings.Contains(owned, "/1700000000123-") || !strings.HasSuffix(owned, "-cv.pdf") {
		t.Fatalf("expected owner namespace, got %q", owned)
	}
	if BaseName(owned) != "cv.pdf" {
		t.Fatalf("unexpected base name %q", BaseName(owned))
	}
}

func TestNewKeyUniqueWithinMillisecond(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := NewKey("user-1", "cv.pdf", now)
		if err != nil {
			t.Fatalf("new key: %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key %q at a fixed timestamp", key)
		}
		seen[key] = true
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"abc/1700000000000-0a1b2c3d4e5f-cv.pdf": "cv.pdf",
		"abc/1700000000000-cv.pdf":              "cv.pdf",
		"1700000000000-my-cv.pdf":               "my-cv.pdf",
		"abc/cv.pdf":                            "cv.pdf",
	}
	for key, want := range tests {
		if got := BaseName(key); got != want {
			t.Fatalf("BaseName(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestNewKeyRejectsTraversal(t *testing.T) {
	if _, err := NewKey("u", "../../x.pdf", time.Now()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLocatorKey(t *testing.T) {
	t.Parallel()

	l := Locator{
		BaseURL: "https://socio-scan1.s3.ap-south-1.amazonaws.com",
		Bucket:  "socio-scan1",
		Prefix:  "resumes",
	}

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr error
	}{
		{name: "own url", ref: l.URL("abc/1-cv.pdf"), want: "abc/1-cv.pdf"},
		{name: "virtual hosted legacy region", ref: "https://socio-scan1.s3.amazonaws.com/resumes/1-cv.pdf", want: "1-cv.pdf"},
		{name: "path style", ref: "https://s3.ap-south-1.amazonaws.com/socio-scan1/resumes/abc/1-cv.pdf", want: "abc/1-cv.pdf"},
		{name: "escaped", ref: "https://socio-scan1.s3.ap-south-1.amazonaws.com/resumes/1-my%20cv.pdf", want: "1-my cv.pdf"},
		{name: "bare key", ref: "abc/1-cv.pdf", want: "abc/1-cv.pdf"},
		{name: "query string ignored", ref: l.URL("1-cv.pdf") + "?X-Amz-Signature=abc", want: "1-cv.pdf"},
		{name: "foreign bucket", ref: "https://other.s3.amazonaws.com/1-cv.pdf", wantErr: ErrForeignReference},
		{name: "foreign host", ref: "https://example.com/cv.pdf", wantErr: ErrForeignReference},
		{name: "traversal", ref: "../secret", wantErr: ErrInvalidKey},
		{name: "empty", ref: " ", wantErr: ErrInvalidKey},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := l.Key(tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Key(%q) error = %v, want %v", tt.ref, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Key(%q) unexpected error: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Fatalf("Key(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/file.pdf", want: "user/file.pdf"},
		{name: "simple prefix", prefix: "root", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/user/file.pdf", want: "root/user/file.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "user/file.pdf", want: "root/sub/user/file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ApplyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("ApplyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestInlineDisposition(t *testing.T) {
	got := InlineDisposition(`cv"final".pdf`)
	if got != `inline; filename="cvfinal.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
}
