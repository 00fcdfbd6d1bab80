package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"socioscan-backend/internal/shared/apperr"
)

const (
	// DefaultTimeout bounds a single fetch including the body transfer.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBytes caps the transferred body.
	DefaultMaxBytes int64 = 10 << 20
	// DefaultMaxRedirects caps redirect chains.
	DefaultMaxRedirects = 5
	// DefaultUserAgent identifies the fetcher to remote hosts.
	DefaultUserAgent = "SocioScan/1.0 (+resume-fetch)"
)

// StatusError is the cause of a fetch failure caused by a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP status %d", e.URL, e.StatusCode)
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// ErrTooLarge is the cause when the body exceeds the size cap.
var ErrTooLarge = errors.New("response body exceeds size limit")

// FetchOptions configures a Fetcher. Zero values use the defaults.
type FetchOptions struct {
	Timeout      time.Duration
	MaxBytes     int64
	MaxRedirects int
	UserAgent    string
	Transport    http.RoundTripper
}

// Fetcher performs bounded HTTP GETs.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// NewFetcher builds a Fetcher with redirect, size and time limits.
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	maxRedirects := opts.MaxRedirects
	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: opts.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &Fetcher{client: client, maxBytes: opts.MaxBytes, userAgent: opts.UserAgent}
}

// Fetch downloads the body at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	const op = "extract.fetch"

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, apperr.New(apperr.KindValidation, op, "invalid resume URL", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, op, "invalid resume URL", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperr.FetchError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, apperr.New(apperr.KindFetch, op, fmt.Sprintf("HTTP status %d", resp.StatusCode), &StatusError{URL: redact(parsed), StatusCode: resp.StatusCode})
	}
	if resp.ContentLength > f.maxBytes {
		return nil, apperr.New(apperr.KindFetch, op, "resume too large", nonRetryable{ErrTooLarge})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, apperr.FetchError(op, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, apperr.New(apperr.KindFetch, op, "resume too large", nonRetryable{ErrTooLarge})
	}
	return body, nil
}

// IsNotFound reports whether err came from a 404 or 410 response.
func IsNotFound(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone
}

// StatusCode returns the HTTP status that caused err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

type nonRetryable struct{ err error }

func (n nonRetryable) Error() string   { return n.err.Error() }
func (n nonRetryable) Unwrap() error   { return n.err }
func (n nonRetryable) Retryable() bool { return false }

// redact drops the query string so signatures never reach logs.
func redact(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	c.Fragment = ""
	return c.String()
}
