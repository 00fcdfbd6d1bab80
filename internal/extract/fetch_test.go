package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socioscan-backend/internal/shared/apperr"
)

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("resume-bytes"))
	}))
	defer server.Close()

	body, err := NewFetcher(FetchOptions{}).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "resume-bytes", string(body))
}

func TestFetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewFetcher(FetchOptions{}).Fetch(context.Background(), server.URL+"/cv.pdf?X-Amz-Signature=secret")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.Fetch))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.NotContains(t, err.Error(), "secret")
	assert.False(t, apperr.Retryable(err), "4xx must not be retried")
}

func TestFetch_ServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewFetcher(FetchOptions{}).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, apperr.Retryable(err))
}

func TestFetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(strings.Repeat("a", 2048)))
	}))
	defer server.Close()

	_, err := NewFetcher(FetchOptions{MaxBytes: 1024}).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.False(t, apperr.Retryable(err))
}

func TestFetch_RedirectCap(t *testing.T) {
	var hits atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		http.Redirect(w, r, fmt.Sprintf("%s/hop/%d", server.URL, n), http.StatusFound)
	}))
	defer server.Close()

	_, err := NewFetcher(FetchOptions{MaxRedirects: 5}).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.Fetch)
	assert.LessOrEqual(t, hits.Load(), int32(6))
}

func TestFetch_FollowsShortRedirectChain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/b", http.StatusFound) })
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	server := httptest.NewServer(mux)
	defer server.Close()

	body, err := NewFetcher(FetchOptions{}).Fetch(context.Background(), server.URL+"/a")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	_, err := NewFetcher(FetchOptions{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.Fetch)
}

func TestFetch_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "ftp://example.com/cv.pdf", "file:///etc/passwd"} {
		_, err := NewFetcher(FetchOptions{}).Fetch(context.Background(), raw)
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, apperr.Validation, raw)
	}
}
