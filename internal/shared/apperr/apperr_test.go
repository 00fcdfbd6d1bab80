package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := StorageError("object.put", cause)
	wrapped := fmt.Errorf("upload: %w", err)

	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, Storage)
	assert.NotErrorIs(t, wrapped, Fetch)
	assert.Equal(t, KindStorage, KindOf(wrapped))
	assert.Contains(t, err.Error(), "object.put")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ValidationError("op", "bad"), http.StatusBadRequest},
		{AuthError("op", nil), http.StatusUnauthorized},
		{FetchError("op", nil), http.StatusBadGateway},
		{ParseError("op", nil), http.StatusUnprocessableEntity},
		{StorageError("op", nil), http.StatusServiceUnavailable},
		{New(KindNotFound, "op", "missing", nil), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestRetryOnlyRetriesTransientKinds(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	cases := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"fetch", FetchError("fetch", errors.New("503")), 3},
		{"storage", StorageError("put", errors.New("timeout")), 3},
		{"validation", ValidationError("upload", "missing file"), 1},
		{"parse", ParseError("extract", errors.New("bad xref")), 1},
		{"plain", errors.New("boom"), 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			err := Retry(context.Background(), policy, func(ctx context.Context) error {
				calls++
				return tc.err
			})
			require.Error(t, err)
			assert.Equal(t, tc.wantCalls, calls)
		})
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{Attempts: 5, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return FetchError("fetch", errors.New("reset"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
