package helpers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchWithRandomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("Accept-Language"), "tr-TR")
		assert.NotEmpty(t, r.Header.Get("Referer"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>Merhaba Dünya</body></html>"))
	}))
	defer server.Close()

	reader, err := FetchWithRandomHeaders(context.Background(), server.URL)
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Merhaba Dünya")
}

func TestFetchWithRandomHeadersNonUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1254")
		w.WriteHeader(http.StatusOK)
		// "Yıl" in windows-1254: 0xFD is dotless i
		w.Write([]byte("<html><body>Y\xfdl</body></html>"))
	}))
	defer server.Close()

	reader, err := FetchWithRandomHeaders(context.Background(), server.URL)
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Yıl")
}

func TestFetchWithRandomHeadersError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := FetchWithRandomHeaders(context.Background(), server.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")

	serverRateLimited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer serverRateLimited.Close()

	_, err = FetchWithRandomHeaders(context.Background(), serverRateLimited.URL)
	var rateLimited *RateLimitedError
	require.True(t, errors.As(err, &rateLimited))
	assert.Equal(t, "60", rateLimited.RetryAfter)
}

func TestFetchWithRandomHeadersCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FetchWithRandomHeaders(ctx, "http://127.0.0.1:1/")
	assert.Error(t, err)
}
