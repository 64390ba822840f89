package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "sjsage522/dealscout/pkg/errors"
	"sjsage522/dealscout/services/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	u, err := ParseURL(" https://www.arabam.com/ilan/x/1 ")
	require.NoError(t, err)
	assert.Equal(t, "www.arabam.com", u.Hostname())

	for _, bad := range []string{"", "/ilan/1", "ftp://arabam.com/", "https://"} {
		_, err := ParseURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestStaticSource(t *testing.T) {
	s, err := NewStaticSource("https://www.arabam.com/ilan/x/1", `<h1>Clio</h1>`)
	require.NoError(t, err)

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Clio", snap.Doc.Find("h1").Text())
	assert.Equal(t, "/ilan/x/1", snap.URL.Path)

	select {
	case <-s.Mutations():
		t.Fatal("no mutation expected before any update")
	default:
	}

	// Bursts coalesce into one pending signal
	s.Update(`<h1>Egea</h1>`)
	s.Update(`<h1>Megane</h1>`)
	<-s.Mutations()
	select {
	case <-s.Mutations():
		t.Fatal("signals should coalesce")
	default:
	}

	snap, err = s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Megane", snap.Doc.Find("h1").Text())

	require.NoError(t, s.Navigate("https://www.arabam.com/ikinci-el/otomobil", `<table></table>`))
	<-s.Mutations()
	assert.Equal(t, "/ikinci-el/otomobil", s.URL().Path)

	require.NoError(t, s.Close())
	_, ok := <-s.Mutations()
	assert.False(t, ok)
	s.Update("ignored")
	_, err = s.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHTTPSourceSnapshot(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Language"), "tr-TR")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><h1>Renault Clio</h1></body></html>`)
	}))
	defer ts.Close()

	s, err := NewHTTPSource(ts.URL+"/ilan/x/1", nil, 0)
	require.NoError(t, err)
	assert.Nil(t, s.Mutations())

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Renault Clio", snap.Doc.Find("h1").Text())
}

func TestHTTPSourceBlocksRateLimitedHost(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := cache.NewMemoryCache()
	s, err := NewHTTPSource(ts.URL+"/ilan/x/1", c, time.Minute)
	require.NoError(t, err)

	_, err = s.Snapshot(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimit))

	_, err = c.Get(cache.FetchBlockKey(s.URL().Hostname()))
	assert.NoError(t, err)

	_, err = s.Snapshot(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimit))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPSourceNetworkError(t *testing.T) {
	s, err := NewHTTPSource("https://www.arabam.com/ilan/x/1", nil, 0)
	require.NoError(t, err)
	s.fetch = func(context.Context, string) (io.Reader, error) {
		return nil, fmt.Errorf("connection reset")
	}

	_, err = s.Snapshot(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))
}

func TestFactory(t *testing.T) {
	f := &Factory{}
	src, err := f.Open(context.Background(), "https://www.arabam.com/ilan/x/1")
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)

	_, err = (&Factory{Kind: "carrier-pigeon"}).Open(context.Background(), "https://www.arabam.com/")
	assert.Error(t, err)
}

func TestNewSnapshotKeepsURL(t *testing.T) {
	u, _ := ParseURL("https://www.sahibinden.com/otomobil")
	snap, err := NewSnapshot(u, strings.NewReader(`<p>x</p>`))
	require.NoError(t, err)
	assert.Equal(t, u, snap.URL)
	assert.Equal(t, u, snap.Doc.Url)
}
