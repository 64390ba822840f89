package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"sjsage522/dealscout/helpers"
	apperrors "sjsage522/dealscout/pkg/errors"
	"sjsage522/dealscout/services/cache"
)

// HTTPSource fetches the page on every snapshot. It cannot observe
// mutations. A host that rate limits us is blocked for BlockTime.
type HTTPSource struct {
	pageURL   *url.URL
	cacheSvc  cache.CacheService
	blockTime time.Duration

	fetch func(ctx context.Context, url string) (io.Reader, error)
}

// NewHTTPSource creates a source for rawURL; cacheSvc may be nil
func NewHTTPSource(rawURL string, cacheSvc cache.CacheService, blockTime time.Duration) (*HTTPSource, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &HTTPSource{
		pageURL:   u,
		cacheSvc:  cacheSvc,
		blockTime: blockTime,
		fetch:     helpers.FetchWithRandomHeaders,
	}, nil
}

func (s *HTTPSource) URL() *url.URL { return s.pageURL }

// Mutations is always nil for a fetched page
func (s *HTTPSource) Mutations() <-chan struct{} { return nil }

func (s *HTTPSource) Close() error { return nil }

// Snapshot fetches and parses the page
func (s *HTTPSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	host := s.pageURL.Hostname()
	blockKey := cache.FetchBlockKey(host)

	// Check if the host is rate limited
	if s.cacheSvc != nil {
		if _, err := s.cacheSvc.Get(blockKey); err == nil {
			return nil, apperrors.NewRateLimit(host, s.blockTime)
		}
	}

	body, err := s.fetch(ctx, s.pageURL.String())
	if err != nil {
		var rle *helpers.RateLimitedError
		if errors.As(err, &rle) {
			if s.cacheSvc != nil && s.blockTime > 0 {
				s.cacheSvc.Set(blockKey, []byte(fmt.Sprintf("%d", int(s.blockTime/time.Second))), s.blockTime)
			}
			return nil, apperrors.NewRateLimit(host, s.blockTime)
		}
		return nil, apperrors.NewNetwork(host, "fetch failed", err)
	}

	return NewSnapshot(s.pageURL, body)
}
