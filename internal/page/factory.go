package page

import (
	"context"
	"fmt"
	"time"

	"sjsage522/dealscout/services/cache"
)

const (
	KindHTTP    = "http"
	KindBrowser = "browser"
)

// Opener opens a live page for a URL
type Opener interface {
	Open(ctx context.Context, rawURL string) (Source, error)
}

// Factory opens pages of the configured kind
type Factory struct {
	Kind      string
	Cache     cache.CacheService
	BlockTime time.Duration
	Browser   BrowserOptions
}

// Open creates a source for rawURL
func (f *Factory) Open(ctx context.Context, rawURL string) (Source, error) {
	switch f.Kind {
	case "", KindHTTP:
		return NewHTTPSource(rawURL, f.Cache, f.BlockTime)
	case KindBrowser:
		return NewBrowserSource(ctx, rawURL, f.Browser)
	default:
		return nil, fmt.Errorf("unknown page source %q", f.Kind)
	}
}
