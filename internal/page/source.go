// Package page provides the live documents an acquisition session reads:
// a plain HTTP fetch, a headless browser tab that reports DOM mutations,
// and a static document for pages pushed in from elsewhere.
package page

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is the document as of one moment
type Snapshot struct {
	URL *url.URL
	Doc *goquery.Document
}

// Source is a live page
type Source interface {
	// URL returns the current location
	URL() *url.URL

	// Snapshot reads the current document
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Mutations signals structural document changes. A nil channel means
	// the source cannot observe mutations. Signals are coalesced.
	Mutations() <-chan struct{}

	// Close releases the page
	Close() error
}

// NewSnapshot parses an HTML document read from r
func NewSnapshot(pageURL *url.URL, r io.Reader) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("HTML parse error: %w", err)
	}
	if pageURL != nil {
		doc.Url = pageURL
	}
	return &Snapshot{URL: pageURL, Doc: doc}, nil
}

// ParseURL parses an absolute http(s) page URL
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid page url %q: need an absolute http(s) url", rawURL)
	}
	return u, nil
}

// signal does a non-blocking send so bursts collapse into one pending signal
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
