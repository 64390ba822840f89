package page

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
)

// ErrClosed is returned by a closed source
var ErrClosed = errors.New("page closed")

// StaticSource serves HTML handed to it, for pages whose document arrives
// over the API instead of being fetched
type StaticSource struct {
	mu        sync.Mutex
	pageURL   *url.URL
	html      string
	mutations chan struct{}
	closed    bool
}

// NewStaticSource creates a source over a fixed document
func NewStaticSource(rawURL, html string) (*StaticSource, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &StaticSource{
		pageURL:   u,
		html:      html,
		mutations: make(chan struct{}, 1),
	}, nil
}

// URL returns the current location
func (s *StaticSource) URL() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageURL
}

// Snapshot parses the current document
func (s *StaticSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	u, html := s.pageURL, s.html
	s.mu.Unlock()

	return NewSnapshot(u, strings.NewReader(html))
}

// Mutations signals every Update and Navigate
func (s *StaticSource) Mutations() <-chan struct{} {
	return s.mutations
}

// Update replaces the document as a script on the page would
func (s *StaticSource) Update(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.html = html
	signal(s.mutations)
}

// Navigate moves to another location without a page load
func (s *StaticSource) Navigate(rawURL, html string) error {
	u, err := ParseURL(rawURL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.pageURL, s.html = u, html
	signal(s.mutations)
	return nil
}

// Close stops mutation signals
func (s *StaticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.mutations)
	}
	return nil
}
