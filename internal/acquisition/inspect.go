package acquisition

import (
	"context"

	"sjsage522/dealscout/internal/extractor"
	"sjsage522/dealscout/internal/page"
	apperrors "sjsage522/dealscout/pkg/errors"
)

// Inspector runs a single extraction on demand, without forwarding
type Inspector struct {
	registry *extractor.Registry
	opener   page.Opener
}

// NewInspector creates an inspector; opener fetches pages when no HTML is given
func NewInspector(registry *extractor.Registry, opener page.Opener) *Inspector {
	return &Inspector{registry: registry, opener: opener}
}

// Inspect extracts rawURL. When html is not empty it is used as the document
// instead of opening the page.
func (i *Inspector) Inspect(ctx context.Context, rawURL, html string) (extractor.Attempt, error) {
	u, err := page.ParseURL(rawURL)
	if err != nil {
		return extractor.Attempt{}, apperrors.NewValidation("inspect", err.Error())
	}

	strategy, ok := i.registry.ResolveURL(u)
	if !ok {
		return extractor.Attempt{}, apperrors.NewUnsupported(rawURL)
	}

	var src page.Source
	if html != "" {
		src, err = page.NewStaticSource(rawURL, html)
	} else {
		src, err = i.opener.Open(ctx, rawURL)
	}
	if err != nil {
		return extractor.Attempt{}, err
	}
	defer src.Close()

	snap, err := src.Snapshot(ctx)
	if err != nil {
		return extractor.Attempt{}, err
	}

	// A browser may have been redirected somewhere else
	if redirected, ok := i.registry.ResolveURL(snap.URL); ok {
		strategy = redirected
	}

	return extractor.Run(strategy, snap.Doc, snap.URL)
}
