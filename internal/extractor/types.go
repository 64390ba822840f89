package extractor

import (
	"net/url"

	"sjsage522/dealscout/internal/listing"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is the site-specific extraction logic for one kind of page
type Strategy interface {
	// Name identifies the strategy in logs
	Name() string

	// Site returns the source the strategy reads
	Site() listing.Site

	// PageKind is fixed per strategy
	PageKind() listing.PageKind
}

// DetailStrategy extracts one listing from a detail page
type DetailStrategy interface {
	Strategy
	ExtractDetail(doc *goquery.Document, pageURL *url.URL) (*listing.Record, error)
}

// ListStrategy extracts partial listings from a list page
type ListStrategy interface {
	Strategy
	ExtractList(doc *goquery.Document, pageURL *url.URL) ([]listing.Record, error)
}

// ElementHandler is a custom lookup evaluated against a selection
type ElementHandler func(*goquery.Selection) string

// IDExtractorFunc pulls a listing id out of a URL
type IDExtractorFunc func(*url.URL) (string, error)

// Candidate is one lookup in a field's fallback chain
type Candidate struct {
	// Selector is evaluated relative to the root; empty means the root itself
	Selector string

	// Attr reads an attribute instead of the text
	Attr string

	// Handler replaces the selector lookup entirely
	Handler ElementHandler

	// Container marks noisy container text: tried only after every other
	// candidate came back empty, and capped to MaxContainerText
	Container bool
}

// MaxContainerText caps the text taken from a container candidate
const MaxContainerText = 300

// SpecsTable describes a labeled key/value list
type SpecsTable struct {
	Row   string
	Label string
	Value string
}

// DamageList describes a flat damage-history list where a heading element
// separates painted parts from changed parts
type DamageList struct {
	Items string

	// Marker optionally identifies the boundary element by selector;
	// elements whose text is a known boundary label always count
	Marker string
}

// DetailConfig configures a detail-page strategy
type DetailConfig struct {
	Name       string
	Site       listing.Site
	Title      []Candidate
	ListingID  []Candidate
	NumericID  bool
	IDFromURL  IDExtractorFunc
	Fields     map[listing.Field][]Candidate
	Specs      *SpecsTable
	Damage     *DamageList
	CaptureRaw bool
}

// ListConfig configures a list-page strategy
type ListConfig struct {
	Name        string
	Site        listing.Site
	Row         string
	ClassFilter string
	Title       []Candidate
	Link        []Candidate
	ListingID   []Candidate
	NumericID   bool
	IDFromLink  IDExtractorFunc
	Fields      map[listing.Field][]Candidate
}

// Attempt is the outcome of one strategy run against one snapshot
type Attempt struct {
	Strategy string           `json:"strategy"`
	Site     listing.Site     `json:"site"`
	Kind     listing.PageKind `json:"page_type"`
	Detail   *listing.Record  `json:"detail,omitempty"`
	Rows     []listing.Record `json:"rows,omitempty"`
}

// Sufficient reports whether the attempt is worth forwarding to storage
func (a Attempt) Sufficient() bool {
	switch a.Kind {
	case listing.PageDetail:
		return listing.Sufficient(a.Detail)
	case listing.PageList:
		return listing.SufficientBatch(a.Rows)
	default:
		return false
	}
}
