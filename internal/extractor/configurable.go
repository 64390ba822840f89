package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"sjsage522/dealscout/helpers"
	"sjsage522/dealscout/internal/listing"
	apperrors "sjsage522/dealscout/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

var errNoDocument = errors.New("no document")

// ConfigurableDetail is a detail strategy driven by a DetailConfig
type ConfigurableDetail struct {
	config DetailConfig
}

// NewDetailStrategy creates a detail strategy from its configuration
func NewDetailStrategy(config DetailConfig) *ConfigurableDetail {
	return &ConfigurableDetail{config: config}
}

func (d *ConfigurableDetail) Name() string               { return d.config.Name }
func (d *ConfigurableDetail) Site() listing.Site         { return d.config.Site }
func (d *ConfigurableDetail) PageKind() listing.PageKind { return listing.PageDetail }

// ExtractDetail reads one listing from the document. Fields that cannot be
// found stay empty; an empty record is not an error.
func (d *ConfigurableDetail) ExtractDetail(doc *goquery.Document, pageURL *url.URL) (*listing.Record, error) {
	if doc == nil {
		return nil, errNoDocument
	}
	root := doc.Selection
	c := d.config

	rec := &listing.Record{
		Site:     c.Site,
		PageKind: listing.PageDetail,
		Title:    firstText(root, c.Title),
	}
	if pageURL != nil {
		rec.SourceURL = pageURL.String()
	}

	// The labeled table is the most precise source, so it goes first and the
	// fuzzy per-field chains only fill what it left empty.
	if c.Specs != nil {
		applySpecs(root, c.Specs, rec)
	}
	for field, chain := range c.Fields {
		if !rec.Has(field) {
			rec.Set(field, firstText(root, chain))
		}
	}

	rec.ListingID = cleanID(rec.ListingID, c.NumericID)
	if rec.ListingID == "" {
		rec.ListingID = cleanID(firstText(root, c.ListingID), c.NumericID)
	}
	// A URL id alone would make a half-loaded page look complete
	if rec.ListingID == "" && c.IDFromURL != nil && pageURL != nil && hasContent(rec) {
		if id, err := c.IDFromURL(pageURL); err == nil {
			rec.ListingID = cleanID(id, c.NumericID)
		}
	}

	if c.Damage != nil {
		rec.PaintedParts, rec.ChangedParts = damageParts(root, c.Damage)
	}

	if c.CaptureRaw {
		if html, err := doc.Find("body").Html(); err == nil {
			rec.Raw = helpers.Truncate(html, listing.MaxRawBytes)
		}
	}

	return rec, nil
}

func hasContent(rec *listing.Record) bool {
	return rec.Title != "" || len(rec.Attributes) > 0
}

// ConfigurableList is a list strategy driven by a ListConfig
type ConfigurableList struct {
	config ListConfig
}

// NewListStrategy creates a list strategy from its configuration
func NewListStrategy(config ListConfig) *ConfigurableList {
	return &ConfigurableList{config: config}
}

func (l *ConfigurableList) Name() string               { return l.config.Name }
func (l *ConfigurableList) Site() listing.Site         { return l.config.Site }
func (l *ConfigurableList) PageKind() listing.PageKind { return listing.PageList }

// ExtractList reads every row of the list. Rows without an id and a title
// are dropped.
func (l *ConfigurableList) ExtractList(doc *goquery.Document, pageURL *url.URL) ([]listing.Record, error) {
	if doc == nil {
		return nil, errNoDocument
	}
	rows := doc.Find(l.config.Row)
	return processRows(l.config.Name, rows, func(s *goquery.Selection) *listing.Record {
		return l.processRow(s, pageURL)
	}), nil
}

func (l *ConfigurableList) processRow(s *goquery.Selection, pageURL *url.URL) *listing.Record {
	c := l.config

	// Skip if the row has a class to filter out
	if c.ClassFilter != "" && s.HasClass(c.ClassFilter) {
		return nil
	}

	rec := &listing.Record{
		Site:     c.Site,
		PageKind: listing.PageList,
		Title:    firstText(s, c.Title),
	}

	link := resolveLink(pageURL, firstText(s, c.Link))
	switch {
	case link != "":
		rec.SourceURL = link
	case pageURL != nil:
		rec.SourceURL = pageURL.String()
	}

	rec.ListingID = cleanID(firstText(s, c.ListingID), c.NumericID)
	if rec.ListingID == "" && link != "" && c.IDFromLink != nil {
		if u, err := url.Parse(link); err == nil {
			if id, err := c.IDFromLink(u); err == nil {
				rec.ListingID = cleanID(id, c.NumericID)
			}
		}
	}

	for field, chain := range c.Fields {
		rec.Set(field, firstText(s, chain))
	}

	if rec.ListingID == "" && strings.TrimSpace(rec.Title) == "" {
		return nil
	}
	return rec
}

// Run executes a strategy against a snapshot. A panicking strategy is turned
// into an attempt error so the caller's loop keeps going.
func Run(s Strategy, doc *goquery.Document, pageURL *url.URL) (attempt Attempt, err error) {
	attempt = Attempt{Strategy: s.Name(), Site: s.Site(), Kind: s.PageKind()}

	defer func() {
		if r := recover(); r != nil {
			attempt.Detail, attempt.Rows = nil, nil
			err = apperrors.NewAttempt(s.Name(), "strategy panicked", fmt.Errorf("%v", r))
		}
	}()

	switch attempt.Kind {
	case listing.PageDetail:
		ds, ok := s.(DetailStrategy)
		if !ok {
			return attempt, apperrors.NewAttempt(s.Name(), "strategy cannot read detail pages", nil)
		}
		rec, err := ds.ExtractDetail(doc, pageURL)
		if err != nil {
			return attempt, apperrors.NewAttempt(s.Name(), "detail extraction failed", err)
		}
		attempt.Detail = rec
	case listing.PageList:
		ls, ok := s.(ListStrategy)
		if !ok {
			return attempt, apperrors.NewAttempt(s.Name(), "strategy cannot read list pages", nil)
		}
		rows, err := ls.ExtractList(doc, pageURL)
		if err != nil {
			return attempt, apperrors.NewAttempt(s.Name(), "list extraction failed", err)
		}
		attempt.Rows = rows
	default:
		return attempt, apperrors.NewAttempt(s.Name(), fmt.Sprintf("unknown page kind %q", attempt.Kind), nil)
	}

	return attempt, nil
}
