package extractor

import (
	"net/url"
	"strings"
	"sync"

	"sjsage522/dealscout/helpers"
	"sjsage522/dealscout/internal/listing"
	"sjsage522/dealscout/logger"

	"github.com/PuerkitoBio/goquery"
)

// Sel builds a chain of plain selector candidates
func Sel(selectors ...string) []Candidate {
	out := make([]Candidate, 0, len(selectors))
	for _, s := range selectors {
		out = append(out, Candidate{Selector: s})
	}
	return out
}

// AttrOf builds a candidate reading attr from the first match of selector
func AttrOf(selector, attr string) Candidate {
	return Candidate{Selector: selector, Attr: attr}
}

// Container builds a last-resort candidate over a noisy container
func Container(selector string) Candidate {
	return Candidate{Selector: selector, Container: true}
}

// Handle builds a candidate from a custom handler
func Handle(h ElementHandler) Candidate {
	return Candidate{Handler: h}
}

// lookup evaluates a single candidate, "" when it does not match
func (c Candidate) lookup(root *goquery.Selection) string {
	if c.Handler != nil {
		return helpers.CleanText(c.Handler(root))
	}

	sel := root
	if c.Selector != "" {
		sel = root.Find(c.Selector).First()
	}
	if sel.Length() == 0 {
		return ""
	}

	if c.Attr != "" {
		v, _ := sel.Attr(c.Attr)
		return strings.TrimSpace(v)
	}
	return helpers.CleanText(sel.Text())
}

// firstText walks a fallback chain in order and returns the first non-empty value.
// Container candidates only run once every precise candidate came back empty.
func firstText(root *goquery.Selection, chain []Candidate) string {
	for _, c := range chain {
		if c.Container {
			continue
		}
		if v := c.lookup(root); v != "" {
			return v
		}
	}
	for _, c := range chain {
		if !c.Container {
			continue
		}
		if v := helpers.Truncate(c.lookup(root), MaxContainerText); v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// applySpecs reads a label/value table into the record. Rows with an unknown
// label are ignored; the first row for a field wins.
func applySpecs(root *goquery.Selection, table *SpecsTable, rec *listing.Record) {
	root.Find(table.Row).Each(func(_ int, row *goquery.Selection) {
		label := helpers.NormalizeLabel(row.Find(table.Label).First().Text())
		value := helpers.CleanText(row.Find(table.Value).First().Text())
		if label == "" || value == "" {
			return
		}

		if _, ok := listingNoLabels[label]; ok {
			if rec.ListingID == "" {
				rec.ListingID = value
			}
			return
		}

		field, ok := LookupLabel(label)
		if !ok || rec.Has(field) {
			return
		}
		rec.Set(field, value)
	})
}

// partItem is one element of a damage list
type partItem struct {
	text   string
	marker bool
}

// PartitionParts splits a flat damage list at the first boundary heading.
// Items before it are painted, items after it are changed, and the heading
// itself belongs to neither.
func PartitionParts(items []string) (painted, changed []string) {
	parts := make([]partItem, 0, len(items))
	for _, it := range items {
		parts = append(parts, partItem{text: it, marker: isChangedMarker(it)})
	}
	return partition(parts)
}

func partition(items []partItem) (painted, changed []string) {
	afterMarker := false
	for _, it := range items {
		if it.marker {
			afterMarker = true
			continue
		}
		text := helpers.CleanText(it.text)
		if text == "" {
			continue
		}
		if afterMarker {
			changed = append(changed, text)
		} else {
			painted = append(painted, text)
		}
	}
	return painted, changed
}

// damageParts reads and partitions a damage list
func damageParts(root *goquery.Selection, list *DamageList) (painted, changed []string) {
	var items []partItem
	root.Find(list.Items).Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		marker := isChangedMarker(text)
		if !marker && list.Marker != "" && s.Is(list.Marker) {
			marker = true
		}
		items = append(items, partItem{text: text, marker: marker})
	})
	return partition(items)
}

// resolveLink makes an href absolute against the page it was found on.
// Non-http schemes are dropped.
func resolveLink(pageURL *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if pageURL != nil {
		ref = pageURL.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

// processRows runs processor over every row in parallel. Row order is kept,
// rows the processor rejects are dropped, and a panicking row is dropped
// without taking the others down.
func processRows(name string, rows *goquery.Selection, processor func(*goquery.Selection) *listing.Record) []listing.Record {
	slots := make([]*listing.Record, rows.Length())
	var wg sync.WaitGroup

	rows.Each(func(i int, s *goquery.Selection) {
		wg.Add(1)
		go func(i int, s *goquery.Selection) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.ForSite(name).Warn().
						Int("row", i).
						Interface("panic", r).
						Msg("Row extraction panicked")
				}
			}()

			slots[i] = processor(s)
		}(i, s)
	})

	wg.Wait()

	var out []listing.Record
	for _, rec := range slots {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}

func cleanID(id string, numeric bool) string {
	id = strings.TrimSpace(id)
	if numeric {
		return helpers.TrailingDigits(id)
	}
	return id
}
