package extractor

import (
	"net/url"
	"strings"

	"sjsage522/dealscout/helpers"
	"sjsage522/dealscout/internal/listing"
)

// productIDFromURL reads the product code after "-p-"
func productIDFromURL(u *url.URL) (string, error) {
	id, err := helpers.GetSplitPart(u.Path, "-p-", 1)
	if err != nil {
		return "", err
	}
	return strings.Trim(id, "/"), nil
}

var hepsiburadaDetail = DetailConfig{
	Name:      "hepsiburada-detail",
	Site:      listing.SiteHepsiburada,
	Title:     Sel("h1", "[data-testid='product-title']"),
	ListingID: []Candidate{AttrOf("[data-sku]", "data-sku")},
	IDFromURL: productIDFromURL,
	Fields: map[listing.Field][]Candidate{
		listing.FieldPrice: Sel("[data-testid='product-price']", "[data-test-id='price-current-price']", "[class*='price']"),
		listing.FieldBrand: Sel("[data-test-id='brand']", "a[class*='brand']"),
	},
	CaptureRaw: true,
}
