package extractor

import (
	"net/url"

	"sjsage522/dealscout/helpers"
	"sjsage522/dealscout/internal/listing"
)

// idFromLastDigits takes the trailing number of a URL path
func idFromLastDigits(u *url.URL) (string, error) {
	return helpers.TrailingDigits(u.Path), nil
}

var arabamDetail = DetailConfig{
	Name:  "arabam-detail",
	Site:  listing.SiteArabam,
	Title: append(Sel(".product-name-container h1", ".product-title", "h1"), Container(".product-detail-wrapper")),
	ListingID: Sel(
		"[class*='advert-no']",
		"[class*='listing-id']",
		".ad-id",
	),
	NumericID: true,
	IDFromURL: idFromLastDigits,
	Specs: &SpecsTable{
		Row:   ".product-properties-details .property-item",
		Label: ".property-key",
		Value: ".property-value",
	},
	Fields: map[listing.Field][]Candidate{
		listing.FieldBrandModel: Sel(".brand-model", "[class*='brand']", "[class*='make']"),
		listing.FieldPrice: append(
			Sel(".product-price", ".desktop-information-price", "[class*='price']", ".price"),
			Container(".product-info"),
		),
		listing.FieldKilometer:    Sel("[class*='kilometer']", "[data-testid='kilometer']"),
		listing.FieldFuelType:     Sel("[class*='fuel']", "[data-testid='fuel-type']"),
		listing.FieldGearType:     Sel("[class*='gear']", "[class*='transmission']", "[data-testid='gear']"),
		listing.FieldColor:        Sel("[class*='color']", "[data-testid='color']"),
		listing.FieldLocation:     Sel(".product-location", "[class*='city']", "[class*='location']", ".province"),
		listing.FieldYear:         Sel("[class*='year']", "[data-testid='year']", ".model-year"),
		listing.FieldListingDate:  Sel("[class*='listing-date']", ".advert-date"),
		listing.FieldHeavyDamage:  Sel("[class*='heavy-damage']", "[class*='hasar']"),
		listing.FieldEnginePower:  Sel("[class*='engine-power']"),
		listing.FieldEngineVolume: Sel("[class*='engine-volume']"),
	},
	Damage: &DamageList{
		Items:  ".car-damage-info-list li",
		Marker: ".damage-heading",
	},
	CaptureRaw: true,
}

var arabamList = ListConfig{
	Name:  "arabam-list",
	Site:  listing.SiteArabam,
	Row:   "tr.listing-list-item",
	Title: Sel("td.listing-modelname .listing-text-new", "td.listing-modelname h3", "td.listing-modelname"),
	Link: []Candidate{
		AttrOf("a.link-overlay", "href"),
		AttrOf("td.listing-modelname a", "href"),
		AttrOf("a", "href"),
	},
	ListingID:  []Candidate{AttrOf("", "data-id")},
	NumericID:  true,
	IDFromLink: idFromLastDigits,
	Fields: map[listing.Field][]Candidate{
		listing.FieldPrice:       Sel("td.listing-price .db", "td.listing-price"),
		listing.FieldYear:        Sel("td.listing-year"),
		listing.FieldKilometer:   Sel("td.listing-km"),
		listing.FieldColor:       Sel("td.listing-color"),
		listing.FieldLocation:    Sel("td.listing-location"),
		listing.FieldListingDate: Sel("td.listing-date"),
	},
}
