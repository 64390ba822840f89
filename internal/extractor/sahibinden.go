package extractor

import (
	"sjsage522/dealscout/internal/listing"

	"github.com/PuerkitoBio/goquery"
)

// sahibindenListPaths are the search result sections the list strategy reads
var sahibindenListPaths = []string{"/otomobil", "/vasita", "/arazi-suv-pickup", "/emlak", "/satilik", "/kiralik"}

// nthAttribute reads the n-th generic attribute cell of a search row
func nthAttribute(n int) ElementHandler {
	return func(s *goquery.Selection) string {
		return s.Find("td.searchResultsAttributeValue").Eq(n).Text()
	}
}

var sahibindenDetail = DetailConfig{
	Name:      "sahibinden-detail",
	Site:      listing.SiteSahibinden,
	Title:     Sel(".classifiedDetailTitle h1", ".classifiedTitle", "h1[class*='title']", "h1"),
	NumericID: true,
	IDFromURL: idFromLastDigits,
	Specs: &SpecsTable{
		Row:   "ul.classifiedInfoList li",
		Label: "strong",
		Value: "span",
	},
	Fields: map[listing.Field][]Candidate{
		listing.FieldPrice: append(
			Sel(".classifiedInfo h3", ".priceContainer", "[class*='price']", ".classifiedPrice"),
			Container(".classifiedInfo"),
		),
		listing.FieldLocation: Sel(".classifiedInfo h2", ".location", "[class*='location']"),
	},
	Damage: &DamageList{
		Items: "#classifiedDamageInfo li",
	},
	CaptureRaw: true,
}

var sahibindenList = ListConfig{
	Name:        "sahibinden-list",
	Site:        listing.SiteSahibinden,
	Row:         "tr.searchResultsItem",
	ClassFilter: "nativeAd",
	Title:       Sel("a.classifiedTitle", "td.searchResultsTitleValue"),
	Link:        []Candidate{AttrOf("a.classifiedTitle", "href"), AttrOf("td.searchResultsTitleValue a", "href")},
	ListingID:   []Candidate{AttrOf("", "data-id")},
	NumericID:   true,
	IDFromLink:  idFromLastDigits,
	Fields: map[listing.Field][]Candidate{
		listing.FieldPrice:       Sel("td.searchResultsPriceValue span", "td.searchResultsPriceValue"),
		listing.FieldYear:        {Handle(nthAttribute(0))},
		listing.FieldKilometer:   {Handle(nthAttribute(1))},
		listing.FieldColor:       {Handle(nthAttribute(2))},
		listing.FieldListingDate: Sel("td.searchResultsDateValue"),
		listing.FieldLocation:    Sel("td.searchResultsLocationValue"),
	},
}
