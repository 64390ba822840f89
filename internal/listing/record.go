// Package listing holds the normalized listing record and the rules that
// decide its identity, whether an extraction is worth keeping, and how a new
// extraction merges into what is already known.
package listing

import (
	"strings"
	"time"

	"sjsage522/dealscout/helpers"
)

// Site identifies a supported source
type Site string

const (
	SiteArabam      Site = "arabam"
	SiteSahibinden  Site = "sahibinden"
	SiteHepsiburada Site = "hepsiburada"
)

// KnownSites lists every site a record may belong to
var KnownSites = []Site{SiteArabam, SiteSahibinden, SiteHepsiburada}

// PageKind tells whether a page shows one listing or many
type PageKind string

const (
	PageList   PageKind = "list"
	PageDetail PageKind = "detail"
)

// Field is a scalar attribute of a listing
type Field string

const (
	FieldPrice        Field = "price"
	FieldLocation     Field = "location"
	FieldBrandModel   Field = "brand_model"
	FieldBrand        Field = "brand"
	FieldSeries       Field = "series"
	FieldModel        Field = "model"
	FieldYear         Field = "year"
	FieldKilometer    Field = "kilometer"
	FieldFuelType     Field = "fuel_type"
	FieldGearType     Field = "gear_type"
	FieldColor        Field = "color"
	FieldBodyType     Field = "body_type"
	FieldEnginePower  Field = "engine_power"
	FieldEngineVolume Field = "engine_volume"
	FieldDrivetrain   Field = "drivetrain"
	FieldWarranty     Field = "warranty"
	FieldHeavyDamage  Field = "heavy_damage"
	FieldPlate        Field = "plate"
	FieldSellerType   Field = "seller_type"
	FieldTradeIn      Field = "trade_in"
	FieldListingDate  Field = "listing_date"
)

// MaxRawBytes caps the diagnostic page capture
const MaxRawBytes = 10000

// Record is the persisted knowledge about one listing.
// An empty string or empty slice always means "not observed".
type Record struct {
	ListingID    string           `json:"listing_no,omitempty"`
	Site         Site             `json:"site"`
	PageKind     PageKind         `json:"page_type,omitempty"`
	Title        string           `json:"title,omitempty"`
	Attributes   map[Field]string `json:"attributes,omitempty"`
	PaintedParts []string         `json:"painted_parts,omitempty"`
	ChangedParts []string         `json:"changed_parts,omitempty"`
	SourceURL    string           `json:"url,omitempty"`
	Raw          string           `json:"raw,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Get returns the value of a scalar field, "" when absent
func (r *Record) Get(f Field) string {
	if r.Attributes == nil {
		return ""
	}
	return r.Attributes[f]
}

// Set stores a scalar field; empty values are ignored
func (r *Record) Set(f Field, value string) {
	value = helpers.CleanText(value)
	if value == "" {
		return
	}
	if r.Attributes == nil {
		r.Attributes = make(map[Field]string)
	}
	r.Attributes[f] = value
}

// Has reports whether a scalar field was observed
func (r *Record) Has(f Field) bool {
	return r.Get(f) != ""
}

// Clone returns a deep copy
func (r Record) Clone() Record {
	out := r
	if r.Attributes != nil {
		out.Attributes = make(map[Field]string, len(r.Attributes))
		for k, v := range r.Attributes {
			out.Attributes[k] = v
		}
	}
	out.PaintedParts = append([]string(nil), r.PaintedParts...)
	out.ChangedParts = append([]string(nil), r.ChangedParts...)
	return out
}

// Normalize trims every value and drops the empty ones
func (r *Record) Normalize() {
	r.ListingID = strings.TrimSpace(r.ListingID)
	r.Title = helpers.CleanText(r.Title)
	r.SourceURL = strings.TrimSpace(r.SourceURL)
	r.Raw = helpers.Truncate(r.Raw, MaxRawBytes)
	for k, v := range r.Attributes {
		if v = helpers.CleanText(v); v == "" {
			delete(r.Attributes, k)
		} else {
			r.Attributes[k] = v
		}
	}
	if len(r.Attributes) == 0 {
		r.Attributes = nil
	}
	r.PaintedParts = cleanParts(r.PaintedParts)
	r.ChangedParts = cleanParts(r.ChangedParts)
}

func cleanParts(parts []string) []string {
	var out []string
	for _, p := range parts {
		if p = helpers.CleanText(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Key returns the identity key: site:listingId, falling back to
// site:title:<normalized title>. An empty key means the record has no identity.
func (r *Record) Key() string {
	if strings.TrimSpace(r.ListingID) != "" {
		return IDKey(r.Site, r.ListingID)
	}
	if title := TitleKey(r.Site, r.Title); title != "" {
		return title
	}
	return ""
}

// IDKey builds the identity key of a listing id
func IDKey(site Site, id string) string {
	return string(site) + ":" + strings.TrimSpace(id)
}

// TitleKey builds the degraded identity key of a title, "" for a blank title
func TitleKey(site Site, title string) string {
	title = helpers.NormalizeLabel(title)
	if title == "" {
		return ""
	}
	return string(site) + ":title:" + title
}

// Sufficient reports whether a detail extraction is worth forwarding:
// it needs an identity, a price, a title or a brand/model.
func Sufficient(r *Record) bool {
	if r == nil {
		return false
	}
	return strings.TrimSpace(r.ListingID) != "" ||
		strings.TrimSpace(r.Title) != "" ||
		r.Has(FieldPrice) ||
		r.Has(FieldBrandModel)
}

// SufficientBatch reports whether a list extraction parsed at least one row
func SufficientBatch(rows []Record) bool {
	return len(rows) > 0
}

// Brand returns the brand field, else the first word of brand/model
func (r *Record) Brand() string {
	if b := r.Get(FieldBrand); b != "" {
		return b
	}
	if bm := strings.Fields(r.Get(FieldBrandModel)); len(bm) > 0 {
		return bm[0]
	}
	return ""
}
