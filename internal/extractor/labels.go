package extractor

import (
	"sjsage522/dealscout/helpers"
	"sjsage522/dealscout/internal/listing"
)

// labelFields maps normalized specs-table labels to fields.
// Keys are folded with helpers.NormalizeLabel.
var labelFields = map[string]listing.Field{
	"fiyat":           listing.FieldPrice,
	"konum":           listing.FieldLocation,
	"il / ilçe":       listing.FieldLocation,
	"marka":           listing.FieldBrand,
	"seri":            listing.FieldSeries,
	"model":           listing.FieldModel,
	"marka / model":   listing.FieldBrandModel,
	"yıl":             listing.FieldYear,
	"model yılı":      listing.FieldYear,
	"kilometre":       listing.FieldKilometer,
	"km":              listing.FieldKilometer,
	"yakıt":           listing.FieldFuelType,
	"yakıt tipi":      listing.FieldFuelType,
	"vites":           listing.FieldGearType,
	"vites tipi":      listing.FieldGearType,
	"renk":            listing.FieldColor,
	"kasa tipi":       listing.FieldBodyType,
	"motor gücü":      listing.FieldEnginePower,
	"motor hacmi":     listing.FieldEngineVolume,
	"çekiş":           listing.FieldDrivetrain,
	"garanti":         listing.FieldWarranty,
	"ağır hasarlı":    listing.FieldHeavyDamage,
	"ağır hasar":      listing.FieldHeavyDamage,
	"plaka / uyruk":   listing.FieldPlate,
	"kimden":          listing.FieldSellerType,
	"takas":           listing.FieldTradeIn,
	"ilan tarihi":     listing.FieldListingDate,
}

var listingNoLabels = map[string]struct{}{
	"ilan no":       {},
	"ilan numarası": {},
}

// changedMarkers are the headings that open the changed-parts section
var changedMarkers = map[string]struct{}{
	"değişen parçalar": {},
	"değişen":          {},
	"changed parts":    {},
}

// LookupLabel maps a specs-table label to a field
func LookupLabel(label string) (listing.Field, bool) {
	f, ok := labelFields[helpers.NormalizeLabel(label)]
	return f, ok
}

func isChangedMarker(text string) bool {
	_, ok := changedMarkers[helpers.NormalizeLabel(text)]
	return ok
}
