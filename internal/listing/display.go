package listing

// Labeled is a field ready to be shown or written into a prompt
type Labeled struct {
	Field Field  `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// displayOrder is the order and Turkish label of the fields a user sees
var displayOrder = []struct {
	field Field
	label string
}{
	{FieldBrandModel, "Marka/Model"},
	{FieldPrice, "Fiyat"},
	{FieldYear, "Yıl"},
	{FieldKilometer, "Kilometre"},
	{FieldFuelType, "Yakıt Tipi"},
	{FieldGearType, "Vites"},
	{FieldColor, "Renk"},
	{FieldBodyType, "Kasa Tipi"},
	{FieldLocation, "Konum"},
	{FieldListingDate, "İlan Tarihi"},
	{FieldHeavyDamage, "Ağır Hasar"},
	{FieldEnginePower, "Motor Gücü"},
	{FieldEngineVolume, "Motor Hacmi"},
	{FieldDrivetrain, "Çekiş"},
	{FieldWarranty, "Garanti"},
	{FieldPlate, "Plaka / Uyruk"},
	{FieldSellerType, "Kimden"},
	{FieldTradeIn, "Takas"},
}

// DisplayFields returns the observed fields in display order, listing id included.
// An empty result means nothing usable was extracted.
func DisplayFields(r *Record) []Labeled {
	var out []Labeled
	if r.Title != "" {
		out = append(out, Labeled{Field: "title", Label: "Başlık", Value: r.Title})
	}
	for _, d := range displayOrder {
		if v := r.Get(d.field); v != "" {
			out = append(out, Labeled{Field: d.field, Label: d.label, Value: v})
		}
	}
	if r.ListingID != "" {
		out = append(out, Labeled{Field: "listing_no", Label: "İlan No", Value: r.ListingID})
	}
	return out
}
